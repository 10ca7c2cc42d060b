package value

import (
	"hash/fnv"
	"math"
)

// Hash implements the Hash opcode: a total hash across every Value
// shape. Grounded on the reference implementation's Hash-for-Value: Null
// and each other shape hash a distinguishing tag first, then the
// payload; Object hashes its own properties (key, value, get, set) in
// order, so two Objects with structurally-equal own properties in the
// same order hash equal, matching their Eq behavior only when they are
// also the same handle (Object equality is identity, not structural —
// the hash is coarser than equality, which is always a legal hash/eq
// relationship).
func Hash(v Value) int64 {
	h := fnv.New64a()
	hashInto(h, v)
	return int64(h.Sum64())
}

func hashInto(h hashState, v Value) {
	switch x := v.(type) {
	case nil:
		writeTag(h, 0)
	case bool:
		writeTag(h, 1)
		if x {
			writeTag(h, 1)
		} else {
			writeTag(h, 0)
		}
	case int64:
		writeTag(h, 2)
		writeUint64(h, uint64(x))
	case float64:
		writeTag(h, 2)
		writeUint64(h, math.Float64bits(x))
	case *Str:
		writeTag(h, 3)
		_, _ = h.Write([]byte(x.Value))
	case *Array:
		writeTag(h, 4)
		writeUint64(h, uint64(len(x.Elements)))
		for _, e := range x.Elements {
			hashInto(h, e)
		}
	case *Object:
		writeTag(h, 5)
		for _, p := range x.Properties {
			hashInto(h, p.Key)
			hashInto(h, p.Value)
			if p.Get != nil {
				writeUint64(h, p.Get.GCID())
			}
			if p.Set != nil {
				writeUint64(h, p.Set.GCID())
			}
		}
	case *Function:
		writeTag(h, 6)
		writeUint64(h, x.GCID())
	default:
		writeTag(h, 7)
	}
}

type hashState interface {
	Write(p []byte) (n int, err error)
}

func writeTag(h hashState, tag byte) {
	_, _ = h.Write([]byte{tag})
}

func writeUint64(h hashState, v uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	_, _ = h.Write(buf[:])
}
