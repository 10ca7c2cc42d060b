package builtin

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/value"
)

func (r *Registry) registerRandom() {
	r.Register("random", r.namespace(map[string]*value.Function{
		"int":   r.fn("randomInt", 2, r.builtinRandomInt),
		"float": r.fn("randomFloat", 0, r.builtinRandomFloat),
		"bytes": r.fn("randomBytes", 1, r.builtinRandomBytes),
	}))
}

// builtinRandomInt generates a uniformly-distributed random integer in
// [min, max] using crypto/rand, matching the bootstrap primitives'
// choice of a cryptographically secure source over math/rand.
func (r *Registry) builtinRandomInt(this value.Value, args []value.Value) (value.Value, error) {
	min, err := intArg(args, 0, "randomInt")
	if err != nil {
		return nil, err
	}
	max, err := intArg(args, 1, "randomInt")
	if err != nil {
		return nil, err
	}
	if min > max {
		return nil, errors.New("min must be <= max")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate random number")
	}
	return n.Int64() + min, nil
}

func (r *Registry) builtinRandomFloat(this value.Value, args []value.Value) (value.Value, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, errors.Wrap(err, "failed to generate random float")
	}
	var n uint64
	for _, b := range buf {
		n = n<<8 | uint64(b)
	}
	return float64(n>>11) / float64(uint64(1)<<53), nil
}

func (r *Registry) builtinRandomBytes(this value.Value, args []value.Value) (value.Value, error) {
	n, err := intArg(args, 0, "randomBytes")
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, errors.Wrap(err, "failed to generate random bytes")
	}
	return r.track(value.NewStr(base64.StdEncoding.EncodeToString(buf))), nil
}
