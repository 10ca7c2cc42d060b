// Package builtin implements the process-wide builtin registry from
// spec §4.7: a name -> Value(native Function) map consulted by the
// LoadBuiltin opcode. Recognized names are registered once at
// construction; callers may add more via Register (e.g. for an embedder
// exposing its own host functions).
package builtin

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/value"
)

// moduleCacheSize bounds the require loader's decoded-module cache so a
// long-running repl session that requires many files doesn't grow
// memory unboundedly.
const moduleCacheSize = 128

// Registry is a process-wide name -> Value map. The zero value is not
// usable; construct with New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]value.Value

	heap         *gc.Collector
	moduleCache  *lru.Cache
}

// New returns a Registry already populated with print, typeOf, array,
// amake, string, gc (a no-op here; pkg/vm registers the real one) and
// require, plus the io, crypto, compress, base64, json, regex, time,
// random and net namespace Objects. There is no `load` builtin and no
// math namespace. heap is used to track
// every heap cell a builtin allocates (arrays, strings, boxed objects).
func New(heap *gc.Collector) *Registry {
	cache, _ := lru.New(moduleCacheSize)
	r := &Registry{
		entries:     make(map[string]value.Value),
		heap:        heap,
		moduleCache: cache,
	}
	r.registerCore()
	r.registerIO()
	r.registerCrypto()
	r.registerCompression()
	r.registerEncoding()
	r.registerText()
	r.registerTime()
	r.registerRandom()
	r.registerNet()
	r.registerRequire()
	return r
}

// Get resolves a LoadBuiltin(name) lookup. ok is false on a miss, which
// the VM surfaces as a name-resolution runtime error.
func (r *Registry) Get(name string) (value.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[name]
	return v, ok
}

// Register adds or overwrites a name's binding.
func (r *Registry) Register(name string, v value.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = v
}

// track registers cell with the collector, returning it unchanged, so
// builtins can allocate heap cells inline: `return r.track(value.NewArray(elems)), nil`.
func (r *Registry) track(cell value.Heap) value.Value {
	r.heap.Track(cell)
	return cell
}

func (r *Registry) fn(name string, argc int, f value.NativeFunc) *value.Function {
	return r.track(value.NewNativeFunction(name, argc, f)).(*value.Function)
}

// namespace builds an Object whose own properties are native functions,
// used for the io/crypto/compress/base64/json/regex/time/random/net
// groupings registered by New.
func (r *Registry) namespace(methods map[string]*value.Function) *value.Object {
	obj := r.track(value.NewObject(nil)).(*value.Object)
	for name, fn := range methods {
		obj.Set(value.NewStr(name), fn)
	}
	return obj
}

func (r *Registry) registerCore() {
	r.Register("print", r.fn("print", -1, builtinPrint))
	r.Register("typeOf", r.fn("typeOf", 1, r.builtinTypeOf))
	r.Register("array", r.fn("array", -1, r.builtinArray))
	r.Register("amake", r.fn("amake", 1, r.builtinAmake))
	r.Register("string", r.fn("string", 1, r.builtinString))
	r.Register("gc", r.fn("gc", 0, builtinGCNoop))
}

func builtinGCNoop(this value.Value, args []value.Value) (value.Value, error) {
	// The VM intercepts the name "gc" directly (it alone has access to
	// the root set a collection cycle needs); this entry exists so
	// LoadBuiltin("gc") always resolves to *something* callable even
	// before the VM installs its own override.
	return nil, nil
}

func (r *Registry) builtinArray(this value.Value, args []value.Value) (value.Value, error) {
	elems := make([]value.Value, len(args))
	copy(elems, args)
	return r.track(value.NewArray(elems)), nil
}

func (r *Registry) builtinAmake(this value.Value, args []value.Value) (value.Value, error) {
	n, ok := args[0].(int64)
	if !ok || n < 0 {
		return nil, argError("amake", "a non-negative Int size")
	}
	elems := make([]value.Value, n)
	return r.track(value.NewArray(elems)), nil
}

func (r *Registry) builtinString(this value.Value, args []value.Value) (value.Value, error) {
	return r.track(value.NewStr(value.Stringify(args[0]))), nil
}

func (r *Registry) builtinTypeOf(this value.Value, args []value.Value) (value.Value, error) {
	return r.track(value.NewStr(value.TypeName(args[0]))), nil
}
