package builtin

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/module"
	"github.com/kristofer/smog/pkg/value"
)

func (r *Registry) registerRequire() {
	r.Register("require", r.fn("require", 1, r.builtinRequire))
}

// builtinRequire implements the `require` module loader (§4.7): it
// reads and decodes a compiled module from disk and returns its exports
// object. Re-requiring the same resolved path within one process
// returns the cached Module's exports rather than re-running the codec,
// bounded by moduleCacheSize so long `repl` sessions don't grow
// unboundedly.
func (r *Registry) builtinRequire(this value.Value, args []value.Value) (value.Value, error) {
	path, err := strArg(args, 0, "require")
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "require: cannot resolve path")
	}

	if cached, ok := r.moduleCache.Get(abs); ok {
		m := cached.(*module.Module)
		return m.Exports, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.Wrap(err, "require: cannot read module file")
	}
	m, err := module.DecodeBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "require: module %s is malformed", abs)
	}
	m.Loader.Set(value.NewStr("path"), value.NewStr(abs))
	m.Loader.Set(value.NewStr("id"), value.NewStr(m.ID.String()))

	r.moduleCache.Add(abs, m)
	return m.Exports, nil
}
