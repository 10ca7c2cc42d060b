package builtin

import (
	"os"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/value"
)

func (r *Registry) registerIO() {
	r.Register("io", r.namespace(map[string]*value.Function{
		"fileRead":   r.fn("fileRead", 1, r.builtinFileRead),
		"fileWrite":  r.fn("fileWrite", 2, r.builtinFileWrite),
		"fileExists": r.fn("fileExists", 1, r.builtinFileExists),
		"fileDelete": r.fn("fileDelete", 1, r.builtinFileDelete),
	}))
}

func (r *Registry) builtinFileRead(this value.Value, args []value.Value) (value.Value, error) {
	path, err := strArg(args, 0, "fileRead")
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	return r.track(value.NewStr(string(content))), nil
}

func (r *Registry) builtinFileWrite(this value.Value, args []value.Value) (value.Value, error) {
	path, err := strArg(args, 0, "fileWrite")
	if err != nil {
		return nil, err
	}
	content, err := strArg(args, 1, "fileWrite")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, errors.Wrap(err, "failed to write file")
	}
	return nil, nil
}

func (r *Registry) builtinFileExists(this value.Value, args []value.Value) (value.Value, error) {
	path, err := strArg(args, 0, "fileExists")
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(path)
	return statErr == nil, nil
}

func (r *Registry) builtinFileDelete(this value.Value, args []value.Value) (value.Value, error) {
	path, err := strArg(args, 0, "fileDelete")
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil {
		return nil, errors.Wrap(err, "failed to delete file")
	}
	return nil, nil
}
