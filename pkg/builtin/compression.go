package builtin

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/value"
)

func (r *Registry) registerCompression() {
	r.Register("compress", r.namespace(map[string]*value.Function{
		"zip":       r.fn("zipCompress", 1, r.builtinZipCompress),
		"unzip":     r.fn("zipDecompress", 1, r.builtinZipDecompress),
		"gzip":      r.fn("gzipCompress", 1, r.builtinGzipCompress),
		"gunzip":    r.fn("gzipDecompress", 1, r.builtinGzipDecompress),
	}))
}

func (r *Registry) builtinZipCompress(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "zipCompress")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("data")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zip entry")
	}
	if _, err := f.Write([]byte(data)); err != nil {
		return nil, errors.Wrap(err, "failed to write to zip")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close zip")
	}
	return r.track(value.NewStr(base64.StdEncoding.EncodeToString(buf.Bytes()))), nil
}

func (r *Registry) builtinZipDecompress(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "zipDecompress")
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64")
	}
	zr, err := zip.NewReader(bytes.NewReader(decoded), int64(len(decoded)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open zip")
	}
	if len(zr.File) == 0 {
		return nil, errors.New("zip archive is empty")
	}
	f, err := zr.File[0].Open()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open zip entry")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read zip entry")
	}
	return r.track(value.NewStr(string(content))), nil
}

func (r *Registry) builtinGzipCompress(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "gzipCompress")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(data)); err != nil {
		return nil, errors.Wrap(err, "failed to write to gzip")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close gzip")
	}
	return r.track(value.NewStr(base64.StdEncoding.EncodeToString(buf.Bytes()))), nil
}

func (r *Registry) builtinGzipDecompress(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "gzipDecompress")
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64")
	}
	gr, err := gzip.NewReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open gzip")
	}
	defer gr.Close()
	content, err := io.ReadAll(gr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read gzip")
	}
	return r.track(value.NewStr(string(content))), nil
}
