package builtin

import (
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/value"
)

func (r *Registry) registerNet() {
	r.Register("net", r.namespace(map[string]*value.Function{
		"httpGet":  r.fn("httpGet", 1, r.builtinHTTPGet),
		"httpPost": r.fn("httpPost", 2, r.builtinHTTPPost),
	}))
}

func (r *Registry) builtinHTTPGet(this value.Value, args []value.Value) (value.Value, error) {
	url, err := strArg(args, 0, "httpGet")
	if err != nil {
		return nil, err
	}
	resp, err := http.Get(url)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP GET failed")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return r.track(value.NewStr(string(body))), nil
}

func (r *Registry) builtinHTTPPost(this value.Value, args []value.Value) (value.Value, error) {
	url, err := strArg(args, 0, "httpPost")
	if err != nil {
		return nil, err
	}
	body, err := strArg(args, 1, "httpPost")
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "HTTP POST failed")
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return r.track(value.NewStr(string(respBody))), nil
}
