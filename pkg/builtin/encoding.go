package builtin

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/value"
)

func (r *Registry) registerEncoding() {
	r.Register("base64", r.namespace(map[string]*value.Function{
		"encode": r.fn("base64Encode", 1, r.builtinBase64Encode),
		"decode": r.fn("base64Decode", 1, r.builtinBase64Decode),
	}))
	r.Register("json", r.namespace(map[string]*value.Function{
		"parse":    r.fn("jsonParse", 1, r.builtinJSONParse),
		"generate": r.fn("jsonGenerate", 1, r.builtinJSONGenerate),
	}))
}

func (r *Registry) builtinBase64Encode(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "base64Encode")
	if err != nil {
		return nil, err
	}
	return r.track(value.NewStr(base64.StdEncoding.EncodeToString([]byte(data)))), nil
}

func (r *Registry) builtinBase64Decode(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "base64Decode")
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64")
	}
	return r.track(value.NewStr(string(decoded))), nil
}

// builtinJSONParse parses JSON text into smog values: JSON numbers
// become Int when they round-trip exactly, Float otherwise; JSON arrays
// become Array; JSON objects become Object with string-keyed properties.
// The properties are inserted while ranging over a Go map, so their
// order is not defined and need not match the JSON text.
func (r *Registry) builtinJSONParse(this value.Value, args []value.Value) (value.Value, error) {
	data, err := strArg(args, 0, "jsonParse")
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON")
	}
	return r.fromJSON(raw), nil
}

func (r *Registry) fromJSON(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		return x
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	case string:
		return r.track(value.NewStr(x))
	case []interface{}:
		elems := make([]value.Value, len(x))
		for i, e := range x {
			elems[i] = r.fromJSON(e)
		}
		return r.track(value.NewArray(elems))
	case map[string]interface{}:
		obj := r.track(value.NewObject(nil)).(*value.Object)
		for k, e := range x {
			obj.Set(r.track(value.NewStr(k)), r.fromJSON(e))
		}
		return obj
	default:
		return nil
	}
}

func (r *Registry) builtinJSONGenerate(this value.Value, args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return nil, argError("jsonGenerate", "one argument")
	}
	data, err := json.Marshal(toJSON(args[0]))
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate JSON")
	}
	return r.track(value.NewStr(string(data))), nil
}

func toJSON(v value.Value) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, int64, float64:
		return x
	case *value.Str:
		return x.Value
	case *value.Array:
		result := make([]interface{}, len(x.Elements))
		for i, e := range x.Elements {
			result[i] = toJSON(e)
		}
		return result
	case *value.Object:
		result := make(map[string]interface{}, len(x.Properties))
		for _, p := range x.Properties {
			result[value.Stringify(p.Key)] = toJSON(p.Value)
		}
		return result
	default:
		return nil
	}
}
