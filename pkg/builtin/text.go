package builtin

import (
	"regexp"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/value"
)

func (r *Registry) registerText() {
	r.Register("regex", r.namespace(map[string]*value.Function{
		"match":   r.fn("regexMatch", 2, r.builtinRegexMatch),
		"findAll": r.fn("regexFindAll", 2, r.builtinRegexFindAll),
		"replace": r.fn("regexReplace", 3, r.builtinRegexReplace),
	}))
}

func (r *Registry) builtinRegexMatch(this value.Value, args []value.Value) (value.Value, error) {
	pattern, err := strArg(args, 0, "regexMatch")
	if err != nil {
		return nil, err
	}
	text, err := strArg(args, 1, "regexMatch")
	if err != nil {
		return nil, err
	}
	matched, err := regexp.MatchString(pattern, text)
	if err != nil {
		return nil, errors.Wrap(err, "invalid regex pattern")
	}
	return matched, nil
}

func (r *Registry) builtinRegexFindAll(this value.Value, args []value.Value) (value.Value, error) {
	pattern, err := strArg(args, 0, "regexFindAll")
	if err != nil {
		return nil, err
	}
	text, err := strArg(args, 1, "regexFindAll")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "invalid regex pattern")
	}
	matches := re.FindAllString(text, -1)
	elements := make([]value.Value, len(matches))
	for i, m := range matches {
		elements[i] = r.track(value.NewStr(m))
	}
	return r.track(value.NewArray(elements)), nil
}

func (r *Registry) builtinRegexReplace(this value.Value, args []value.Value) (value.Value, error) {
	pattern, err := strArg(args, 0, "regexReplace")
	if err != nil {
		return nil, err
	}
	text, err := strArg(args, 1, "regexReplace")
	if err != nil {
		return nil, err
	}
	replacement, err := strArg(args, 2, "regexReplace")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "invalid regex pattern")
	}
	return r.track(value.NewStr(re.ReplaceAllString(text, replacement))), nil
}
