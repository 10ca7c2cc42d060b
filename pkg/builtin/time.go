package builtin

import (
	"time"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/value"
)

func (r *Registry) registerTime() {
	r.Register("time", r.namespace(map[string]*value.Function{
		"now":    r.fn("dateNow", 0, r.builtinDateNow),
		"format": r.fn("dateFormat", 2, r.builtinDateFormat),
		"parse":  r.fn("dateParse", 2, r.builtinDateParse),
		"year":   r.fn("timeYear", 1, timeComponent(func(t time.Time) int64 { return int64(t.Year()) })),
		"month":  r.fn("timeMonth", 1, timeComponent(func(t time.Time) int64 { return int64(t.Month()) })),
		"day":    r.fn("timeDay", 1, timeComponent(func(t time.Time) int64 { return int64(t.Day()) })),
		"hour":   r.fn("timeHour", 1, timeComponent(func(t time.Time) int64 { return int64(t.Hour()) })),
		"minute": r.fn("timeMinute", 1, timeComponent(func(t time.Time) int64 { return int64(t.Minute()) })),
		"second": r.fn("timeSecond", 1, timeComponent(func(t time.Time) int64 { return int64(t.Second()) })),
	}))
}

func intArg(args []value.Value, i int, name string) (int64, error) {
	if i >= len(args) {
		return 0, argError(name, "more arguments")
	}
	n, ok := args[i].(int64)
	if !ok {
		return 0, argError(name, "an Int argument")
	}
	return n, nil
}

func (r *Registry) builtinDateNow(this value.Value, args []value.Value) (value.Value, error) {
	return time.Now().Unix(), nil
}

func layoutFor(format string) string {
	switch format {
	case "iso8601", "ISO8601", "rfc3339", "RFC3339":
		return time.RFC3339
	case "date":
		return "2006-01-02"
	case "time":
		return "15:04:05"
	case "datetime":
		return "2006-01-02 15:04:05"
	default:
		return format
	}
}

func (r *Registry) builtinDateFormat(this value.Value, args []value.Value) (value.Value, error) {
	ts, err := intArg(args, 0, "dateFormat")
	if err != nil {
		return nil, err
	}
	format, err := strArg(args, 1, "dateFormat")
	if err != nil {
		return nil, err
	}
	return r.track(value.NewStr(time.Unix(ts, 0).UTC().Format(layoutFor(format)))), nil
}

func (r *Registry) builtinDateParse(this value.Value, args []value.Value) (value.Value, error) {
	dateStr, err := strArg(args, 0, "dateParse")
	if err != nil {
		return nil, err
	}
	format, err := strArg(args, 1, "dateParse")
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(layoutFor(format), dateStr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse date")
	}
	return t.Unix(), nil
}

func timeComponent(extract func(time.Time) int64) value.NativeFunc {
	return func(this value.Value, args []value.Value) (value.Value, error) {
		ts, err := intArg(args, 0, "time component")
		if err != nil {
			return nil, err
		}
		return extract(time.Unix(ts, 0).UTC()), nil
	}
}
