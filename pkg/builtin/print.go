package builtin

import (
	"fmt"
	"strings"

	"github.com/kristofer/smog/pkg/value"
)

func builtinPrint(this value.Value, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Stringify(a)
	}
	fmt.Println(strings.Join(parts, " "))
	return nil, nil
}
