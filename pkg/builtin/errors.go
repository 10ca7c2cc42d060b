package builtin

import "github.com/pkg/errors"

// argError is the error shape every builtin returns for a malformed
// argument list, routed by the VM through the same exception-handler
// path as any other runtime error (§7, Type mismatch).
func argError(name, want string) error {
	return errors.Errorf("%s: expected %s", name, want)
}
