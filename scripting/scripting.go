// Package scripting pre-flight checks the JavaScript snippets a mountebank
// server executes for injection responses and predicates.
package scripting

import (
	"fmt"

	"github.com/dop251/goja"
)

// CheckFunction verifies that src is a JavaScript expression evaluating to a
// function, using the same engine the server side runs injections with. The
// expression is evaluated but never called, so checking has no side effects
// beyond what the expression itself does.
func CheckFunction(src string) error {
	vm := goja.New()
	value, err := vm.RunString("(" + src + ")")
	if err != nil {
		return fmt.Errorf("injection script does not compile: %w", err)
	}
	if _, ok := goja.AssertFunction(value); !ok {
		return fmt.Errorf("injection script does not evaluate to a function")
	}
	return nil
}
