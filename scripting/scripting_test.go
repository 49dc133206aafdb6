package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Vorobeyko/mbtest/scripting"
)

func TestCheckFunctionAcceptsFunctionExpressions(t *testing.T) {
	sources := []string{
		"function (config) { return { body: 'hi' }; }",
		"(config) => { return { statusCode: 201 }; }",
		"config => true",
	}
	for _, src := range sources {
		assert.NoError(t, scripting.CheckFunction(src))
	}
}

func TestCheckFunctionRejectsSyntaxErrors(t *testing.T) {
	assert.Error(t, scripting.CheckFunction("function (config { return; }"))
}

func TestCheckFunctionRejectsNonFunctions(t *testing.T) {
	assert.Error(t, scripting.CheckFunction("42"))
	assert.Error(t, scripting.CheckFunction("{ body: 'hi' }"))
}

func TestCheckFunctionDoesNotInvoke(t *testing.T) {
	// The expression is evaluated, not called; a function that would throw
	// when run still checks clean.
	assert.NoError(t, scripting.CheckFunction("function () { throw new Error('boom'); }"))
}
