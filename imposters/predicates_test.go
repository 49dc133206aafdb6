package imposters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vorobeyko/mbtest/imposters"
)

func TestPredicateStructure(t *testing.T) {
	predicate := imposters.NewPredicate()
	predicate.Path = "/users"
	predicate.Method = imposters.MethodGet

	expected := imposters.Structure{
		"equals": imposters.Structure{
			"path":   "/users",
			"method": "GET",
		},
		"caseSensitive": true,
	}
	assert.Equal(t, expected, predicate.AsStructure())
}

func TestPredicateRoundTrip(t *testing.T) {
	predicate := imposters.NewPredicate()
	predicate.Operator = imposters.OperatorStartsWith
	predicate.Path = "/users"
	predicate.Method = imposters.MethodPost
	predicate.Query = map[string]string{"page": "1"}
	predicate.Headers = map[string]string{"Accept": "application/json"}
	predicate.Body = "partial"
	predicate.CaseSensitive = false
	predicate.Xpath = "//user/name"

	parsed, err := imposters.HTTPPredicateFromStructure(predicate.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, predicate, parsed)
}

func TestPredicateInvalidMethod(t *testing.T) {
	_, err := imposters.HTTPPredicateFromStructure(imposters.Structure{
		"equals":        imposters.Structure{"method": "FETCH"},
		"caseSensitive": true,
	})
	requireKind(t, err, imposters.InvalidEnumValue)
}

func TestOperatorEnumFidelity(t *testing.T) {
	tags := []string{"equals", "deepEquals", "contains", "startsWith", "endsWith", "matches", "exists"}
	for _, tag := range tags {
		operator, err := imposters.ParseOperator(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, string(operator))
	}

	_, err := imposters.ParseOperator("soundsLike")
	requireKind(t, err, imposters.InvalidEnumValue)
}

func TestOperatorFromName(t *testing.T) {
	operator, err := imposters.OperatorFromName("DEEP_EQUALS")
	require.NoError(t, err)
	assert.Equal(t, imposters.OperatorDeepEquals, operator)

	_, err = imposters.OperatorFromName("deepEquals")
	requireKind(t, err, imposters.InvalidEnumValue)
}

func TestLogicPredicateRoundTrip(t *testing.T) {
	left := imposters.NewPredicate()
	left.Path = "/users"
	right := imposters.NewPredicate()
	right.Operator = imposters.OperatorContains
	right.Body = "Alice"

	and := imposters.NewAndPredicate(left, right)
	parsed, err := imposters.PredicateFromStructure(and.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, and, parsed)

	or := imposters.NewOrPredicate(left, right)
	parsed, err = imposters.PredicateFromStructure(or.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, or, parsed)

	not := imposters.NewNotPredicate(left)
	parsed, err = imposters.PredicateFromStructure(not.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, not, parsed)
}

func TestTcpPredicateDispatch(t *testing.T) {
	predicate := imposters.NewTcpPredicate("ABC")

	expected := imposters.Structure{
		"contains": imposters.Structure{"data": "ABC"},
	}
	assert.Equal(t, expected, predicate.AsStructure())

	parsed, err := imposters.PredicateFromStructure(predicate.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, predicate, parsed)
}

// contains with fields other than data stays an HTTP predicate.
func TestContainsBodyIsNotTcp(t *testing.T) {
	predicate := imposters.NewPredicate()
	predicate.Operator = imposters.OperatorContains
	predicate.Body = "fragment"

	parsed, err := imposters.PredicateFromStructure(predicate.AsStructure())
	require.NoError(t, err)
	assert.IsType(t, &imposters.Predicate{}, parsed)
}

func TestInjectionPredicateRoundTrip(t *testing.T) {
	predicate := imposters.NewInjectionPredicate("function (config) { return true; }")

	parsed, err := imposters.PredicateFromStructure(predicate.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, predicate, parsed)

	assert.NoError(t, predicate.Validate())
	assert.Error(t, imposters.NewInjectionPredicate("function ( {").Validate())
}

func TestPredicateDispatchRejectsUnknownShape(t *testing.T) {
	_, err := imposters.PredicateFromStructure(imposters.Structure{"soundsLike": imposters.Structure{}})
	requireKind(t, err, imposters.UnrecognizedShape)
}
