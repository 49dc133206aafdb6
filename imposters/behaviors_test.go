package imposters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vorobeyko/mbtest/imposters"
)

func TestUsingRegexRoundTrip(t *testing.T) {
	using := imposters.UsingRegex(`/users/(\d+)`)
	using.IgnoreCase = true

	expected := imposters.Structure{
		"method":   "regex",
		"selector": `/users/(\d+)`,
		"options":  imposters.Structure{"ignoreCase": true},
	}
	assert.Equal(t, expected, using.AsStructure())

	parsed, err := imposters.UsingFromStructure(using.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, using, *parsed)
}

func TestUsingXPathRoundTrip(t *testing.T) {
	using := imposters.UsingXPath("//mb:name", map[string]string{"mb": "http://example.com/mb"})

	parsed, err := imposters.UsingFromStructure(using.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, using, *parsed)
}

func TestUsingJSONPathRoundTrip(t *testing.T) {
	using := imposters.UsingJSONPath("$.name")

	expected := imposters.Structure{"method": "jsonpath", "selector": "$.name"}
	assert.Equal(t, expected, using.AsStructure())

	parsed, err := imposters.UsingFromStructure(using.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, using, *parsed)
}

func TestUsingUnknownMethod(t *testing.T) {
	_, err := imposters.UsingFromStructure(imposters.Structure{
		"method":   "css",
		"selector": ".name",
	})
	requireKind(t, err, imposters.InvalidEnumValue)
}

func TestUsingValidate(t *testing.T) {
	assert.NoError(t, imposters.UsingRegex(`/users/(\d+)`).Validate())
	assert.Error(t, imposters.UsingRegex(`/users/(`).Validate())

	assert.NoError(t, imposters.UsingJSONPath("$.name").Validate())
	assert.Error(t, imposters.UsingJSONPath("name").Validate())

	assert.NoError(t, imposters.UsingXPath("//name", nil).Validate())
	assert.Error(t, imposters.UsingXPath("//name[", nil).Validate())
}

func TestUsingApplyRegex(t *testing.T) {
	value, err := imposters.UsingRegex(`/users/(\d+)`).Apply("/users/123?name=Alice")
	require.NoError(t, err)
	assert.Equal(t, "123", value)

	value, err = imposters.UsingRegex(`/orders/(\d+)`).Apply("/users/123")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestUsingApplyRegexIgnoreCase(t *testing.T) {
	using := imposters.UsingRegex(`/USERS/(\d+)`)
	using.IgnoreCase = true

	value, err := using.Apply("/users/123")
	require.NoError(t, err)
	assert.Equal(t, "123", value)
}

func TestUsingApplyJSONPath(t *testing.T) {
	value, err := imposters.UsingJSONPath("$.name").Apply(map[string]interface{}{"name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", value)
}

func TestUsingApplyXPath(t *testing.T) {
	value, err := imposters.UsingXPath("//name", nil).Apply("<user><name>Alice</name></user>")
	require.NoError(t, err)
	assert.Equal(t, "Alice", value)
}

func TestCopyRoundTrip(t *testing.T) {
	c := imposters.NewCopy("path", "${ID}", imposters.UsingRegex(`/users/(\d+)`))

	parsed, err := imposters.CopyFromStructure(c.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, c, *parsed)
}

func TestCopyFromSubField(t *testing.T) {
	c := imposters.NewCopy(map[string]string{"query": "name"}, "${NAME}", imposters.UsingRegex(".*"))

	parsed, err := imposters.CopyFromStructure(c.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"query": "name"}, parsed.From)
}

func TestCopyMissingFields(t *testing.T) {
	_, err := imposters.CopyFromStructure(imposters.Structure{"into": "${ID}"})
	requireKind(t, err, imposters.MissingRequiredField)

	_, err = imposters.CopyFromStructure(imposters.Structure{"from": "path", "into": "${ID}"})
	requireKind(t, err, imposters.MissingRequiredField)
}

func TestKeyIndexOmittedWhenZero(t *testing.T) {
	key := imposters.NewKey("path", imposters.UsingRegex(".*"))
	assert.NotContains(t, key.AsStructure(), "index")

	key.Index = 2
	assert.Equal(t, 2, key.AsStructure()["index"])
}

func TestDatasourceRoundTrip(t *testing.T) {
	datasource := imposters.NewDatasource("users.csv", "id")
	assert.NotContains(t, datasource.AsStructure()["csv"], "delimiter")

	datasource.Delimiter = ";"
	parsed, err := imposters.DatasourceFromStructure(datasource.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, datasource, *parsed)
}

func TestLookupRoundTrip(t *testing.T) {
	lookup := imposters.NewLookup(
		imposters.NewKey("path", imposters.UsingRegex(`/users/(\d+)`)),
		imposters.NewDatasource("users.csv", "id"),
		"${row}",
	)

	parsed, err := imposters.LookupFromStructure(lookup.AsStructure())
	require.NoError(t, err)
	assert.Equal(t, lookup, *parsed)
}

func TestLookupMissingDatasource(t *testing.T) {
	structure := imposters.Structure{
		"key":  imposters.NewKey("path", imposters.UsingRegex(".*")).AsStructure(),
		"into": "${row}",
	}
	_, err := imposters.LookupFromStructure(structure)
	requireKind(t, err, imposters.MissingRequiredField)
}
