// Package imposters models the configuration documents understood by a
// mountebank-compatible service virtualization server. Each type maps both
// ways between its in-memory form and the nested key/value wire document the
// server's administrative API consumes, via AsStructure and a matching
// XxxFromStructure parser.
package imposters

import (
	"encoding/json"
	"reflect"

	"github.com/Vorobeyko/mbtest/internal/logging"
)

// Structure is mountebank's nested key/value wire document. Values are
// strings, numbers, booleans, nested mappings, or ordered sequences thereof.
type Structure map[string]interface{}

// Serializable is anything that can render itself as a wire document.
type Serializable interface {
	AsStructure() Structure
}

var log = logging.New("warn").WithScope("imposters")

// SetLogLevel adjusts the verbosity of the package's diagnostics. The library
// is silent below warn by default.
func SetLogLevel(level string) {
	log.SetLevel(level)
}

// JSON renders the document as JSON for the server's administrative API.
func (s Structure) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// StructureFromJSON decodes a JSON document fetched from the server.
func StructureFromJSON(data []byte) (Structure, error) {
	var s Structure
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// addIfTrue adds key to the document only when value is truthy. The server
// treats an absent key as "use the default", so falsy values are never
// emitted: nil, false, zero numbers, empty strings and empty collections all
// stay out of the document.
func addIfTrue(s Structure, key string, value interface{}) {
	if isTruthy(value) {
		s[key] = value
	}
}

func isTruthy(value interface{}) bool {
	if value == nil {
		return false
	}

	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}

	return true
}

// nestedStructure extracts a nested mapping, tolerating both the in-memory
// Structure form and the map form produced by encoding/json.
func nestedStructure(value interface{}) (Structure, bool) {
	switch v := value.(type) {
	case Structure:
		return v, true
	case map[string]interface{}:
		return Structure(v), true
	}
	return nil, false
}

// intValue coerces the numeric forms a document can carry. Documents decoded
// from JSON hold float64; in-memory round trips hold int.
func intValue(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// stringMapValue coerces header-style mappings from either the in-memory or
// the JSON-decoded form.
func stringMapValue(value interface{}) (map[string]string, bool) {
	switch v := value.(type) {
	case map[string]string:
		return v, true
	case map[string]interface{}:
		result := make(map[string]string, len(v))
		for key, raw := range v {
			s, ok := raw.(string)
			if !ok {
				return nil, false
			}
			result[key] = s
		}
		return result, true
	}
	return nil, false
}

// stringListValue coerces a value that the wire format allows as either a
// single string or a list of strings.
func stringListValue(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case string:
		return []string{v}, true
	case []string:
		return v, true
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, raw := range v {
			s, ok := raw.(string)
			if !ok {
				return nil, false
			}
			result = append(result, s)
		}
		return result, true
	}
	return nil, false
}

// structureList coerces a sequence of nested documents.
func structureList(value interface{}) ([]Structure, bool) {
	switch v := value.(type) {
	case []Structure:
		return v, true
	case []interface{}:
		result := make([]Structure, 0, len(v))
		for _, raw := range v {
			nested, ok := nestedStructure(raw)
			if !ok {
				return nil, false
			}
			result = append(result, nested)
		}
		return result, true
	}
	return nil, false
}
