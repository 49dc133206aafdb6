package imposters

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/oliveagle/jsonpath"
)

// SelectorMethod picks how a Using selector extracts a value.
type SelectorMethod string

const (
	// SelectorRegex extracts the first capture group of a regular expression.
	SelectorRegex SelectorMethod = "regex"
	// SelectorXPath extracts the inner text of an XPath match.
	SelectorXPath SelectorMethod = "xpath"
	// SelectorJSONPath extracts the value at a JSONPath.
	SelectorJSONPath SelectorMethod = "jsonpath"
)

// ParseSelectorMethod parses a selector method wire tag.
func ParseSelectorMethod(tag string) (SelectorMethod, error) {
	switch tag {
	case "regex":
		return SelectorRegex, nil
	case "xpath":
		return SelectorXPath, nil
	case "jsonpath":
		return SelectorJSONPath, nil
	}
	return "", newInvalidEnumError(fmt.Sprintf("%q is not a selector method", tag), tag)
}

// Using selects part of a captured request value for copy and lookup
// behaviors. IgnoreCase and Multiline apply to regex selectors, Ns to xpath
// selectors.
type Using struct {
	Method     SelectorMethod
	Selector   string
	IgnoreCase bool
	Multiline  bool
	Ns         map[string]string
}

// UsingRegex selects with a regular expression.
func UsingRegex(selector string) Using {
	return Using{Method: SelectorRegex, Selector: selector}
}

// UsingXPath selects with an XPath expression. ns maps namespace prefixes
// used in the selector to their URIs.
func UsingXPath(selector string, ns map[string]string) Using {
	return Using{Method: SelectorXPath, Selector: selector, Ns: ns}
}

// UsingJSONPath selects with a JSONPath expression.
func UsingJSONPath(selector string) Using {
	return Using{Method: SelectorJSONPath, Selector: selector}
}

// AsStructure renders the selector as a wire document.
func (u Using) AsStructure() Structure {
	structure := Structure{
		"method":   string(u.Method),
		"selector": u.Selector,
	}
	options := Structure{}
	addIfTrue(options, "ignoreCase", u.IgnoreCase)
	addIfTrue(options, "multiline", u.Multiline)
	addIfTrue(structure, "options", options)
	addIfTrue(structure, "ns", u.Ns)
	return structure
}

// UsingFromStructure rebuilds a selector from a wire document.
func UsingFromStructure(structure Structure) (*Using, error) {
	tag, ok := structure["method"].(string)
	if !ok {
		return nil, newMissingFieldError("method", structure)
	}
	method, err := ParseSelectorMethod(tag)
	if err != nil {
		return nil, err
	}
	selector, ok := structure["selector"].(string)
	if !ok {
		return nil, newMissingFieldError("selector", structure)
	}

	using := &Using{Method: method, Selector: selector}
	if options, ok := nestedStructure(structure["options"]); ok {
		if ignoreCase, ok := options["ignoreCase"].(bool); ok {
			using.IgnoreCase = ignoreCase
		}
		if multiline, ok := options["multiline"].(bool); ok {
			using.Multiline = multiline
		}
	}
	if raw, ok := structure["ns"]; ok {
		if ns, ok := stringMapValue(raw); ok {
			using.Ns = ns
		}
	}
	return using, nil
}

func (u Using) pattern() string {
	pattern := u.Selector
	if u.Multiline {
		pattern = "(?m)" + pattern
	}
	if u.IgnoreCase {
		pattern = "(?i)" + pattern
	}
	return pattern
}

// Validate compiles the selector so a malformed expression surfaces before
// the document reaches the server.
func (u Using) Validate() error {
	switch u.Method {
	case SelectorRegex:
		_, err := regexp.Compile(u.pattern())
		return err
	case SelectorXPath:
		_, err := xpath.Compile(u.Selector)
		return err
	case SelectorJSONPath:
		_, err := jsonpath.Compile(u.Selector)
		return err
	}
	return newInvalidEnumError(fmt.Sprintf("%q is not a selector method", u.Method), u.Method)
}

// Apply runs the selector against a captured value the same way the server
// does, for local verification of recorded captures. A selector that matches
// nothing returns nil.
func (u Using) Apply(value interface{}) (interface{}, error) {
	switch u.Method {
	case SelectorRegex:
		re, err := regexp.Compile(u.pattern())
		if err != nil {
			return nil, err
		}
		match := re.FindStringSubmatch(fmt.Sprint(value))
		if len(match) > 1 {
			return match[1], nil
		}
		if len(match) > 0 {
			return match[0], nil
		}
		return nil, nil
	case SelectorJSONPath:
		result, err := jsonpath.JsonPathLookup(value, u.Selector)
		if err != nil {
			log.Debugf("jsonpath lookup failed: %v", err)
			return nil, nil
		}
		return result, nil
	case SelectorXPath:
		text, ok := value.(string)
		if !ok {
			return nil, nil
		}
		doc, err := xmlquery.Parse(strings.NewReader(text))
		if err != nil {
			return nil, err
		}
		node := xmlquery.FindOne(doc, u.Selector)
		if node == nil {
			return nil, nil
		}
		return node.InnerText(), nil
	}
	return nil, newInvalidEnumError(fmt.Sprintf("%q is not a selector method", u.Method), u.Method)
}

// Copy takes a value from the request and substitutes it for a token in the
// response. From names the request field to read, either as a string or as a
// single-entry mapping naming a sub-field (for example {"query": "name"}).
type Copy struct {
	From  interface{}
	Into  string
	Using Using
}

// NewCopy creates a copy behavior.
func NewCopy(from interface{}, into string, using Using) Copy {
	return Copy{From: from, Into: into, Using: using}
}

// AsStructure renders the behavior as a wire document.
func (c Copy) AsStructure() Structure {
	return Structure{
		"from":  c.From,
		"into":  c.Into,
		"using": c.Using.AsStructure(),
	}
}

// CopyFromStructure rebuilds a Copy from a wire document.
func CopyFromStructure(structure Structure) (*Copy, error) {
	from, ok := structure["from"]
	if !ok {
		return nil, newMissingFieldError("from", structure)
	}
	if fields, ok := stringMapValue(from); ok {
		from = fields
	}
	into, ok := structure["into"].(string)
	if !ok {
		return nil, newMissingFieldError("into", structure)
	}
	usingStructure, ok := nestedStructure(structure["using"])
	if !ok {
		return nil, newMissingFieldError("using", structure)
	}
	using, err := UsingFromStructure(usingStructure)
	if err != nil {
		return nil, err
	}
	return &Copy{From: from, Into: into, Using: *using}, nil
}

// Key identifies the lookup key to extract from the request.
type Key struct {
	From  interface{}
	Using Using
	Index int
}

// NewKey creates a lookup key.
func NewKey(from interface{}, using Using) Key {
	return Key{From: from, Using: using}
}

// AsStructure renders the key as a wire document.
func (k Key) AsStructure() Structure {
	structure := Structure{
		"from":  k.From,
		"using": k.Using.AsStructure(),
	}
	addIfTrue(structure, "index", k.Index)
	return structure
}

// KeyFromStructure rebuilds a Key from a wire document.
func KeyFromStructure(structure Structure) (*Key, error) {
	from, ok := structure["from"]
	if !ok {
		return nil, newMissingFieldError("from", structure)
	}
	if fields, ok := stringMapValue(from); ok {
		from = fields
	}
	usingStructure, ok := nestedStructure(structure["using"])
	if !ok {
		return nil, newMissingFieldError("using", structure)
	}
	using, err := UsingFromStructure(usingStructure)
	if err != nil {
		return nil, err
	}
	key := &Key{From: from, Using: *using}
	if raw, ok := structure["index"]; ok {
		if index, ok := intValue(raw); ok {
			key.Index = index
		}
	}
	return key, nil
}

// Datasource is the CSV file a lookup behavior reads rows from.
type Datasource struct {
	Path      string
	KeyColumn string
	Delimiter string
}

// NewDatasource creates a CSV datasource with the server's default comma
// delimiter.
func NewDatasource(path, keyColumn string) Datasource {
	return Datasource{Path: path, KeyColumn: keyColumn}
}

// AsStructure renders the datasource as a wire document.
func (d Datasource) AsStructure() Structure {
	csv := Structure{
		"path":      d.Path,
		"keyColumn": d.KeyColumn,
	}
	addIfTrue(csv, "delimiter", d.Delimiter)
	return Structure{"csv": csv}
}

// DatasourceFromStructure rebuilds a Datasource from a wire document.
func DatasourceFromStructure(structure Structure) (*Datasource, error) {
	csv, ok := nestedStructure(structure["csv"])
	if !ok {
		return nil, newMissingFieldError("csv", structure)
	}
	path, ok := csv["path"].(string)
	if !ok {
		return nil, newMissingFieldError("csv.path", structure)
	}
	keyColumn, ok := csv["keyColumn"].(string)
	if !ok {
		return nil, newMissingFieldError("csv.keyColumn", structure)
	}
	datasource := &Datasource{Path: path, KeyColumn: keyColumn}
	if delimiter, ok := csv["delimiter"].(string); ok {
		datasource.Delimiter = delimiter
	}
	return datasource, nil
}

// Lookup finds a row in a datasource keyed by a value extracted from the
// request, then substitutes row columns for tokens in the response.
type Lookup struct {
	Key        Key
	Datasource Datasource
	Into       string
}

// NewLookup creates a lookup behavior.
func NewLookup(key Key, datasource Datasource, into string) Lookup {
	return Lookup{Key: key, Datasource: datasource, Into: into}
}

// AsStructure renders the behavior as a wire document.
func (l Lookup) AsStructure() Structure {
	return Structure{
		"key":            l.Key.AsStructure(),
		"fromDataSource": l.Datasource.AsStructure(),
		"into":           l.Into,
	}
}

// LookupFromStructure rebuilds a Lookup from a wire document.
func LookupFromStructure(structure Structure) (*Lookup, error) {
	keyStructure, ok := nestedStructure(structure["key"])
	if !ok {
		return nil, newMissingFieldError("key", structure)
	}
	key, err := KeyFromStructure(keyStructure)
	if err != nil {
		return nil, err
	}
	datasourceStructure, ok := nestedStructure(structure["fromDataSource"])
	if !ok {
		return nil, newMissingFieldError("fromDataSource", structure)
	}
	datasource, err := DatasourceFromStructure(datasourceStructure)
	if err != nil {
		return nil, err
	}
	into, ok := structure["into"].(string)
	if !ok {
		return nil, newMissingFieldError("into", structure)
	}
	return &Lookup{Key: *key, Datasource: *datasource, Into: into}, nil
}
