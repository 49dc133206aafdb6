package imposters

import (
	"fmt"

	"github.com/Vorobeyko/mbtest/scripting"
)

// Operator is the match operator a predicate applies to request fields.
type Operator string

const (
	OperatorEquals     Operator = "equals"
	OperatorDeepEquals Operator = "deepEquals"
	OperatorContains   Operator = "contains"
	OperatorStartsWith Operator = "startsWith"
	OperatorEndsWith   Operator = "endsWith"
	OperatorMatches    Operator = "matches"
	OperatorExists     Operator = "exists"
)

// operators in wire-tag form, in dispatch order.
var operators = []Operator{
	OperatorEquals,
	OperatorDeepEquals,
	OperatorContains,
	OperatorStartsWith,
	OperatorEndsWith,
	OperatorMatches,
	OperatorExists,
}

var operatorNames = map[string]Operator{
	"EQUALS":      OperatorEquals,
	"DEEP_EQUALS": OperatorDeepEquals,
	"CONTAINS":    OperatorContains,
	"STARTS_WITH": OperatorStartsWith,
	"ENDS_WITH":   OperatorEndsWith,
	"MATCHES":     OperatorMatches,
	"EXISTS":      OperatorExists,
}

// ParseOperator parses an operator wire tag such as "startsWith".
func ParseOperator(tag string) (Operator, error) {
	for _, operator := range operators {
		if string(operator) == tag {
			return operator, nil
		}
	}
	return "", newInvalidEnumError(fmt.Sprintf("%q is not a match operator", tag), tag)
}

// OperatorFromName parses an operator by its symbolic name such as
// "STARTS_WITH". Predicate generator documents carry the name form rather
// than the wire tag.
func OperatorFromName(name string) (Operator, error) {
	operator, ok := operatorNames[name]
	if !ok {
		return "", newInvalidEnumError(fmt.Sprintf("%q is not a match operator name", name), name)
	}
	return operator, nil
}

// HTTPMethod is the request method an HTTP predicate matches on.
type HTTPMethod string

const (
	MethodDelete HTTPMethod = "DELETE"
	MethodGet    HTTPMethod = "GET"
	MethodHead   HTTPMethod = "HEAD"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodPatch  HTTPMethod = "PATCH"
)

// ParseHTTPMethod parses an HTTP method wire tag.
func ParseHTTPMethod(tag string) (HTTPMethod, error) {
	switch tag {
	case "DELETE", "GET", "HEAD", "POST", "PUT", "PATCH":
		return HTTPMethod(tag), nil
	}
	return "", newInvalidEnumError(fmt.Sprintf("%q is not an HTTP method", tag), tag)
}

// BasePredicate is any of the predicate variants a stub can match on.
type BasePredicate interface {
	Serializable
	basePredicate()
}

// PredicateFromStructure inspects the document shape and routes to the
// matching predicate parser. Logic combinators and injection are recognized
// by their keys, a contains predicate holding only "data" is a TCP
// predicate, and any known operator key yields an HTTP predicate.
func PredicateFromStructure(structure Structure) (BasePredicate, error) {
	if _, ok := structure["and"]; ok {
		return AndPredicateFromStructure(structure)
	}
	if _, ok := structure["or"]; ok {
		return OrPredicateFromStructure(structure)
	}
	if _, ok := structure["not"]; ok {
		return NotPredicateFromStructure(structure)
	}
	if _, ok := structure["inject"]; ok {
		return InjectionPredicateFromStructure(structure)
	}
	if fields, ok := nestedStructure(structure["contains"]); ok {
		if data, ok := fields["data"].(string); ok && len(fields) == 1 {
			return NewTcpPredicate(data), nil
		}
	}
	for _, operator := range operators {
		if _, ok := structure[string(operator)]; ok {
			return HTTPPredicateFromStructure(structure)
		}
	}
	return nil, newUnrecognizedShapeError("document matches no predicate variant", structure)
}

// Predicate matches HTTP request fields with a single operator.
type Predicate struct {
	Path          string
	Method        HTTPMethod
	Query         map[string]string
	Body          interface{}
	Headers       map[string]string
	Xpath         string
	Operator      Operator
	CaseSensitive bool
}

// NewPredicate creates a predicate with the construction defaults: equals
// matching, case sensitive.
func NewPredicate() *Predicate {
	return &Predicate{
		Operator:      OperatorEquals,
		CaseSensitive: true,
	}
}

func (p *Predicate) basePredicate() {}

func (p *Predicate) operator() Operator {
	if p.Operator == "" {
		return OperatorEquals
	}
	return p.Operator
}

// AsStructure renders the predicate as a wire document.
func (p *Predicate) AsStructure() Structure {
	fields := Structure{}
	addIfTrue(fields, "path", p.Path)
	addIfTrue(fields, "method", string(p.Method))
	addIfTrue(fields, "query", p.Query)
	addIfTrue(fields, "body", p.Body)
	addIfTrue(fields, "headers", p.Headers)

	predicate := Structure{
		string(p.operator()): fields,
		"caseSensitive":      p.CaseSensitive,
	}
	if p.Xpath != "" {
		predicate["xpath"] = Structure{"selector": p.Xpath}
	}
	return predicate
}

// HTTPPredicateFromStructure rebuilds a Predicate from a wire document keyed
// by one of the match operators.
func HTTPPredicateFromStructure(structure Structure) (*Predicate, error) {
	predicate := NewPredicate()

	var fields Structure
	found := false
	for _, operator := range operators {
		raw, ok := structure[string(operator)]
		if !ok {
			continue
		}
		nested, ok := nestedStructure(raw)
		if !ok {
			return nil, newUnrecognizedShapeError(
				fmt.Sprintf("%q predicate fields are not a mapping", operator), raw)
		}
		predicate.Operator = operator
		fields = nested
		found = true
		break
	}
	if !found {
		return nil, newUnrecognizedShapeError("document carries no match operator", structure)
	}

	if path, ok := fields["path"].(string); ok {
		predicate.Path = path
	}
	if tag, ok := fields["method"].(string); ok {
		method, err := ParseHTTPMethod(tag)
		if err != nil {
			return nil, err
		}
		predicate.Method = method
	}
	if raw, ok := fields["query"]; ok {
		if query, ok := stringMapValue(raw); ok {
			predicate.Query = query
		}
	}
	if body, ok := fields["body"]; ok {
		predicate.Body = body
	}
	if raw, ok := fields["headers"]; ok {
		if headers, ok := stringMapValue(raw); ok {
			predicate.Headers = headers
		}
	}
	if caseSensitive, ok := structure["caseSensitive"].(bool); ok {
		predicate.CaseSensitive = caseSensitive
	}
	if xpath, ok := nestedStructure(structure["xpath"]); ok {
		if selector, ok := xpath["selector"].(string); ok {
			predicate.Xpath = selector
		}
	}
	return predicate, nil
}

// AndPredicate matches when every sub-predicate matches.
type AndPredicate struct {
	Predicates []BasePredicate
}

// NewAndPredicate combines predicates conjunctively.
func NewAndPredicate(predicates ...BasePredicate) *AndPredicate {
	return &AndPredicate{Predicates: predicates}
}

func (p *AndPredicate) basePredicate() {}

// AsStructure renders the combinator as a wire document.
func (p *AndPredicate) AsStructure() Structure {
	return Structure{"and": predicateStructures(p.Predicates)}
}

// AndPredicateFromStructure rebuilds an AndPredicate from a wire document.
func AndPredicateFromStructure(structure Structure) (*AndPredicate, error) {
	predicates, err := predicateList(structure, "and")
	if err != nil {
		return nil, err
	}
	return &AndPredicate{Predicates: predicates}, nil
}

// OrPredicate matches when any sub-predicate matches.
type OrPredicate struct {
	Predicates []BasePredicate
}

// NewOrPredicate combines predicates disjunctively.
func NewOrPredicate(predicates ...BasePredicate) *OrPredicate {
	return &OrPredicate{Predicates: predicates}
}

func (p *OrPredicate) basePredicate() {}

// AsStructure renders the combinator as a wire document.
func (p *OrPredicate) AsStructure() Structure {
	return Structure{"or": predicateStructures(p.Predicates)}
}

// OrPredicateFromStructure rebuilds an OrPredicate from a wire document.
func OrPredicateFromStructure(structure Structure) (*OrPredicate, error) {
	predicates, err := predicateList(structure, "or")
	if err != nil {
		return nil, err
	}
	return &OrPredicate{Predicates: predicates}, nil
}

// NotPredicate inverts a predicate.
type NotPredicate struct {
	Predicate BasePredicate
}

// NewNotPredicate inverts the given predicate.
func NewNotPredicate(predicate BasePredicate) *NotPredicate {
	return &NotPredicate{Predicate: predicate}
}

func (p *NotPredicate) basePredicate() {}

// AsStructure renders the combinator as a wire document.
func (p *NotPredicate) AsStructure() Structure {
	return Structure{"not": p.Predicate.AsStructure()}
}

// NotPredicateFromStructure rebuilds a NotPredicate from a wire document.
func NotPredicateFromStructure(structure Structure) (*NotPredicate, error) {
	nested, ok := nestedStructure(structure["not"])
	if !ok {
		return nil, newMissingFieldError("not", structure)
	}
	predicate, err := PredicateFromStructure(nested)
	if err != nil {
		return nil, err
	}
	return &NotPredicate{Predicate: predicate}, nil
}

// TcpPredicate matches the payload of a TCP request.
type TcpPredicate struct {
	Data string
}

// NewTcpPredicate matches requests whose payload contains data.
func NewTcpPredicate(data string) *TcpPredicate {
	return &TcpPredicate{Data: data}
}

func (p *TcpPredicate) basePredicate() {}

// AsStructure renders the predicate as a wire document.
func (p *TcpPredicate) AsStructure() Structure {
	return Structure{
		"contains": Structure{"data": p.Data},
	}
}

// InjectionPredicate matches with a JavaScript function executed server
// side.
type InjectionPredicate struct {
	Inject string
}

// NewInjectionPredicate creates an injection predicate from function source.
func NewInjectionPredicate(inject string) *InjectionPredicate {
	return &InjectionPredicate{Inject: inject}
}

func (p *InjectionPredicate) basePredicate() {}

// AsStructure renders the predicate as a wire document.
func (p *InjectionPredicate) AsStructure() Structure {
	return Structure{"inject": p.Inject}
}

// Validate checks that the script compiles and evaluates to a function.
func (p *InjectionPredicate) Validate() error {
	return scripting.CheckFunction(p.Inject)
}

// InjectionPredicateFromStructure rebuilds an InjectionPredicate from a wire
// document.
func InjectionPredicateFromStructure(structure Structure) (*InjectionPredicate, error) {
	inject, ok := structure["inject"].(string)
	if !ok {
		return nil, newMissingFieldError("inject", structure)
	}
	return NewInjectionPredicate(inject), nil
}

func predicateStructures(predicates []BasePredicate) []interface{} {
	structures := make([]interface{}, 0, len(predicates))
	for _, predicate := range predicates {
		structures = append(structures, predicate.AsStructure())
	}
	return structures
}

func predicateList(structure Structure, key string) ([]BasePredicate, error) {
	elements, ok := structureList(structure[key])
	if !ok {
		return nil, newMissingFieldError(key, structure)
	}
	predicates := make([]BasePredicate, 0, len(elements))
	for _, element := range elements {
		predicate, err := PredicateFromStructure(element)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, predicate)
	}
	return predicates, nil
}
