package imposters

import (
	"fmt"
	"net/url"

	"github.com/antchfx/xmlquery"

	"github.com/Vorobeyko/mbtest/scripting"
)

// Mode selects the body encoding of a Response.
type Mode string

const (
	// ModeText returns the body verbatim.
	ModeText Mode = "text"
	// ModeBinary base64-encodes the body on the wire.
	ModeBinary Mode = "binary"
)

// ParseMode parses a response mode wire tag.
func ParseMode(tag string) (Mode, error) {
	switch tag {
	case "text":
		return ModeText, nil
	case "binary":
		return ModeBinary, nil
	}
	return "", newInvalidEnumError(fmt.Sprintf("%q is not a response mode", tag), tag)
}

// ProxyMode controls the replay behavior of a Proxy.
type ProxyMode string

const (
	// ProxyOnce records the first origin response and replays it afterwards.
	ProxyOnce ProxyMode = "proxyOnce"
	// ProxyAlways re-proxies every call, recording each response.
	ProxyAlways ProxyMode = "proxyAlways"
	// ProxyTransparent proxies without recording anything.
	ProxyTransparent ProxyMode = "proxyTransparent"
)

// ParseProxyMode parses a proxy mode wire tag.
func ParseProxyMode(tag string) (ProxyMode, error) {
	switch tag {
	case "proxyOnce":
		return ProxyOnce, nil
	case "proxyAlways":
		return ProxyAlways, nil
	case "proxyTransparent":
		return ProxyTransparent, nil
	}
	return "", newInvalidEnumError(fmt.Sprintf("%q is not a proxy mode", tag), tag)
}

// BaseResponse is any of the response variants a stub can carry: Response,
// TcpResponse, Proxy or InjectionResponse.
type BaseResponse interface {
	Serializable
	baseResponse()
}

// BaseResponseFromStructure inspects the document shape and routes to the
// matching variant parser. The document carries no type tag, so the order of
// the rules is load-bearing: a document with both "is" and "_behaviors" is a
// Response even when "is" also contains "data".
func BaseResponseFromStructure(structure Structure) (BaseResponse, error) {
	isValue, hasIs := structure["is"]
	_, hasBehaviors := structure["_behaviors"]

	if hasIs && hasBehaviors {
		log.Debugf("document has 'is' and '_behaviors', parsing as Response")
		return ResponseFromStructure(structure)
	}
	if hasIs {
		if inner, ok := nestedStructure(isValue); ok {
			if _, hasData := inner["data"]; hasData {
				log.Debugf("document has 'is.data', parsing as TcpResponse")
				return TcpResponseFromStructure(structure)
			}
		}
	}
	if _, hasProxy := structure["proxy"]; hasProxy {
		log.Debugf("document has 'proxy', parsing as Proxy")
		return ProxyFromStructure(structure)
	}
	if _, hasInject := structure["inject"]; hasInject {
		log.Debugf("document has 'inject', parsing as InjectionResponse")
		return InjectionResponseFromStructure(structure)
	}
	return nil, newUnrecognizedShapeError("document matches no response variant", structure)
}

// Response is a canned "is" response with optional behaviors.
//
// Body may be a string, a []byte decoded as UTF-8 on write, an *xmlquery.Node
// rendered to its XML text on write, or any JSON-marshalable value passed
// through as-is.
type Response struct {
	Body           interface{}
	StatusCode     int
	Wait           int
	Repeat         int
	Headers        map[string]string
	Mode           Mode
	Copy           []Copy
	Decorate       string
	Lookup         []Lookup
	ShellTransform []string
}

// NewResponse creates a Response with the server's canned defaults: status
// 200, text mode, empty body.
func NewResponse() *Response {
	return &Response{
		StatusCode: 200,
		Mode:       ModeText,
	}
}

// AddCopy appends a copy behavior.
func (r *Response) AddCopy(c Copy) *Response {
	r.Copy = append(r.Copy, c)
	return r
}

// AddLookup appends a lookup behavior.
func (r *Response) AddLookup(l Lookup) *Response {
	r.Lookup = append(r.Lookup, l)
	return r
}

func (r *Response) baseResponse() {}

// bodyValue normalizes the body for the wire: XML nodes and byte slices
// become text, everything else is passed through untouched.
func (r *Response) bodyValue() interface{} {
	switch body := r.Body.(type) {
	case *xmlquery.Node:
		return body.OutputXML(true)
	case []byte:
		return string(body)
	}
	return r.Body
}

func (r *Response) mode() Mode {
	if r.Mode == "" {
		return ModeText
	}
	return r.Mode
}

// AsStructure renders the response as a wire document.
func (r *Response) AsStructure() Structure {
	return Structure{
		"is":         r.isStructure(),
		"_behaviors": r.behaviorsStructure(),
	}
}

func (r *Response) isStructure() Structure {
	is := Structure{
		"statusCode": r.StatusCode,
		"_mode":      string(r.mode()),
	}
	addIfTrue(is, "body", r.bodyValue())
	addIfTrue(is, "headers", r.Headers)
	return is
}

func (r *Response) behaviorsStructure() Structure {
	behaviors := Structure{}
	addIfTrue(behaviors, "wait", r.Wait)
	addIfTrue(behaviors, "repeat", r.Repeat)
	addIfTrue(behaviors, "decorate", r.Decorate)
	if len(r.ShellTransform) == 1 {
		behaviors["shellTransform"] = r.ShellTransform[0]
	} else if len(r.ShellTransform) > 1 {
		behaviors["shellTransform"] = r.ShellTransform
	}
	if len(r.Copy) > 0 {
		copies := make([]interface{}, 0, len(r.Copy))
		for _, c := range r.Copy {
			copies = append(copies, c.AsStructure())
		}
		behaviors["copy"] = copies
	}
	if len(r.Lookup) > 0 {
		lookups := make([]interface{}, 0, len(r.Lookup))
		for _, l := range r.Lookup {
			lookups = append(lookups, l.AsStructure())
		}
		behaviors["lookup"] = lookups
	}
	return behaviors
}

// ResponseFromStructure rebuilds a Response from a wire document. The body is
// kept as the raw stored value; no re-decoding happens on the read path.
func ResponseFromStructure(structure Structure) (*Response, error) {
	inner, ok := nestedStructure(structure["is"])
	if !ok {
		return nil, newMissingFieldError("is", structure)
	}

	response := NewResponse()

	if body, ok := inner["body"]; ok {
		response.Body = body
	}

	modeTag, ok := inner["_mode"].(string)
	if !ok {
		return nil, newMissingFieldError("is._mode", structure)
	}
	mode, err := ParseMode(modeTag)
	if err != nil {
		return nil, err
	}
	response.Mode = mode

	if raw, ok := inner["headers"]; ok {
		headers, ok := stringMapValue(raw)
		if !ok {
			log.Warnf("ignoring non-mapping headers value %v", raw)
		} else {
			response.Headers = headers
		}
	}
	if raw, ok := inner["statusCode"]; ok {
		if statusCode, ok := intValue(raw); ok {
			response.StatusCode = statusCode
		}
	}

	behaviors, _ := nestedStructure(structure["_behaviors"])
	if raw, ok := behaviors["wait"]; ok {
		if wait, ok := intValue(raw); ok {
			response.Wait = wait
		}
	}
	if raw, ok := behaviors["repeat"]; ok {
		if repeat, ok := intValue(raw); ok {
			response.Repeat = repeat
		}
	}
	if decorate, ok := behaviors["decorate"].(string); ok {
		response.Decorate = decorate
	}
	if raw, ok := behaviors["shellTransform"]; ok {
		if commands, ok := stringListValue(raw); ok {
			response.ShellTransform = commands
		}
	}
	if raw, ok := behaviors["copy"]; ok {
		elements, ok := structureList(raw)
		if !ok {
			return nil, newUnrecognizedShapeError("copy behavior is not a sequence", raw)
		}
		for _, element := range elements {
			c, err := CopyFromStructure(element)
			if err != nil {
				return nil, err
			}
			response.Copy = append(response.Copy, *c)
		}
	}
	if raw, ok := behaviors["lookup"]; ok {
		elements, ok := structureList(raw)
		if !ok {
			return nil, newUnrecognizedShapeError("lookup behavior is not a sequence", raw)
		}
		for _, element := range elements {
			l, err := LookupFromStructure(element)
			if err != nil {
				return nil, err
			}
			response.Lookup = append(response.Lookup, *l)
		}
	}

	return response, nil
}

// TcpResponse is a raw payload returned by a TCP imposter.
type TcpResponse struct {
	Data string
}

// NewTcpResponse creates a TCP response with the given payload.
func NewTcpResponse(data string) *TcpResponse {
	return &TcpResponse{Data: data}
}

func (t *TcpResponse) baseResponse() {}

// AsStructure renders the response as a wire document.
func (t *TcpResponse) AsStructure() Structure {
	return Structure{
		"is": Structure{"data": t.Data},
	}
}

// TcpResponseFromStructure rebuilds a TcpResponse from a wire document.
func TcpResponseFromStructure(structure Structure) (*TcpResponse, error) {
	inner, ok := nestedStructure(structure["is"])
	if !ok {
		return nil, newMissingFieldError("is", structure)
	}
	raw, ok := inner["data"]
	if !ok {
		return nil, newMissingFieldError("is.data", structure)
	}
	data, ok := raw.(string)
	if !ok {
		log.Warnf("coercing non-string tcp payload %v", raw)
		data = fmt.Sprint(raw)
	}
	return NewTcpResponse(data), nil
}

// Proxy forwards matching requests to an origin server, optionally recording
// stubs from the traffic it sees.
type Proxy struct {
	To                  string
	Wait                int
	InjectHeaders       map[string]string
	Mode                ProxyMode
	PredicateGenerators []PredicateGenerator
}

// NewProxy creates a proxy to the given origin URL in the default proxyOnce
// replay mode.
func NewProxy(to string) *Proxy {
	return &Proxy{
		To:   to,
		Mode: ProxyOnce,
	}
}

// NewProxyURL creates a proxy to a structured origin URL.
func NewProxyURL(to *url.URL) *Proxy {
	return NewProxy(to.String())
}

// AddPredicateGenerator appends a predicate generator for recorded stubs.
func (p *Proxy) AddPredicateGenerator(pg PredicateGenerator) *Proxy {
	p.PredicateGenerators = append(p.PredicateGenerators, pg)
	return p
}

// URL returns the origin as a structured URL.
func (p *Proxy) URL() (*url.URL, error) {
	return url.Parse(p.To)
}

func (p *Proxy) baseResponse() {}

func (p *Proxy) mode() ProxyMode {
	if p.Mode == "" {
		return ProxyOnce
	}
	return p.Mode
}

// AsStructure renders the proxy as a wire document.
func (p *Proxy) AsStructure() Structure {
	proxy := Structure{
		"to":   p.To,
		"mode": string(p.mode()),
	}
	addIfTrue(proxy, "injectHeaders", p.InjectHeaders)
	if len(p.PredicateGenerators) > 0 {
		generators := make([]interface{}, 0, len(p.PredicateGenerators))
		for _, pg := range p.PredicateGenerators {
			generators = append(generators, pg.AsStructure())
		}
		proxy["predicateGenerators"] = generators
	}

	response := Structure{"proxy": proxy}
	if p.Wait != 0 {
		response["_behaviors"] = Structure{"wait": p.Wait}
	}
	return response
}

// ProxyFromStructure rebuilds a Proxy from a wire document.
func ProxyFromStructure(structure Structure) (*Proxy, error) {
	proxyStructure, ok := nestedStructure(structure["proxy"])
	if !ok {
		return nil, newMissingFieldError("proxy", structure)
	}

	rawTo, ok := proxyStructure["to"]
	if !ok {
		return nil, newMissingFieldError("proxy.to", structure)
	}
	to, ok := rawTo.(string)
	if !ok {
		log.Warnf("coercing non-string proxy target %v", rawTo)
		to = fmt.Sprint(rawTo)
	}

	modeTag, ok := proxyStructure["mode"].(string)
	if !ok {
		return nil, newMissingFieldError("proxy.mode", structure)
	}
	mode, err := ParseProxyMode(modeTag)
	if err != nil {
		return nil, err
	}

	proxy := NewProxy(to)
	proxy.Mode = mode

	if raw, ok := proxyStructure["injectHeaders"]; ok {
		headers, ok := stringMapValue(raw)
		if !ok {
			log.Warnf("ignoring non-mapping injectHeaders value %v", raw)
		} else {
			proxy.InjectHeaders = headers
		}
	}
	if raw, ok := proxyStructure["predicateGenerators"]; ok {
		elements, ok := structureList(raw)
		if !ok {
			return nil, newUnrecognizedShapeError("predicateGenerators is not a sequence", raw)
		}
		for _, element := range elements {
			pg, err := PredicateGeneratorFromStructure(element)
			if err != nil {
				return nil, err
			}
			proxy.PredicateGenerators = append(proxy.PredicateGenerators, *pg)
		}
	}

	behaviors, _ := nestedStructure(structure["_behaviors"])
	if raw, ok := behaviors["wait"]; ok {
		if wait, ok := intValue(raw); ok {
			proxy.Wait = wait
		}
	}

	return proxy, nil
}

// PredicateGenerator tells a proxy which parts of a captured request become
// predicates in the stubs it records.
//
// Query may be a bool (capture the whole query string) or a
// map[string]string naming the fields to capture.
type PredicateGenerator struct {
	Path          bool
	Query         interface{}
	Operator      Operator
	CaseSensitive bool
}

// NewPredicateGenerator creates a generator with the construction defaults:
// equals matching, case sensitive.
func NewPredicateGenerator() PredicateGenerator {
	return PredicateGenerator{
		Operator:      OperatorEquals,
		CaseSensitive: true,
	}
}

// AsStructure renders the generator as a wire document. The operator is read
// on parse but never written; the server applies its own default.
func (pg PredicateGenerator) AsStructure() Structure {
	matches := Structure{}
	addIfTrue(matches, "path", pg.Path)
	addIfTrue(matches, "query", pg.Query)
	return Structure{
		"caseSensitive": pg.CaseSensitive,
		"matches":       matches,
	}
}

// PredicateGeneratorFromStructure rebuilds a PredicateGenerator from a wire
// document.
//
// A missing caseSensitive key parses as false even though the construction
// default is true. The asymmetry is observable behavior of the wire contract
// and is kept as-is; see DESIGN.md.
func PredicateGeneratorFromStructure(structure Structure) (*PredicateGenerator, error) {
	matches, ok := nestedStructure(structure["matches"])
	if !ok {
		return nil, newMissingFieldError("matches", structure)
	}

	pg := &PredicateGenerator{Operator: OperatorEquals}

	if path, ok := matches["path"].(bool); ok {
		pg.Path = path
	}
	if raw, ok := matches["query"]; ok {
		if fields, ok := stringMapValue(raw); ok {
			pg.Query = fields
		} else {
			pg.Query = raw
		}
	}
	if raw, ok := structure["operator"]; ok {
		name, ok := raw.(string)
		if !ok {
			return nil, newInvalidEnumError(fmt.Sprintf("%v is not an operator name", raw), raw)
		}
		operator, err := OperatorFromName(name)
		if err != nil {
			return nil, err
		}
		pg.Operator = operator
	}
	if caseSensitive, ok := structure["caseSensitive"].(bool); ok {
		pg.CaseSensitive = caseSensitive
	}

	return pg, nil
}

// InjectionResponse generates responses with a JavaScript function executed
// server side. Requires mountebank 2.0 or later.
type InjectionResponse struct {
	Inject string
}

// NewInjectionResponse creates an injection response from function source.
func NewInjectionResponse(inject string) *InjectionResponse {
	return &InjectionResponse{Inject: inject}
}

func (i *InjectionResponse) baseResponse() {}

// AsStructure renders the injection as a wire document.
func (i *InjectionResponse) AsStructure() Structure {
	return Structure{"inject": i.Inject}
}

// Validate checks that the script compiles and evaluates to a function, so a
// typo fails here instead of on the server.
func (i *InjectionResponse) Validate() error {
	return scripting.CheckFunction(i.Inject)
}

// InjectionResponseFromStructure rebuilds an InjectionResponse from a wire
// document.
func InjectionResponseFromStructure(structure Structure) (*InjectionResponse, error) {
	inject, ok := structure["inject"].(string)
	if !ok {
		return nil, newMissingFieldError("inject", structure)
	}
	return NewInjectionResponse(inject), nil
}
