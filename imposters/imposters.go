package imposters

import "fmt"

// Protocol is the wire protocol an imposter speaks.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolTCP   Protocol = "tcp"
	ProtocolSMTP  Protocol = "smtp"
)

// ParseProtocol parses a protocol wire tag.
func ParseProtocol(tag string) (Protocol, error) {
	switch tag {
	case "http", "https", "tcp", "smtp":
		return Protocol(tag), nil
	}
	return "", newInvalidEnumError(fmt.Sprintf("%q is not an imposter protocol", tag), tag)
}

// Stub binds predicates to the responses returned when they match.
type Stub struct {
	Predicates []BasePredicate
	Responses  []BaseResponse
}

// NewStub creates an empty stub. A stub serialized with no responses carries
// a single default Response, matching the server's fallback.
func NewStub() *Stub {
	return &Stub{}
}

// AddPredicate appends a predicate.
func (s *Stub) AddPredicate(predicate BasePredicate) *Stub {
	s.Predicates = append(s.Predicates, predicate)
	return s
}

// AddResponse appends a response.
func (s *Stub) AddResponse(response BaseResponse) *Stub {
	s.Responses = append(s.Responses, response)
	return s
}

// AsStructure renders the stub as a wire document.
func (s *Stub) AsStructure() Structure {
	responses := s.Responses
	if len(responses) == 0 {
		responses = []BaseResponse{NewResponse()}
	}
	responseStructures := make([]interface{}, 0, len(responses))
	for _, response := range responses {
		responseStructures = append(responseStructures, response.AsStructure())
	}

	structure := Structure{"responses": responseStructures}
	if len(s.Predicates) > 0 {
		structure["predicates"] = predicateStructures(s.Predicates)
	}
	return structure
}

// StubFromStructure rebuilds a Stub, routing each element through the
// predicate and response dispatchers.
func StubFromStructure(structure Structure) (*Stub, error) {
	stub := NewStub()

	if raw, ok := structure["predicates"]; ok {
		elements, ok := structureList(raw)
		if !ok {
			return nil, newUnrecognizedShapeError("predicates is not a sequence", raw)
		}
		for _, element := range elements {
			predicate, err := PredicateFromStructure(element)
			if err != nil {
				return nil, err
			}
			stub.Predicates = append(stub.Predicates, predicate)
		}
	}
	if raw, ok := structure["responses"]; ok {
		elements, ok := structureList(raw)
		if !ok {
			return nil, newUnrecognizedShapeError("responses is not a sequence", raw)
		}
		for _, element := range elements {
			response, err := BaseResponseFromStructure(element)
			if err != nil {
				return nil, err
			}
			stub.Responses = append(stub.Responses, response)
		}
	}
	return stub, nil
}

// Imposter is a virtual service definition: a protocol, an optional port
// (zero lets the server pick one), and the stubs the service answers with.
//
// Key, Cert and MutualAuth apply to https imposters only.
type Imposter struct {
	Stubs           []*Stub
	Port            int
	Protocol        Protocol
	Name            string
	RecordRequests  bool
	DefaultResponse *Response
	MutualAuth      bool
	Key             string
	Cert            string
}

// NewImposter creates an HTTP imposter with request recording enabled,
// answering with the given stubs.
func NewImposter(stubs ...*Stub) *Imposter {
	return &Imposter{
		Stubs:          stubs,
		Protocol:       ProtocolHTTP,
		RecordRequests: true,
	}
}

// AddStub appends a stub.
func (i *Imposter) AddStub(stub *Stub) *Imposter {
	i.Stubs = append(i.Stubs, stub)
	return i
}

func (i *Imposter) protocol() Protocol {
	if i.Protocol == "" {
		return ProtocolHTTP
	}
	return i.Protocol
}

// AsStructure renders the imposter as a wire document ready to POST to the
// server's /imposters endpoint.
func (i *Imposter) AsStructure() Structure {
	structure := Structure{
		"protocol":       string(i.protocol()),
		"recordRequests": i.RecordRequests,
	}
	addIfTrue(structure, "port", i.Port)
	addIfTrue(structure, "name", i.Name)
	addIfTrue(structure, "mutualAuth", i.MutualAuth)
	addIfTrue(structure, "key", i.Key)
	addIfTrue(structure, "cert", i.Cert)
	if len(i.Stubs) > 0 {
		stubs := make([]interface{}, 0, len(i.Stubs))
		for _, stub := range i.Stubs {
			stubs = append(stubs, stub.AsStructure())
		}
		structure["stubs"] = stubs
	}
	if i.DefaultResponse != nil {
		structure["defaultResponse"] = i.DefaultResponse.isStructure()
	}
	return structure
}

// ImposterFromStructure rebuilds an Imposter from a wire document, such as a
// GET /imposters/:port payload.
func ImposterFromStructure(structure Structure) (*Imposter, error) {
	tag, ok := structure["protocol"].(string)
	if !ok {
		return nil, newMissingFieldError("protocol", structure)
	}
	protocol, err := ParseProtocol(tag)
	if err != nil {
		return nil, err
	}

	imposter := &Imposter{Protocol: protocol}

	if raw, ok := structure["port"]; ok {
		if port, ok := intValue(raw); ok {
			imposter.Port = port
		}
	}
	if name, ok := structure["name"].(string); ok {
		imposter.Name = name
	}
	if recordRequests, ok := structure["recordRequests"].(bool); ok {
		imposter.RecordRequests = recordRequests
	}
	if mutualAuth, ok := structure["mutualAuth"].(bool); ok {
		imposter.MutualAuth = mutualAuth
	}
	if key, ok := structure["key"].(string); ok {
		imposter.Key = key
	}
	if cert, ok := structure["cert"].(string); ok {
		imposter.Cert = cert
	}
	if raw, ok := structure["stubs"]; ok {
		elements, ok := structureList(raw)
		if !ok {
			return nil, newUnrecognizedShapeError("stubs is not a sequence", raw)
		}
		for _, element := range elements {
			stub, err := StubFromStructure(element)
			if err != nil {
				return nil, err
			}
			imposter.Stubs = append(imposter.Stubs, stub)
		}
	}
	if inner, ok := nestedStructure(structure["defaultResponse"]); ok {
		defaultResponse, err := defaultResponseFromStructure(inner)
		if err != nil {
			return nil, err
		}
		imposter.DefaultResponse = defaultResponse
	}

	return imposter, nil
}

// defaultResponseFromStructure parses the bare is-block the server uses for
// an imposter's defaultResponse. Unlike a stub response it carries no
// "_behaviors" wrapper and the mode tag is optional.
func defaultResponseFromStructure(inner Structure) (*Response, error) {
	response := NewResponse()
	if body, ok := inner["body"]; ok {
		response.Body = body
	}
	if raw, ok := inner["statusCode"]; ok {
		if statusCode, ok := intValue(raw); ok {
			response.StatusCode = statusCode
		}
	}
	if raw, ok := inner["headers"]; ok {
		if headers, ok := stringMapValue(raw); ok {
			response.Headers = headers
		}
	}
	if tag, ok := inner["_mode"].(string); ok {
		mode, err := ParseMode(tag)
		if err != nil {
			return nil, err
		}
		response.Mode = mode
	}
	return response, nil
}
