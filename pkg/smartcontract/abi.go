package smartcontract

import (
	"encoding/json"
	"fmt"

	"github.com/mexyusef/fmus-fintech/pkg/crypto/hash"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Parameter is a named, typed input or output of a function or event.
type Parameter struct {
	Name string
	Type ParamType
	// Indexed is only meaningful for event parameters, indexed ones are
	// carried in log topics instead of log data.
	Indexed bool
}

// Method is a single function descriptor of a contract ABI.
type Method struct {
	Name    string
	Inputs  []Parameter
	Outputs []Parameter
	// Constant is true for functions that don't modify state (view/pure
	// mutability or the legacy constant flag). Constant functions are
	// dispatched as state queries, all others as transactions.
	Constant bool
}

// Signature returns the canonical method signature, e.g.
// "transfer(address,uint256)".
func (m *Method) Signature() string {
	return signatureOf(m.Name, m.Inputs)
}

// Selector returns the 4-byte call data prefix identifying the method.
func (m *Method) Selector() []byte {
	return hash.Keccak256([]byte(m.Signature()))[:4]
}

// Event is a single event descriptor of a contract ABI.
type Event struct {
	Name      string
	Inputs    []Parameter
	Anonymous bool
}

// Signature returns the canonical event signature, e.g.
// "Transfer(address,address,uint256)".
func (e *Event) Signature() string {
	return signatureOf(e.Name, e.Inputs)
}

// Topic returns the 32-byte identifier carried as the first topic of every
// log entry emitted by this event (unless it's anonymous).
func (e *Event) Topic() util.Hash {
	return hash.Keccak256Hash([]byte(e.Signature()))
}

func signatureOf(name string, params []Parameter) string {
	sig := name + "("
	for i := range params {
		if i > 0 {
			sig += ","
		}
		sig += params[i].Type.String()
	}
	return sig + ")"
}

// ABI is the parsed contract interface: its functions, events and optional
// constructor. All type names are resolved into the closed ParamType set at
// parse time, so an ABI that parsed successfully can always be encoded and
// decoded.
type ABI struct {
	Methods     []Method
	Events      []Event
	Constructor *Method

	methodByName map[string]*Method
	eventByName  map[string]*Event
	eventByTopic map[util.Hash]*Event
}

// abiParam and abiEntry mirror the JSON shape of standard contract ABIs.
type abiParam struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Components []abiParam `json:"components,omitempty"`
	Indexed    bool       `json:"indexed,omitempty"`
}

type abiEntry struct {
	Type            string     `json:"type"`
	Name            string     `json:"name,omitempty"`
	Inputs          []abiParam `json:"inputs,omitempty"`
	Outputs         []abiParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Constant        *bool      `json:"constant,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty"`
}

// ParseABI parses standard contract ABI JSON. It fails on malformed JSON,
// on parameter types outside of the supported set and on duplicate
// function or event names (overloads are not supported).
func ParseABI(data []byte) (*ABI, error) {
	var entries []abiEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid ABI JSON: %w", err)
	}
	abi := &ABI{
		methodByName: make(map[string]*Method),
		eventByName:  make(map[string]*Event),
		eventByTopic: make(map[util.Hash]*Event),
	}
	for i := range entries {
		e := &entries[i]
		switch e.Type {
		case "function", "": // Older ABIs omit the type for functions.
			m, err := parseMethod(e)
			if err != nil {
				return nil, err
			}
			abi.Methods = append(abi.Methods, *m)
		case "event":
			ev, err := parseEvent(e)
			if err != nil {
				return nil, err
			}
			abi.Events = append(abi.Events, *ev)
		case "constructor":
			if abi.Constructor != nil {
				return nil, fmt.Errorf("duplicate constructor in ABI")
			}
			m, err := parseMethod(e)
			if err != nil {
				return nil, err
			}
			abi.Constructor = m
		case "fallback", "receive", "error":
			// Not callable by name, nothing to index.
		default:
			return nil, fmt.Errorf("unsupported ABI entry type: %s", e.Type)
		}
	}
	// Index after the loop, pointers into the slices are only stable once
	// all appends are done.
	for i := range abi.Methods {
		m := &abi.Methods[i]
		if _, ok := abi.methodByName[m.Name]; ok {
			return nil, fmt.Errorf("duplicate function in ABI: %s", m.Name)
		}
		abi.methodByName[m.Name] = m
	}
	for i := range abi.Events {
		ev := &abi.Events[i]
		if _, ok := abi.eventByName[ev.Name]; ok {
			return nil, fmt.Errorf("duplicate event in ABI: %s", ev.Name)
		}
		abi.eventByName[ev.Name] = ev
		abi.eventByTopic[ev.Topic()] = ev
	}
	return abi, nil
}

func parseMethod(e *abiEntry) (*Method, error) {
	inputs, err := parseParams(e.Name, e.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := parseParams(e.Name, e.Outputs)
	if err != nil {
		return nil, err
	}
	constant := e.StateMutability == "view" || e.StateMutability == "pure" ||
		(e.Constant != nil && *e.Constant)
	return &Method{
		Name:     e.Name,
		Inputs:   inputs,
		Outputs:  outputs,
		Constant: constant,
	}, nil
}

func parseEvent(e *abiEntry) (*Event, error) {
	inputs, err := parseParams(e.Name, e.Inputs)
	if err != nil {
		return nil, err
	}
	return &Event{
		Name:      e.Name,
		Inputs:    inputs,
		Anonymous: e.Anonymous,
	}, nil
}

func parseParams(owner string, params []abiParam) ([]Parameter, error) {
	if len(params) == 0 {
		return nil, nil
	}
	res := make([]Parameter, len(params))
	for i := range params {
		pt, err := parseParamWithComponents(&params[i])
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", owner, params[i].Name, err)
		}
		res[i] = Parameter{
			Name:    params[i].Name,
			Type:    pt,
			Indexed: params[i].Indexed,
		}
	}
	return res, nil
}

func parseParamWithComponents(p *abiParam) (ParamType, error) {
	if p.Type == "tuple" {
		elems := make([]ParamType, len(p.Components))
		for i := range p.Components {
			pt, err := parseParamWithComponents(&p.Components[i])
			if err != nil {
				return ParamType{}, err
			}
			elems[i] = pt
		}
		return TupleType(elems...), nil
	}
	return ParseParamType(p.Type)
}

// GetMethod returns the function descriptor with the given name, if any.
func (a *ABI) GetMethod(name string) (*Method, bool) {
	m, ok := a.methodByName[name]
	return m, ok
}

// GetEvent returns the event descriptor with the given name, if any.
func (a *ABI) GetEvent(name string) (*Event, bool) {
	e, ok := a.eventByName[name]
	return e, ok
}

// EventByTopic returns the event descriptor whose identifier matches the
// given log topic, if any.
func (a *ABI) EventByTopic(topic util.Hash) (*Event, bool) {
	e, ok := a.eventByTopic[topic]
	return e, ok
}
