package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/roach88/querychain/internal/chain"
)

// Action is a chain mutation intent. Implemented by Insert and Delete only.
type Action interface {
	// actionMarker restricts implementations to this package.
	actionMarker()

	// Validate checks the payload shape. It does not consult templates.
	Validate() error
}

// Insert adds a link to the chain selected by Kind and Logical.
// For sort links Link.Value carries the direction and Link.Operator is ignored.
type Insert struct {
	Kind    chain.Kind
	Logical chain.LogicalOperator
	Link    chain.QueryLink
}

// Delete removes the link at Index from the chain selected by Kind and Logical.
type Delete struct {
	Kind    chain.Kind
	Logical chain.LogicalOperator
	Index   int
}

func (Insert) actionMarker() {}
func (Delete) actionMarker() {}

var (
	kindRule    = validation.In(chain.KindFilter, chain.KindSort).Error("must be filter or sort")
	logicalRule = validation.In(chain.And, chain.Or, chain.Nor).Error("must be and, or or nor")
)

// Validate checks the insert payload.
func (a Insert) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Kind, validation.Required, kindRule),
		validation.Field(&a.Logical, validation.Required, logicalRule),
		validation.Field(&a.Link, validation.By(a.validateLink)),
	)
}

func (a Insert) validateLink(interface{}) error {
	link := a.Link
	return validation.ValidateStruct(&link,
		validation.Field(&link.Field, validation.Required),
		validation.Field(&link.Operator, validation.When(a.Kind == chain.KindFilter, validation.Required)),
	)
}

// Validate checks the delete payload. Range checks happen against the chains.
func (a Delete) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Kind, validation.Required, kindRule),
		validation.Field(&a.Logical, validation.Required, logicalRule),
	)
}

// Wire names of the two actions.
const (
	ActionInsert = "insert"
	ActionDelete = "delete"
)

// wireAction is the JSON form exchanged with callers:
//
//	{"action":"insert","queryChainKind":"filter","logicalOperator":"and",
//	 "queryLink":["status","equal to","active"]}
//	{"action":"delete","queryChainKind":"sort","logicalOperator":"or","index":0}
type wireAction struct {
	Action          string                `json:"action"`
	QueryChainKind  chain.Kind            `json:"queryChainKind"`
	LogicalOperator chain.LogicalOperator `json:"logicalOperator"`
	Index           *int                  `json:"index,omitempty"`
	QueryLink       *chain.QueryLink      `json:"queryLink,omitempty"`
}

// ErrUnknownAction is returned by DecodeAction for an unrecognised action name.
var ErrUnknownAction = errors.New("unknown action")

// DecodeAction parses the JSON wire form of an action. The result is not
// validated; the engine does that when it applies it.
func DecodeAction(data []byte) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	switch w.Action {
	case ActionInsert:
		if w.QueryLink == nil {
			return nil, fmt.Errorf("decode action: insert requires queryLink")
		}
		return Insert{Kind: w.QueryChainKind, Logical: w.LogicalOperator, Link: *w.QueryLink}, nil
	case ActionDelete:
		if w.Index == nil {
			return nil, fmt.Errorf("decode action: delete requires index")
		}
		return Delete{Kind: w.QueryChainKind, Logical: w.LogicalOperator, Index: *w.Index}, nil
	default:
		return nil, fmt.Errorf("decode action: %w %q", ErrUnknownAction, w.Action)
	}
}

// EncodeAction returns the JSON wire form of a.
func EncodeAction(a Action) ([]byte, error) {
	var w wireAction
	switch act := a.(type) {
	case *Insert:
		if act == nil {
			return nil, fmt.Errorf("encode action: nil insert")
		}
		return EncodeAction(*act)
	case *Delete:
		if act == nil {
			return nil, fmt.Errorf("encode action: nil delete")
		}
		return EncodeAction(*act)
	case Insert:
		link := act.Link
		w = wireAction{Action: ActionInsert, QueryChainKind: act.Kind, LogicalOperator: act.Logical, QueryLink: &link}
	case Delete:
		idx := act.Index
		w = wireAction{Action: ActionDelete, QueryChainKind: act.Kind, LogicalOperator: act.Logical, Index: &idx}
	default:
		return nil, fmt.Errorf("encode action: %w %T", ErrUnknownAction, a)
	}
	return json.Marshal(w)
}
