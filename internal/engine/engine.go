package engine

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/template"
)

// DefaultMaxLinks is the default capacity of a single chain.
const DefaultMaxLinks = 10

// Engine applies actions to chains. The zero value is not usable; call New.
// An Engine holds no per-chains state and may be shared.
type Engine struct {
	maxLinks   int
	registry   *template.Registry
	collection string
	log        logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxLinks sets the capacity of each chain. Values below 1 are ignored.
func WithMaxLinks(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLinks = n
		}
	}
}

// WithRegistry makes the engine check fields, operators and values against
// the templates of collection. Without a registry those checks are skipped.
func WithRegistry(reg *template.Registry, collection string) Option {
	return func(e *Engine) {
		e.registry = reg
		e.collection = collection
	}
}

// WithLogger sets the logger used for rejection diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	e := &Engine{
		maxLinks: DefaultMaxLinks,
		log:      discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxLinks returns the configured chain capacity.
func (e *Engine) MaxLinks() int {
	return e.maxLinks
}

var defaultEngine = New()

// Apply applies a with a default engine (no registry, DefaultMaxLinks).
func Apply(c chain.Chains, a Action) chain.Chains {
	return defaultEngine.Apply(c, a)
}

// Apply returns the chains after a. Rejected actions return an unchanged copy.
func (e *Engine) Apply(c chain.Chains, a Action) chain.Chains {
	next, _ := e.Try(c, a)
	return next
}

// Try is like Apply and also reports what happened.
func (e *Engine) Try(c chain.Chains, a Action) (chain.Chains, Outcome) {
	next := c.Clone()

	var out Outcome
	switch act := a.(type) {
	case Insert:
		out = e.insert(&next, act)
	case *Insert:
		if act == nil {
			out = reject(ReasonInvalidAction, "", "nil action")
			break
		}
		out = e.insert(&next, *act)
	case Delete:
		out = e.delete(&next, act)
	case *Delete:
		if act == nil {
			out = reject(ReasonInvalidAction, "", "nil action")
			break
		}
		out = e.delete(&next, *act)
	default:
		out = reject(ReasonInvalidAction, "", fmt.Sprintf("unsupported action %T", a))
	}

	if !out.Changed() {
		e.log.WithFields(logrus.Fields{
			"reason": out.Reason,
			"field":  out.Field,
		}).Debugf("action rejected: %s", out.Message)
		return c.Clone(), out
	}
	return next, out
}

func reject(reason Reason, field, msg string) Outcome {
	return Outcome{Reason: reason, Field: field, Message: msg}
}

// presence records which chains already hold a matching link.
// The filter flags match field and value; Sort matches the field alone.
type presence struct {
	And  bool
	Or   bool
	Nor  bool
	Sort bool
}

func (p presence) filter(op chain.LogicalOperator) bool {
	switch op {
	case chain.And:
		return p.And
	case chain.Or:
		return p.Or
	case chain.Nor:
		return p.Nor
	default:
		return false
	}
}

// scan walks every chain once and computes all four flags.
func scan(c chain.Chains, field, value string) presence {
	var p presence
	for _, op := range chain.LogicalOperators() {
		for _, l := range c.Filter.Get(op) {
			if l.Field == field && l.Value == value {
				switch op {
				case chain.And:
					p.And = true
				case chain.Or:
					p.Or = true
				case chain.Nor:
					p.Nor = true
				}
				break
			}
		}
		for _, l := range c.Sort.Get(op) {
			if l.Field == field {
				p.Sort = true
				break
			}
		}
	}
	return p
}

func (e *Engine) insert(c *chain.Chains, a Insert) Outcome {
	link := a.Link
	if link.Value == "" {
		return reject(ReasonEmptyValue, link.Field, "value is empty")
	}
	if err := a.Validate(); err != nil {
		return reject(ReasonInvalidAction, link.Field, err.Error())
	}

	var dir chain.Direction
	if a.Kind == chain.KindSort {
		d, ok := chain.ParseDirection(link.Value)
		if !ok {
			return reject(ReasonInvalidValue, link.Field,
				fmt.Sprintf("sort direction %q must be %s or %s", link.Value, chain.Ascending, chain.Descending))
		}
		dir = d
	}

	if out, ok := e.checkTemplate(a.Kind, link); !ok {
		return out
	}

	p := scan(*c, link.Field, link.Value)

	if a.Kind == chain.KindFilter {
		if p.filter(a.Logical) {
			return reject(ReasonDuplicate, link.Field,
				fmt.Sprintf("%s %q already in %s group", link.Field, link.Value, a.Logical))
		}
		links := c.Filter.Get(a.Logical)
		if len(links) >= e.maxLinks {
			return reject(ReasonCapacity, link.Field,
				fmt.Sprintf("filter.%s holds %d links (max %d)", a.Logical, len(links), e.maxLinks))
		}
		c.Filter.Set(a.Logical, append(links, chain.FilterLink{
			Field:    link.Field,
			Operator: chain.Operator(link.Operator),
			Value:    link.Value,
		}))
		return Outcome{Reason: ReasonInserted, Field: link.Field}
	}

	if p.Sort {
		for _, op := range chain.LogicalOperators() {
			links := c.Sort.Get(op)
			for i := range links {
				if links[i].Field == link.Field {
					links[i].Direction = dir
					return Outcome{Reason: ReasonUpdated, Field: link.Field,
						Message: fmt.Sprintf("sort.%s[%d] now %s", op, i, dir)}
				}
			}
		}
	}
	links := c.Sort.Get(a.Logical)
	if len(links) >= e.maxLinks {
		return reject(ReasonCapacity, link.Field,
			fmt.Sprintf("sort.%s holds %d links (max %d)", a.Logical, len(links), e.maxLinks))
	}
	c.Sort.Set(a.Logical, append(links, chain.SortLink{Field: link.Field, Direction: dir}))
	return Outcome{Reason: ReasonInserted, Field: link.Field}
}

// checkTemplate applies the registry checks. It reports ok when there is no
// registry or the link passes.
func (e *Engine) checkTemplate(kind chain.Kind, link chain.QueryLink) (Outcome, bool) {
	if e.registry == nil {
		return Outcome{}, true
	}

	tmpl, found := e.registry.Lookup(e.collection, link.Field)
	if !found {
		msg := fmt.Sprintf("no field %q in collection %q", link.Field, e.collection)
		if s := e.registry.Suggest(e.collection, link.Field); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		return reject(ReasonUnknownField, link.Field, msg), false
	}
	if kind == chain.KindSort {
		return Outcome{}, true
	}

	op := chain.Operator(link.Operator)
	if !tmpl.Allows(op) {
		return reject(ReasonIllegalOperator, link.Field,
			fmt.Sprintf("operator %q not allowed for %s field", op, tmpl.Kind)), false
	}
	if err := tmpl.CheckValue(link.Value); err != nil {
		return reject(ReasonInvalidValue, link.Field, err.Error()), false
	}
	return Outcome{}, true
}

func (e *Engine) delete(c *chain.Chains, a Delete) Outcome {
	if err := a.Validate(); err != nil {
		return reject(ReasonInvalidAction, "", err.Error())
	}

	switch a.Kind {
	case chain.KindFilter:
		links := c.Filter.Get(a.Logical)
		if a.Index < 0 || a.Index >= len(links) {
			return reject(ReasonIndexOutOfRange, "",
				fmt.Sprintf("filter.%s has %d links, index %d", a.Logical, len(links), a.Index))
		}
		field := links[a.Index].Field
		c.Filter.Set(a.Logical, append(links[:a.Index:a.Index], links[a.Index+1:]...))
		return Outcome{Reason: ReasonDeleted, Field: field}
	default:
		links := c.Sort.Get(a.Logical)
		if a.Index < 0 || a.Index >= len(links) {
			return reject(ReasonIndexOutOfRange, "",
				fmt.Sprintf("sort.%s has %d links, index %d", a.Logical, len(links), a.Index))
		}
		field := links[a.Index].Field
		c.Sort.Set(a.Logical, append(links[:a.Index:a.Index], links[a.Index+1:]...))
		return Outcome{Reason: ReasonDeleted, Field: field}
	}
}
