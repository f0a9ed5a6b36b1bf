// Package engine implements the chain mutation engine.
//
// The engine applies one Action (Insert or Delete) to a chain.Chains value and
// returns the next value. It is a pure function of its inputs: the caller's
// chains are never modified and the result never shares backing arrays with
// them.
//
// Insert rules, in evaluation order:
//  1. An empty value is rejected.
//  2. The payload must name a known chain-kind and logical operator, a field,
//     and (for filters) an operator. Sort values must be a direction.
//  3. With a template registry, the field must exist in the collection, the
//     operator must be legal for it and the value must match its kind.
//  4. One scan over the chains computes the presence flags.
//  5. A filter link whose field and value already appear in the target group
//     is a duplicate.
//  6. A sort link for a field already sorted on overwrites that link's
//     direction in place, wherever it lives.
//  7. A full chain (MaxLinks) rejects new links.
//  8. Otherwise the link is appended.
//
// Delete removes the link at an index of one chain, keeping the order of the
// rest.
//
// The engine fails closed. Rejections leave the chains unchanged and are
// reported through Outcome, never through panics or error returns.
package engine
