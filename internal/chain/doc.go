// Package chain defines the query chain data model: links, chains grouped by
// logical operator, and the top-level Chains value holding one group set per
// chain-kind.
//
// Chains is a plain value. Every operation that needs a modified copy goes
// through Clone first so that no two snapshots share a backing array:
//
//	next := prev.Clone()
//	next.Filter.Set(chain.And, append(next.Filter.Get(chain.And), link))
//
// Iteration order is fixed and part of the contract consumed by the compiler:
// chain-kinds in the order filter, sort and logical operators in the order
// and, or, nor. Within a chain links keep insertion order.
//
// Link variants:
//
//	FilterLink{Field, Operator, Value}   // one atomic condition
//	SortLink{Field, Direction}           // one sort key
//
// QueryLink is the untyped [field, operator, value] triple received from
// callers. The engine converts it to the typed variant matching the target
// chain-kind.
//
// Canonical encoding (MarshalCanonical, Hash) gives every Chains value a
// stable content identity. The journal stores these hashes and replay compares
// them to prove that recorded sessions reproduce byte-for-byte.
package chain
