// Package network implements the RETE discrimination network: alpha/beta/
// terminal nodes, their memories, node sharing, the pattern cache,
// incremental activation, and the rule-to-network compiler.
package network

import "github.com/hl/bingo-sub000/pkg/fact"

// Token is an ordered sequence of FactIds that have together satisfied a
// prefix of a rule's conditions. Tokens are joined by concatenation; two
// tokens are value-equal iff their FactId sequences are equal in order.
type Token []fact.ID

// Concat returns a new token that is the concatenation of the receiver and
// other, in that order.
func (t Token) Concat(other Token) Token {
	out := make(Token, 0, len(t)+len(other))
	out = append(out, t...)
	out = append(out, other...)
	return out
}

// Equal reports whether two tokens reference the same facts in the same
// order.
func (t Token) Equal(other Token) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// Primary returns the token's primary fact id (first in the sequence), the
// fact action execution applies mutations against.
func (t Token) Primary() (fact.ID, bool) {
	if len(t) == 0 {
		return 0, false
	}
	return t[0], true
}

// Clone returns an independent copy of the token.
func (t Token) Clone() Token {
	out := make(Token, len(t))
	copy(out, t)
	return out
}
