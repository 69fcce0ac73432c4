package network

import "github.com/hl/bingo-sub000/pkg/fact"

// RemoveFactEverywhere purges id from every alpha node's match set, every
// beta node's left/right token lists, and every terminal node's fired-token
// memory. It does not touch the fact store itself.
func (t *Tables) RemoveFactEverywhere(id fact.ID) {
	for _, alpha := range t.Alphas {
		delete(alpha.Matches, id)
	}
	for _, beta := range t.Betas {
		beta.Left = filterTokens(beta.Left, id)
		beta.Right = filterTokens(beta.Right, id)
	}
	for _, terminal := range t.Terminals {
		terminal.Memory = filterTokens(terminal.Memory, id)
	}
}

func filterTokens(tokens []Token, id fact.ID) []Token {
	out := tokens[:0]
	for _, tok := range tokens {
		if !tokenContains(tok, id) {
			out = append(out, tok)
		}
	}
	return out
}

func tokenContains(tok Token, id fact.ID) bool {
	for _, f := range tok {
		if f == id {
			return true
		}
	}
	return false
}
