package network

import "github.com/hl/bingo-sub000/pkg/models"

// SharingRegistry maps a node's structural signature to its live NodeID and
// reference count, so that two rules whose conditions (or join specs)
// coincide share one physical node instead of duplicating it. A node is
// removed from both the registry and its owning table only when its
// reference count reaches zero.
type SharingRegistry struct {
	alphaBySignature map[string]NodeID
	betaBySignature  map[string]NodeID
}

// NewSharingRegistry creates an empty registry.
func NewSharingRegistry() *SharingRegistry {
	return &SharingRegistry{
		alphaBySignature: map[string]NodeID{},
		betaBySignature:  map[string]NodeID{},
	}
}

// AcquireAlpha returns the existing alpha node for cond's signature,
// incrementing its refcount, or allocates and registers a new one.
func (r *SharingRegistry) AcquireAlpha(tables *Tables, cond models.Condition) *AlphaNode {
	sig := cond.Signature()
	if id, ok := r.alphaBySignature[sig]; ok {
		if node, ok := tables.Alphas[id]; ok {
			node.RefCount++
			return node
		}
	}
	id := tables.allocID()
	node := newAlphaNode(id, cond)
	node.RefCount = 1
	tables.Alphas[id] = node
	r.alphaBySignature[sig] = id
	return node
}

// ReleaseAlpha decrements the refcount for the alpha node at id, removing it
// from the table and registry once it drops to zero. Returns true if the
// node was removed.
func (r *SharingRegistry) ReleaseAlpha(tables *Tables, id NodeID) bool {
	node, ok := tables.Alphas[id]
	if !ok {
		return false
	}
	node.RefCount--
	if node.RefCount > 0 {
		return false
	}
	delete(tables.Alphas, id)
	delete(r.alphaBySignature, node.Condition.Signature())
	return true
}

// betaSignature derives a structural key for a beta node from its
// predecessors' identities and join specs, so two rules that join the same
// pair of streams on the same fields share the node.
func betaSignature(left, right NodeID, specs []JoinSpec) string {
	sig := uitoaNode(left) + "|" + uitoaNode(right) + "|"
	for _, s := range specs {
		sig += s.LeftField + "=" + s.RightField + ":" + string(s.Operator) + ";"
	}
	return sig
}

func uitoaNode(id NodeID) string {
	if id == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	v := uint64(id)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// AcquireBeta returns the existing beta node joining left/right under specs,
// incrementing its refcount, or allocates and registers a new one.
func (r *SharingRegistry) AcquireBeta(tables *Tables, left, right NodeID, specs []JoinSpec) *BetaNode {
	sig := betaSignature(left, right, specs)
	if id, ok := r.betaBySignature[sig]; ok {
		if node, ok := tables.Betas[id]; ok {
			node.RefCount++
			return node
		}
	}
	id := tables.allocID()
	node := newBetaNode(id, specs, left, right)
	node.RefCount = 1
	tables.Betas[id] = node
	r.betaBySignature[sig] = id
	return node
}

// ReleaseBeta decrements the refcount for the beta node at id, removing it
// once it drops to zero. Returns true if the node was removed.
func (r *SharingRegistry) ReleaseBeta(tables *Tables, id NodeID) bool {
	node, ok := tables.Betas[id]
	if !ok {
		return false
	}
	node.RefCount--
	if node.RefCount > 0 {
		return false
	}
	delete(tables.Betas, id)
	delete(r.betaBySignature, betaSignature(node.Predecessor[0], node.Predecessor[1], node.JoinSpecs))
	return true
}
