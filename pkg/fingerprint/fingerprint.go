// Package fingerprint computes the structural digests of a
// graph.LabeledGraph (spec §4.4): a bottom-up Merkle hash over the
// ordered children tree, taken twice per graph (operator-preserving
// and operator-normalized), using blake3 as the collision-resistant
// 128-bit primitive the teacher already relies on for content
// hashing (internal/cache.HashBytes).
package fingerprint

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/astrograph-io/astrograph/pkg/graph"
)

// Digest is a fixed-width 128-bit structural hash.
type Digest [16]byte

// Fingerprint is the pair of digests spec §3 defines: ExactHash
// preserves operator identity, PatternHash normalizes operators to a
// generic class. Both are invariant under identifier/literal
// renaming because those node classes carry a generic label upstream
// in pkg/plugin/treesitter.
type Fingerprint struct {
	ExactHash   Digest
	PatternHash Digest
}

// LabelFunc returns the structural label of a node for a given
// normalize_ops setting. Implementations live in pkg/plugin —
// fingerprint.Compute never interprets node semantics itself, it
// only combines whatever labels it is given.
type LabelFunc func(nodeID int, normalizeOps bool) string

// Compute produces both fingerprints for g. label is invoked once per
// node per pass (two passes total); id/iteration order never affects
// the hash input, only label content and child order do, satisfying
// spec §4.4's determinism requirement.
func Compute(g *graph.LabeledGraph, label LabelFunc) Fingerprint {
	return Fingerprint{
		ExactHash:   merkle(g, func(id int) string { return label(id, false) }),
		PatternHash: merkle(g, func(id int) string { return label(id, true) }),
	}
}

// merkle computes h(root) where h(n) = H(label(n) || h(c1) || ... ||
// h(ck)) over ordered children, bottom-up via post-order recursion.
// Child hashes are concatenated with their own length prefix so no
// input byte sequence is ambiguous between "one long label" and
// "label plus a child hash" (classic Merkle length-prefix framing).
func merkle(g *graph.LabeledGraph, label func(id int) string) Digest {
	memo := make(map[int]Digest, g.NodeCount())
	var hash func(id int) Digest
	hash = func(id int) Digest {
		if d, ok := memo[id]; ok {
			return d
		}
		h := blake3.New()
		writeFramed(h, []byte(label(id)))
		for _, c := range g.Children(id) {
			childDigest := hash(c)
			writeFramed(h, childDigest[:])
		}
		sum := h.Sum(nil)
		var d Digest
		copy(d[:], sum[:16])
		memo[id] = d
		return d
	}
	return hash(g.Root())
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

// writeFramed writes a 4-byte big-endian length prefix followed by
// the payload, so variable-length labels and fixed-length child
// digests can never collide on input bytes.
func writeFramed(w byteWriter, payload []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	_, _ = w.Write(lenBuf[:])
	_, _ = w.Write(payload)
}

// NormalizedHash is a cheap secondary key derived from a token
// stream, grounded on the teacher's computeNormalizedHash. It is not
// part of the structural fingerprint itself, and no other package in
// this module calls it.
func NormalizedHash(tokens []string) uint64 {
	h := xxhash.New()
	for _, tok := range tokens {
		_, _ = h.WriteString(tok)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
