// Package atom interns byte strings (chiefly RCS file-name paths) into
// pointer-equal handles and precomputes a Bloom signature for each one.
//
// Upstream RCS/CVS parsing may intern names concurrently, but by the
// time the export core walks the frozen commit graph, atoms and their
// Bloom signatures are immutable, so reads here need no locking.
// Interner itself does no locking: concurrent Intern calls on one
// Interner are not safe.
package atom

import "hash/fnv"

// BloomWords is the width of the per-atom Bloom signature, in 64-bit
// words (256 bits total). This mirrors cvs-fast-export's BLOOMLENGTH:
// wide enough that the union of all files in a commit rarely saturates
// the filter, so the parent-membership probe in export stays a useful
// pre-filter rather than a rubber stamp.
const BloomWords = 4

const bloomBits = BloomWords * 64

// Bloom is a fixed-size bit-vector summarizing set membership.
type Bloom [BloomWords]uint64

// Overlaps reports whether any bit of other is also set in b — the
// fast pre-filter check used to decide "cf cannot be in parent".
func (b Bloom) Overlaps(other Bloom) bool {
	for i := range b {
		if b[i]&other[i] != 0 {
			return true
		}
	}
	return false
}

// Union returns the bitwise OR of b and other, used to build a
// commit-level Bloom filter out of its files' atom signatures.
func (b Bloom) Union(other Bloom) Bloom {
	var out Bloom
	for i := range b {
		out[i] = b[i] | other[i]
	}
	return out
}

// Atom is an interned byte string: two Atoms compare equal as strings
// if and only if they are the same pointer.
type Atom struct {
	name  string
	bloom Bloom
}

// String returns the interned text.
func (a *Atom) String() string {
	if a == nil {
		return ""
	}
	return a.name
}

// Bloom returns the atom's precomputed Bloom signature.
func (a *Atom) Bloom() Bloom {
	if a == nil {
		return Bloom{}
	}
	return a.bloom
}

func computeBloom(name string) Bloom {
	var b Bloom
	h1 := fnv.New64a()
	h1.Write([]byte(name))
	sum1 := h1.Sum64()
	h2 := fnv.New64()
	h2.Write([]byte(name))
	sum2 := h2.Sum64()
	// Double hashing (Kirsch-Mitzenmacher): derive k=3 bit positions
	// from two independent hashes instead of carrying three hash
	// functions around.
	const k = 3
	for i := 0; i < k; i++ {
		pos := (sum1 + uint64(i)*sum2) % bloomBits
		b[pos/64] |= 1 << (pos % 64)
	}
	return b
}

// Interner hands out a stable *Atom per unique byte string.
type Interner struct {
	table map[string]*Atom
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{table: make(map[string]*Atom)}
}

// Intern returns the unique Atom for name, creating it on first use.
func (in *Interner) Intern(name string) *Atom {
	if a, ok := in.table[name]; ok {
		return a
	}
	a := &Atom{name: name, bloom: computeBloom(name)}
	in.table[name] = a
	return a
}

// Lookup returns the Atom for name without creating it.
func (in *Interner) Lookup(name string) (*Atom, bool) {
	a, ok := in.table[name]
	return a, ok
}

// Len reports how many distinct atoms have been interned.
func (in *Interner) Len() int {
	return len(in.table)
}
