package resolver

import (
	"bytes"
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// Equivalent reports whether a, resolved against ra, has the same content as
// b, resolved against rb. References are followed on both sides, so two
// graphs that number their objects differently still compare equal. Stream
// payloads are compared after decoding. Cycles are handled by assuming a
// pair of ids already under comparison is equal.
func Equivalent(ra *Resolver, a core.Object, rb *Resolver, b core.Object) (bool, error) {
	c := &comparison{ra: ra, rb: rb, pairs: make(map[[2]core.ObjectID]bool)}
	return c.equal(a, b, 0)
}

type comparison struct {
	ra, rb *Resolver
	pairs  map[[2]core.ObjectID]bool
}

func (c *comparison) equal(a, b core.Object, depth int) (bool, error) {
	if depth > c.ra.maxDepth {
		return false, core.ErrMaxDepth
	}

	refA, isRefA := a.(core.IndirectRef)
	refB, isRefB := b.(core.IndirectRef)
	if isRefA && isRefB {
		key := [2]core.ObjectID{refA.ID(), refB.ID()}
		if c.pairs[key] {
			return true, nil
		}
		c.pairs[key] = true
	}
	if isRefA {
		resolved, err := c.ra.Resolve(a)
		if err != nil {
			return false, err
		}
		a = resolved
	}
	if isRefB {
		resolved, err := c.rb.Resolve(b)
		if err != nil {
			return false, err
		}
		b = resolved
	}

	switch va := a.(type) {
	case core.String:
		vb, ok := b.(core.String)
		return ok && bytes.Equal(va.Value, vb.Value), nil

	case core.Array:
		vb, ok := b.(core.Array)
		if !ok || len(va) != len(vb) {
			return false, nil
		}
		for i := range va {
			if eq, err := c.equal(va[i], vb[i], depth+1); !eq || err != nil {
				return false, err
			}
		}
		return true, nil

	case *core.Dict:
		vb, ok := b.(*core.Dict)
		if !ok {
			return false, nil
		}
		return c.equalDicts(va, vb, depth)

	case *core.Stream:
		vb, ok := b.(*core.Stream)
		if !ok {
			return false, nil
		}
		da, err := va.Decode()
		if err != nil {
			return false, fmt.Errorf("decode stream: %w", err)
		}
		db, err := vb.Decode()
		if err != nil {
			return false, fmt.Errorf("decode stream: %w", err)
		}
		if !bytes.Equal(da, db) {
			return false, nil
		}
		return c.equalDicts(streamDict(va), streamDict(vb), depth)
	}

	return a == b, nil
}

func (c *comparison) equalDicts(a, b *core.Dict, depth int) (bool, error) {
	if a.Len() != b.Len() {
		return false, nil
	}
	for _, key := range a.Keys() {
		if !b.Has(key) {
			return false, nil
		}
		if eq, err := c.equal(a.Get(key), b.Get(key), depth+1); !eq || err != nil {
			return false, err
		}
	}
	return true, nil
}

// streamDict drops the entries that describe the encoding rather than the
// content
func streamDict(s *core.Stream) *core.Dict {
	d := s.Dict.Clone()
	for _, key := range []string{"Length", "Filter", "DecodeParms"} {
		d.Delete(key)
	}
	return d
}
