package resolver

import (
	"testing"

	"github.com/tsawler/pdfgraph/core"
)

// pageTree builds a catalog, a page tree node and one page numbered from base
func pageTree(base uint32, content string) objectMap {
	objects := objectMap{}
	objects.add(base, core.DictOf("Type", core.Name("Catalog"), "Pages", core.Ref(base+1, 0)))
	objects.add(base+1, core.DictOf(
		"Type", core.Name("Pages"),
		"Kids", core.Array{core.Ref(base+2, 0)},
		"Count", core.Int(1),
	))
	objects.add(base+2, core.DictOf(
		"Type", core.Name("Page"),
		"Parent", core.Ref(base+1, 0),
		"Contents", core.Ref(base+3, 0),
	))
	objects.add(base+3, core.NewStream(core.DictOf("Length", core.Int(len(content))), []byte(content)))
	return objects
}

// TestEquivalentRenumbered tests that graphs differing only in numbering
// compare equal, parent cycles included
func TestEquivalentRenumbered(t *testing.T) {
	a := pageTree(1, "BT (hi) Tj ET")
	b := pageTree(40, "BT (hi) Tj ET")

	eq, err := Equivalent(New(a), core.Ref(1, 0), New(b), core.Ref(40, 0))
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !eq {
		t.Error("renumbered graphs should be equivalent")
	}
}

// TestEquivalentDifferentContent tests that payload differences are seen
func TestEquivalentDifferentContent(t *testing.T) {
	a := pageTree(1, "BT (hi) Tj ET")
	b := pageTree(1, "BT (ho) Tj ET")

	eq, err := Equivalent(New(a), core.Ref(1, 0), New(b), core.Ref(1, 0))
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if eq {
		t.Error("different content streams should not be equivalent")
	}
}

// TestEquivalentCompressedStream tests that streams compare by decoded
// payload
func TestEquivalentCompressedStream(t *testing.T) {
	a := pageTree(1, "BT (hi) Tj ET")
	b := pageTree(1, "BT (hi) Tj ET")

	stream := b[core.ObjectID{Number: 4}].(*core.Stream)
	if err := stream.Compress(9); err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	eq, err := Equivalent(New(a), core.Ref(1, 0), New(b), core.Ref(1, 0))
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !eq {
		t.Error("compressed copy should be equivalent")
	}
}

// TestEquivalentValues tests direct values
func TestEquivalentValues(t *testing.T) {
	r := New(objectMap{})

	tests := []struct {
		name string
		a, b core.Object
		want bool
	}{
		{"ints", core.Int(1), core.Int(1), true},
		{"int vs real", core.Int(1), core.Real(1), false},
		{"strings by bytes", core.NewString("ab"), core.NewHexString([]byte("ab")), true},
		{"array length", core.Array{core.Int(1)}, core.Array{}, false},
		{"dict keys", core.DictOf("A", core.Int(1)), core.DictOf("B", core.Int(1)), false},
		{"dict order ignored", core.DictOf("A", core.Int(1), "B", core.Int(2)), core.DictOf("B", core.Int(2), "A", core.Int(1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Equivalent(r, tt.a, r, tt.b)
			if err != nil {
				t.Fatalf("compare failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Equivalent(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
