package core

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// TestResolveXRefIntact tests that a valid index is used without a scan
func TestResolveXRefIntact(t *testing.T) {
	_, data := simpleDocument()
	table, recovered, err := ResolveXRef(data)
	if err != nil {
		t.Fatal(err)
	}
	if recovered {
		t.Error("intact file should not need recovery")
	}
	if table.Size() != 4 {
		t.Errorf("Size = %d", table.Size())
	}
}

// TestResolveXRefBadStartxref tests recovery that reproduces the original index
func TestResolveXRefBadStartxref(t *testing.T) {
	b, data := simpleDocument()
	corrupt := bytes.Replace(data, []byte(fmt.Sprintf("startxref\n%d", bytes.Index(data, []byte("xref\n0 1")))), []byte("startxref\n7"), 1)

	table, recovered, err := ResolveXRef(corrupt)
	if err != nil {
		t.Fatal(err)
	}
	if !recovered {
		t.Error("expected recovery")
	}
	for num, off := range b.offsets {
		entry, ok := table.Get(num)
		if !ok || entry.Type != XRefInUse || entry.Offset != int64(off) {
			t.Errorf("entry %d = %+v, want offset %d", num, entry, off)
		}
	}
	if ref, _ := table.Trailer.GetIndirectRef("Root"); ref != Ref(1, 0) {
		t.Errorf("Root = %v", table.Trailer.Get("Root"))
	}
	if size, _ := table.Trailer.GetInt("Size"); size != 4 {
		t.Errorf("Size = %d", size)
	}
}

// TestResolveXRefWrongOffsets tests recovery when entries point at the wrong place
func TestResolveXRefWrongOffsets(t *testing.T) {
	b := newPDFBuilder()
	b.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.object(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	real2 := b.offsets[2]
	b.offsets[2] = b.offsets[1]
	off := b.table("<< /Size 3 /Root 1 0 R >>", true, 1, 2)
	data := b.finish(off)

	parsed, err := NewXRefParser(data).ParseAll()
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateXRef(data, parsed); err == nil {
		t.Error("ValidateXRef should reject a mismatched header")
	}

	table, recovered, err := ResolveXRef(data)
	if err != nil {
		t.Fatal(err)
	}
	if !recovered {
		t.Error("expected recovery")
	}
	if entry, _ := table.Get(2); entry.Offset != int64(real2) {
		t.Errorf("entry 2 = %+v, want offset %d", entry, real2)
	}
}

// TestRecoverSynthesizesTrailer tests a file with no index at all
func TestRecoverSynthesizesTrailer(t *testing.T) {
	data := []byte("%PDF-1.4\n" +
		"1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
		"2 0 obj << /Type /Pages /Kids [] /Count 0 >> endobj\n" +
		"7 0 obj << /Producer (scanner) >> endobj\n")

	table, recovered, err := ResolveXRef(data)
	if err != nil {
		t.Fatal(err)
	}
	if !recovered {
		t.Error("expected recovery")
	}
	if ref, _ := table.Trailer.GetIndirectRef("Root"); ref != Ref(1, 0) {
		t.Errorf("Root = %v", table.Trailer.Get("Root"))
	}
	if ref, _ := table.Trailer.GetIndirectRef("Info"); ref != Ref(7, 0) {
		t.Errorf("Info = %v", table.Trailer.Get("Info"))
	}
	if size, _ := table.Trailer.GetInt("Size"); size != 8 {
		t.Errorf("Size = %d, want 8", size)
	}
}

// TestRecoverLaterDefinitionWins tests duplicate object numbers
func TestRecoverLaterDefinitionWins(t *testing.T) {
	data := []byte("%PDF-1.4\n" +
		"1 0 obj << /Type /Catalog >> endobj\n" +
		"2 0 obj (old) endobj\n" +
		"2 0 obj (new) endobj\n" +
		"trailer << /Root 1 0 R >>\n")
	later := bytes.LastIndex(data, []byte("2 0 obj"))

	table, err := Recover(data)
	if err != nil {
		t.Fatal(err)
	}
	if entry, _ := table.Get(2); entry.Offset != int64(later) {
		t.Errorf("entry 2 offset = %d, want %d", entry.Offset, later)
	}
}

// TestRecoverIgnoresEmbeddedNumbers tests the token boundary check
func TestRecoverIgnoresEmbeddedNumbers(t *testing.T) {
	data := []byte("%PDF-1.4\n" +
		"1 0 obj << /Type /Catalog /Note (x12 0 obj) >> endobj\n")
	table, err := Recover(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := table.Get(12); ok {
		t.Error("matched a header inside another token")
	}
}

// TestRecoverObjectStreamMembers tests that compressed members are indexed
func TestRecoverObjectStreamMembers(t *testing.T) {
	b := newPDFBuilder()
	b.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	payload, first := objStmPayload([]uint32{2, 3}, []string{
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R >>",
	})
	b.stream(4, fmt.Sprintf("/Type /ObjStm /N 2 /First %d", first), []byte(payload))
	b.buf.WriteString("trailer\n<< /Size 5 /Root 1 0 R >>\n")

	table, err := Recover(b.buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	for i, num := range []uint32{2, 3} {
		entry, ok := table.Get(num)
		if !ok || entry.Type != XRefCompressed || entry.Container != 4 || entry.Index != i {
			t.Errorf("entry %d = %+v", num, entry)
		}
	}
}

// TestRecoverXRefStreamTrailer tests falling back to an xref stream dictionary
func TestRecoverXRefStreamTrailer(t *testing.T) {
	b := newPDFBuilder()
	b.object(1, "<< /Type /Catalog >>")
	b.stream(2, "/Type /XRef /Size 3 /W [1 2 1] /Root 1 0 R /ID [<01> <02>]", xrefRecord(0, 0, 0))

	table, err := Recover(b.buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !table.Trailer.Has("ID") || table.Trailer.Has("W") {
		t.Errorf("trailer = %v", table.Trailer)
	}
}

// TestRecoverNothing tests a file with no usable objects
func TestRecoverNothing(t *testing.T) {
	_, _, err := ResolveXRef([]byte("%PDF-1.4\nnothing here\n%%EOF"))
	if !errors.Is(err, ErrNoTrailer) {
		t.Errorf("expected ErrNoTrailer, got %v", err)
	}
}
