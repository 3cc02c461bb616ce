package core

import (
	"fmt"
	"strings"
	"testing"
)

// objStmPayload lays out members the way an object stream stores them and
// returns the decoded payload and its First offset.
func objStmPayload(nums []uint32, bodies []string) (string, int) {
	var header, body strings.Builder
	for i, num := range nums {
		fmt.Fprintf(&header, "%d %d ", num, body.Len())
		body.WriteString(bodies[i])
		body.WriteString("\n")
	}
	return header.String() + body.String(), header.Len()
}

func newTestObjStm(t *testing.T, nums []uint32, bodies []string) *ObjectStream {
	t.Helper()
	payload, first := objStmPayload(nums, bodies)
	stream := NewStream(DictOf(
		"Type", Name("ObjStm"),
		"N", Int(len(nums)),
		"First", Int(first),
	), []byte(payload))
	os, err := NewObjectStream(stream)
	if err != nil {
		t.Fatal(err)
	}
	return os
}

// TestObjectStreamMembers tests extraction by index and number
func TestObjectStreamMembers(t *testing.T) {
	os := newTestObjStm(t, []uint32{10, 11, 12}, []string{
		"<< /Type /Font /Subtype /Type1 >>",
		"[1 0 R 2 0 R]",
		"(text)",
	})

	if os.N() != 3 {
		t.Errorf("N = %d", os.N())
	}

	obj, num, err := os.GetObjectByIndex(1)
	if err != nil {
		t.Fatal(err)
	}
	if num != 11 {
		t.Errorf("num = %d", num)
	}
	if arr, ok := obj.(Array); !ok || arr[1] != Ref(2, 0) {
		t.Errorf("member 11 = %v", obj)
	}

	obj, idx, err := os.GetObjectByNumber(10)
	if err != nil || idx != 0 {
		t.Fatalf("GetObjectByNumber = %v, %d, %v", obj, idx, err)
	}
	if !obj.(*Dict).HasType("Font") {
		t.Error("member 10 should be a font")
	}

	if _, _, err := os.GetObjectByNumber(99); err == nil {
		t.Error("expected error for missing member")
	}
	if _, _, err := os.GetObjectByIndex(3); err == nil {
		t.Error("expected error for out of range index")
	}

	nums, err := os.ObjectNumbers()
	if err != nil || len(nums) != 3 || nums[2] != 12 {
		t.Errorf("ObjectNumbers = %v, %v", nums, err)
	}
	if ok, _ := os.ContainsObject(12); !ok {
		t.Error("ContainsObject(12) = false")
	}
}

// TestObjectStreamObjects tests bulk extraction and duplicate handling
func TestObjectStreamObjects(t *testing.T) {
	os := newTestObjStm(t, []uint32{5, 6, 5}, []string{"1", "2", "3"})
	objs, failed, err := os.Objects()
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 0 {
		t.Errorf("failures: %v", failed)
	}
	if objs[5] != Int(1) || objs[6] != Int(2) {
		t.Errorf("objects = %v", objs)
	}
}

// TestObjectStreamBadMember tests that one bad member does not spoil the rest
func TestObjectStreamBadMember(t *testing.T) {
	os := newTestObjStm(t, []uint32{1, 2}, []string{"<< /A", "/Fine"})
	objs, failed, err := os.Objects()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := failed[1]; !ok {
		t.Error("member 1 should have failed")
	}
	if objs[2] != Name("Fine") {
		t.Errorf("member 2 = %v", objs[2])
	}
}

// TestObjectStreamCompressed tests a flate-encoded container
func TestObjectStreamCompressed(t *testing.T) {
	payload, first := objStmPayload([]uint32{3}, []string{"<< /Kids [] >>"})
	stream := NewStream(DictOf("Type", Name("ObjStm"), "N", Int(1), "First", Int(first)), []byte(payload))
	if err := stream.Compress(6); err != nil {
		t.Fatal(err)
	}
	os, err := NewObjectStream(stream)
	if err != nil {
		t.Fatal(err)
	}
	obj, _, err := os.GetObjectByNumber(3)
	if err != nil {
		t.Fatal(err)
	}
	if !obj.(*Dict).Has("Kids") {
		t.Errorf("got %v", obj)
	}
}

// TestNewObjectStreamValidation tests rejected dictionaries
func TestNewObjectStreamValidation(t *testing.T) {
	tests := []*Stream{
		nil,
		NewStream(DictOf("Type", Name("XRef"), "N", Int(1), "First", Int(0)), nil),
		NewStream(DictOf("Type", Name("ObjStm"), "First", Int(0)), nil),
		NewStream(DictOf("Type", Name("ObjStm"), "N", Int(1), "First", Int(-1)), nil),
	}
	for i, s := range tests {
		if _, err := NewObjectStream(s); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}

	ext := NewStream(DictOf("Type", Name("ObjStm"), "N", Int(0), "First", Int(0), "Extends", Ref(7, 0)), nil)
	os, err := NewObjectStream(ext)
	if err != nil {
		t.Fatal(err)
	}
	if os.Extends() == nil || os.Extends().Number != 7 {
		t.Errorf("Extends = %v", os.Extends())
	}
}

// TestObjectStreamFirstBeyondData tests a First offset past the payload
func TestObjectStreamFirstBeyondData(t *testing.T) {
	s := NewStream(DictOf("Type", Name("ObjStm"), "N", Int(1), "First", Int(100)), []byte("1 0 null"))
	os, err := NewObjectStream(s)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.ObjectNumbers(); err == nil {
		t.Error("expected error")
	}
}
