package core

import (
	"fmt"
)

// ObjectStream represents a PDF Object Stream (Type /ObjStm), introduced in PDF 1.5.
// Object streams store multiple objects in a single compressed stream, providing
// better compression than storing objects individually.
type ObjectStream struct {
	stream  *Stream              // Underlying stream object
	n       int                  // Number of objects in stream
	first   int                  // Byte offset of first object in decoded data
	extends *IndirectRef         // Optional reference to another ObjStm this one extends
	objects map[int]Object       // Cached parsed objects (index -> object)
	offsets []objectStreamOffset // Parsed offset pairs from header
	decoded []byte               // Decoded stream data (cached)
}

// objectStreamOffset pairs an object number with its byte offset within the decoded data.
type objectStreamOffset struct {
	ObjNum uint32
	Offset int // relative to First
}

// NewObjectStream creates an ObjectStream from a Stream object.
// The stream must have Type /ObjStm and required entries /N and /First.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}

	if t, ok := stream.Dict.GetName("Type"); !ok || t != "ObjStm" {
		return nil, fmt.Errorf("stream is not an object stream, got type: %v", stream.Dict.Get("Type"))
	}

	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("invalid /N: %v", stream.Dict.Get("N"))
	}

	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("invalid /First: %v", stream.Dict.Get("First"))
	}

	var extends *IndirectRef
	if ref, ok := stream.Dict.GetIndirectRef("Extends"); ok {
		extends = &ref
	}

	return &ObjectStream{
		stream:  stream,
		n:       int(n),
		first:   int(first),
		extends: extends,
		objects: make(map[int]Object),
	}, nil
}

// N returns the number of objects stored in the stream.
func (os *ObjectStream) N() int {
	return os.n
}

// First returns the byte offset to the first object's data in the decoded stream.
// The header (object number/offset pairs) precedes this offset.
func (os *ObjectStream) First() int {
	return os.first
}

// Extends returns the reference to another object stream this one extends, or nil.
func (os *ObjectStream) Extends() *IndirectRef {
	return os.extends
}

// decode decodes the stream data and parses the header. Called lazily on first access.
func (os *ObjectStream) decode() error {
	if os.decoded != nil {
		return nil
	}

	decoded, err := os.stream.Decode()
	if err != nil {
		return fmt.Errorf("failed to decode object stream: %w", err)
	}
	os.decoded = decoded

	if err := os.parseHeader(); err != nil {
		return fmt.Errorf("failed to parse object stream header: %w", err)
	}

	return nil
}

// parseHeader parses the object stream header containing N pairs of integers.
// Format: "objNum1 offset1 objNum2 offset2 ... objNumN offsetN". A header
// cut short keeps the pairs read so far.
func (os *ObjectStream) parseHeader() error {
	if os.first > len(os.decoded) {
		return fmt.Errorf("First offset (%d) exceeds decoded data length (%d)", os.first, len(os.decoded))
	}

	lexer := NewLexer(os.decoded[:os.first])
	os.offsets = make([]objectStreamOffset, 0, os.n)

	for i := 0; i < os.n; i++ {
		numTok, err := lexer.NextToken()
		if err != nil || numTok.Type != TokenInteger {
			break
		}
		offTok, err := lexer.NextToken()
		if err != nil || offTok.Type != TokenInteger {
			break
		}
		num, err1 := parseUint(numTok.Value, 32)
		off, err2 := parseUint(offTok.Value, 31)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("invalid header pair %d", i)
		}
		os.offsets = append(os.offsets, objectStreamOffset{ObjNum: uint32(num), Offset: int(off)})
	}

	if len(os.offsets) == 0 && os.n > 0 {
		return fmt.Errorf("no object offsets in header")
	}
	return nil
}

// GetObjectByIndex extracts an object by its index within the stream (0-based).
// Returns the object, its object number, and any error. The index corresponds
// to the position in the header, not the object number.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, uint32, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}

	if index < 0 || index >= len(os.offsets) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", index, len(os.offsets))
	}

	if obj, ok := os.objects[index]; ok {
		return obj, os.offsets[index].ObjNum, nil
	}

	offset := os.first + os.offsets[index].Offset
	if offset >= len(os.decoded) {
		return nil, 0, fmt.Errorf("object offset %d exceeds decoded data length %d", offset, len(os.decoded))
	}

	// Objects are self-delimiting, so parsing from the offset is enough
	obj, err := NewParserAt(os.decoded, offset).ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object at index %d: %w", index, err)
	}

	os.objects[index] = obj
	return obj, os.offsets[index].ObjNum, nil
}

// GetObjectByNumber finds and extracts an object by its object number.
// Returns the object, its index within the stream, and any error.
func (os *ObjectStream) GetObjectByNumber(objNum uint32) (Object, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}

	for i, entry := range os.offsets {
		if entry.ObjNum == objNum {
			obj, _, err := os.GetObjectByIndex(i)
			return obj, i, err
		}
	}

	return nil, 0, fmt.Errorf("object %d not found in object stream", objNum)
}

// ObjectNumbers returns the object numbers stored in this stream, in header order.
func (os *ObjectStream) ObjectNumbers() ([]uint32, error) {
	if err := os.decode(); err != nil {
		return nil, err
	}

	nums := make([]uint32, len(os.offsets))
	for i, entry := range os.offsets {
		nums[i] = entry.ObjNum
	}
	return nums, nil
}

// ContainsObject reports whether the given object number is stored in this stream.
func (os *ObjectStream) ContainsObject(objNum uint32) (bool, error) {
	if err := os.decode(); err != nil {
		return false, err
	}

	for _, entry := range os.offsets {
		if entry.ObjNum == objNum {
			return true, nil
		}
	}
	return false, nil
}

// Objects parses every member. Members that fail to parse are reported in
// the returned error map and left out of the result.
func (os *ObjectStream) Objects() (map[uint32]Object, map[uint32]error, error) {
	if err := os.decode(); err != nil {
		return nil, nil, err
	}

	out := make(map[uint32]Object, len(os.offsets))
	var failed map[uint32]error
	for i, entry := range os.offsets {
		obj, _, err := os.GetObjectByIndex(i)
		if err != nil {
			if failed == nil {
				failed = make(map[uint32]error)
			}
			failed[entry.ObjNum] = err
			continue
		}
		// The first definition of a number inside one container wins
		if _, dup := out[entry.ObjNum]; !dup {
			out[entry.ObjNum] = obj
		}
	}
	return out, failed, nil
}
