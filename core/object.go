package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Object represents a PDF object
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType represents the type of PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

// String returns the string representation of the object type
func (t ObjectType) String() string {
	switch t {
	case ObjNull:
		return "Null"
	case ObjBool:
		return "Bool"
	case ObjInt:
		return "Int"
	case ObjReal:
		return "Real"
	case ObjString:
		return "String"
	case ObjName:
		return "Name"
	case ObjArray:
		return "Array"
	case ObjDict:
		return "Dict"
	case ObjStream:
		return "Stream"
	case ObjIndirect:
		return "IndirectRef"
	default:
		return "Unknown"
	}
}

// ObjectID addresses one indirect object in a document.
type ObjectID struct {
	Number     uint32
	Generation uint16
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%d %d", id.Number, id.Generation)
}

// Less orders ids by number, then generation.
func (id ObjectID) Less(other ObjectID) bool {
	if id.Number != other.Number {
		return id.Number < other.Number
	}
	return id.Generation < other.Generation
}

// Null represents a PDF null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Bool represents a PDF boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int represents a PDF integer
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number. PDF numeric literals carry single
// precision, so that is what is stored.
type Real float32

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 32) }

// StringFormat records how a string was (or should be) written.
type StringFormat int

const (
	StringLiteral StringFormat = iota // (text)
	StringHex                         // <74657874>
)

// String represents a PDF string. Value holds the raw bytes with escapes
// already resolved.
type String struct {
	Value  []byte
	Format StringFormat
}

// NewString creates a literal string
func NewString(s string) String {
	return String{Value: []byte(s), Format: StringLiteral}
}

// NewHexString creates a hexadecimal string
func NewHexString(b []byte) String {
	return String{Value: b, Format: StringHex}
}

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return string(s.Value) }

// Name represents a PDF name
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Array represents a PDF array
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	var parts []string
	for _, obj := range a {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the length of the array
func (a Array) Len() int {
	return len(a)
}

// Get retrieves an element at the given index
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetInt retrieves an integer at the given index
func (a Array) GetInt(index int) (Int, bool) {
	i, ok := a.Get(index).(Int)
	return i, ok
}

// GetName retrieves a name at the given index
func (a Array) GetName(index int) (Name, bool) {
	n, ok := a.Get(index).(Name)
	return n, ok
}

// GetString retrieves a string at the given index
func (a Array) GetString(index int) (String, bool) {
	s, ok := a.Get(index).(String)
	return s, ok
}

// Stream represents a PDF stream object. Data is the raw (still encoded)
// payload.
type Stream struct {
	Dict *Dict
	Data []byte

	compress bool
}

// NewStream creates a stream with the given dictionary and raw payload. A nil
// dictionary is replaced by an empty one.
func NewStream(dict *Dict, data []byte) *Stream {
	if dict == nil {
		dict = NewDict()
	}
	return &Stream{Dict: dict, Data: data}
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// IndirectRef represents an indirect object reference
type IndirectRef ObjectID

// Ref returns a reference to id
func Ref(number uint32, generation uint16) IndirectRef {
	return IndirectRef{Number: number, Generation: generation}
}

// ID returns the referenced object id
func (r IndirectRef) ID() ObjectID { return ObjectID(r) }

func (r IndirectRef) Type() ObjectType { return ObjIndirect }
func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject represents an indirect object with its id
type IndirectObject struct {
	ID     ObjectID
	Object Object
}

// Copy returns a deep copy of obj. Stream payloads are shared.
func Copy(obj Object) Object {
	switch v := obj.(type) {
	case String:
		return String{Value: append([]byte(nil), v.Value...), Format: v.Format}
	case Array:
		out := make(Array, len(v))
		for i, elem := range v {
			out[i] = Copy(elem)
		}
		return out
	case *Dict:
		return v.Clone()
	case *Stream:
		return &Stream{Dict: v.Dict.Clone(), Data: v.Data, compress: v.compress}
	default:
		return obj
	}
}

// Walk calls fn for obj and every object nested inside it, depth first. Stream
// dictionaries are visited, payloads are not.
func Walk(obj Object, fn func(Object)) {
	fn(obj)
	switch v := obj.(type) {
	case Array:
		for _, elem := range v {
			Walk(elem, fn)
		}
	case *Dict:
		v.Range(func(_ string, val Object) bool {
			Walk(val, fn)
			return true
		})
	case *Stream:
		Walk(v.Dict, fn)
	}
}

// Transform rebuilds obj bottom-up, replacing every nested value with
// fn(value). Dictionaries and arrays are modified in place.
func Transform(obj Object, fn func(Object) Object) Object {
	switch v := obj.(type) {
	case Array:
		for i, elem := range v {
			v[i] = Transform(elem, fn)
		}
	case *Dict:
		for _, key := range v.keys {
			v.values[key] = Transform(v.values[key], fn)
		}
	case *Stream:
		Transform(v.Dict, fn)
	}
	return fn(obj)
}
