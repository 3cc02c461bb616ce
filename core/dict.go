package core

import (
	"fmt"
	"strings"
)

// Dict represents a PDF dictionary. Keys keep their insertion order so a
// dictionary is written back the way it was read. A nil *Dict behaves as an
// empty dictionary for every read method.
type Dict struct {
	keys   []string
	values map[string]Object
}

// NewDict creates an empty dictionary
func NewDict() *Dict {
	return &Dict{values: make(map[string]Object)}
}

// DictOf builds a dictionary from alternating key/value pairs.
func DictOf(pairs ...any) *Dict {
	d := NewDict()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("core.DictOf: key %v is not a string", pairs[i]))
		}
		val, ok := pairs[i+1].(Object)
		if !ok {
			panic(fmt.Sprintf("core.DictOf: value for %q is not an Object", key))
		}
		d.Set(key, val)
	}
	return d
}

func (d *Dict) Type() ObjectType { return ObjDict }
func (d *Dict) String() string {
	var parts []string
	d.Range(func(key string, val Object) bool {
		parts = append(parts, fmt.Sprintf("/%s %s", key, val.String()))
		return true
	})
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Len returns the number of entries
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Get retrieves a value from the dictionary
func (d *Dict) Get(key string) Object {
	if d == nil {
		return nil
	}
	return d.values[key]
}

// Has checks if a key exists in the dictionary
func (d *Dict) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.values[key]
	return ok
}

// Set sets a value in the dictionary. An existing key keeps its position.
func (d *Dict) Set(key string, value Object) {
	if d.values == nil {
		d.values = make(map[string]Object)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Delete removes a key from the dictionary. Deleting a missing key is a no-op.
func (d *Dict) Delete(key string) {
	if d == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns all keys in insertion order
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (d *Dict) Range(fn func(key string, val Object) bool) {
	if d == nil {
		return
	}
	for _, key := range d.keys {
		if !fn(key, d.values[key]) {
			return
		}
	}
}

// Clone returns a deep copy of the dictionary
func (d *Dict) Clone() *Dict {
	if d == nil {
		return nil
	}
	out := &Dict{
		keys:   append([]string(nil), d.keys...),
		values: make(map[string]Object, len(d.values)),
	}
	for k, v := range d.values {
		out.values[k] = Copy(v)
	}
	return out
}

// HasType reports whether the Type or Subtype entry is the given name.
func (d *Dict) HasType(name Name) bool {
	if t, ok := d.GetName("Type"); ok && t == name {
		return true
	}
	if t, ok := d.GetName("Subtype"); ok && t == name {
		return true
	}
	return false
}

// GetName retrieves a name value
func (d *Dict) GetName(key string) (Name, bool) {
	name, ok := d.Get(key).(Name)
	return name, ok
}

// GetInt retrieves an integer value
func (d *Dict) GetInt(key string) (Int, bool) {
	i, ok := d.Get(key).(Int)
	return i, ok
}

// GetNumber retrieves an integer or real value as float64
func (d *Dict) GetNumber(key string) (float64, bool) {
	switch v := d.Get(key).(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// GetDict retrieves a dictionary value
func (d *Dict) GetDict(key string) (*Dict, bool) {
	dict, ok := d.Get(key).(*Dict)
	return dict, ok
}

// GetArray retrieves an array value
func (d *Dict) GetArray(key string) (Array, bool) {
	arr, ok := d.Get(key).(Array)
	return arr, ok
}

// GetString retrieves a string value
func (d *Dict) GetString(key string) (String, bool) {
	s, ok := d.Get(key).(String)
	return s, ok
}

// GetBool retrieves a boolean value
func (d *Dict) GetBool(key string) (Bool, bool) {
	b, ok := d.Get(key).(Bool)
	return b, ok
}

// GetStream retrieves a stream value
func (d *Dict) GetStream(key string) (*Stream, bool) {
	s, ok := d.Get(key).(*Stream)
	return s, ok
}

// GetIndirectRef retrieves an indirect reference
func (d *Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	ref, ok := d.Get(key).(IndirectRef)
	return ref, ok
}
