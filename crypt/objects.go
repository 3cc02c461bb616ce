package crypt

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// DecryptObject decrypts every string and stream payload inside obj, which
// is the value of the indirect object id. Containers are modified in place.
// Streams exempt from encryption are returned unchanged.
func (s *State) DecryptObject(id core.ObjectID, obj core.Object) (core.Object, error) {
	return s.apply(id, obj, false)
}

// EncryptObject encrypts every string and stream payload inside obj in
// place. Callers that must keep the plaintext pass a copy.
func (s *State) EncryptObject(id core.ObjectID, obj core.Object) (core.Object, error) {
	return s.apply(id, obj, true)
}

// Exempt reports whether a stream is stored in plaintext regardless of the
// document's encryption: cross-reference streams always are, and metadata
// streams are when EncryptMetadata is false.
func (s *State) Exempt(stream *core.Stream) bool {
	t, _ := stream.Dict.GetName("Type")
	switch t {
	case "XRef":
		return true
	case "Metadata":
		return !s.encryptMetadata
	}
	return false
}

func (s *State) apply(id core.ObjectID, obj core.Object, encrypt bool) (core.Object, error) {
	if stream, ok := obj.(*core.Stream); ok && s.Exempt(stream) {
		return obj, nil
	}

	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = fmt.Errorf("object %v: %w", id, err)
		}
	}

	out := core.Transform(obj, func(o core.Object) core.Object {
		switch v := o.(type) {
		case core.String:
			data, err := s.cryptBytes(id, v.Value, s.strF, encrypt)
			if err != nil {
				fail(err)
				return o
			}
			return core.String{Value: data, Format: v.Format}
		case *core.Stream:
			m := s.streamMethod(v)
			data, err := s.cryptBytes(id, v.Data, m, encrypt)
			if err != nil {
				fail(err)
				return o
			}
			v.Data = data
			v.Dict.Set("Length", core.Int(len(data)))
			if !encrypt {
				stripCryptFilter(v)
			}
		}
		return o
	})
	return out, firstErr
}

// streamMethod picks the method for a stream payload. A leading Crypt filter
// names the crypt filter to use; otherwise StmF applies.
func (s *State) streamMethod(stream *core.Stream) method {
	filters := stream.Filters()
	if len(filters) == 0 || filters[0] != "Crypt" {
		return s.stmF
	}
	name := core.Name("Identity")
	if params := cryptFilterParams(stream.Dict.Get("DecodeParms")); params != nil {
		if n, ok := params.GetName("Name"); ok {
			name = n
		}
	}
	if m, ok := s.filters[name]; ok {
		return m
	}
	return s.stmF
}

func cryptFilterParams(obj core.Object) *core.Dict {
	switch v := obj.(type) {
	case *core.Dict:
		return v
	case core.Array:
		d, _ := v.Get(0).(*core.Dict)
		return d
	}
	return nil
}

// stripCryptFilter removes a leading Crypt filter once it has been applied
func stripCryptFilter(stream *core.Stream) {
	switch f := stream.Dict.Get("Filter").(type) {
	case core.Name:
		if f == "Crypt" {
			stream.Dict.Delete("Filter")
			stream.Dict.Delete("DecodeParms")
		}
	case core.Array:
		if len(f) == 0 || f[0] != core.Name("Crypt") {
			return
		}
		rest := f[1:]
		if len(rest) == 0 {
			stream.Dict.Delete("Filter")
		} else {
			stream.Dict.Set("Filter", rest)
		}
		switch p := stream.Dict.Get("DecodeParms").(type) {
		case core.Array:
			if len(p) > 1 {
				stream.Dict.Set("DecodeParms", p[1:])
			} else {
				stream.Dict.Delete("DecodeParms")
			}
		case *core.Dict:
			stream.Dict.Delete("DecodeParms")
		}
	}
}
