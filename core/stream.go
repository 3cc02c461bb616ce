package core

import (
	"fmt"

	"github.com/tsawler/pdfgraph/internal/filters"
)

// Filters returns the names in the stream's Filter entry, in decode order.
func (s *Stream) Filters() []Name {
	switch f := s.Dict.Get("Filter").(type) {
	case Name:
		return []Name{f}
	case Array:
		names := make([]Name, 0, len(f))
		for _, elem := range f {
			if n, ok := elem.(Name); ok {
				names = append(names, n)
			}
		}
		return names
	}
	return nil
}

// Decode decodes the stream data according to the Filter(s) specified in the
// stream dictionary, applying the matching DecodeParms to each step.
func (s *Stream) Decode() ([]byte, error) {
	filterObj := s.Dict.Get("Filter")
	if filterObj == nil {
		return s.Data, nil
	}

	paramsObj := s.Dict.Get("DecodeParms")
	data := s.Data

	switch f := filterObj.(type) {
	case Name:
		return decodeWithFilter(data, string(f), paramsObjToDict(paramsObj))
	case Array:
		for i, filter := range f {
			filterName, ok := filter.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is not a name: %T", i, filter)
			}

			// DecodeParms is either parallel to Filter or shared
			var params *Dict
			if paramsArray, ok := paramsObj.(Array); ok {
				params = paramsObjToDict(paramsArray.Get(i))
			} else {
				params = paramsObjToDict(paramsObj)
			}

			var err error
			data, err = decodeWithFilter(data, string(filterName), params)
			if err != nil {
				return nil, fmt.Errorf("filter %d (%s) failed: %w", i, filterName, err)
			}
		}
		return data, nil
	}

	return nil, fmt.Errorf("invalid Filter type: %T", filterObj)
}

// decodeWithFilter applies a single filter through the registry.
func decodeWithFilter(data []byte, filterName string, params *Dict) ([]byte, error) {
	codec, ok := filters.Lookup(filterName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, filterName)
	}
	return codec.Decode(data, dictToParams(params))
}

// SetContent replaces the payload with unfiltered data, dropping any Filter
// and DecodeParms and updating Length.
func (s *Stream) SetContent(data []byte) {
	s.Data = data
	s.Dict.Delete("Filter")
	s.Dict.Delete("DecodeParms")
	s.Dict.Set("Length", Int(len(data)))
}

// Encode applies the named filters to the current payload. Filters are given
// in decode order, the way they appear in the Filter array, and are prepended
// to any filters the stream already has.
func (s *Stream) Encode(names ...Name) error {
	if len(names) == 0 {
		return nil
	}

	existing := s.Filters()
	if len(existing) > 0 && s.Dict.Has("DecodeParms") {
		return fmt.Errorf("cannot prepend filters to a stream with DecodeParms")
	}

	data := s.Data
	for i := len(names) - 1; i >= 0; i-- {
		codec, ok := filters.Lookup(string(names[i]))
		if !ok || !codec.CanEncode() {
			return fmt.Errorf("%w: cannot encode %s", ErrUnsupportedFilter, names[i])
		}
		var err error
		data, err = codec.Encode(data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", names[i], err)
		}
	}

	all := append(append([]Name(nil), names...), existing...)
	if len(all) == 1 {
		s.Dict.Set("Filter", all[0])
	} else {
		arr := make(Array, len(all))
		for i, n := range all {
			arr[i] = n
		}
		s.Dict.Set("Filter", arr)
	}
	s.Data = data
	s.Dict.Set("Length", Int(len(data)))
	return nil
}

// Compress flate-encodes an unfiltered payload at the given level (0-9).
// Streams that already carry a filter are left alone.
func (s *Stream) Compress(level int) error {
	if s.Dict.Has("Filter") {
		return nil
	}
	encoded, err := filters.FlateEncode(s.Data, level)
	if err != nil {
		return err
	}
	s.Data = encoded
	s.Dict.Set("Filter", Name("FlateDecode"))
	s.Dict.Set("Length", Int(len(encoded)))
	s.compress = false
	return nil
}

// Decompress replaces the payload with its decoded form. Streams whose
// filters produce image data are left alone.
func (s *Stream) Decompress() error {
	for _, f := range s.Filters() {
		if filters.IsImageCodec(string(f)) {
			return nil
		}
	}
	decoded, err := s.Decode()
	if err != nil {
		return err
	}
	s.SetContent(decoded)
	return nil
}

// MarkCompress asks the writer to flate-compress this stream on save.
func (s *Stream) MarkCompress() { s.compress = true }

// WantsCompression reports whether the stream was marked for compression
// and has no filter yet.
func (s *Stream) WantsCompression() bool {
	return s.compress && !s.Dict.Has("Filter")
}

// paramsObjToDict converts a DecodeParms object to a Dict.
// Returns nil if the object is nil, Null, or not a Dict.
func paramsObjToDict(obj Object) *Dict {
	dict, _ := obj.(*Dict)
	return dict
}

// dictToParams converts a *Dict to filters.Params, translating PDF object
// types to Go primitive types (Int->int, Real->float64, Bool->bool, etc.).
func dictToParams(dict *Dict) filters.Params {
	if dict == nil {
		return nil
	}

	params := make(filters.Params, dict.Len())
	dict.Range(func(k string, v Object) bool {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj.Value)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
		return true
	})
	return params
}
