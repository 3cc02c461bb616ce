package filters

import "strings"

// Codec is one stream filter. Decode undoes the filter, Encode applies it.
// Encode is nil for filters that can only be read.
type Codec struct {
	Name   string
	Decode func(data []byte, params Params) ([]byte, error)
	Encode func(data []byte) ([]byte, error)
}

// CanEncode reports whether the codec has an encoder
func (c *Codec) CanEncode() bool { return c.Encode != nil }

func passThrough(data []byte, _ Params) ([]byte, error) { return data, nil }

var codecs = []*Codec{
	{
		Name:   "FlateDecode",
		Decode: FlateDecode,
		Encode: func(data []byte) ([]byte, error) { return FlateEncode(data, DefaultCompression) },
	},
	{Name: "LZWDecode", Decode: LZWDecode, Encode: LZWEncode},
	{
		Name:   "ASCIIHexDecode",
		Decode: func(data []byte, _ Params) ([]byte, error) { return ASCIIHexDecode(data) },
		Encode: ASCIIHexEncode,
	},
	{
		Name:   "ASCII85Decode",
		Decode: func(data []byte, _ Params) ([]byte, error) { return ASCII85Decode(data) },
		Encode: ASCII85Encode,
	},
	{
		Name:   "RunLengthDecode",
		Decode: func(data []byte, _ Params) ([]byte, error) { return RunLengthDecode(data) },
		Encode: RunLengthEncode,
	},
	{Name: "CCITTFaxDecode", Decode: CCITTFaxDecode},
	// Image codecs are left to the consumer
	{Name: "DCTDecode", Decode: passThrough},
	{Name: "JPXDecode", Decode: passThrough},
	{Name: "JBIG2Decode", Decode: passThrough},
}

// abbreviations used in inline images and by some writers
var abbreviations = map[string]string{
	"Fl":  "FlateDecode",
	"LZW": "LZWDecode",
	"AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode",
	"RL":  "RunLengthDecode",
	"CCF": "CCITTFaxDecode",
	"DCT": "DCTDecode",
}

var byName = func() map[string]*Codec {
	m := make(map[string]*Codec, len(codecs)+len(abbreviations))
	for _, c := range codecs {
		m[c.Name] = c
	}
	for short, full := range abbreviations {
		m[short] = m[full]
	}
	return m
}()

// Lookup returns the codec registered under name or its abbreviation.
func Lookup(name string) (*Codec, bool) {
	c, ok := byName[name]
	return c, ok
}

// Names returns the full names of all registered codecs
func Names() []string {
	names := make([]string, len(codecs))
	for i, c := range codecs {
		names[i] = c.Name
	}
	return names
}

// IsImageCodec reports whether name is a filter whose output is image data
// this package does not interpret.
func IsImageCodec(name string) bool {
	switch strings.TrimSpace(name) {
	case "DCTDecode", "DCT", "JPXDecode", "JBIG2Decode":
		return true
	}
	return false
}
