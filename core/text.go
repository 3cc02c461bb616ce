package core

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	utf16BOM = []byte{0xFE, 0xFF}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// DecodeTextString converts a text string (as used in the document
// information dictionary) to UTF-8. Strings starting with a UTF-16BE byte
// order mark are decoded as UTF-16, valid UTF-8 is kept as is, and anything
// else is read as Latin-1, the closest standard charset to PDFDocEncoding.
func DecodeTextString(s String) string {
	raw := s.Value
	switch {
	case bytes.HasPrefix(raw, utf16BOM):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err == nil {
			return string(out)
		}
	case bytes.HasPrefix(raw, utf8BOM):
		return string(raw[len(utf8BOM):])
	case utf8.Valid(raw):
		return string(raw)
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	return string(out)
}

// EncodeTextString builds a text string from UTF-8. ASCII text is stored as
// is; anything else is stored as UTF-16BE with a byte order mark.
func EncodeTextString(text string) String {
	ascii := true
	for i := 0; i < len(text); i++ {
		if text[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return NewString(text)
	}

	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	out, err := enc.Bytes([]byte(text))
	if err != nil {
		return NewString(text)
	}
	return NewHexString(out)
}
