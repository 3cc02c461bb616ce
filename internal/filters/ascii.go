package filters

import (
	"bytes"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
)

// ASCIIHexDecode decodes ASCII hexadecimal encoded data.
// Each pair of hexadecimal digits (0-9, A-F, a-f) represents one byte.
// Whitespace is ignored, > marks end of data and an odd final digit is
// padded with 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	var result bytes.Buffer

	var hi byte
	half := false
	for _, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, err := hexDigitToByte(c)
		if err != nil {
			return nil, err
		}
		if half {
			result.WriteByte(hi<<4 | v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		result.WriteByte(hi << 4)
	}

	return result.Bytes(), nil
}

// ASCIIHexEncode encodes data as uppercase hex digits followed by the >
// end-of-data marker.
func ASCIIHexEncode(data []byte) ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(data)), hex.EncodedLen(len(data))+1)
	hex.Encode(out, data)
	return append(bytes.ToUpper(out), '>'), nil
}

// ASCII85Decode decodes ASCII base-85 (Ascii85) encoded data.
// Each group of 5 ASCII characters (! to u, values 33-117) represents 4 bytes.
// The special character 'z' represents four zero bytes. The sequence ~> marks
// end of data; an optional leading <~ is skipped.
func ASCII85Decode(data []byte) ([]byte, error) {
	var result bytes.Buffer

	data = bytes.TrimLeft(data, " \t\r\n\f\x00")
	data = bytes.TrimPrefix(data, []byte("<~"))

	group := make([]byte, 0, 5)
	flush := func() {
		if len(group) == 0 {
			return
		}
		// Pad incomplete group with 'u' (84 = highest ASCII85 value)
		n := len(group) - 1
		for len(group) < 5 {
			group = append(group, 84)
		}
		var value uint32
		for _, d := range group {
			value = value*85 + uint32(d)
		}
		for j := 0; j < n; j++ {
			result.WriteByte(byte(value >> (24 - j*8)))
		}
		group = group[:0]
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			flush()
			return result.Bytes(), nil
		case c == 'z' && len(group) == 0:
			result.Write([]byte{0, 0, 0, 0})
			continue
		case c < '!' || c > 'u':
			return nil, fmt.Errorf("invalid ASCII85 character: %c", c)
		}

		group = append(group, c-'!')
		if len(group) == 5 {
			flush()
		}
	}
	flush()

	return result.Bytes(), nil
}

// ASCII85Encode encodes data in base-85 followed by the ~> end-of-data marker.
func ASCII85Encode(data []byte) ([]byte, error) {
	out := make([]byte, ascii85.MaxEncodedLen(len(data)), ascii85.MaxEncodedLen(len(data))+2)
	n := ascii85.Encode(out, data)
	return append(out[:n], '~', '>'), nil
}

// hexDigitToByte converts a hexadecimal character to its numeric value (0-15).
func hexDigitToByte(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit: %c", c)
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
