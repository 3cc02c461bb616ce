package filters

import (
	"bytes"
	"testing"
)

// TestCodecRoundTrip tests decode(encode(x)) == x for every encodable codec
func TestCodecRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"empty":        {},
		"single byte":  {0x42},
		"nulls":        bytes.Repeat([]byte{0}, 257),
		"binary":       {0x00, 0xFF, 0x00, 0x80, 0x7F, 0x01, 0x00, 0x00, 0xFE},
		"text":         []byte("BT /F1 12 Tf 72 712 Td (Hello) Tj ET"),
		"runs":         append(bytes.Repeat([]byte{'a'}, 200), bytes.Repeat([]byte{'b'}, 3)...),
		"all values":   allByteValues(),
		"z candidates": {0, 0, 0, 0, 1, 0, 0, 0, 0},
	}

	for _, name := range Names() {
		codec, _ := Lookup(name)
		if !codec.CanEncode() {
			continue
		}
		for label, payload := range payloads {
			t.Run(name+"/"+label, func(t *testing.T) {
				encoded, err := codec.Encode(payload)
				if err != nil {
					t.Fatalf("encode failed: %v", err)
				}
				decoded, err := codec.Decode(encoded, nil)
				if err != nil {
					t.Fatalf("decode failed: %v", err)
				}
				if !bytes.Equal(decoded, payload) {
					t.Errorf("round trip mismatch:\ngot:  %v\nwant: %v", decoded, payload)
				}
			})
		}
	}
}

func allByteValues() []byte {
	b := make([]byte, 512)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// TestLookupAbbreviations tests that short names resolve to the same codec
func TestLookupAbbreviations(t *testing.T) {
	tests := map[string]string{
		"Fl":  "FlateDecode",
		"LZW": "LZWDecode",
		"AHx": "ASCIIHexDecode",
		"A85": "ASCII85Decode",
		"RL":  "RunLengthDecode",
		"CCF": "CCITTFaxDecode",
		"DCT": "DCTDecode",
	}
	for short, full := range tests {
		c, ok := Lookup(short)
		if !ok {
			t.Errorf("Lookup(%q) failed", short)
			continue
		}
		if c.Name != full {
			t.Errorf("Lookup(%q).Name = %q, want %q", short, c.Name, full)
		}
	}

	if _, ok := Lookup("NoSuchDecode"); ok {
		t.Error("unknown filter should not resolve")
	}
}

// TestDecodeOnlyCodecs tests that image and fax codecs have no encoder
func TestDecodeOnlyCodecs(t *testing.T) {
	for _, name := range []string{"CCITTFaxDecode", "DCTDecode", "JPXDecode", "JBIG2Decode"} {
		c, ok := Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) failed", name)
		}
		if c.CanEncode() {
			t.Errorf("%s should be decode-only", name)
		}
	}

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	c, _ := Lookup("DCTDecode")
	got, err := c.Decode(jpeg, nil)
	if err != nil || !bytes.Equal(got, jpeg) {
		t.Errorf("DCTDecode should pass data through, got %v, %v", got, err)
	}
	if !IsImageCodec("JPXDecode") || IsImageCodec("FlateDecode") {
		t.Error("IsImageCodec misclassified a filter")
	}
}
