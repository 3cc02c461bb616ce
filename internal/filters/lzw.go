package filters

import (
	"bytes"
	"compress/lzw"
	"errors"
	"fmt"
	"io"

	tifflzw "golang.org/x/image/tiff/lzw"
)

const (
	lzwClear    = 256
	lzwEOD      = 257
	lzwFirst    = 258
	lzwMaxWidth = 12
	// The table is reset before the decoder could run out of 12-bit codes.
	lzwResetAt = 4093
)

// LZWDecode decompresses LZW data. EarlyChange (default 1) selects the
// code-width switch point; 1 is the TIFF-style variant PDF writers emit, 0
// the classic one. Predictors are applied as for FlateDecode.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	var r io.ReadCloser
	if getIntParam(params, "EarlyChange", 1) == 0 {
		r = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	} else {
		r = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("lzw decompression failed: %w", err)
	}
	return applyPredictor(out, params)
}

// LZWEncode compresses data with early-change LZW, starting with a Clear code
// and ending with EOD.
func LZWEncode(data []byte) ([]byte, error) {
	w := &bitWriter{}
	width := uint(9)
	next := lzwFirst
	table := make(map[uint32]int)

	w.write(lzwClear, width)
	if len(data) == 0 {
		w.write(lzwEOD, width)
		return w.bytes(), nil
	}

	prefix := int(data[0])
	for _, c := range data[1:] {
		key := uint32(prefix)<<8 | uint32(c)
		if code, ok := table[key]; ok {
			prefix = code
			continue
		}

		w.write(prefix, width)
		table[key] = next
		next++
		prefix = int(c)

		if next >= lzwResetAt {
			w.write(lzwClear, width)
			width = 9
			next = lzwFirst
			table = make(map[uint32]int)
		} else if next >= 1<<width && width < lzwMaxWidth {
			width++
		}
	}

	w.write(prefix, width)
	// The decoder reserves an entry for the final code too
	next++
	if next >= 1<<width && width < lzwMaxWidth {
		width++
	}
	w.write(lzwEOD, width)

	return w.bytes(), nil
}

// bitWriter packs codes most significant bit first.
type bitWriter struct {
	buf   bytes.Buffer
	acc   uint32
	nbits uint
}

func (w *bitWriter) write(code int, width uint) {
	w.acc = w.acc<<width | uint32(code)
	w.nbits += width
	for w.nbits >= 8 {
		w.buf.WriteByte(byte(w.acc >> (w.nbits - 8)))
		w.nbits -= 8
	}
	w.acc &= 1<<w.nbits - 1
}

func (w *bitWriter) bytes() []byte {
	if w.nbits > 0 {
		w.buf.WriteByte(byte(w.acc << (8 - w.nbits)))
		w.acc, w.nbits = 0, 0
	}
	return w.buf.Bytes()
}
