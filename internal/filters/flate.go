package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// DefaultCompression is the deflate level used when none is given.
const DefaultCompression = 6

// FlateDecode decompresses Flate (zlib/deflate) compressed data and undoes any
// predictor named in params. Truncated input yields whatever decompressed
// cleanly before the damage.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	decompressed, err := zlibDecompress(data)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}
	return applyPredictor(decompressed, params)
}

// FlateEncode compresses data at the given deflate level (0-9). Level 0 still
// produces a valid zlib stream made of stored blocks.
func FlateEncode(data []byte, level int) ([]byte, error) {
	if level < zlib.NoCompression || level > zlib.BestCompression {
		return nil, fmt.Errorf("invalid compression level %d", level)
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// zlibDecompress decompresses zlib-compressed data using the standard library.
func zlibDecompress(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, reader)
	if err != nil && (buf.Len() == 0 || !errors.Is(err, io.ErrUnexpectedEOF)) {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}

	return buf.Bytes(), nil
}
