package filters

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes CCITT Group 3/4 fax compressed data into packed
// one-bit rows. There is no matching encoder.
//
// Parameters from the decode parameters dictionary:
//   - K: Group selector (<0 Group 4, otherwise Group 3)
//   - Columns: Image width in pixels (default 1728)
//   - Rows: Image height in pixels (default 0, detected from the data)
//   - BlackIs1: maps to ccitt.Options.Invert
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1728)
	rows := getIntParam(params, "Rows", 0)

	sf := ccitt.Group3
	if getIntParam(params, "K", 0) < 0 {
		sf = ccitt.Group4
	}
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}

	opts := &ccitt.Options{Invert: getBoolParam(params, "BlackIs1", false)}
	return io.ReadAll(ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts))
}
