// Package filters implements the stream filters of the PDF format.
//
// Every filter is a [Codec] with a Decode function and, where the format
// allows it, an Encode function. [Lookup] resolves a filter name (or its
// abbreviation) to its codec:
//
//	codec, ok := filters.Lookup("FlateDecode")
//	decoded, err := codec.Decode(data, params)
//
// # Supported Filters
//
//   - FlateDecode: zlib/deflate, with TIFF and PNG predictors on decode.
//     [FlateEncode] takes an explicit compression level 0-9.
//   - LZWDecode: with EarlyChange 0 or 1 on decode; the encoder always
//     emits early-change codes.
//   - ASCIIHexDecode and ASCII85Decode.
//   - RunLengthDecode.
//   - CCITTFaxDecode: decode only.
//   - DCTDecode, JPXDecode, JBIG2Decode: passed through unchanged.
//
// # Decode Parameters
//
// Filters accept a Params map for additional parameters:
//
//	params := filters.Params{
//	    "Predictor": 12,
//	    "Columns":   5,
//	}
//	decoded, err := filters.FlateDecode(data, params)
package filters
