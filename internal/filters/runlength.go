package filters

import "bytes"

// runLengthEOD terminates RunLength-encoded data
const runLengthEOD = 128

// RunLengthDecode expands RunLength-encoded data. A length byte n of 0-127
// copies the next n+1 bytes; 129-255 repeats the next byte 257-n times; 128
// ends the data. Input that stops early yields what was decoded so far.
func RunLengthDecode(data []byte) ([]byte, error) {
	var result bytes.Buffer

	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == runLengthEOD:
			return result.Bytes(), nil
		case n < runLengthEOD:
			end := i + n + 1
			if end > len(data) {
				end = len(data)
			}
			result.Write(data[i:end])
			i = end
		default:
			if i >= len(data) {
				return result.Bytes(), nil
			}
			result.Write(bytes.Repeat(data[i:i+1], 257-n))
			i++
		}
	}

	return result.Bytes(), nil
}

// RunLengthEncode encodes data with runs of at most 128 bytes and appends the
// end-of-data marker.
func RunLengthEncode(data []byte) ([]byte, error) {
	var out bytes.Buffer

	i := 0
	for i < len(data) {
		// Measure the run starting at i
		run := 1
		for i+run < len(data) && run < 128 && data[i+run] == data[i] {
			run++
		}
		if run >= 2 {
			out.WriteByte(byte(257 - run))
			out.WriteByte(data[i])
			i += run
			continue
		}

		// Literal segment up to the next run of two
		start := i
		for i < len(data) && i-start < 128 {
			if i+1 < len(data) && data[i] == data[i+1] {
				break
			}
			i++
		}
		out.WriteByte(byte(i - start - 1))
		out.Write(data[start:i])
	}

	out.WriteByte(runLengthEOD)
	return out.Bytes(), nil
}
