package filters

import "fmt"

// applyPredictor undoes the predictor named by params. Predictor 1 (or none)
// is identity, 2 is TIFF Predictor 2, and 10-15 are the PNG predictors where
// every row carries its own algorithm byte.
func applyPredictor(data []byte, params Params) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	switch {
	case predictor <= 1:
		return data, nil
	case predictor == 2:
		return applyTIFFPredictor2(data, params)
	case predictor >= 10 && predictor <= 15:
		return applyPNGPredictor(data, params)
	}
	return nil, fmt.Errorf("unsupported predictor: %d", predictor)
}

// rowGeometry returns the bytes per pixel (at least 1) and the bytes per row
// for the Columns/Colors/BitsPerComponent in params.
func rowGeometry(params Params) (bpp, rowSize int, err error) {
	columns := getIntParam(params, "Columns", 1)
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)

	if columns < 1 || colors < 1 {
		return 0, 0, fmt.Errorf("invalid predictor geometry: Columns=%d Colors=%d", columns, colors)
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return 0, 0, fmt.Errorf("invalid BitsPerComponent: %d", bpc)
	}

	bpp = (colors*bpc + 7) / 8
	rowSize = (columns*colors*bpc + 7) / 8
	return bpp, rowSize, nil
}

// applyTIFFPredictor2 predicts each sample from the sample to its left. Only
// byte-aligned samples are supported.
func applyTIFFPredictor2(data []byte, params Params) ([]byte, error) {
	if bpc := getIntParam(params, "BitsPerComponent", 8); bpc != 8 {
		return nil, fmt.Errorf("TIFF Predictor 2 only supports 8 bits per component, got %d", bpc)
	}
	bpp, rowSize, err := rowGeometry(params)
	if err != nil {
		return nil, err
	}

	result := make([]byte, len(data))
	copy(result, data)
	for rowStart := 0; rowStart < len(result); rowStart += rowSize {
		rowEnd := rowStart + rowSize
		if rowEnd > len(result) {
			rowEnd = len(result)
		}
		for i := rowStart + bpp; i < rowEnd; i++ {
			result[i] += result[i-bpp]
		}
	}
	return result, nil
}

// applyPNGPredictor decodes PNG-predicted rows. A trailing partial row is
// dropped.
func applyPNGPredictor(data []byte, params Params) ([]byte, error) {
	bpp, rowSize, err := rowGeometry(params)
	if err != nil {
		return nil, err
	}

	numRows := len(data) / (rowSize + 1)
	result := make([]byte, numRows*rowSize)
	prev := make([]byte, rowSize)

	for row := 0; row < numRows; row++ {
		src := data[row*(rowSize+1):]
		algo := src[0]
		in := src[1 : rowSize+1]
		out := result[row*rowSize : (row+1)*rowSize]

		for i := 0; i < rowSize; i++ {
			var left, upLeft byte
			up := prev[i]
			if i >= bpp {
				left = out[i-bpp]
				upLeft = prev[i-bpp]
			}

			var predicted byte
			switch algo {
			case 0: // None
			case 1: // Sub
				predicted = left
			case 2: // Up
				predicted = up
			case 3: // Average
				predicted = byte((int(left) + int(up)) / 2)
			case 4: // Paeth
				predicted = paethPredictor(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG predictor %d in row %d", algo, row)
			}
			out[i] = in[i] + predicted
		}
		prev = out
	}

	return result, nil
}

// paethPredictor selects the neighbor (left, above, or upper-left) closest to
// a linear prediction.
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
