package writer

import (
	"bytes"
	"math"
	"strconv"

	"github.com/tsawler/pdfgraph/core"
)

const hexDigits = "0123456789ABCDEF"

// Serialize returns the file syntax for obj. Streams include their payload
// as is; their Length entry is not checked.
func Serialize(obj core.Object) []byte {
	var buf bytes.Buffer
	writeValue(&buf, obj)
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, obj core.Object) {
	switch v := obj.(type) {
	case nil, core.Null:
		buf.WriteString("null")
	case core.Bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case core.Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case core.Real:
		writeReal(buf, v)
	case core.Name:
		writeName(buf, v)
	case core.String:
		if v.Format == core.StringHex {
			writeHexString(buf, v.Value)
		} else {
			writeLiteralString(buf, v.Value)
		}
	case core.Array:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeValue(buf, elem)
		}
		buf.WriteByte(']')
	case *core.Dict:
		writeDict(buf, v)
	case *core.Stream:
		writeDict(buf, v.Dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	case core.IndirectRef:
		buf.WriteString(strconv.FormatUint(uint64(v.Number), 10))
		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatUint(uint64(v.Generation), 10))
		buf.WriteString(" R")
	default:
		buf.WriteString("null")
	}
}

func writeDict(buf *bytes.Buffer, d *core.Dict) {
	buf.WriteString("<<")
	d.Range(func(key string, val core.Object) bool {
		writeName(buf, core.Name(key))
		switch val.(type) {
		case core.Name, core.String, core.Array, *core.Dict:
		default:
			buf.WriteByte(' ')
		}
		writeValue(buf, val)
		return true
	})
	buf.WriteString(">>")
}

// writeReal prints the shortest float32 form and keeps a decimal point so
// the value reads back as a real
func writeReal(buf *bytes.Buffer, r core.Real) {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		buf.WriteString("0.0")
		return
	}
	s := strconv.FormatFloat(f, 'f', -1, 32)
	buf.WriteString(s)
	if !bytes.ContainsRune([]byte(s), '.') {
		buf.WriteString(".0")
	}
}

func writeName(buf *bytes.Buffer, n core.Name) {
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < 0x21 || c > 0x7E || c == '#' || core.IsDelimiter(c) {
			buf.WriteByte('#')
			buf.WriteByte(hexDigits[c>>4])
			buf.WriteByte(hexDigits[c&0x0F])
			continue
		}
		buf.WriteByte(c)
	}
}

func writeLiteralString(buf *bytes.Buffer, s []byte) {
	buf.WriteByte('(')
	for _, c := range s {
		switch c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(')')
}

func writeHexString(buf *bytes.Buffer, s []byte) {
	buf.WriteByte('<')
	for _, c := range s {
		buf.WriteByte(hexDigits[c>>4])
		buf.WriteByte(hexDigits[c&0x0F])
	}
	buf.WriteByte('>')
}
