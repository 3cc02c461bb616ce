package core

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// XRefEntryType is the kind of a cross-reference entry
type XRefEntryType int

const (
	XRefFree       XRefEntryType = iota // object number is unused
	XRefInUse                           // object stored at a byte offset
	XRefCompressed                      // object stored inside an object stream
)

func (t XRefEntryType) String() string {
	switch t {
	case XRefFree:
		return "free"
	case XRefInUse:
		return "in-use"
	case XRefCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// XRefEntry represents a single cross-reference entry
type XRefEntry struct {
	Type       XRefEntryType
	Offset     int64  // Byte offset in file (in-use)
	Generation uint16 // Generation number (in-use, free)
	Container  uint32 // Object stream number (compressed)
	Index      int    // Index within the object stream (compressed)
}

// XRefTable maps object numbers to their locations. Only the most recent
// revision's entry is kept for each number.
type XRefTable struct {
	Entries map[uint32]XRefEntry
	Trailer *Dict
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[uint32]XRefEntry),
		Trailer: NewDict(),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum uint32) (XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or updates an XRef entry
func (x *XRefTable) Set(objNum uint32, entry XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// MaxID returns the highest object number with an entry
func (x *XRefTable) MaxID() uint32 {
	var max uint32
	for num := range x.Entries {
		if num > max {
			max = num
		}
	}
	return max
}

// Numbers returns the object numbers in ascending order
func (x *XRefTable) Numbers() []uint32 {
	nums := make([]uint32, 0, len(x.Entries))
	for num := range x.Entries {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}

// MergeOlder adds the entries of an older revision. Numbers this table already
// knows about, including ones marked free, are left untouched.
func (x *XRefTable) MergeOlder(older *XRefTable) {
	if older == nil {
		return
	}
	for num, entry := range older.Entries {
		if _, ok := x.Entries[num]; !ok {
			x.Entries[num] = entry
		}
	}
}

// trailerInheritedKeys are copied from an older trailer when the newest one
// lacks them.
var trailerInheritedKeys = []string{"Root", "Info", "ID", "Encrypt"}

// XRefParser parses cross-reference sections from an in-memory file.
type XRefParser struct {
	data []byte
}

// NewXRefParser creates a new XRef parser
func NewXRefParser(data []byte) *XRefParser {
	return &XRefParser{data: data}
}

// FindXRef finds the byte offset named by the last startxref keyword.
// The tail of the file is searched in growing windows so that trailing
// garbage after %%EOF does not hide it.
func (x *XRefParser) FindXRef() (int64, error) {
	for _, window := range []int{1024, 4096, 16384, 65536, 262144} {
		start := len(x.data) - window
		if start < 0 {
			start = 0
		}
		tail := x.data[start:]

		idx := bytes.LastIndex(tail, []byte("startxref"))
		if idx >= 0 {
			lexer := NewLexerAt(x.data, start+idx+len("startxref"))
			tok, err := lexer.NextToken()
			if err != nil || tok.Type != TokenInteger {
				return 0, fmt.Errorf("invalid startxref format")
			}
			offset, err := strconv.ParseInt(string(tok.Value), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid xref offset: %w", err)
			}
			return offset, nil
		}
		if start == 0 {
			break
		}
	}
	return 0, fmt.Errorf("startxref not found")
}

// ParseXRefAt parses the section at offset, which is either a classic table
// starting with "xref" or a cross-reference stream object.
func (x *XRefParser) ParseXRefAt(offset int64) (*XRefTable, error) {
	if offset < 0 || offset >= int64(len(x.data)) {
		return nil, fmt.Errorf("xref offset %d outside file of %d bytes", offset, len(x.data))
	}

	lexer := NewLexerAt(x.data, int(offset))
	tok, err := lexer.NextToken()
	if err != nil {
		return nil, err
	}

	if tok.Type == TokenKeyword && string(tok.Value) == "xref" {
		return x.parseTable(lexer)
	}
	if tok.Type == TokenInteger {
		return x.parseXRefStream(offset)
	}
	return nil, syntaxErr(tok.Pos, ErrUnexpectedToken, "expected xref section")
}

// parseTable reads subsections of "start count" followed by entries of
// "offset generation n|f", then the trailer dictionary. Entries are read as
// tokens so tables with non-standard line endings still parse.
func (x *XRefParser) parseTable(lexer *Lexer) (*XRefTable, error) {
	table := NewXRefTable()

	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return nil, err
		}

		if tok.Type == TokenKeyword && string(tok.Value) == "trailer" {
			break
		}
		if tok.Type != TokenInteger {
			return nil, syntaxErr(tok.Pos, ErrUnexpectedToken, "expected subsection header or trailer, got %q", tok.Value)
		}
		start, err := parseUint(tok.Value, 32)
		if err != nil {
			return nil, syntaxErr(tok.Pos, ErrUnexpectedToken, "invalid subsection start %q", tok.Value)
		}

		countTok, err := lexer.NextToken()
		if err != nil {
			return nil, err
		}
		count, err := parseUint(countTok.Value, 32)
		if countTok.Type != TokenInteger || err != nil {
			return nil, syntaxErr(countTok.Pos, ErrUnexpectedToken, "invalid subsection count %q", countTok.Value)
		}

		for i := uint64(0); i < count; i++ {
			entry, err := x.parseEntry(lexer)
			if err != nil {
				return nil, fmt.Errorf("entry %d of subsection %d: %w", i, start, err)
			}
			table.Set(uint32(start+i), entry)
		}
	}

	trailer, err := NewParserAt(x.data, lexer.Pos()).ParseObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse trailer: %w", err)
	}
	dict, ok := trailer.(*Dict)
	if !ok {
		return nil, fmt.Errorf("trailer is not a dictionary: %T", trailer)
	}
	table.Trailer = dict
	return table, nil
}

// parseEntry reads one "offset generation n|f" entry
func (x *XRefParser) parseEntry(lexer *Lexer) (XRefEntry, error) {
	offTok, err := lexer.NextToken()
	if err != nil {
		return XRefEntry{}, err
	}
	genTok, err := lexer.NextToken()
	if err != nil {
		return XRefEntry{}, err
	}
	kindTok, err := lexer.NextToken()
	if err != nil {
		return XRefEntry{}, err
	}
	if offTok.Type != TokenInteger || genTok.Type != TokenInteger || kindTok.Type != TokenKeyword {
		return XRefEntry{}, syntaxErr(offTok.Pos, ErrUnexpectedToken, "malformed xref entry")
	}

	offset, err := strconv.ParseInt(string(offTok.Value), 10, 64)
	if err != nil {
		return XRefEntry{}, syntaxErr(offTok.Pos, ErrUnexpectedToken, "invalid offset %q", offTok.Value)
	}
	gen, err := parseUint(genTok.Value, 16)
	if err != nil {
		// Generations above 65535 only appear on free entries
		gen = 65535
	}

	switch string(kindTok.Value) {
	case "n":
		if offset <= 0 {
			return XRefEntry{Type: XRefFree, Generation: uint16(gen)}, nil
		}
		return XRefEntry{Type: XRefInUse, Offset: offset, Generation: uint16(gen)}, nil
	case "f":
		return XRefEntry{Type: XRefFree, Generation: uint16(gen)}, nil
	}
	return XRefEntry{}, syntaxErr(kindTok.Pos, ErrUnexpectedToken, "invalid entry type %q", kindTok.Value)
}

// parseXRefStream reads a cross-reference stream object at offset. Its
// dictionary doubles as the trailer.
func (x *XRefParser) parseXRefStream(offset int64) (*XRefTable, error) {
	indObj, err := ParseObjectAt(x.data, int(offset), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref stream: %w", err)
	}
	stream, ok := indObj.Object.(*Stream)
	if !ok {
		return nil, fmt.Errorf("xref stream object is %T, not a stream", indObj.Object)
	}
	if t, _ := stream.Dict.GetName("Type"); t != "XRef" {
		return nil, fmt.Errorf("xref stream has type %v", stream.Dict.Get("Type"))
	}

	table, err := DecodeXRefStream(stream)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// DecodeXRefStream interprets the records of a /Type /XRef stream.
func DecodeXRefStream(stream *Stream) (*XRefTable, error) {
	w, err := xrefWidths(stream.Dict)
	if err != nil {
		return nil, err
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode xref stream: %w", err)
	}

	size, _ := stream.Dict.GetInt("Size")
	index := []int64{0, int64(size)}
	if arr, ok := stream.Dict.GetArray("Index"); ok {
		index = index[:0]
		for _, v := range arr {
			n, ok := v.(Int)
			if !ok {
				return nil, fmt.Errorf("invalid /Index element %v", v)
			}
			index = append(index, int64(n))
		}
		if len(index)%2 != 0 {
			return nil, fmt.Errorf("/Index has odd length %d", len(index))
		}
	}

	recordLen := w[0] + w[1] + w[2]
	if recordLen == 0 {
		return nil, fmt.Errorf("xref stream has zero-width records")
	}

	table := NewXRefTable()
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		if start < 0 || count < 0 {
			return nil, fmt.Errorf("invalid /Index subsection %d %d", start, count)
		}
		for j := int64(0); j < count; j++ {
			if pos+recordLen > len(data) {
				// Truncated streams keep the records read so far
				break
			}
			rec := data[pos : pos+recordLen]
			pos += recordLen

			kind := int64(1)
			if w[0] > 0 {
				kind = readBigEndian(rec[:w[0]])
			}
			f2 := readBigEndian(rec[w[0] : w[0]+w[1]])
			f3 := readBigEndian(rec[w[0]+w[1]:])

			num := uint32(start + j)
			switch kind {
			case 0:
				table.Set(num, XRefEntry{Type: XRefFree, Generation: uint16(f3)})
			case 1:
				table.Set(num, XRefEntry{Type: XRefInUse, Offset: f2, Generation: uint16(f3)})
			case 2:
				table.Set(num, XRefEntry{Type: XRefCompressed, Container: uint32(f2), Index: int(f3)})
			}
			// Other types are reserved and read as null references
		}
	}

	table.Trailer = xrefStreamTrailer(stream.Dict)
	return table, nil
}

func xrefWidths(dict *Dict) ([3]int, error) {
	var w [3]int
	arr, ok := dict.GetArray("W")
	if !ok || len(arr) < 3 {
		return w, fmt.Errorf("xref stream missing valid /W")
	}
	for i := 0; i < 3; i++ {
		n, ok := arr[i].(Int)
		if !ok || n < 0 || n > 8 {
			return w, fmt.Errorf("invalid /W entry %v", arr[i])
		}
		w[i] = int(n)
	}
	return w, nil
}

// xrefStreamTrailer strips the stream-only keys from an xref stream dictionary.
func xrefStreamTrailer(dict *Dict) *Dict {
	trailer := dict.Clone()
	for _, key := range []string{"Type", "W", "Index", "Filter", "DecodeParms", "Length"} {
		trailer.Delete(key)
	}
	return trailer
}

// readBigEndian reads an unsigned big-endian integer of up to 8 bytes
func readBigEndian(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// ParseAll follows the chain of sections from startxref back through every
// Prev offset and merges them, newest first. A classic section's XRefStm
// stream ranks below the section itself and above its Prev chain.
func (x *XRefParser) ParseAll() (*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}

	var merged *XRefTable
	seen := make(map[int64]bool)

	for {
		if seen[offset] {
			// Loop in the Prev chain
			break
		}
		seen[offset] = true

		section, err := x.ParseXRefAt(offset)
		if err != nil {
			if merged == nil {
				return nil, err
			}
			// Keep the newer revisions that did parse
			break
		}

		if stmOff, ok := section.Trailer.GetInt("XRefStm"); ok && !seen[int64(stmOff)] {
			seen[int64(stmOff)] = true
			if hybrid, err := x.parseXRefStream(int64(stmOff)); err == nil {
				section.MergeOlder(hybrid)
			}
		}

		if merged == nil {
			merged = section
		} else {
			merged.MergeOlder(section)
			for _, key := range trailerInheritedKeys {
				if !merged.Trailer.Has(key) && section.Trailer.Has(key) {
					merged.Trailer.Set(key, section.Trailer.Get(key))
				}
			}
		}

		prev, ok := section.Trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}

	merged.Trailer.Delete("Prev")
	merged.Trailer.Delete("XRefStm")
	return merged, nil
}
