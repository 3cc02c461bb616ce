package core

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

// objHeaderPattern matches an indirect object header "N G obj"
var objHeaderPattern = regexp.MustCompile(`(\d{1,10})[ \t\r\n\f\x00]+(\d{1,5})[ \t\r\n\f\x00]+obj\b`)

// ValidateXRef checks that a parsed index can be trusted: the trailer names a
// Root, every in-use offset lands on the header of the object it claims, and
// every compressed entry names a container that is itself in use.
func ValidateXRef(data []byte, table *XRefTable) error {
	if table == nil {
		return fmt.Errorf("no xref table")
	}
	if !table.Trailer.Has("Root") {
		return ErrMissingRoot
	}

	for num, entry := range table.Entries {
		switch entry.Type {
		case XRefInUse:
			if entry.Offset < 0 || entry.Offset >= int64(len(data)) {
				return fmt.Errorf("object %d: offset %d outside file", num, entry.Offset)
			}
			if !headerMatches(data, int(entry.Offset), num) {
				return fmt.Errorf("object %d: no matching header at offset %d", num, entry.Offset)
			}
		case XRefCompressed:
			container, ok := table.Entries[entry.Container]
			if !ok || container.Type != XRefInUse {
				return fmt.Errorf("object %d: container %d is not in use", num, entry.Container)
			}
		}
	}
	return nil
}

// headerMatches reports whether "num G obj" starts at offset
func headerMatches(data []byte, offset int, num uint32) bool {
	lexer := NewLexerAt(data, offset)
	numTok, err := lexer.NextToken()
	if err != nil || numTok.Type != TokenInteger {
		return false
	}
	n, err := parseUint(numTok.Value, 32)
	if err != nil || uint32(n) != num {
		return false
	}
	genTok, err := lexer.NextToken()
	if err != nil || genTok.Type != TokenInteger {
		return false
	}
	kw, err := lexer.NextToken()
	return err == nil && kw.Type == TokenKeyword && string(kw.Value) == "obj"
}

// ResolveXRef builds the object index for data. The startxref chain is tried
// first; when it is missing or fails validation the file is scanned instead.
// The second result reports whether the scan was used.
func ResolveXRef(data []byte) (*XRefTable, bool, error) {
	parsed, parseErr := NewXRefParser(data).ParseAll()
	if parseErr == nil {
		parseErr = ValidateXRef(data, parsed)
		if parseErr == nil {
			return parsed, false, nil
		}
	}

	recovered, synthesized, err := recoverTable(data)
	if err != nil {
		if parsed != nil && parsed.Trailer.Has("Root") {
			// The scan found nothing better than the damaged index
			return parsed, false, nil
		}
		return nil, true, fmt.Errorf("xref unusable (%v) and recovery failed: %w", parseErr, err)
	}

	if synthesized && parsed != nil && parsed.Trailer.Has("Root") {
		size := recovered.Trailer.Get("Size")
		recovered.Trailer = parsed.Trailer.Clone()
		recovered.Trailer.Set("Size", size)
	}
	return recovered, true, nil
}

// Recover rebuilds the index by scanning the whole file for "N G obj"
// headers. Later definitions of a number win. Members of object streams found
// along the way are added as compressed entries when no direct definition
// exists. The trailer is the last trailer dictionary with a Root, else the
// last xref stream dictionary with a Root, else one synthesized from the last
// catalog found.
func Recover(data []byte) (*XRefTable, error) {
	table, _, err := recoverTable(data)
	return table, err
}

func recoverTable(data []byte) (*XRefTable, bool, error) {
	table := NewXRefTable()

	var (
		containers  []uint32
		xrefTrailer *Dict
		catalog     *IndirectRef
		info        *IndirectRef
	)

	pos := 0
	for pos < len(data) {
		loc := objHeaderPattern.FindSubmatchIndex(data[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		end := pos + loc[1]

		// The number must not continue a longer token
		if start > 0 && !isWhitespace(data[start-1]) && !isDelimiter(data[start-1]) {
			pos = end
			continue
		}

		num, err1 := strconv.ParseUint(string(data[pos+loc[2]:pos+loc[3]]), 10, 32)
		gen, err2 := strconv.ParseUint(string(data[pos+loc[4]:pos+loc[5]]), 10, 16)
		if err1 != nil || err2 != nil {
			pos = end
			continue
		}

		p := NewParserAt(data, start)
		indObj, err := p.ParseIndirectObject()
		if err != nil {
			pos = end
			continue
		}

		id := uint32(num)
		table.Set(id, XRefEntry{Type: XRefInUse, Offset: int64(start), Generation: uint16(gen)})

		ref := IndirectRef{Number: id, Generation: uint16(gen)}
		switch obj := indObj.Object.(type) {
		case *Stream:
			if obj.Dict.HasType("ObjStm") {
				containers = append(containers, id)
			}
			if obj.Dict.HasType("XRef") && obj.Dict.Has("Root") {
				xrefTrailer = xrefStreamTrailer(obj.Dict)
			}
		case *Dict:
			if t, _ := obj.GetName("Type"); t == "Catalog" {
				catalog = &ref
			}
			if obj.Has("Producer") || obj.Has("Creator") || obj.Has("Title") {
				if !obj.Has("Type") {
					info = &ref
				}
			}
		}

		if p.Pos() > end {
			pos = p.Pos()
		} else {
			pos = end
		}
	}

	for _, containerNum := range containers {
		addContainerMembers(data, table, containerNum)
	}

	trailer := lastTrailerWithRoot(data)
	synthesized := false
	switch {
	case trailer != nil:
	case xrefTrailer != nil:
		trailer = xrefTrailer
	case catalog != nil:
		synthesized = true
		trailer = NewDict()
		trailer.Set("Root", *catalog)
		if info != nil {
			trailer.Set("Info", *info)
		}
	default:
		return nil, false, ErrNoTrailer
	}

	trailer.Delete("Prev")
	trailer.Delete("XRefStm")
	trailer.Set("Size", Int(int64(table.MaxID())+1))
	table.Trailer = trailer
	return table, synthesized, nil
}

// addContainerMembers decodes an object stream found by the scan and adds an
// entry for each member without a direct definition.
func addContainerMembers(data []byte, table *XRefTable, containerNum uint32) {
	entry := table.Entries[containerNum]
	indObj, err := ParseObjectAt(data, int(entry.Offset), nil)
	if err != nil {
		return
	}
	stream, ok := indObj.Object.(*Stream)
	if !ok {
		return
	}
	objStm, err := NewObjectStream(stream)
	if err != nil {
		return
	}
	nums, err := objStm.ObjectNumbers()
	if err != nil {
		// Encrypted or damaged containers cannot be indexed here
		return
	}
	for i, num := range nums {
		if _, exists := table.Entries[num]; !exists {
			table.Set(num, XRefEntry{Type: XRefCompressed, Container: containerNum, Index: i})
		}
	}
}

// lastTrailerWithRoot returns the last "trailer" dictionary that has a Root.
func lastTrailerWithRoot(data []byte) *Dict {
	end := len(data)
	for end > 0 {
		idx := bytes.LastIndex(data[:end], []byte("trailer"))
		if idx < 0 {
			return nil
		}
		end = idx

		obj, err := NewParserAt(data, idx+len("trailer")).ParseObject()
		if err != nil {
			continue
		}
		if dict, ok := obj.(*Dict); ok && dict.Has("Root") {
			return dict
		}
	}
	return nil
}
