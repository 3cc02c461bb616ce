package core

import (
	"bytes"
	"math"
	"strconv"
)

// DefaultMaxDepth bounds the nesting of arrays and dictionaries.
const DefaultMaxDepth = 100

// ReferenceResolver is an interface for resolving indirect references.
// This allows the parser to resolve indirect stream lengths when needed.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser builds objects from the tokens of a Lexer. References are never
// followed: "N G R" becomes an IndirectRef value.
type Parser struct {
	lexer    *Lexer
	resolver ReferenceResolver
	maxDepth int
}

// NewParser creates a parser positioned at the start of data
func NewParser(data []byte) *Parser {
	return NewParserAt(data, 0)
}

// NewParserAt creates a parser positioned at offset
func NewParserAt(data []byte, offset int) *Parser {
	return &Parser{
		lexer:    NewLexerAt(data, offset),
		maxDepth: DefaultMaxDepth,
	}
}

// SetReferenceResolver sets the reference resolver for the parser.
// This is needed to resolve indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// SetMaxDepth changes the nesting limit
func (p *Parser) SetMaxDepth(depth int) {
	if depth > 0 {
		p.maxDepth = depth
	}
}

// Pos returns the parser's offset in the buffer
func (p *Parser) Pos() int { return p.lexer.Pos() }

// Seek moves the parser to offset
func (p *Parser) Seek(offset int) { p.lexer.Seek(offset) }

// ParseObject parses and returns the next direct object from the input.
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	return p.parseValue(tok, 0)
}

func (p *Parser) parseValue(tok *Token, depth int) (Object, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, syntaxErr(tok.Pos, ErrTruncatedInput, "expected object")

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, syntaxErr(tok.Pos, ErrUnexpectedToken, "keyword %q", tok.Value)

	case TokenInteger:
		// Could be integer or start of indirect reference
		return p.parseNumber(tok), nil

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 32)
		if err != nil {
			return Real(0), nil
		}
		return Real(val), nil

	case TokenString:
		return String{Value: tok.Value, Format: StringLiteral}, nil

	case TokenHexString:
		return String{Value: decodeHexDigits(tok.Value), Format: StringHex}, nil

	case TokenName:
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray(tok, depth+1)

	case TokenDictStart:
		return p.parseDict(tok, depth+1)

	case TokenIndirectRef:
		// "R" without "num gen" in front of it
		return Null{}, nil
	}

	return nil, syntaxErr(tok.Pos, ErrUnexpectedToken, "%v", tok.Type)
}

// parseNumber parses an integer or indirect reference. The "num gen R"
// pattern is detected by reading ahead and rewinding when it does not match.
func (p *Parser) parseNumber(tok *Token) Object {
	first, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(string(tok.Value), 32)
		return Real(f)
	}

	mark := p.lexer.Pos()
	if ref, ok := p.tryReference(first); ok {
		return ref
	}
	p.lexer.Seek(mark)
	return Int(first)
}

func (p *Parser) tryReference(num int64) (IndirectRef, bool) {
	if num < 0 || num > math.MaxUint32 {
		return IndirectRef{}, false
	}
	second, err := p.lexer.NextToken()
	if err != nil || second.Type != TokenInteger {
		return IndirectRef{}, false
	}
	gen, err := strconv.ParseInt(string(second.Value), 10, 64)
	if err != nil || gen < 0 || gen > math.MaxUint16 {
		return IndirectRef{}, false
	}
	third, err := p.lexer.NextToken()
	if err != nil || third.Type != TokenIndirectRef {
		return IndirectRef{}, false
	}
	return IndirectRef{Number: uint32(num), Generation: uint16(gen)}, true
}

// parseArray parses a PDF array "[obj1 obj2 ...]".
func (p *Parser) parseArray(open *Token, depth int) (Object, error) {
	if depth > p.maxDepth {
		return nil, syntaxErr(open.Pos, ErrMaxDepth, "depth %d", depth)
	}

	arr := Array{}
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			return arr, nil
		case TokenEOF:
			return nil, syntaxErr(open.Pos, ErrTruncatedInput, "unterminated array")
		case TokenIndirectRef:
			continue
		}

		obj, err := p.parseValue(tok, depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

// parseDict parses a PDF dictionary "<< /Key value ... >>".
func (p *Parser) parseDict(open *Token, depth int) (Object, error) {
	if depth > p.maxDepth {
		return nil, syntaxErr(open.Pos, ErrMaxDepth, "depth %d", depth)
	}

	dict := NewDict()
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, syntaxErr(open.Pos, ErrTruncatedInput, "unterminated dictionary")
		case TokenIndirectRef:
			continue
		case TokenName:
		default:
			return nil, syntaxErr(tok.Pos, ErrUnexpectedToken, "expected name for dictionary key, got %v", tok.Type)
		}
		key := string(tok.Value)

		valTok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		if valTok.Type == TokenDictEnd {
			// Key without value
			dict.Set(key, Null{})
			return dict, nil
		}
		value, err := p.parseValue(valTok, depth)
		if err != nil {
			return nil, err
		}
		dict.Set(key, value)
	}
}

// ParseIndirectObject parses an indirect object definition.
// Format: "num gen obj <object> endobj" or "num gen obj <dict> stream ... endstream endobj".
// A missing endobj is tolerated.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	id, err := p.parseObjectHeader()
	if err != nil {
		return nil, err
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}

	mark := p.lexer.Pos()
	tok, err := p.lexer.NextToken()
	if err == nil && tok.Type == TokenKeyword && string(tok.Value) == "stream" {
		dict, ok := obj.(*Dict)
		if !ok {
			return nil, syntaxErr(tok.Pos, ErrUnexpectedToken, "stream must follow a dictionary")
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, err
		}
		obj = stream
		mark = p.lexer.Pos()
		tok, err = p.lexer.NextToken()
	}

	if err != nil || tok.Type != TokenKeyword || string(tok.Value) != "endobj" {
		p.lexer.Seek(mark)
	}

	return &IndirectObject{ID: id, Object: obj}, nil
}

// parseObjectHeader reads "num gen obj"
func (p *Parser) parseObjectHeader() (ObjectID, error) {
	numTok, err := p.lexer.NextToken()
	if err != nil {
		return ObjectID{}, err
	}
	if numTok.Type != TokenInteger {
		return ObjectID{}, syntaxErr(numTok.Pos, ErrUnexpectedToken, "expected object number, got %v", numTok.Type)
	}
	num, err := strconv.ParseUint(string(numTok.Value), 10, 32)
	if err != nil {
		return ObjectID{}, syntaxErr(numTok.Pos, ErrUnexpectedToken, "invalid object number %q", numTok.Value)
	}

	genTok, err := p.lexer.NextToken()
	if err != nil {
		return ObjectID{}, err
	}
	if genTok.Type != TokenInteger {
		return ObjectID{}, syntaxErr(genTok.Pos, ErrUnexpectedToken, "expected generation number, got %v", genTok.Type)
	}
	gen, err := strconv.ParseUint(string(genTok.Value), 10, 16)
	if err != nil {
		return ObjectID{}, syntaxErr(genTok.Pos, ErrUnexpectedToken, "invalid generation number %q", genTok.Value)
	}

	kw, err := p.lexer.NextToken()
	if err != nil {
		return ObjectID{}, err
	}
	if kw.Type != TokenKeyword || string(kw.Value) != "obj" {
		return ObjectID{}, syntaxErr(kw.Pos, ErrUnexpectedToken, "expected 'obj' keyword, got %q", kw.Value)
	}
	return ObjectID{Number: uint32(num), Generation: uint16(gen)}, nil
}

// parseStream reads the payload that follows the "stream" keyword. The
// declared Length is used when it lands on "endstream"; otherwise the payload
// runs up to the next "endstream" marker.
func (p *Parser) parseStream(dict *Dict) (*Stream, error) {
	data := p.lexer.Data()
	start := p.lexer.Pos()

	// The keyword is followed by CRLF or LF; a lone CR is accepted too
	if start < len(data) && data[start] == '\r' {
		start++
	}
	if start < len(data) && data[start] == '\n' {
		start++
	}

	end := -1
	if length, ok := p.streamLength(dict); ok && length >= 0 && int64(start)+length <= int64(len(data)) {
		candidate := start + int(length)
		if hasEndstreamAt(data, candidate) {
			end = candidate
		}
	}

	if end < 0 {
		idx := bytes.Index(data[start:], []byte("endstream"))
		if idx < 0 {
			return nil, syntaxErr(int64(start), ErrUnterminatedStream, "no endstream marker")
		}
		end = start + idx
		// Drop the EOL that precedes endstream
		if end > start && data[end-1] == '\n' {
			end--
		}
		if end > start && data[end-1] == '\r' {
			end--
		}
	}

	payload := make([]byte, end-start)
	copy(payload, data[start:end])

	// Move past endstream
	p.lexer.Seek(end)
	p.lexer.SkipWhitespace()
	if p.lexer.HasPrefixAt("endstream") {
		p.lexer.Seek(p.lexer.Pos() + len("endstream"))
	}

	return &Stream{Dict: dict, Data: payload}, nil
}

func (p *Parser) streamLength(dict *Dict) (int64, bool) {
	switch v := dict.Get("Length").(type) {
	case Int:
		return int64(v), true
	case IndirectRef:
		if p.resolver == nil {
			return 0, false
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			return 0, false
		}
		if n, ok := resolved.(Int); ok {
			return int64(n), true
		}
	}
	return 0, false
}

// hasEndstreamAt reports whether optional whitespace followed by "endstream"
// starts at pos.
func hasEndstreamAt(data []byte, pos int) bool {
	for pos < len(data) && isWhitespace(data[pos]) {
		pos++
	}
	return bytes.HasPrefix(data[pos:], []byte("endstream"))
}

// ParseObjectAt parses the indirect object that starts at offset.
func ParseObjectAt(data []byte, offset int, resolver ReferenceResolver) (*IndirectObject, error) {
	p := NewParserAt(data, offset)
	p.SetReferenceResolver(resolver)
	return p.ParseIndirectObject()
}
