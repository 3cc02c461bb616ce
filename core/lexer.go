package core

import (
	"bytes"
	"strconv"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // true, false, null, obj, endobj, stream, endstream, etc.
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // R (after two numbers)
)

// String returns the token type name
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenComment:
		return "Comment"
	case TokenKeyword:
		return "Keyword"
	case TokenInteger:
		return "Integer"
	case TokenReal:
		return "Real"
	case TokenString:
		return "String"
	case TokenHexString:
		return "HexString"
	case TokenName:
		return "Name"
	case TokenArrayStart:
		return "ArrayStart"
	case TokenArrayEnd:
		return "ArrayEnd"
	case TokenDictStart:
		return "DictStart"
	case TokenDictEnd:
		return "DictEnd"
	case TokenIndirectRef:
		return "R"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64 // Offset of the first byte in the buffer
}

// Lexer performs lexical analysis over an in-memory buffer. The buffer is
// never modified, so several lexers may share it.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer creates a new lexer positioned at the start of data
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// NewLexerAt creates a new lexer positioned at offset
func NewLexerAt(data []byte, offset int) *Lexer {
	l := &Lexer{data: data}
	l.Seek(offset)
	return l
}

// Pos returns the current offset
func (l *Lexer) Pos() int { return l.pos }

// Seek moves the cursor, clamped to the buffer
func (l *Lexer) Seek(offset int) {
	switch {
	case offset < 0:
		l.pos = 0
	case offset > len(l.data):
		l.pos = len(l.data)
	default:
		l.pos = offset
	}
}

// Data returns the underlying buffer
func (l *Lexer) Data() []byte { return l.data }

// AtEOF reports whether the cursor is at the end of the buffer
func (l *Lexer) AtEOF() bool { return l.pos >= len(l.data) }

// NextToken returns the next token, skipping whitespace and comments.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		tok, err := l.nextRaw()
		if err != nil {
			return nil, err
		}
		if tok.Type != TokenComment {
			return tok, nil
		}
	}
}

// NextTokenWithComments returns the next token including comments.
func (l *Lexer) NextTokenWithComments() (*Token, error) {
	return l.nextRaw()
}

func (l *Lexer) nextRaw() (*Token, error) {
	l.SkipWhitespace()

	if l.pos >= len(l.data) {
		return &Token{Type: TokenEOF, Pos: int64(l.pos)}, nil
	}

	start := l.pos
	b := l.data[l.pos]
	switch b {
	case '%':
		return l.readComment(), nil
	case '[':
		l.pos++
		return &Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: int64(start)}, nil
	case ']':
		l.pos++
		return &Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: int64(start)}, nil
	case '(':
		return l.readString()
	case '<':
		// Could be << (dict start) or <hex string>
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return &Token{Type: TokenDictStart, Value: []byte("<<"), Pos: int64(start)}, nil
		}
		return l.readHexString()
	case '>':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
			l.pos += 2
			return &Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: int64(start)}, nil
		}
		l.pos++
		return nil, syntaxErr(int64(start), ErrUnexpectedToken, "stray '>'")
	case '/':
		return l.readName(), nil
	case ')', '{', '}':
		l.pos++
		return nil, syntaxErr(int64(start), ErrUnexpectedToken, "unexpected %q", b)
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		if tok := l.readNumber(); tok != nil {
			return tok, nil
		}
	}

	return l.readKeyword(), nil
}

// SkipWhitespace skips whitespace characters
// PDF whitespace: space (0x20), tab (0x09), LF (0x0A), CR (0x0D), FF (0x0C), null (0x00)
func (l *Lexer) SkipWhitespace() {
	for l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

// readComment reads a comment (% to end of line)
func (l *Lexer) readComment() *Token {
	start := l.pos
	for l.pos < len(l.data) && l.data[l.pos] != '\r' && l.data[l.pos] != '\n' {
		l.pos++
	}
	tok := &Token{Type: TokenComment, Value: l.data[start:l.pos], Pos: int64(start)}
	l.skipEOL()
	return tok
}

// skipEOL consumes a single CR, LF or CRLF
func (l *Lexer) skipEOL() {
	if l.pos < len(l.data) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\n' {
		l.pos++
	}
}

// readString reads a literal string (hello)
func (l *Lexer) readString() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer

	// Skip opening (
	l.pos++

	depth := 1
	for {
		if l.pos >= len(l.data) {
			return nil, syntaxErr(int64(start), ErrUnterminatedString, "missing ')'")
		}
		b := l.data[l.pos]
		l.pos++

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return &Token{Type: TokenString, Value: buf.Bytes(), Pos: int64(start)}, nil
			}
			buf.WriteByte(b)
		case '\\':
			l.readEscape(&buf)
		case '\r':
			// A bare end-of-line inside a string reads as LF
			if l.pos < len(l.data) && l.data[l.pos] == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
}

// readEscape decodes one escape sequence after a backslash. Unknown escapes
// keep the escaped character.
func (l *Lexer) readEscape(buf *bytes.Buffer) {
	if l.pos >= len(l.data) {
		return
	}
	next := l.data[l.pos]
	l.pos++
	switch next {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '(', ')', '\\':
		buf.WriteByte(next)
	case '\r':
		// Line continuation
		if l.pos < len(l.data) && l.data[l.pos] == '\n' {
			l.pos++
		}
	case '\n':
	case '0', '1', '2', '3', '4', '5', '6', '7':
		// Octal escape \ddd, high-order overflow is ignored
		val := int(next - '0')
		for i := 0; i < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); i++ {
			val = val*8 + int(l.data[l.pos]-'0')
			l.pos++
		}
		buf.WriteByte(byte(val))
	default:
		buf.WriteByte(next)
	}
}

// readHexString reads a hexadecimal string <48656C6C6F>. Value holds the hex
// digits only; characters that are not hex digits are dropped.
func (l *Lexer) readHexString() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer

	// Skip opening <
	l.pos++

	for {
		if l.pos >= len(l.data) {
			return nil, syntaxErr(int64(start), ErrUnterminatedString, "missing '>'")
		}
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			return &Token{Type: TokenHexString, Value: buf.Bytes(), Pos: int64(start)}, nil
		}
		if isHexDigit(b) {
			buf.WriteByte(b)
		}
	}
}

// readName reads a name object /Type
func (l *Lexer) readName() *Token {
	start := l.pos
	var buf bytes.Buffer

	// Skip the /
	l.pos++

	for l.pos < len(l.data) {
		b := l.data[l.pos]
		// Names end at whitespace or delimiters
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++

		// Handle # escape sequences in names
		if b == '#' && l.pos+1 < len(l.data) && isHexDigit(l.data[l.pos]) && isHexDigit(l.data[l.pos+1]) {
			buf.WriteByte(hexValue(l.data[l.pos])<<4 | hexValue(l.data[l.pos+1]))
			l.pos += 2
			continue
		}
		buf.WriteByte(b)
	}

	return &Token{Type: TokenName, Value: buf.Bytes(), Pos: int64(start)}
}

// readNumber reads an integer or real number. It returns nil, without
// consuming anything, when no digit follows the sign or point.
func (l *Lexer) readNumber() *Token {
	start := l.pos
	i := l.pos
	if l.data[i] == '+' || l.data[i] == '-' {
		i++
	}
	hasDecimal := false
	digits := 0
	for ; i < len(l.data); i++ {
		b := l.data[i]
		if b == '.' {
			if hasDecimal {
				break // Second decimal point - not part of this number
			}
			hasDecimal = true
			continue
		}
		if !isDigit(b) {
			break
		}
		digits++
	}
	if digits == 0 {
		return nil
	}
	l.pos = i

	tokenType := TokenInteger
	if hasDecimal {
		tokenType = TokenReal
	}
	return &Token{Type: tokenType, Value: l.data[start:i], Pos: int64(start)}
}

// readKeyword reads a keyword (true, false, null, R, obj, endobj, etc.)
func (l *Lexer) readKeyword() *Token {
	start := l.pos
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		// Always make progress
		l.pos++
	}
	value := l.data[start:l.pos]

	if len(value) == 1 && value[0] == 'R' {
		return &Token{Type: TokenIndirectRef, Value: value, Pos: int64(start)}
	}
	return &Token{Type: TokenKeyword, Value: value, Pos: int64(start)}
}

// ReadBytes returns the next n bytes and advances past them
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || l.pos+n > len(l.data) {
		return nil, syntaxErr(int64(l.pos), ErrTruncatedInput, "need %d bytes, have %d", n, len(l.data)-l.pos)
	}
	out := l.data[l.pos : l.pos+n]
	l.pos += n
	return out, nil
}

// Peek returns the next byte without consuming it
func (l *Lexer) Peek() (byte, bool) {
	if l.pos >= len(l.data) {
		return 0, false
	}
	return l.data[l.pos], true
}

// HasPrefixAt reports whether the buffer holds prefix at the cursor
func (l *Lexer) HasPrefixAt(prefix string) bool {
	return bytes.HasPrefix(l.data[l.pos:], []byte(prefix))
}

// Helper functions

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

// IsDelimiter reports whether b is a PDF delimiter
func IsDelimiter(b byte) bool { return isDelimiter(b) }

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// decodeHexDigits turns hex digits into bytes, padding an odd count with a
// trailing zero nibble.
func decodeHexDigits(digits []byte) []byte {
	out := make([]byte, (len(digits)+1)/2)
	for i := 0; i < len(digits); i += 2 {
		hi := hexValue(digits[i])
		var lo byte
		if i+1 < len(digits) {
			lo = hexValue(digits[i+1])
		}
		out[i/2] = hi<<4 | lo
	}
	return out
}

// parseUint parses an unsigned decimal token of at most bits bits
func parseUint(b []byte, bits int) (uint64, error) {
	return strconv.ParseUint(string(b), 10, bits)
}
