package core

import (
	"errors"
	"testing"
)

func collectTokens(t *testing.T, input string) []*Token {
	t.Helper()
	lexer := NewLexer([]byte(input))
	var toks []*Token
	for {
		tok, err := lexer.NextToken()
		if err != nil {
			t.Fatalf("NextToken(%q) error: %v", input, err)
		}
		if tok.Type == TokenEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

// TestLexerTokenSequence tests tokenizing a mixed input
func TestLexerTokenSequence(t *testing.T) {
	input := "<< /Type /Page /Count 3 >> [1 2.5 -3] (str) <4142> true R % comment\nendobj"
	want := []struct {
		typ   TokenType
		value string
	}{
		{TokenDictStart, "<<"},
		{TokenName, "Type"},
		{TokenName, "Page"},
		{TokenName, "Count"},
		{TokenInteger, "3"},
		{TokenDictEnd, ">>"},
		{TokenArrayStart, "["},
		{TokenInteger, "1"},
		{TokenReal, "2.5"},
		{TokenInteger, "-3"},
		{TokenArrayEnd, "]"},
		{TokenString, "str"},
		{TokenHexString, "4142"},
		{TokenKeyword, "true"},
		{TokenIndirectRef, "R"},
		{TokenKeyword, "endobj"},
	}

	toks := collectTokens(t, input)
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w.typ || string(toks[i].Value) != w.value {
			t.Errorf("token %d = %v %q, want %v %q", i, toks[i].Type, toks[i].Value, w.typ, w.value)
		}
	}
}

// TestLexerTokenPositions tests that tokens record their start offset
func TestLexerTokenPositions(t *testing.T) {
	toks := collectTokens(t, "  /A  12")
	if toks[0].Pos != 2 || toks[1].Pos != 6 {
		t.Errorf("positions = %d, %d; want 2, 6", toks[0].Pos, toks[1].Pos)
	}
}

// TestLexerStrings tests literal string escapes and line endings
func TestLexerStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "(hello)", "hello"},
		{"nested parens", "(a(b)c)", "a(b)c"},
		{"escaped parens", `(a\(b\))`, "a(b)"},
		{"named escapes", `(\n\r\t\b\f\\)`, "\n\r\t\b\f\\"},
		{"octal", `(\101\102)`, "AB"},
		{"short octal", `(\7x)`, "\x07x"},
		{"octal overflow", `(\501)`, "A"},
		{"line continuation", "(ab\\\ncd)", "abcd"},
		{"continuation crlf", "(ab\\\r\ncd)", "abcd"},
		{"bare cr", "(a\rb)", "a\nb"},
		{"bare crlf", "(a\r\nb)", "a\nb"},
		{"unknown escape", `(\q)`, "q"},
		{"empty", "()", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := collectTokens(t, tt.input)
			if len(toks) != 1 || toks[0].Type != TokenString {
				t.Fatalf("expected one string token, got %v", toks)
			}
			if got := string(toks[0].Value); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLexerHexString tests that only hex digits are kept
func TestLexerHexString(t *testing.T) {
	toks := collectTokens(t, "<48 65\n6C zz 6C>")
	if string(toks[0].Value) != "48656C6C" {
		t.Errorf("got %q", toks[0].Value)
	}
}

// TestLexerNames tests #xx escapes in names
func TestLexerNames(t *testing.T) {
	tests := map[string]string{
		"/Name":       "Name",
		"/A#20B":      "A B",
		"/#23hash":    "#hash",
		"/Bad#zz":     "Bad#zz",
		"/":           "",
		"/A;B":        "A;B",
		"/Lime#20Gre": "Lime Gre",
	}
	for input, want := range tests {
		toks := collectTokens(t, input)
		if len(toks) != 1 || toks[0].Type != TokenName {
			t.Fatalf("%q: expected one name token", input)
		}
		if string(toks[0].Value) != want {
			t.Errorf("%q: got %q, want %q", input, toks[0].Value, want)
		}
	}
}

// TestLexerNumbers tests integer and real forms
func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"123", TokenInteger},
		{"+17", TokenInteger},
		{"-98", TokenInteger},
		{"34.5", TokenReal},
		{"-.002", TokenReal},
		{".5", TokenReal},
		{"4.", TokenReal},
		{"0", TokenInteger},
	}
	for _, tt := range tests {
		toks := collectTokens(t, tt.input)
		if len(toks) != 1 || toks[0].Type != tt.typ || string(toks[0].Value) != tt.input {
			t.Errorf("%q: got %v", tt.input, toks)
		}
	}

	// A sign without digits reads as a keyword
	toks := collectTokens(t, "-")
	if len(toks) != 1 || toks[0].Type != TokenKeyword {
		t.Errorf("lone sign: got %v", toks)
	}
}

// TestLexerComments tests comment handling
func TestLexerComments(t *testing.T) {
	lexer := NewLexer([]byte("%PDF-1.7\r\n1"))
	tok, err := lexer.NextTokenWithComments()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Type != TokenComment || string(tok.Value) != "%PDF-1.7" {
		t.Errorf("got %v %q", tok.Type, tok.Value)
	}

	toks := collectTokens(t, "% only a comment\n% and another\n42")
	if len(toks) != 1 || string(toks[0].Value) != "42" {
		t.Errorf("comments not skipped: %v", toks)
	}
}

// TestLexerErrors tests malformed input
func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"(unterminated", ErrUnterminatedString},
		{"<4142", ErrUnterminatedString},
		{"> ", ErrUnexpectedToken},
		{")", ErrUnexpectedToken},
		{"{", ErrUnexpectedToken},
	}
	for _, tt := range tests {
		_, err := NewLexer([]byte(tt.input)).NextToken()
		if !errors.Is(err, tt.want) {
			t.Errorf("%q: got %v, want %v", tt.input, err, tt.want)
		}
		var syn *SyntaxError
		if !errors.As(err, &syn) {
			t.Errorf("%q: expected *SyntaxError, got %T", tt.input, err)
		}
	}
}

// TestLexerSeekAndReadBytes tests cursor movement
func TestLexerSeekAndReadBytes(t *testing.T) {
	lexer := NewLexerAt([]byte("abcdef"), 2)
	b, err := lexer.ReadBytes(3)
	if err != nil || string(b) != "cde" {
		t.Fatalf("ReadBytes = %q, %v", b, err)
	}
	if _, err := lexer.ReadBytes(5); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("expected ErrTruncatedInput, got %v", err)
	}

	lexer.Seek(-4)
	if lexer.Pos() != 0 {
		t.Errorf("Seek(-4) pos = %d", lexer.Pos())
	}
	lexer.Seek(100)
	if !lexer.AtEOF() {
		t.Error("Seek past end should clamp to EOF")
	}
	if _, ok := lexer.Peek(); ok {
		t.Error("Peek at EOF should fail")
	}
}

// TestLexerAlwaysProgresses tests that junk bytes are consumed one at a time
func TestLexerAlwaysProgresses(t *testing.T) {
	lexer := NewLexer([]byte("\x80\x81 ]"))
	for i := 0; i < 10; i++ {
		tok, err := lexer.NextToken()
		if err != nil {
			t.Fatal(err)
		}
		if tok.Type == TokenEOF {
			return
		}
	}
	t.Fatal("lexer did not reach EOF")
}
