package lex

import (
	"testing"

	"github.com/hadronomy/ram/source"
)

func TestLexerLossless(t *testing.T) {
	tests := []string{
		"",
		"LOAD =5\n",
		"loop: ADD 3\r\nJUMP loop\n",
		"# a comment\nHALT # trailing\n",
		"READ 1[2]\n",
	}
	for _, text := range tests {
		toks := New(source.FileID(1), text).All()
		var got string
		for _, tok := range toks {
			got += text[tok.Span.Start:tok.Span.End]
		}
		if got != text {
			t.Errorf("lossless roundtrip failed: got %q, want %q", got, text)
		}
		if toks[len(toks)-1].Kind != EOF {
			t.Errorf("expected trailing EOF token for %q", text)
		}
	}
}

func TestLexerKinds(t *testing.T) {
	toks := New(source.FileID(1), "loop: ADD =3\n").All()
	want := []Kind{IDENT, COLON, WHITESPACE, IDENT, WHITESPACE, EQUALS, NUMBER, NEWLINE, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestLexerNumberOverflow(t *testing.T) {
	toks := New(source.FileID(1), "99999999999999999999999\n").All()
	if toks[0].Kind != ERROR {
		t.Fatalf("expected ERROR for overflowing literal, got %s", toks[0].Kind)
	}
}

func TestLexerUnknownCharIsError(t *testing.T) {
	toks := New(source.FileID(1), "@\n").All()
	if toks[0].Kind != ERROR {
		t.Fatalf("expected ERROR for '@', got %s", toks[0].Kind)
	}
	if toks[0].Value != int64('@') {
		t.Errorf("got codepoint %d, want %d", toks[0].Value, '@')
	}
}

func TestLexerCRLFNewline(t *testing.T) {
	toks := New(source.FileID(1), "HALT\r\n").All()
	var nl Token
	for _, tok := range toks {
		if tok.Kind == NEWLINE {
			nl = tok
		}
	}
	if nl.Span.Len() != 2 {
		t.Errorf("expected CRLF to span 2 bytes, got %d", nl.Span.Len())
	}
}
