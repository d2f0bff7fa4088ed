package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `proc add(a: i32, b: i32) -> i32 {
  return a + b
}

#static_if true {
  memres x: i32 = 10
}

if x >= 10 {
  x += 1
} else {
  x -= 1
}
`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{PROC, "proc"},
		{IDENT, "add"},
		{LPAREN, "("},
		{IDENT, "a"},
		{COLON, ":"},
		{IDENT, "i32"},
		{COMMA, ","},
		{IDENT, "b"},
		{COLON, ":"},
		{IDENT, "i32"},
		{RPAREN, ")"},
		{ARROW, "->"},
		{IDENT, "i32"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{IDENT, "a"},
		{PLUS, "+"},
		{IDENT, "b"},
		{RBRACE, "}"},

		{DIRECTIVE, "#static_if"},
		{TRUE, "true"},
		{LBRACE, "{"},
		{MEMRES, "memres"},
		{IDENT, "x"},
		{COLON, ":"},
		{IDENT, "i32"},
		{ASSIGN, "="},
		{INT, "10"},
		{RBRACE, "}"},

		{IF, "if"},
		{IDENT, "x"},
		{GTE, ">="},
		{INT, "10"},
		{LBRACE, "{"},
		{IDENT, "x"},
		{PLUSEQ, "+="},
		{INT, "1"},
		{RBRACE, "}"},
		{ELSE, "else"},
		{LBRACE, "{"},
		{IDENT, "x"},
		{MINUSEQ, "-="},
		{INT, "1"},
		{RBRACE, "}"},
		{EOF, ""},
	}

	l := New(string(Normalize([]byte(input))), "test.onyx")
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("test[%d] - token type wrong. expected=%s, got=%s (%q)", i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("test[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNormalizeStripsBOM(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("proc f() {}")...)
	out := Normalize(src)
	if string(out) != "proc f() {}" {
		t.Fatalf("BOM not stripped: %q", out)
	}
}
