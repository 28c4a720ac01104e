package opendata

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The OpenData grammar:
//
//	document     := "OPENDATA" name dict ";"
//	name         := word ("." word)*
//	word         := ["@"] IDENTIFIER | "T" QUOTED_STRING
//	dict         := "[" ( pair ";" )* "]"
//	pair         := name ":" value
//	list         := "(" ( value ";" )* ")"
//	taggedvalue  := name value
//	value        := document | taggedvalue | name | dict | list
//	              | QUOTED_STRING | SIGNED_INT | SIGNED_FLOAT
//
// Tags are never enumerated here; any `Name Value` pair is a tagged value
// and its meaning is left to consumers. A tagged value and a bare name
// share their prefix, so both parse as one named node whose inner value is
// optional. OPENDATA is lexed as a keyword and never names a word, which
// lets every alternative of value be chosen by its first token.

var openDataLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Keyword", Pattern: `OPENDATA\b`},
	// Must precede Ident so that T"..." is one token.
	{Name: "DisplayName", Pattern: `T\s*"(?:\\.|[^"\\])*"`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Float", Pattern: `[-+]?(?:\d+\.\d*|\.\d+)`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[@.:;\[\]()]`},
})

func buildGrammar() *participle.Parser[grammarDocument] {
	return participle.MustBuild[grammarDocument](
		participle.Lexer(openDataLexer),
		participle.Elide("Whitespace"),
	)
}

type grammarDocument struct {
	Pos lexer.Position

	Name *grammarName `"OPENDATA" @@`
	Body *grammarDict `@@ ";"`
}

type grammarName struct {
	Pos lexer.Position

	Words []*grammarWord `@@ ( "." @@ )*`
}

type grammarWord struct {
	Ref     bool   `(   @"@"?`
	Ident   string `    @Ident`
	Display string `  | @DisplayName )`
}

type grammarDict struct {
	Pos lexer.Position

	Pairs []*grammarPair `"[" ( @@ ";" )* "]"`
}

type grammarPair struct {
	Pos lexer.Position

	Key   *grammarName  `@@ ":"`
	Value *grammarValue `@@`
}

type grammarList struct {
	Pos lexer.Position

	Items []*grammarValue `"(" ( @@ ";" )* ")"`
}

// grammarNamed is a bare name when Inner is nil and a tagged value
// otherwise.
type grammarNamed struct {
	Pos lexer.Position

	Name  *grammarName  `@@`
	Inner *grammarValue `@@?`
}

type grammarValue struct {
	Pos lexer.Position

	Document *grammarDocument `  @@`
	Named    *grammarNamed    `| @@`
	Dict     *grammarDict     `| @@`
	List     *grammarList     `| @@`
	String   *string          `| @String`
	Float    *string          `| @Float`
	Int      *string          `| @Int`
}
