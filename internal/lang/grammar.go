package lang

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// helixLexer tokenizes HelixDB source. Multi-character operators are
// listed ahead of the single-character Punct class so `::`, `=>`, `<-`,
// and `..` are never split into their component runes; Keyword is tried
// before Ident so reserved words never fall through to identifiers. Word
// boundaries on Keyword mean a reserved word that is itself a prefix of a
// longer identifier (e.g. "Out" inside "OutE") never wins by accident:
// the shorter alternative's trailing boundary fails and the longer one
// matches instead.
var helixLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Arrow", Pattern: `=>`},
	{Name: "Bind", Pattern: `<-`},
	{Name: "DColon", Pattern: `::`},
	{Name: "Spread", Pattern: `\.\.`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `"(\\.|[^"])*"`},
	{Name: "Keyword", Pattern: `\b(BatchAddV|SearchV|AddE|AddN|AddV|OutE|InE|BothE|Out|In|Both|Properties|From|To|QUERY|RETURN|WHERE|EXISTS|AND|OR|COUNT|RANGE|UPDATE|DROP|GTE|GT|LTE|LT|NEQ|EQ|TRUE|FALSE|NONE|String|Integer|Float|Boolean|ID|N|E|V)\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[(){}:,<>\[\]!|]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var parser = participle.MustBuild[SourceFile](
	participle.Lexer(helixLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Parse lexes and parses a complete HelixDB source file.
func Parse(filename, src string) (*SourceFile, error) {
	ast, err := parser.ParseString(filename, src)
	if err != nil {
		return nil, wrapParseError(err)
	}
	return ast, nil
}
