// Package lang implements the Lexer/Parser (spec §4.A): a participle
// grammar that produces an AST from HelixDB source text, with every node
// carrying a source position for diagnostics.
package lang

import "github.com/alecthomas/participle/v2/lexer"

// SourceFile is the root AST node: zero or more declarations in any order.
type SourceFile struct {
	Pos   lexer.Position
	Decls []*Decl `parser:"@@*"`
}

// Decl dispatches on which kind of top-level declaration follows.
type Decl struct {
	Node   *NodeDecl   `parser:"  @@"`
	Edge   *EdgeDecl   `parser:"| @@"`
	Vector *VectorDecl `parser:"| @@"`
	Query  *QueryDecl  `parser:"| @@"`
}

// NodeDecl is `N::<Name> { field, field, … }`.
type NodeDecl struct {
	Pos    lexer.Position
	Name   string      `parser:"\"N\" \"::\" @Ident"`
	Fields []*FieldDef `parser:"\"{\" (@@ (\",\" @@)*)? \"}\""`
}

// EdgeDecl is `E::<Name> { From: <Node>, To: <Node>, Properties: { fields? } }`.
type EdgeDecl struct {
	Pos   lexer.Position
	Name  string          `parser:"\"E\" \"::\" @Ident \"{\""`
	From  string          `parser:"\"From\" \":\" @Ident \",\""`
	To    string          `parser:"\"To\" \":\" @Ident"`
	Props *EdgePropsBlock `parser:"(\",\" @@)?  \"}\""`
}

// EdgePropsBlock is the optional `Properties: { fields? }` tail of an
// edge declaration.
type EdgePropsBlock struct {
	Pos    lexer.Position
	Fields []*FieldDef `parser:"\"Properties\" \":\" \"{\" (@@ (\",\" @@)*)? \"}\""`
}

// VectorDecl is `V::<Name>`.
type VectorDecl struct {
	Pos  lexer.Position
	Name string `parser:"\"V\" \"::\" @Ident"`
}

// FieldDef is a single `name: type` pair inside a schema block.
type FieldDef struct {
	Pos  lexer.Position
	Name string   `parser:"@Ident \":\""`
	Type *TypeRef `parser:"@@"`
}

// TypeRef is one of String|Integer|Float|Boolean|[T]|<UppercaseName>.
type TypeRef struct {
	Pos   lexer.Position
	Array *ScalarOrRef `parser:"(  \"[\" @@ \"]\""`
	Plain *ScalarOrRef `parser:"|  @@ )"`
}

// ScalarOrRef is the element type inside a TypeRef: a builtin scalar
// keyword or a reference to a declared schema identifier.
type ScalarOrRef struct {
	Pos    lexer.Position
	Scalar string `parser:"(  @(\"String\"|\"Integer\"|\"Float\"|\"Boolean\"|\"ID\")"`
	Ref    string `parser:"|  @Ident )"`
}

// QueryDecl is `QUERY <name>(p: T, …) => <body> RETURN <expr>, …`.
type QueryDecl struct {
	Pos    lexer.Position
	Name   string       `parser:"\"QUERY\" @Ident \"(\""`
	Params []*ParamDef  `parser:"(@@ (\",\" @@)*)? \")\" \"=>\""`
	Body   []*BodyStmt  `parser:"@@*"`
	Return []*Traversal `parser:"\"RETURN\" @@ (\",\" @@)*"`
}

// ParamDef is a single `name: type` query parameter.
type ParamDef struct {
	Pos  lexer.Position
	Name string   `parser:"@Ident \":\""`
	Type *TypeRef `parser:"@@"`
}

// BodyStmt is either a `name <- expr` binding or a bare mutating
// statement-expression (no binding).
type BodyStmt struct {
	Pos  lexer.Position
	Name string     `parser:"(@Ident \"<-\")?"`
	Expr *Traversal `parser:"@@"`
}

// Traversal is a starting step followed by zero or more `::`-separated
// steps. Every expression position in the grammar (literals, parameter
// references, bound-name references, and true multi-step traversals) is
// represented uniformly as a Traversal, matching the spec's view of
// traversal state as "either a single value or a stream" (§3).
type Traversal struct {
	Pos   lexer.Position
	Start *StartStep `parser:"@@"`
	Steps []*Step    `parser:"(\"::\" @@)*"`
}

// StartStep is the first element of a Traversal.
type StartStep struct {
	Pos       lexer.Position
	ScanN     *ScanArgs      `parser:"(  \"N\" @@?"`
	ScanE     *ScanArgs      `parser:"|  \"E\" @@?"`
	ScanV     *ScanArgs      `parser:"|  \"V\" @@?"`
	AddN      *AddNArgs      `parser:"|  \"AddN\" @@"`
	AddV      *AddVArgs      `parser:"|  \"AddV\" @@"`
	BatchAddV *BatchAddVArgs `parser:"|  \"BatchAddV\" @@"`
	AddE      *AddEArgs      `parser:"|  \"AddE\" @@"`
	SearchV   *SearchVArgs   `parser:"|  \"SearchV\" @@"`
	Exists    *ExistsArgs    `parser:"|  \"EXISTS\" @@"`
	Drop      bool           `parser:"|  @\"DROP\""`
	Lit       *Literal       `parser:"|  @@"`
	Ident     *string        `parser:"|  @Ident )"`
}

// ScanArgs is the optional `<Type>(ids?)` suffix on a bare N/E/V start step.
type ScanArgs struct {
	Pos  lexer.Position
	Type string       `parser:"(\"<\" @Ident \">\")?"`
	Args []*Traversal `parser:"(\"(\" (@@ (\",\" @@)*)? \")\")?"`
}

// AddNArgs is `<Type>({ field: expr, … })`.
type AddNArgs struct {
	Pos   lexer.Position
	Type  string        `parser:"\"<\" @Ident \">\""`
	Props []*PropAssign `parser:"\"(\" \"{\" (@@ (\",\" @@)*)? \"}\" \")\""`
}

// AddVArgs is `<Type>(payload)`.
type AddVArgs struct {
	Pos     lexer.Position
	Type    string     `parser:"\"<\" @Ident \">\""`
	Payload *Traversal `parser:"\"(\" @@ \")\""`
}

// BatchAddVArgs is `<Type>(ident)` where ident names a [[Float]] parameter.
type BatchAddVArgs struct {
	Pos    lexer.Position
	Type   string     `parser:"\"<\" @Ident \">\""`
	Source *Traversal `parser:"\"(\" @@ \")\""`
}

// AddEArgs is `<Type>({ field: expr, … }?)`; `::From(x)::To(y)` follow as
// ordinary Steps.
type AddEArgs struct {
	Pos   lexer.Position
	Type  string        `parser:"\"<\" @Ident \">\""`
	Props []*PropAssign `parser:"\"(\" (\"{\" (@@ (\",\" @@)*)? \"}\")? \")\""`
}

// SearchVArgs is `<Type>(v, k)`.
type SearchVArgs struct {
	Pos   lexer.Position
	Type  string     `parser:"\"<\" @Ident \">\""`
	Query *Traversal `parser:"\"(\" @@"`
	K     *Traversal `parser:"\",\" @@ \")\""`
}

// ExistsArgs is `(traversal)`.
type ExistsArgs struct {
	Pos lexer.Position
	Sub *Traversal `parser:"\"(\" @@ \")\""`
}

// PropAssign is a single `key: expr` pair inside AddN/AddE/UPDATE.
type PropAssign struct {
	Pos   lexer.Position
	Key   string     `parser:"@Ident \":\""`
	Value *Traversal `parser:"@@"`
}

// Literal is a scalar literal, array literal, or the NONE literal.
type Literal struct {
	Pos   lexer.Position
	Str   *string      `parser:"(  @String"`
	Float *float64     `parser:"|  @Float"`
	Int   *int64       `parser:"|  @Int"`
	True  bool         `parser:"|  @\"TRUE\""`
	False bool         `parser:"|  @\"FALSE\""`
	None  bool         `parser:"|  @\"NONE\""`
	Array []*Traversal `parser:"|  \"[\" (@@ (\",\" @@)*)? \"]\" )"`
}

// Step is a single `::`-prefixed postfix operation on a Traversal.
type Step struct {
	Pos     lexer.Position
	OutE    *DirArgs     `parser:"(  \"OutE\" @@?"`
	InE     *DirArgs     `parser:"|  \"InE\" @@?"`
	BothE   *DirArgs     `parser:"|  \"BothE\" @@?"`
	Out     *DirArgs     `parser:"|  \"Out\" @@?"`
	In      *DirArgs     `parser:"|  \"In\" @@?"`
	Both    *DirArgs     `parser:"|  \"Both\" @@?"`
	Where   *WhereArgs   `parser:"|  \"WHERE\" @@"`
	Exists  *ExistsArgs  `parser:"|  \"EXISTS\" @@"`
	Compare *CompareArgs `parser:"|  @@"`
	Count   bool         `parser:"|  @\"COUNT\""`
	IDStep  bool         `parser:"|  @\"ID\""`
	Range   *RangeArgs   `parser:"|  \"RANGE\" @@"`
	Object  *ObjectStep  `parser:"|  @@"`
	Exclude *ExcludeStep `parser:"|  @@"`
	Closure *ClosureStep `parser:"|  @@"`
	Update  *UpdateArgs  `parser:"|  \"UPDATE\" @@"`
	Drop    bool         `parser:"|  @\"DROP\""`
	From    *FromToArgs  `parser:"|  \"From\" @@"`
	To      *FromToArgs  `parser:"|  \"To\" @@ )"`
}

// DirArgs is the optional `<EdgeType>` on a graph step.
type DirArgs struct {
	Pos  lexer.Position
	Type string `parser:"(\"<\" @Ident \">\")?"`
}

// WhereArgs is `(pred)`.
type WhereArgs struct {
	Pos  lexer.Position
	Pred *BoolExpr `parser:"\"(\" @@ \")\""`
}

// BoolExpr is a left-associative OR of ANDs of Traversals, the standard
// participle binary-operator pattern.
type BoolExpr struct {
	Pos  lexer.Position
	Left *BoolAnd  `parser:"@@"`
	Rest []*BoolOr `parser:"@@*"`
}

type BoolOr struct {
	Right *BoolAnd `parser:"\"OR\" @@"`
}

type BoolAnd struct {
	Pos  lexer.Position
	Left *Traversal   `parser:"@@"`
	Rest []*BoolAndOp `parser:"@@*"`
}

type BoolAndOp struct {
	Right *Traversal `parser:"\"AND\" @@"`
}

// CompareArgs is a postfix scalar comparator: GT/GTE/LT/LTE/EQ/NEQ(expr).
type CompareArgs struct {
	Pos lexer.Position
	Op  string     `parser:"@(\"GTE\"|\"GT\"|\"LTE\"|\"LT\"|\"NEQ\"|\"EQ\")"`
	Arg *Traversal `parser:"\"(\" @@ \")\""`
}

// RangeArgs is `(lo, hi)`.
type RangeArgs struct {
	Pos lexer.Position
	Lo  *Traversal `parser:"\"(\" @@"`
	Hi  *Traversal `parser:"\",\" @@ \")\""`
}

// ObjectStep is `{ field_or_mapping, … }` (object_step).
type ObjectStep struct {
	Pos    lexer.Position
	Fields []*ObjectField `parser:"\"{\" (@@ (\",\" @@)*)? \"}\""`
}

// ObjectField is either a spread (`..`) or an explicit mapping field.
type ObjectField struct {
	Pos     lexer.Position
	Spread  bool        `parser:"(  @\"..\""`
	Mapping *MappingFld `parser:"|  @@ )"`
}

// MappingFld is `name` (shorthand for `name: name`) or `name: expr`.
type MappingFld struct {
	Pos   lexer.Position
	Name  string     `parser:"@Ident"`
	Value *Traversal `parser:"(\":\" @@)?"`
}

// ExcludeStep is `!{ x, y }` (exclude_field).
type ExcludeStep struct {
	Pos    lexer.Position
	Fields []string `parser:"\"!\" \"{\" @Ident (\",\" @Ident)* \"}\""`
}

// ClosureStep is `|x| { … }` (closure_step).
type ClosureStep struct {
	Pos    lexer.Position
	Var    string      `parser:"\"|\" @Ident \"|\""`
	Object *ObjectStep `parser:"@@"`
}

// UpdateArgs is `({ field: expr, … })`.
type UpdateArgs struct {
	Pos    lexer.Position
	Fields []*PropAssign `parser:"\"(\" \"{\" (@@ (\",\" @@)*)? \"}\" \")\""`
}

// FromToArgs is `(x)` following `::From`/`::To` on an AddE traversal.
type FromToArgs struct {
	Pos lexer.Position
	Arg *Traversal `parser:"\"(\" @@ \")\""`
}
