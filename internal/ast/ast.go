// Package ast defines the read-only contract the semantic front-end consumes:
// a parsed, scoped Vela program with stable node identifiers (§1, §6 of the
// front-end spec). The lexer, parser, and scope-tree builder that produce
// these values live outside this repository; this package only pins down
// the shapes the checker is allowed to depend on.
package ast

import "fmt"

// NodeID is a stable identifier assigned by the parser/elaborator that built
// the AST. The checker never mints these; synthesized declarations are
// recorded as properties.SynthesizedDecl descriptors, which carry no id.
type NodeID uint64

// Pos is a single source location.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Span is a source range, used as the "site" of diagnostics and constraints.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string { return s.Start.String() }

// Overlaps reports whether pos is in s's file and its line falls within s's
// line range (columns are ignored) — used by the solver to decide whether
// to emit a trace entry for the tracing site (§6 inferenceTracingSite).
func (s Span) Overlaps(pos Pos) bool {
	if s.Start.File != pos.File {
		return false
	}
	startLine, endLine := s.Start.Line, s.End.Line
	if pos.Line < startLine || pos.Line > endLine {
		return false
	}
	return true
}

// AccessEffect is the convention with which a receiver or parameter is
// accessed: borrow, mutable borrow, consume, initialize, or yield (glossary:
// "Access effect").
type AccessEffect int

const (
	EffectLet AccessEffect = iota
	EffectInout
	EffectSink
	EffectSet
	EffectYielded
)

func (e AccessEffect) String() string {
	switch e {
	case EffectLet:
		return "let"
	case EffectInout:
		return "inout"
	case EffectSink:
		return "sink"
	case EffectSet:
		return "set"
	case EffectYielded:
		return "yielded"
	default:
		return "let"
	}
}

// Node is the base of every AST node.
type Node interface {
	ID() NodeID
	Pos() Span
}

// Decl is the base of every declaration node.
type Decl interface {
	Node
	declNode()
}

// Expr is the base of every expression node.
type Expr interface {
	Node
	exprNode()
}

// base supplies ID()/Pos() to embedding node types.
type base struct {
	NID  NodeID
	Span Span
}

func (b base) ID() NodeID { return b.NID }
func (b base) Pos() Span  { return b.Span }

// ---------------------------------------------------------------------------
// Type expressions (surface syntax for a type; distinct from the realized
// internal/types.Type the checker computes for it).
// ---------------------------------------------------------------------------

// TypeExpr is a surface type expression.
type TypeExpr interface {
	Node
	typeExprNode()
}

// TypeArg is a static argument in a generic-argument list: either a nested
// type expression or (for value generic parameters) an arbitrary expression.
type TypeArg struct {
	Type  TypeExpr
	Value Expr
}

// NameTypeComponent is one dotted segment of a qualified type name, e.g. the
// `Box` and `Inner` in `Box<Int>.Inner`.
type NameTypeComponent struct {
	Stem string
	Args []TypeArg
	Span Span
}

// NameTypeExpr is a (possibly qualified, possibly generic) reference to a
// declared type by name, e.g. `Dictionary<String, Int>` or `Self.Element`.
type NameTypeExpr struct {
	base
	Components []NameTypeComponent
}

func (*NameTypeExpr) typeExprNode() {}

// TupleTypeExpr is `(T, U, ...)`.
type TupleTypeExpr struct {
	base
	Elements []TypeExpr
}

func (*TupleTypeExpr) typeExprNode() {}

// SumTypeExpr is `T | U | ...` (glossary: Sum type).
type SumTypeExpr struct {
	base
	Elements []TypeExpr
}

func (*SumTypeExpr) typeExprNode() {}

// ExistentialTypeExpr is `any T1 & T2 where ...` — a set of traits (or a
// single generic type) plus where-constraints (glossary: Existential).
type ExistentialTypeExpr struct {
	base
	Traits    []TypeExpr
	Generic   TypeExpr // set when the existential wraps a single generic type
	Where     []WhereConstraint
}

func (*ExistentialTypeExpr) typeExprNode() {}

// MetatypeTypeExpr is `Metatype<T>` / `T.Type`.
type MetatypeTypeExpr struct {
	base
	Instance TypeExpr
}

func (*MetatypeTypeExpr) typeExprNode() {}

// IntrinsicKind enumerates intrinsic type-expression aliases resolved
// without AST lookup (§4.3 step 2).
type IntrinsicKind int

const (
	IntrinsicAny IntrinsicKind = iota
	IntrinsicNever
	IntrinsicSelf
)

// IntrinsicTypeExpr is one of `Any`, `Never`, `Self`.
type IntrinsicTypeExpr struct {
	base
	Kind IntrinsicKind
}

func (*IntrinsicTypeExpr) typeExprNode() {}

// RemoteTypeExpr is `let T` / `inout T` / `sink T` in parameter/type
// position — a borrow of T under the given access effect.
type RemoteTypeExpr struct {
	base
	Effect AccessEffect
	Of     TypeExpr
}

func (*RemoteTypeExpr) typeExprNode() {}

// WhereConstraint is one constraint of a generic where-clause: either a
// conformance constraint (`T: Trait`) or an equality constraint (`T == U`).
type WhereConstraint struct {
	Subject    TypeExpr
	Conforms   TypeExpr // set for conformance constraints
	EqualTo    TypeExpr // set for equality constraints
	Span       Span
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// GenericParamDecl is one entry of a generic parameter list. Per §4.1: if the
// first annotation refers to a trait, the parameter is a type parameter;
// otherwise it is a value parameter whose type is the annotation's type.
type GenericParamDecl struct {
	base
	Name        string
	Annotations []TypeExpr
}

func (*GenericParamDecl) declNode() {}

// ParamDecl is a function/initializer/subscript parameter.
type ParamDecl struct {
	base
	Label      string // external argument label, "" if positional-only
	Name       string
	Annotation TypeExpr // nil in expression (lambda) context: convention still required
	Convention AccessEffect
}

func (*ParamDecl) declNode() {}

// CaptureDecl is one explicit capture in a lambda's capture list.
// Pattern introducers: `let`/`inout` introduce remote borrows, `sink-let`/
// `sink-var` introduce owned captures (§4.1).
type CaptureDecl struct {
	base
	Name        string
	Introducer  AccessEffect
	Initializer Expr // nil when capturing an outer binding by name
}

func (*CaptureDecl) declNode() {}

// Pattern is a binding pattern (`let (x, y) = ...`).
type Pattern interface {
	Node
	patternNode()
}

// NamePattern binds a single name.
type NamePattern struct {
	base
	Name string
}

func (*NamePattern) patternNode() {}

// TuplePattern destructures a tuple.
type TuplePattern struct {
	base
	Elements []Pattern
}

func (*TuplePattern) patternNode() {}

// WildcardPattern discards a value (`_`).
type WildcardPattern struct{ base }

func (*WildcardPattern) patternNode() {}

// BindingDecl is a `let`/`var`/`sink-let`/`sink-var` binding declaration.
type BindingDecl struct {
	base
	Introducer  AccessEffect
	Pattern     Pattern
	Annotation  TypeExpr // optional
	Initializer Expr     // optional (requirements in traits have none)
}

func (*BindingDecl) declNode() {}

// FunctionKind distinguishes the realization rules that apply to a callable
// declaration (§4.1).
type FunctionKind int

const (
	KindFunction FunctionKind = iota
	KindInitializer
	KindMemberwiseInitializer
)

// FunctionDecl is a free function, method variant, initializer variant, or
// subscript-variant body.
type FunctionDecl struct {
	base
	Kind           FunctionKind
	Name           string
	GenericParams  []*GenericParamDecl
	Params         []*ParamDecl
	ExplicitCaptures []*CaptureDecl
	HasReceiver    bool
	ReceiverEffect AccessEffect
	Return         TypeExpr // nil => void, or fresh variable in expression context
	Where          []WhereConstraint
	Body           Expr // nil if the declaration only requires a body (trait requirement)
}

func (*FunctionDecl) declNode() {}

// BundleVariant is one access-effect keyed variant of a method or subscript
// bundle (glossary: Bundle).
type BundleVariant struct {
	Effect AccessEffect
	Fn     *FunctionDecl
}

// MethodBundleDecl groups the variants of a bundled method declaration.
type MethodBundleDecl struct {
	base
	Name     string
	Variants []BundleVariant
}

func (*MethodBundleDecl) declNode() {}

// SubscriptBundleDecl groups the variants of a subscript declaration.
// IsProperty marks a no-argument computed property subscript.
type SubscriptBundleDecl struct {
	base
	Name       string
	IsProperty bool
	Variants   []BundleVariant
}

func (*SubscriptBundleDecl) declNode() {}

// ProductDecl is a struct-like nominal product type declaration.
type ProductDecl struct {
	base
	Name          string
	GenericParams []*GenericParamDecl
	Members       []Decl
}

func (*ProductDecl) declNode() {}

// TraitDecl is a trait ("view") declaration: a named set of requirements.
type TraitDecl struct {
	base
	Name     string
	Refines  []TypeExpr // traits this trait refines (transitively conformed)
	Members  []Decl     // requirements: functions/bundles/assoc types & values
}

func (*TraitDecl) declNode() {}

// TypeAliasDecl is `type Name = <TypeExpr>`.
type TypeAliasDecl struct {
	base
	Name    string
	Aliased TypeExpr
}

func (*TypeAliasDecl) declNode() {}

// AssociatedTypeDecl is a trait's associated type requirement.
type AssociatedTypeDecl struct {
	base
	Name string
}

func (*AssociatedTypeDecl) declNode() {}

// AssociatedValueDecl is a trait's associated value requirement.
type AssociatedValueDecl struct {
	base
	Name       string
	Annotation TypeExpr
}

func (*AssociatedValueDecl) declNode() {}

// ExtensionDecl extends an existing nominal type with new members.
type ExtensionDecl struct {
	base
	Subject TypeExpr
	Where   []WhereConstraint
	Members []Decl
}

func (*ExtensionDecl) declNode() {}

// ConformanceDecl is a declared `Model: Trait` conformance site (§4.6),
// whether written directly on a product or inside an extension's subject.
type ConformanceDecl struct {
	base
	Model   TypeExpr
	Concept TypeExpr
	Where   []WhereConstraint
	Members []Decl // conformance-local requirement implementations
}

func (*ConformanceDecl) declNode() {}

// ModuleDecl / NamespaceDecl group top-level declarations.
type ModuleDecl struct {
	base
	Name  string
	Decls []Decl
}

func (*ModuleDecl) declNode() {}

type NamespaceDecl struct {
	base
	Name  string
	Decls []Decl
}

func (*NamespaceDecl) declNode() {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// NameComponent is one nominal segment of a name expression (§4.3).
type NameComponent struct {
	Stem string
	Args []TypeArg
	Span Span
}

// NameExpr is a (possibly qualified) name reference. Prefix, when non-nil,
// is an arbitrary expression evaluated before nominal resolution begins
// (§4.3: "a non-nominal prefix"); Components are resolved left to right
// once Prefix's type is known (or the expression has no prefix at all, i.e.
// an implicit-receiver or unqualified lookup).
type NameExpr struct {
	base
	Prefix     Expr
	Components []NameComponent
}

func (*NameExpr) exprNode() {}

// LitKind enumerates literal kinds.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBool
	LitVoid
)

// LiteralExpr is a literal value.
type LiteralExpr struct {
	base
	Kind  LitKind
	Value any
}

func (*LiteralExpr) exprNode() {}

// Argument is one labeled or positional call argument.
type Argument struct {
	Label string
	Value Expr
}

// CallExpr applies Callee to Arguments; §4.3 step 4 may have rewritten the
// surface syntax (`T(...)`, `x[...]`) into this shape with Callee already
// pointing at the sugared `init`/`[]` lookup.
type CallExpr struct {
	base
	Callee    Expr
	Arguments []Argument
}

func (*CallExpr) exprNode() {}

// LambdaExpr is a closure literal.
type LambdaExpr struct {
	base
	Params           []*ParamDecl
	ExplicitCaptures []*CaptureDecl
	ReceiverEffect   AccessEffect
	Return           TypeExpr
	Body             Expr
}

func (*LambdaExpr) exprNode() {}

// TupleExpr is a tuple literal.
type TupleExpr struct {
	base
	Elements []Expr
}

func (*TupleExpr) exprNode() {}

// OperatorOperand is one `(op, operand)` pair following the head of a
// sequence expression (§4.7).
type OperatorOperand struct {
	Operator string
	Operand  Expr
	Span     Span
}

// SequenceExpr is a flat binary-operator chain, folded by internal/fold
// into a binary tree once operator declarations are resolved.
type SequenceExpr struct {
	base
	Head Expr
	Tail []OperatorOperand
}

func (*SequenceExpr) exprNode() {}

// AddressExpr is `&x`, a mutable-borrow expression — marks its operand as a
// mutable capture candidate for §4.2 capture analysis.
type AddressExpr struct {
	base
	Operand Expr
}

func (*AddressExpr) exprNode() {}

// BlockExpr sequences statements and yields the value of its last
// expression (or void).
type BlockExpr struct {
	base
	Stmts []Node // BindingDecl or Expr
	Value Expr   // nil => void
}

func (*BlockExpr) exprNode() {}

// ReturnExpr is the expression form the constraint generator attaches its
// return-value disjunction (§4.4) to.
type ReturnExpr struct {
	base
	Value Expr // nil => void return
}

func (*ReturnExpr) exprNode() {}
