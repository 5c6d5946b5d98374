// Package types implements the Vela type universe: a closed, tagged set of
// type variants (values are not interned) with a propagated flag cache, as the checker's single source of truth for "what
// is this declaration's or expression's type."
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vela-lang/velac/internal/ast"
)

// Kind tags which variant a Type value holds. Types are a closed set, not an
// open interface hierarchy, so every case analysis downstream can be
// exhaustive on Kind.
type Kind int

const (
	KindNominal Kind = iota
	KindGenericParameter
	KindAssociatedType
	KindAssociatedValue
	KindSkolem
	KindVariable
	KindBoundGeneric
	KindMetatype
	KindLambda
	KindMethodBundle
	KindSubscriptBundle
	KindParameter
	KindRemote
	KindTuple
	KindSum
	KindExistential
	KindConformanceLens
	KindError
	KindBuiltinModule
	KindPointer
	KindNever
	KindVoid
	KindAny
)

// NominalKind distinguishes the five nominal sub-variants.
type NominalKind int

const (
	NominalProduct NominalKind = iota
	NominalTrait
	NominalAlias
	NominalModule
	NominalNamespace
)

// flags is the propagated flag cache every Type carries (§3).
type flags struct {
	hasVariable             bool
	hasError                bool
	hasGenericTypeParameter bool
	hasGenericValueParameter bool
	isCanonical             bool
}

// Type is a tagged value; it is not interned, and each constructor call
// allocates a new one. Structural variants (tuple, sum,
// callable) are compared by structural equality of their fields; nominal
// and bound-generic variants are compared by the introducing declaration id
// (and, for bound generics, the specialization key).
type Type struct {
	kind  Kind
	flags flags

	// Nominal
	nominalKind NominalKind
	declID      ast.NodeID
	name        string

	// GenericParameter / AssociatedType / AssociatedValue / Skolem
	paramID     ast.NodeID
	paramName   string
	skolemScope ast.NodeID // scope the skolem is rigid within
	valueType   *Type      // for value generic parameters and associated values

	// Variable: 56-bit id packed with an 8-bit context tag in one uint64
	varID uint64

	// BoundGeneric
	base *Type
	args *ArgMap

	// Metatype
	instance *Type

	// Callable
	callable *Callable

	// Tuple / Sum
	elements []*Type

	// Existential
	existential *Existential

	// ConformanceLens
	lensSubject *Type
	lensTrait   *Type

	// Remote / Parameter
	effect  ast.AccessEffect
	of      *Type // Remote: borrowed type; Parameter: bare type
}

// ArgMap is an ordered map from generic-parameter id to a bound
// compile-time value (a Type for type parameters, or a value placeholder
// for value parameters — symbolic value evaluation is a stub per spec
// Design Note iii, represented here as an opaque Value).
type ArgMap struct {
	order []ast.NodeID
	types map[ast.NodeID]*Type
	vals  map[ast.NodeID]Value
}

// Value is a symbolic compile-time value bound to a value generic
// parameter. Evaluation of arbitrary expressions into Values is explicitly
// a stub (spec Design Note iii); only literal values are represented.
type Value struct {
	Lit any
}

// NewArgMap builds an ArgMap preserving insertion order.
func NewArgMap() *ArgMap {
	return &ArgMap{types: map[ast.NodeID]*Type{}, vals: map[ast.NodeID]Value{}}
}

// BindType binds a type argument for parameter id p, appending to order the
// first time p is bound.
func (m *ArgMap) BindType(p ast.NodeID, t *Type) {
	if _, ok := m.types[p]; !ok {
		if _, ok := m.vals[p]; !ok {
			m.order = append(m.order, p)
		}
	}
	m.types[p] = t
}

// BindValue binds a value argument for parameter id p.
func (m *ArgMap) BindValue(p ast.NodeID, v Value) {
	if _, ok := m.vals[p]; !ok {
		if _, ok := m.types[p]; !ok {
			m.order = append(m.order, p)
		}
	}
	m.vals[p] = v
}

// Order returns parameter ids in binding order.
func (m *ArgMap) Order() []ast.NodeID { return m.order }

// TypeArg returns the bound type for p, if p is a type parameter.
func (m *ArgMap) TypeArg(p ast.NodeID) (*Type, bool) { t, ok := m.types[p]; return t, ok }

// ValueArg returns the bound value for p, if p is a value parameter.
func (m *ArgMap) ValueArg(p ast.NodeID) (Value, bool) { v, ok := m.vals[p]; return v, ok }

// Len reports how many parameters are bound.
func (m *ArgMap) Len() int { return len(m.order) }

// Callable covers lambda, method-bundle, subscript-bundle, and parameter
// shapes (§3).
type Callable struct {
	ReceiverEffect ast.AccessEffect
	HasReceiver    bool
	Receiver       *Type
	Environment    []*Type // captured-variable tuple, in capture order
	Inputs         []Param
	Output         *Type

	// MethodBundle / SubscriptBundle
	IsProperty bool
	Variants   map[ast.AccessEffect]*Callable
}

// Param is one labeled input of a callable type.
type Param struct {
	Label      string
	Type       *Type
	Convention ast.AccessEffect
}

// Existential is an interface: a set of traits, or a single generic type
// (§3). Where-constraints are not recorded.
type Existential struct {
	Traits  []*Type // may be empty when Generic is set
	Generic *Type   // nil unless this is "any T" rather than a trait set
}

func newFlags(t ...*Type) flags {
	var f flags
	for _, x := range t {
		if x == nil {
			continue
		}
		f.hasVariable = f.hasVariable || x.flags.hasVariable
		f.hasError = f.hasError || x.flags.hasError
		f.hasGenericTypeParameter = f.hasGenericTypeParameter || x.flags.hasGenericTypeParameter
		f.hasGenericValueParameter = f.hasGenericValueParameter || x.flags.hasGenericValueParameter
	}
	return f
}

// --- constructors: flags propagate from constituent types on construction ---

func NewNominal(kind NominalKind, declID ast.NodeID, name string) *Type {
	return &Type{kind: KindNominal, nominalKind: kind, declID: declID, name: name, flags: flags{isCanonical: true}}
}

func NewGenericParameter(id ast.NodeID, name string, valueType *Type) *Type {
	t := &Type{kind: KindGenericParameter, paramID: id, paramName: name, valueType: valueType}
	t.flags = newFlags(valueType)
	if valueType != nil {
		t.flags.hasGenericValueParameter = true
	} else {
		t.flags.hasGenericTypeParameter = true
	}
	t.flags.isCanonical = true
	return t
}

func NewAssociatedType(id ast.NodeID, name string) *Type {
	return &Type{kind: KindAssociatedType, paramID: id, paramName: name, flags: flags{isCanonical: true}}
}

func NewAssociatedValue(id ast.NodeID, name string, valueType *Type) *Type {
	t := &Type{kind: KindAssociatedValue, paramID: id, paramName: name, valueType: valueType}
	t.flags = newFlags(valueType)
	t.flags.isCanonical = true
	return t
}

func NewSkolem(id ast.NodeID, name string, introducerScope ast.NodeID) *Type {
	return &Type{kind: KindSkolem, paramID: id, paramName: name, skolemScope: introducerScope, flags: flags{isCanonical: true}}
}

// packVar packs a 56-bit id and an 8-bit context tag into one uint64, as
// spec.md §3 describes the variable representation.
func packVar(id uint64, ctx uint8) uint64 {
	return (id << 8) | uint64(ctx)
}

// NewVariable creates a fresh unification variable. id should be unique per
// context tag (callers typically draw id from a monotonically increasing
// per-checker counter); ctx distinguishes variable pools (e.g. type-level
// vs. value-level variables) so two variables from different contexts
// never alias.
func NewVariable(id uint64, ctx uint8) *Type {
	return &Type{kind: KindVariable, varID: packVar(id, ctx), flags: flags{hasVariable: true}}
}

// VariableID returns the packed (id, context) pair of a variable type.
func (t *Type) VariableID() (id uint64, ctx uint8) {
	return t.varID >> 8, uint8(t.varID & 0xff)
}

func NewBoundGeneric(base *Type, args *ArgMap) *Type {
	t := &Type{kind: KindBoundGeneric, base: base, args: args}
	t.flags = newFlags(base)
	for _, p := range args.order {
		if a, ok := args.types[p]; ok {
			t.flags = mergeFlags(t.flags, newFlags(a))
		}
	}
	t.flags.isCanonical = base.flags.isCanonical
	return t
}

func mergeFlags(a, b flags) flags {
	return flags{
		hasVariable:              a.hasVariable || b.hasVariable,
		hasError:                 a.hasError || b.hasError,
		hasGenericTypeParameter:  a.hasGenericTypeParameter || b.hasGenericTypeParameter,
		hasGenericValueParameter: a.hasGenericValueParameter || b.hasGenericValueParameter,
		isCanonical:              a.isCanonical && b.isCanonical,
	}
}

func NewMetatype(instance *Type) *Type {
	t := &Type{kind: KindMetatype, instance: instance}
	t.flags = newFlags(instance)
	t.flags.isCanonical = instance.flags.isCanonical
	return t
}

func NewLambda(c *Callable) *Type {
	t := &Type{kind: KindLambda, callable: c}
	t.flags = callableFlags(c)
	return t
}

func NewMethodBundle(c *Callable) *Type {
	t := &Type{kind: KindMethodBundle, callable: c}
	t.flags = callableFlags(c)
	return t
}

func NewSubscriptBundle(c *Callable) *Type {
	t := &Type{kind: KindSubscriptBundle, callable: c}
	t.flags = callableFlags(c)
	return t
}

func callableFlags(c *Callable) flags {
	var f flags
	f = mergeFlags(f, newFlags(c.Receiver))
	f = mergeFlags(f, newFlags(c.Environment...))
	for _, p := range c.Inputs {
		f = mergeFlags(f, newFlags(p.Type))
	}
	f = mergeFlags(f, newFlags(c.Output))
	for _, v := range c.Variants {
		f = mergeFlags(f, callableFlags(v))
	}
	f.isCanonical = true
	return f
}

func NewParameter(convention ast.AccessEffect, of *Type) *Type {
	t := &Type{kind: KindParameter, effect: convention, of: of}
	t.flags = newFlags(of)
	t.flags.isCanonical = of.flags.isCanonical
	return t
}

func NewRemote(effect ast.AccessEffect, of *Type) *Type {
	t := &Type{kind: KindRemote, effect: effect, of: of}
	t.flags = newFlags(of)
	t.flags.isCanonical = of.flags.isCanonical
	return t
}

func NewTuple(elements ...*Type) *Type {
	t := &Type{kind: KindTuple, elements: elements}
	t.flags = newFlags(elements...)
	t.flags.isCanonical = allCanonical(elements)
	return t
}

func NewSum(elements ...*Type) *Type {
	t := &Type{kind: KindSum, elements: elements}
	t.flags = newFlags(elements...)
	t.flags.isCanonical = allCanonical(elements)
	return t
}

func allCanonical(ts []*Type) bool {
	for _, t := range ts {
		if t == nil || !t.flags.isCanonical {
			return false
		}
	}
	return true
}

func NewExistentialTraits(traits ...*Type) *Type {
	t := &Type{kind: KindExistential, existential: &Existential{Traits: traits}}
	t.flags = newFlags(traits...)
	t.flags.isCanonical = allCanonical(traits)
	return t
}

func NewExistentialGeneric(generic *Type) *Type {
	t := &Type{kind: KindExistential, existential: &Existential{Generic: generic}}
	t.flags = newFlags(generic)
	t.flags.isCanonical = generic.flags.isCanonical
	return t
}

func NewConformanceLens(subject, trait *Type) *Type {
	t := &Type{kind: KindConformanceLens, lensSubject: subject, lensTrait: trait}
	t.flags = mergeFlags(newFlags(subject), newFlags(trait))
	t.flags.isCanonical = subject.flags.isCanonical && trait.flags.isCanonical
	return t
}

// Error is the sentinel substituted for any ill-typed position. Once a type
// carries hasError, downstream uses flow through it silently (§7).
var Error = &Type{kind: KindError, flags: flags{hasError: true, isCanonical: true}}

var Never = &Type{kind: KindNever, flags: flags{isCanonical: true}}
var Void = &Type{kind: KindVoid, flags: flags{isCanonical: true}}
var Any = &Type{kind: KindAny, flags: flags{isCanonical: true}}

// NewBuiltinModule returns the sentinel "Builtin" module type, resolvable
// only when the resolver's IsBuiltinModuleVisible option is set (§6).
func NewBuiltinModule() *Type {
	return &Type{kind: KindBuiltinModule, flags: flags{isCanonical: true}}
}

// NewPointer wraps a pointee type in the built-in pointer sentinel.
func NewPointer(of *Type) *Type {
	t := &Type{kind: KindPointer, of: of}
	t.flags = newFlags(of)
	t.flags.isCanonical = of.flags.isCanonical
	return t
}

// --- accessors ---

func (t *Type) Kind() Kind              { return t.kind }
func (t *Type) NominalKind() NominalKind { return t.nominalKind }
func (t *Type) DeclID() ast.NodeID      { return t.declID }
func (t *Type) Name() string            { return t.name }
func (t *Type) ParamID() ast.NodeID     { return t.paramID }
func (t *Type) ParamName() string       { return t.paramName }
func (t *Type) SkolemScope() ast.NodeID { return t.skolemScope }
func (t *Type) ValueType() *Type        { return t.valueType }
func (t *Type) Base() *Type             { return t.base }
func (t *Type) Args() *ArgMap           { return t.args }
func (t *Type) Instance() *Type         { return t.instance }
func (t *Type) Callable() *Callable     { return t.callable }
func (t *Type) Elements() []*Type       { return t.elements }
func (t *Type) Existential_() *Existential { return t.existential }
func (t *Type) LensSubject() *Type      { return t.lensSubject }
func (t *Type) LensTrait() *Type        { return t.lensTrait }
func (t *Type) Effect() ast.AccessEffect { return t.effect }
func (t *Type) Of() *Type               { return t.of }

func (t *Type) HasVariable() bool             { return t.flags.hasVariable }
func (t *Type) HasError() bool                { return t.flags.hasError }
func (t *Type) HasGenericTypeParameter() bool { return t.flags.hasGenericTypeParameter }
func (t *Type) HasGenericValueParameter() bool { return t.flags.hasGenericValueParameter }
func (t *Type) IsCanonical() bool             { return t.flags.isCanonical }

// Transform applies f bottom-up to every constituent type and rebuilds the
// structural skeleton, serving as the combinator specialization,
// canonicalization, and substitution are all built from (§3: "transform
// combinator").
func Transform(t *Type, f func(*Type) *Type) *Type {
	if t == nil {
		return nil
	}
	var rebuilt *Type
	switch t.kind {
	case KindBoundGeneric:
		newArgs := NewArgMap()
		for _, p := range t.args.order {
			if a, ok := t.args.types[p]; ok {
				newArgs.BindType(p, Transform(a, f))
			} else if v, ok := t.args.vals[p]; ok {
				newArgs.BindValue(p, v)
			}
		}
		rebuilt = NewBoundGeneric(Transform(t.base, f), newArgs)
	case KindMetatype:
		rebuilt = NewMetatype(Transform(t.instance, f))
	case KindLambda, KindMethodBundle, KindSubscriptBundle:
		rebuilt = &Type{kind: t.kind, callable: transformCallable(t.callable, f)}
		rebuilt.flags = callableFlags(rebuilt.callable)
	case KindParameter:
		rebuilt = NewParameter(t.effect, Transform(t.of, f))
	case KindRemote:
		rebuilt = NewRemote(t.effect, Transform(t.of, f))
	case KindTuple:
		rebuilt = NewTuple(transformAll(t.elements, f)...)
	case KindSum:
		rebuilt = NewSum(transformAll(t.elements, f)...)
	case KindExistential:
		if t.existential.Generic != nil {
			rebuilt = NewExistentialGeneric(Transform(t.existential.Generic, f))
		} else {
			rebuilt = NewExistentialTraits(transformAll(t.existential.Traits, f)...)
		}
	case KindConformanceLens:
		rebuilt = NewConformanceLens(Transform(t.lensSubject, f), Transform(t.lensTrait, f))
	case KindPointer:
		rebuilt = NewPointer(Transform(t.of, f))
	default:
		rebuilt = t
	}
	return f(rebuilt)
}

func transformAll(ts []*Type, f func(*Type) *Type) []*Type {
	out := make([]*Type, len(ts))
	for i, t := range ts {
		out[i] = Transform(t, f)
	}
	return out
}

func transformCallable(c *Callable, f func(*Type) *Type) *Callable {
	out := &Callable{
		ReceiverEffect: c.ReceiverEffect,
		HasReceiver:    c.HasReceiver,
		Receiver:       Transform(c.Receiver, f),
		Environment:    transformAll(c.Environment, f),
		Output:         Transform(c.Output, f),
		IsProperty:     c.IsProperty,
	}
	out.Inputs = make([]Param, len(c.Inputs))
	for i, p := range c.Inputs {
		out.Inputs[i] = Param{Label: p.Label, Type: Transform(p.Type, f), Convention: p.Convention}
	}
	if c.Variants != nil {
		out.Variants = make(map[ast.AccessEffect]*Callable, len(c.Variants))
		for k, v := range c.Variants {
			out.Variants[k] = transformCallable(v, f)
		}
	}
	return out
}

// String renders a debug form; diagnostics never use this directly (they
// carry structured Notes instead), but tests and trace output do.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.kind {
	case KindNominal:
		return t.name
	case KindGenericParameter, KindAssociatedType, KindAssociatedValue, KindSkolem:
		return t.paramName
	case KindVariable:
		id, ctx := t.VariableID()
		return fmt.Sprintf("$%d.%d", id, ctx)
	case KindBoundGeneric:
		parts := make([]string, 0, t.args.Len())
		for _, p := range t.args.order {
			if a, ok := t.args.types[p]; ok {
				parts = append(parts, a.String())
			} else if v, ok := t.args.vals[p]; ok {
				parts = append(parts, fmt.Sprintf("%v", v.Lit))
			}
		}
		return fmt.Sprintf("%s<%s>", t.base.String(), strings.Join(parts, ", "))
	case KindMetatype:
		return t.instance.String() + ".Type"
	case KindTuple:
		parts := make([]string, len(t.elements))
		for i, e := range t.elements {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindSum:
		parts := make([]string, len(t.elements))
		for i, e := range t.elements {
			parts[i] = e.String()
		}
		return strings.Join(parts, " | ")
	case KindExistential:
		if t.existential.Generic != nil {
			return "any " + t.existential.Generic.String()
		}
		names := make([]string, len(t.existential.Traits))
		for i, tr := range t.existential.Traits {
			names[i] = tr.String()
		}
		sort.Strings(names)
		return "any " + strings.Join(names, " & ")
	case KindConformanceLens:
		return t.lensSubject.String() + " as " + t.lensTrait.String()
	case KindRemote:
		return t.effect.String() + " " + t.of.String()
	case KindParameter:
		return t.effect.String() + " " + t.of.String()
	case KindLambda:
		return callableString("", t.callable)
	case KindMethodBundle:
		return callableString("bundle ", t.callable)
	case KindSubscriptBundle:
		return callableString("subscript ", t.callable)
	case KindError:
		return "<error>"
	case KindNever:
		return "Never"
	case KindVoid:
		return "Void"
	case KindAny:
		return "Any"
	case KindBuiltinModule:
		return "Builtin"
	case KindPointer:
		return "Pointer<" + t.of.String() + ">"
	default:
		return "<type>"
	}
}

func callableString(prefix string, c *Callable) string {
	parts := make([]string, len(c.Inputs))
	for i, p := range c.Inputs {
		label := p.Label
		if label == "" {
			label = "_"
		}
		parts[i] = fmt.Sprintf("%s: %s %s", label, p.Convention.String(), p.Type.String())
	}
	out := prefix + "(" + strings.Join(parts, ", ") + ") -> " + c.Output.String()
	if len(c.Variants) > 0 {
		var effects []string
		for e := range c.Variants {
			effects = append(effects, e.String())
		}
		sort.Strings(effects)
		out += " {" + strings.Join(effects, ", ") + "}"
	}
	return out
}
