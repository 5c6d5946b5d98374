// Package diagnostics defines the structured diagnostic records the checker
// emits. Diagnostics are data, never formatted strings: every diagnostic
// carries a stable Code, a Severity, a Site, and structured Notes so that a
// downstream renderer (out of scope here, see cmd/velac) can format them
// however it likes.
package diagnostics

// Code is a stable diagnostic code. Codes are grouped by the component that
// raises them, mirroring the phase-prefixed taxonomy the teacher compiler
// uses for its own error codes (TC###, ELB###, LNK###, ...).
type Code string

const (
	// Structural (§7): circular dependency, duplicate declarations.
	CircularDependency  Code = "RLZ001"
	RequiresBody        Code = "RLZ002"
	DuplicateOperator   Code = "RLZ003"
	DuplicateParameter  Code = "RLZ004"
	DuplicateCapture    Code = "RLZ005"
	InvalidVariantShape Code = "RLZ006"
	BuiltinExtension    Code = "RLZ007"
	AliasCycle          Code = "RLZ008"

	// Lookup (§7): resolver failures.
	UndefinedName      Code = "RES001"
	AmbiguousUse       Code = "RES002"
	NoViableCandidate  Code = "RES003"
	UndefinedOperator  Code = "RES004"
	TooManyAnnotations Code = "RES005"

	// Type (§7): conformance/typing structure errors.
	InvalidConformanceTarget  Code = "CNF001"
	NotATrait                Code = "CNF002"
	SubjectDoesNotConform     Code = "CNF003"
	RedundantConformance      Code = "CNF004"
	InvalidEqualityConstraint Code = "GEN001"

	// Inference (§7): solver-level diagnostics.
	NotEnoughContext     Code = "SLV001"
	AmbiguousOverload    Code = "SLV002"
	UnusedResult         Code = "SLV003" // warning
	UnresolvedConstraint Code = "SLV004"

	// Semantic (§7).
	DeclDenotesValueInTypePosition Code = "GEN002"
	ValueInSumTypePosition         Code = "GEN003"
	SumWithZeroOrOneElement        Code = "GEN004"
	MutatingBundleMustReturn       Code = "RLZ009"

	// Folding (§4.7).
	UndefinedOperatorInChain Code = "FLD001"
)

// Phase returns the component prefix of a code, e.g. "RLZ" for RLZ001.
func (c Code) Phase() string {
	for i, r := range string(c) {
		if r >= '0' && r <= '9' {
			return string(c)[:i]
		}
	}
	return string(c)
}
