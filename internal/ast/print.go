package ast

import "strings"

// Print renders a type expression back to Vela surface syntax, without
// needing the realized type.
func Print(t TypeExpr) string {
	if t == nil {
		return "_"
	}
	switch t := t.(type) {
	case *NameTypeExpr:
		parts := make([]string, len(t.Components))
		for i, c := range t.Components {
			parts[i] = c.Stem
			if len(c.Args) > 0 {
				args := make([]string, len(c.Args))
				for j, a := range c.Args {
					if a.Type != nil {
						args[j] = Print(a.Type)
					} else {
						args[j] = "<value>"
					}
				}
				parts[i] += "<" + strings.Join(args, ", ") + ">"
			}
		}
		return strings.Join(parts, ".")
	case *TupleTypeExpr:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = Print(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *SumTypeExpr:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = Print(e)
		}
		return strings.Join(parts, " | ")
	case *ExistentialTypeExpr:
		if t.Generic != nil {
			return "any " + Print(t.Generic)
		}
		parts := make([]string, len(t.Traits))
		for i, e := range t.Traits {
			parts[i] = Print(e)
		}
		return "any " + strings.Join(parts, " & ")
	case *MetatypeTypeExpr:
		return Print(t.Instance) + ".Type"
	case *IntrinsicTypeExpr:
		switch t.Kind {
		case IntrinsicAny:
			return "Any"
		case IntrinsicNever:
			return "Never"
		default:
			return "Self"
		}
	case *RemoteTypeExpr:
		return t.Effect.String() + " " + Print(t.Of)
	default:
		return "<type>"
	}
}

// PrintName renders a name expression's nominal components, ignoring any
// non-nominal prefix.
func PrintName(n *NameExpr) string {
	parts := make([]string, len(n.Components))
	for i, c := range n.Components {
		parts[i] = c.Stem
	}
	return strings.Join(parts, ".")
}
