package types

// Canonical rewrites t into canonical form by expanding aliases, including
// aliases inside bound-generic arguments; no other argument normalization
// is applied. resolveAlias supplies the aliased
// type for an alias nominal's declID, mirroring the realizer's alias
// handling without importing it (avoids a package cycle).
func Canonical(t *Type, resolveAlias func(declID uint64) (*Type, bool)) *Type {
	return Transform(t, func(x *Type) *Type {
		if x.kind == KindNominal && x.nominalKind == NominalAlias && resolveAlias != nil {
			if aliased, ok := resolveAlias(uint64(x.declID)); ok {
				x = aliased
			}
		}
		x.flags.isCanonical = true
		return x
	})
}

// Equal reports structural/nominal equality under canonical comparison. It
// does not unify variables; two distinct variables are never equal.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNominal:
		return a.nominalKind == b.nominalKind && a.declID == b.declID
	case KindGenericParameter, KindAssociatedType, KindAssociatedValue, KindSkolem:
		return a.paramID == b.paramID
	case KindVariable:
		return a.varID == b.varID
	case KindBoundGeneric:
		if !Equal(a.base, b.base) || a.args.Len() != b.args.Len() {
			return false
		}
		for i, p := range a.args.order {
			if p != b.args.order[i] {
				return false
			}
			at, aok := a.args.types[p]
			bt, bok := b.args.types[p]
			if aok != bok {
				return false
			}
			if aok && !Equal(at, bt) {
				return false
			}
			if !aok {
				av, bv := a.args.vals[p], b.args.vals[p]
				if av.Lit != bv.Lit {
					return false
				}
			}
		}
		return true
	case KindMetatype:
		return Equal(a.instance, b.instance)
	case KindLambda, KindMethodBundle, KindSubscriptBundle:
		return callableEqual(a.callable, b.callable)
	case KindParameter:
		return a.effect == b.effect && Equal(a.of, b.of)
	case KindRemote:
		return a.effect == b.effect && Equal(a.of, b.of)
	case KindTuple, KindSum:
		if len(a.elements) != len(b.elements) {
			return false
		}
		for i := range a.elements {
			if !Equal(a.elements[i], b.elements[i]) {
				return false
			}
		}
		return true
	case KindExistential:
		if (a.existential.Generic == nil) != (b.existential.Generic == nil) {
			return false
		}
		if a.existential.Generic != nil {
			return Equal(a.existential.Generic, b.existential.Generic)
		}
		if len(a.existential.Traits) != len(b.existential.Traits) {
			return false
		}
		used := make([]bool, len(b.existential.Traits))
		for _, at := range a.existential.Traits {
			found := false
			for i, bt := range b.existential.Traits {
				if !used[i] && Equal(at, bt) {
					used[i] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case KindConformanceLens:
		return Equal(a.lensSubject, b.lensSubject) && Equal(a.lensTrait, b.lensTrait)
	case KindPointer:
		return Equal(a.of, b.of)
	case KindError, KindNever, KindVoid, KindAny, KindBuiltinModule:
		return true
	default:
		return false
	}
}

func callableEqual(a, b *Callable) bool {
	if a.HasReceiver != b.HasReceiver || a.ReceiverEffect != b.ReceiverEffect {
		return false
	}
	if a.HasReceiver && !Equal(a.Receiver, b.Receiver) {
		return false
	}
	if len(a.Inputs) != len(b.Inputs) {
		return false
	}
	for i := range a.Inputs {
		if a.Inputs[i].Label != b.Inputs[i].Label || a.Inputs[i].Convention != b.Inputs[i].Convention {
			return false
		}
		if !Equal(a.Inputs[i].Type, b.Inputs[i].Type) {
			return false
		}
	}
	if !Equal(a.Output, b.Output) {
		return false
	}
	if len(a.Variants) != len(b.Variants) {
		return false
	}
	for k, v := range a.Variants {
		bv, ok := b.Variants[k]
		if !ok || !callableEqual(v, bv) {
			return false
		}
	}
	return true
}

// Specialize substitutes generic-parameter, associated-type and skolem
// types throughout t using sub, a map from parameter id to replacement
// type. Values bound in ArgMaps are left untouched; no value substitution
// takes place.
func Specialize(t *Type, sub map[uint64]*Type) *Type {
	return Transform(t, func(x *Type) *Type {
		switch x.kind {
		case KindGenericParameter, KindAssociatedType, KindSkolem:
			if r, ok := sub[uint64(x.paramID)]; ok {
				return r
			}
		}
		return x
	})
}

// ComposeSubstitutions implements the composition law
// specialize(specialize(t, a), b) = specialize(t, a ∘ b) by substituting b
// into a's range first.
func ComposeSubstitutions(a, b map[uint64]*Type) map[uint64]*Type {
	out := make(map[uint64]*Type, len(a)+len(b))
	for k, v := range a {
		out[k] = Specialize(v, b)
	}
	for k, v := range b {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}
