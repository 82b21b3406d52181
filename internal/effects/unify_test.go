// Tests for the unifier: the case ladder, occurs checks, substitution
// threading through arrows, and the concrete/union entity rules.
package effects

import (
	"testing"
)

// TestUnifyReflexive tests that unifying a concrete effect with itself
// yields the empty substitution.
func TestUnifyReflexive(t *testing.T) {
	x := stateRef("x")
	y := stateRef("y")

	effects := []*Effect{
		Pure(),
		NewReadEffect(NewConcreteEntity(x)),
		NewUpdateEffect(NewConcreteEntity(x, y)),
		NewConcreteEffect(
			Component{Kind: ComponentRead, Entity: NewConcreteEntity(x)},
			Component{Kind: ComponentUpdate, Entity: NewConcreteEntity(y)},
		),
		NewArrowEffect([]*Effect{NewReadEffect(NewConcreteEntity(x))}, Pure()),
	}

	for _, e := range effects {
		subst, err := Unify(e, e)
		if err != nil {
			t.Errorf("Unify(%s, %s) failed: %v", e, e, err)
			continue
		}
		if len(subst) != 0 {
			t.Errorf("Unify(%s, %s) = %s, expected empty substitution", e, e, subst)
		}
	}
}

// TestUnifyVariableBinding tests that a fresh variable binds to the other
// side, in either position.
func TestUnifyVariableBinding(t *testing.T) {
	x := stateRef("x")
	e := NewReadEffect(NewConcreteEntity(x))
	v := NewEffectVariable("e0")

	for _, pair := range [][2]*Effect{{e, v}, {v, e}} {
		subst, err := Unify(pair[0], pair[1])
		if err != nil {
			t.Fatalf("Unify(%s, %s) failed: %v", pair[0], pair[1], err)
		}
		applied, aerr := subst.ApplyEffect(v)
		if aerr != nil {
			t.Fatalf("ApplyEffect failed: %v", aerr)
		}
		if !applied.Equal(e) {
			t.Errorf("after Unify(%s, %s), v resolves to %s, expected %s", pair[0], pair[1], applied, e)
		}
	}
}

// TestUnifyOccursCheck tests that a variable never binds to a term
// containing itself.
func TestUnifyOccursCheck(t *testing.T) {
	v := NewEffectVariable("e0")
	arrow := NewArrowEffect([]*Effect{NewEffectVariable("e0")}, Pure())

	if _, err := Unify(v, arrow); err == nil {
		t.Errorf("Unify(%s, %s) succeeded, expected occurs-check failure", v, arrow)
	}
	if _, err := Unify(arrow, v); err == nil {
		t.Errorf("Unify(%s, %s) succeeded, expected occurs-check failure", arrow, v)
	}

	ev := NewEntityVariable("v0")
	union := NewUnionEntity(NewEntityVariable("v0"), NewEntityVariable("v1"))
	if _, err := UnifyEntities(ev, union); err == nil {
		t.Errorf("UnifyEntities(%s, [%s]) succeeded, expected occurs-check failure", ev, union)
	}
}

// TestUnifyArrowArityMismatch tests the arity precondition on arrows.
func TestUnifyArrowArityMismatch(t *testing.T) {
	one := NewArrowEffect([]*Effect{Pure()}, Pure())
	two := NewArrowEffect([]*Effect{Pure(), Pure()}, Pure())

	if _, err := Unify(one, two); err == nil {
		t.Error("expected arity-mismatch error, got success")
	}
}

// TestUnifyKindMismatch tests that mismatched term kinds fail fatally.
func TestUnifyKindMismatch(t *testing.T) {
	x := stateRef("x")
	concrete := NewReadEffect(NewConcreteEntity(x))
	arrow := NewArrowEffect([]*Effect{Pure()}, Pure())

	if _, err := Unify(concrete, arrow); err == nil {
		t.Error("expected kind-mismatch error, got success")
	}
}

// TestUnifyArrowThreading tests that the substitution accumulated on one
// parameter is threaded into the next and into the result.
func TestUnifyArrowThreading(t *testing.T) {
	x := stateRef("x")
	read := NewReadEffect(NewConcreteEntity(x))

	// (e0, e0) => e0 against (Read[x], e1) => e2 forces e1 and e2 to Read[x].
	left := NewArrowEffect(
		[]*Effect{NewEffectVariable("e0"), NewEffectVariable("e0")},
		NewEffectVariable("e0"),
	)
	right := NewArrowEffect(
		[]*Effect{read, NewEffectVariable("e1")},
		NewEffectVariable("e2"),
	)

	subst, err := Unify(left, right)
	if err != nil {
		t.Fatalf("Unify failed: %v", err)
	}
	for _, name := range []string{"e0", "e1", "e2"} {
		applied, aerr := subst.ApplyEffect(NewEffectVariable(name))
		if aerr != nil {
			t.Fatalf("ApplyEffect(%s) failed: %v", name, aerr)
		}
		if !applied.Equal(read) {
			t.Errorf("%s resolves to %s, expected %s", name, applied, read)
		}
	}
}

// TestUnifyConcreteEntities tests that concrete sets unify only when
// set-equal; unification never merges disjoint sets.
func TestUnifyConcreteEntities(t *testing.T) {
	x := stateRef("x")
	y := stateRef("y")

	tests := []struct {
		name    string
		a, b    *Entity
		success bool
	}{
		{"equal sets", NewConcreteEntity(x, y), NewConcreteEntity(y, x), true},
		{"different sets", NewConcreteEntity(x), NewConcreteEntity(y), false},
		{"subset", NewConcreteEntity(x, y), NewConcreteEntity(x), false},
		{"empty vs empty", NewConcreteEntity(), NewConcreteEntity(), true},
	}

	for _, test := range tests {
		_, err := UnifyEntities(test.a, test.b)
		if test.success && err != nil {
			t.Errorf("%s: UnifyEntities([%s], [%s]) failed: %v", test.name, test.a, test.b, err)
		}
		if !test.success && err == nil {
			t.Errorf("%s: UnifyEntities([%s], [%s]) succeeded, expected failure", test.name, test.a, test.b)
		}
	}
}

// TestUnifyPureAbsorbsVariableComponents tests that a direction absent on
// one side unifies a variable entity on the other side with the empty set.
// This is what makes standard propagation over Pure operands come out Pure.
func TestUnifyPureAbsorbsVariableComponents(t *testing.T) {
	withVars := NewConcreteEffect(
		Component{Kind: ComponentRead, Entity: NewEntityVariable("r0")},
		Component{Kind: ComponentTemporal, Entity: NewEntityVariable("t0")},
	)

	subst, err := Unify(withVars, Pure())
	if err != nil {
		t.Fatalf("Unify(%s, Pure) failed: %v", withVars, err)
	}
	applied, aerr := subst.ApplyEffect(withVars)
	if aerr != nil {
		t.Fatalf("ApplyEffect failed: %v", aerr)
	}
	if !applied.IsPure() {
		t.Errorf("after unification %s resolves to %s, expected Pure", withVars, applied)
	}
}

// TestUnifyReadVsPureFails tests that concrete read sets never shrink to
// match Pure.
func TestUnifyReadVsPureFails(t *testing.T) {
	x := stateRef("x")
	read := NewReadEffect(NewConcreteEntity(x))

	if _, err := Unify(read, Pure()); err == nil {
		t.Errorf("Unify(%s, Pure) succeeded, expected set mismatch", read)
	}
	if _, err := Unify(NewReadEffect(NewConcreteEntity(x)), NewUpdateEffect(NewConcreteEntity(x))); err == nil {
		t.Error("Unify(Read[x], Update[x]) succeeded, expected mismatch")
	}
}

// TestUnifyUnionDefersToBinding tests the conservative rule for unresolved
// unions: an unconstrained entity variable binds to the union whole.
func TestUnifyUnionDefersToBinding(t *testing.T) {
	x := stateRef("x")
	union := NewUnionEntity(NewConcreteEntity(x), NewEntityVariable("v0"))
	w := NewEntityVariable("w")

	subst, err := UnifyEntities(w, union)
	if err != nil {
		t.Fatalf("UnifyEntities(%s, [%s]) failed: %v", w, union, err)
	}
	applied, aerr := subst.ApplyEntity(w)
	if aerr != nil {
		t.Fatalf("ApplyEntity failed: %v", aerr)
	}
	if !applied.Equal(union) {
		t.Errorf("w resolves to [%s], expected [%s]", applied, union)
	}
}

// TestUnifyConcreteVsUnresolvedUnion tests that a union still containing
// entity variables does not unify against a concrete set.
func TestUnifyConcreteVsUnresolvedUnion(t *testing.T) {
	x := stateRef("x")
	union := NewUnionEntity(NewConcreteEntity(x), NewEntityVariable("v0"))

	if _, err := UnifyEntities(NewConcreteEntity(x), union); err == nil {
		t.Errorf("unifying [x] with unresolved [%s] succeeded, expected failure", union)
	}
}

// TestUnifyConcreteVsResolvedUnion tests that a ground union unifies with a
// concrete entity denoting the same set.
func TestUnifyConcreteVsResolvedUnion(t *testing.T) {
	x := stateRef("x")
	y := stateRef("y")
	union := NewUnionEntity(NewConcreteEntity(x), NewConcreteEntity(y))

	subst, err := UnifyEntities(NewConcreteEntity(y, x), union)
	if err != nil {
		t.Fatalf("UnifyEntities failed: %v", err)
	}
	if len(subst) != 0 {
		t.Errorf("expected empty substitution, got %s", subst)
	}
}
