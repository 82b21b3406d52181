// Tests for the effect/entity term model: construction, normalization,
// structural equality, rendering, and free-name collection.
package effects

import (
	"testing"
)

func stateRef(name string) StateRef {
	return StateRef{Name: name, Decl: 0}
}

// TestEffectString tests rendering of effect terms.
func TestEffectString(t *testing.T) {
	x := stateRef("x")
	y := stateRef("y")

	tests := []struct {
		effect   *Effect
		expected string
	}{
		{Pure(), "Pure"},
		{NewReadEffect(NewConcreteEntity(x)), "Read[x]"},
		{NewUpdateEffect(NewConcreteEntity(x, y)), "Update[x, y]"},
		{NewEffectVariable("e0"), "e0"},
		{
			NewConcreteEffect(
				Component{Kind: ComponentRead, Entity: NewConcreteEntity(x)},
				Component{Kind: ComponentUpdate, Entity: NewConcreteEntity(y)},
			),
			"Read[x] & Update[y]",
		},
		{
			NewArrowEffect([]*Effect{Pure(), NewEffectVariable("e1")}, NewEffectVariable("e2")),
			"(Pure, e1) => e2",
		},
	}

	for _, test := range tests {
		result := test.effect.String()
		if result != test.expected {
			t.Errorf("Effect.String() = %s, expected %s", result, test.expected)
		}
	}
}

// TestUnionEntityNormalization tests that unions splice, merge concrete
// members, and collapse degenerate forms.
func TestUnionEntityNormalization(t *testing.T) {
	x := stateRef("x")
	y := stateRef("y")

	// Empty union collapses to the empty concrete entity.
	empty := NewUnionEntity()
	if empty.Kind != EntityConcrete || len(empty.Refs) != 0 {
		t.Errorf("empty union = %s, expected empty concrete entity", empty)
	}

	// A single member collapses to itself.
	single := NewUnionEntity(NewEntityVariable("v0"))
	if single.Kind != EntityVariable || single.Name != "v0" {
		t.Errorf("single-member union = %s, expected v0", single)
	}

	// Concrete members merge and deduplicate.
	merged := NewUnionEntity(NewConcreteEntity(x), NewConcreteEntity(y, x))
	if merged.Kind != EntityConcrete {
		t.Fatalf("union of concrete entities has kind %s, expected Concrete", merged.Kind)
	}
	if len(merged.Refs) != 2 {
		t.Errorf("merged union has %d refs, expected 2 (got %s)", len(merged.Refs), merged)
	}

	// Nested unions splice.
	nested := NewUnionEntity(
		NewUnionEntity(NewEntityVariable("v0"), NewConcreteEntity(x)),
		NewEntityVariable("v1"),
	)
	if nested.Kind != EntityUnion || len(nested.Entities) != 3 {
		t.Errorf("nested union = %s, expected three members", nested)
	}
}

// TestConcreteEffectNormalization tests component merging and empty-entity
// elimination.
func TestConcreteEffectNormalization(t *testing.T) {
	x := stateRef("x")
	y := stateRef("y")

	// Two reads merge into one component.
	merged := NewConcreteEffect(
		Component{Kind: ComponentRead, Entity: NewConcreteEntity(x)},
		Component{Kind: ComponentRead, Entity: NewConcreteEntity(y)},
	)
	if len(merged.Components) != 1 {
		t.Fatalf("merged effect has %d components, expected 1", len(merged.Components))
	}
	if merged.String() != "Read[x, y]" {
		t.Errorf("merged effect = %s, expected Read[x, y]", merged)
	}

	// Components over the empty entity vanish: reading nothing is Pure.
	vacuous := NewConcreteEffect(
		Component{Kind: ComponentRead, Entity: NewConcreteEntity()},
		Component{Kind: ComponentTemporal, Entity: NewUnionEntity()},
	)
	if !vacuous.IsPure() {
		t.Errorf("effect over empty entities = %s, expected Pure", vacuous)
	}
}

// TestEffectEqual tests structural equality.
func TestEffectEqual(t *testing.T) {
	x := stateRef("x")
	y := stateRef("y")

	tests := []struct {
		name     string
		a, b     *Effect
		expected bool
	}{
		{"pure vs pure", Pure(), Pure(), true},
		{"pure vs read", Pure(), NewReadEffect(NewConcreteEntity(x)), false},
		{
			"ref order irrelevant",
			NewReadEffect(NewConcreteEntity(x, y)),
			NewReadEffect(NewConcreteEntity(y, x)),
			true,
		},
		{
			"different refs",
			NewReadEffect(NewConcreteEntity(x)),
			NewReadEffect(NewConcreteEntity(y)),
			false,
		},
		{
			"read vs update",
			NewReadEffect(NewConcreteEntity(x)),
			NewUpdateEffect(NewConcreteEntity(x)),
			false,
		},
		{"same variable", NewEffectVariable("e0"), NewEffectVariable("e0"), true},
		{"different variable", NewEffectVariable("e0"), NewEffectVariable("e1"), false},
		{
			"union flattens for comparison",
			NewReadEffect(NewUnionEntity(NewConcreteEntity(x), NewConcreteEntity(y))),
			NewReadEffect(NewConcreteEntity(x, y)),
			true,
		},
		{
			"arrows pairwise",
			NewArrowEffect([]*Effect{Pure()}, NewReadEffect(NewConcreteEntity(x))),
			NewArrowEffect([]*Effect{Pure()}, NewReadEffect(NewConcreteEntity(x))),
			true,
		},
		{
			"arrow arity differs",
			NewArrowEffect([]*Effect{Pure()}, Pure()),
			NewArrowEffect([]*Effect{Pure(), Pure()}, Pure()),
			false,
		},
	}

	for _, test := range tests {
		if got := test.a.Equal(test.b); got != test.expected {
			t.Errorf("%s: Equal(%s, %s) = %v, expected %v", test.name, test.a, test.b, got, test.expected)
		}
		if got := test.b.Equal(test.a); got != test.expected {
			t.Errorf("%s: Equal(%s, %s) = %v, expected %v (symmetry)", test.name, test.b, test.a, got, test.expected)
		}
	}
}

// TestEffectFreeNames tests free-variable collection over both sorts.
func TestEffectFreeNames(t *testing.T) {
	x := stateRef("x")

	arrow := NewArrowEffect(
		[]*Effect{
			NewEffectVariable("e0"),
			NewConcreteEffect(
				Component{Kind: ComponentRead, Entity: NewEntityVariable("v0")},
				Component{Kind: ComponentTemporal, Entity: NewUnionEntity(NewEntityVariable("v1"), NewConcreteEntity(x))},
			),
		},
		NewEffectVariable("e0"), // duplicate, must be collected once
	)

	fn := EffectFreeNames(arrow)
	if len(fn.EffectVars) != 1 || fn.EffectVars[0] != "e0" {
		t.Errorf("effect vars = %v, expected [e0]", fn.EffectVars)
	}
	if len(fn.EntityVars) != 2 || fn.EntityVars[0] != "v0" || fn.EntityVars[1] != "v1" {
		t.Errorf("entity vars = %v, expected [v0 v1]", fn.EntityVars)
	}

	if !EffectFreeNames(Pure()).IsEmpty() {
		t.Error("Pure should have no free names")
	}
	if !EffectFreeNames(NewReadEffect(NewConcreteEntity(x))).IsEmpty() {
		t.Error("concrete effects should have no free names")
	}
}
