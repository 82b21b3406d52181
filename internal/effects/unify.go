// Unification over effect and entity terms. Implements the standard
// first-order algorithm: variables bind to the other side under an occurs
// check, arrows unify pointwise with the accumulated substitution threaded
// into each subsequent pair, and concrete terms must agree exactly.
package effects

import (
	"fmt"
)

// InferenceConfig controls unification behavior.
type InferenceConfig struct {
	EnableOccursCheck   bool
	MaxUnificationDepth int
}

// DefaultInferenceConfig returns the configuration used by Unify and by
// NewInferrer when none is supplied.
func DefaultInferenceConfig() InferenceConfig {
	return InferenceConfig{
		EnableOccursCheck:   true,
		MaxUnificationDepth: 1000,
	}
}

// Unify finds the least-committing substitution making the two effects
// equal, or reports a structured failure. The substitution it returns is
// self-consistent: one application resolves every variable it binds.
func Unify(left, right *Effect) (Substitution, *ErrorTree) {
	u := &unifier{config: DefaultInferenceConfig()}
	return u.unifyEffects(left, right)
}

// UnifyEntities unifies two entity terms directly. Exposed for targeted
// testing of the entity ladder; effect unification reaches it through
// concrete components.
func UnifyEntities(left, right *Entity) (Substitution, *ErrorTree) {
	u := &unifier{config: DefaultInferenceConfig()}
	return u.unifyEntities(left, right)
}

type unifier struct {
	config InferenceConfig
	depth  int
}

func (u *unifier) enter(location string) *ErrorTree {
	u.depth++
	if u.depth > u.config.MaxUnificationDepth {
		return NewErrorTree("maximum unification depth exceeded", location)
	}
	return nil
}

func (u *unifier) unifyEffects(left, right *Effect) (Substitution, *ErrorTree) {
	location := fmt.Sprintf("unifying %s and %s", left, right)
	if err := u.enter(location); err != nil {
		return nil, err
	}
	defer func() { u.depth-- }()

	switch {
	// Identical terms need no bindings. Covers two equal variables, so the
	// variable cases below never bind a variable to itself.
	case left.Equal(right):
		return Substitution{}, nil

	case left.Kind == EffectVariable:
		return u.bindEffectVar(left.Name, right, location)

	case right.Kind == EffectVariable:
		return u.bindEffectVar(right.Name, left, location)

	case left.Kind == EffectArrow && right.Kind == EffectArrow:
		return u.unifyArrows(left, right, location)

	case left.Kind == EffectConcrete && right.Kind == EffectConcrete:
		return u.unifyConcrete(left, right, location)

	default:
		return nil, NewErrorTree(
			fmt.Sprintf("cannot unify %s effect with %s effect: incompatible kinds", left.Kind, right.Kind),
			location)
	}
}

// bindEffectVar binds an effect variable to a term, guarding against the
// variable occurring inside that term.
func (u *unifier) bindEffectVar(name string, term *Effect, location string) (Substitution, *ErrorTree) {
	if u.config.EnableOccursCheck && effectOccurs(name, term) {
		return nil, NewErrorTree(
			fmt.Sprintf("occurs check failed: %s occurs in %s", name, term),
			location)
	}
	return Substitution{{Kind: BindEffect, Name: name, Effect: term}}, nil
}

// unifyArrows unifies operator effects pairwise, threading the accumulated
// substitution into every subsequent parameter pair and finally into the
// results.
func (u *unifier) unifyArrows(left, right *Effect, location string) (Substitution, *ErrorTree) {
	if len(left.Params) != len(right.Params) {
		return nil, NewErrorTree(
			fmt.Sprintf("arity mismatch: %d parameters vs %d", len(left.Params), len(right.Params)),
			location)
	}

	subst := Substitution{}
	for i := range left.Params {
		l, err := subst.ApplyEffect(left.Params[i])
		if err != nil {
			return nil, err.InLocation(location)
		}
		r, err := subst.ApplyEffect(right.Params[i])
		if err != nil {
			return nil, err.InLocation(location)
		}
		paramSubst, err := u.unifyEffects(l, r)
		if err != nil {
			return nil, err.InLocation(fmt.Sprintf("unifying parameter %d while %s", i, location))
		}
		subst, err = Compose(subst, paramSubst)
		if err != nil {
			return nil, err.InLocation(location)
		}
	}

	l, err := subst.ApplyEffect(left.Result)
	if err != nil {
		return nil, err.InLocation(location)
	}
	r, err := subst.ApplyEffect(right.Result)
	if err != nil {
		return nil, err.InLocation(location)
	}
	resultSubst, err := u.unifyEffects(l, r)
	if err != nil {
		return nil, err.InLocation(fmt.Sprintf("unifying results while %s", location))
	}
	return Compose(subst, resultSubst)
}

// unifyConcrete unifies two concrete effects direction by direction. A
// direction absent from one side stands for that direction over the empty
// entity, so Read[r] against Pure solves r to the empty set while Read[x]
// against Pure still fails: concrete sets never shrink.
func (u *unifier) unifyConcrete(left, right *Effect, location string) (Substitution, *ErrorTree) {
	subst := Substitution{}
	for _, kind := range []ComponentKind{ComponentRead, ComponentUpdate, ComponentTemporal} {
		l, lok := left.component(kind)
		r, rok := right.component(kind)
		if !lok && !rok {
			continue
		}
		if !lok {
			l = NewConcreteEntity()
		}
		if !rok {
			r = NewConcreteEntity()
		}
		l, err := subst.ApplyEntity(l)
		if err != nil {
			return nil, err.InLocation(location)
		}
		r, err = subst.ApplyEntity(r)
		if err != nil {
			return nil, err.InLocation(location)
		}
		entitySubst, err := u.unifyEntities(l, r)
		if err != nil {
			return nil, err.InLocation(fmt.Sprintf("unifying %s components while %s", kind, location))
		}
		subst, err = Compose(subst, entitySubst)
		if err != nil {
			return nil, err.InLocation(location)
		}
	}
	return subst, nil
}

func (u *unifier) unifyEntities(left, right *Entity) (Substitution, *ErrorTree) {
	location := fmt.Sprintf("unifying entities [%s] and [%s]", left, right)
	if err := u.enter(location); err != nil {
		return nil, err
	}
	defer func() { u.depth-- }()

	switch {
	case left.Equal(right):
		return Substitution{}, nil

	// An unconstrained variable binds to the other side even when that side
	// is an unresolved union: deferring by binding keeps unification from
	// guessing how a union decomposes.
	case left.Kind == EntityVariable:
		return u.bindEntityVar(left.Name, right, location)

	case right.Kind == EntityVariable:
		return u.bindEntityVar(right.Name, left, location)

	default:
		return u.unifyEntitySets(left, right, location)
	}
}

func (u *unifier) bindEntityVar(name string, term *Entity, location string) (Substitution, *ErrorTree) {
	if u.config.EnableOccursCheck && entityOccurs(name, term) {
		return nil, NewErrorTree(
			fmt.Sprintf("occurs check failed: %s occurs in [%s]", name, term),
			location)
	}
	return Substitution{{Kind: BindEntity, Name: name, Entity: term}}, nil
}

// unifyEntitySets handles concrete and union entities. Unification never
// merges or splits concrete sets: the two sides must already denote the
// same set of state variables once unions are flattened.
func (u *unifier) unifyEntitySets(left, right *Entity, location string) (Substitution, *ErrorTree) {
	refsL, varsL, groundL := left.flatten()
	refsR, varsR, groundR := right.flatten()

	if !groundL || !groundR {
		vars := append(append([]string(nil), varsL...), varsR...)
		return nil, NewErrorTree(
			fmt.Sprintf("cannot unify [%s] with [%s]: unresolved entity variables %v", left, right, vars),
			location)
	}
	if !refSetsEqual(refsL, refsR) {
		return nil, NewErrorTree(
			fmt.Sprintf("cannot unify [%s] with [%s]: different state variables", left, right),
			location)
	}
	return Substitution{}, nil
}

// effectOccurs reports whether the effect variable name occurs in the term.
func effectOccurs(name string, e *Effect) bool {
	switch e.Kind {
	case EffectVariable:
		return e.Name == name
	case EffectArrow:
		for _, p := range e.Params {
			if effectOccurs(name, p) {
				return true
			}
		}
		return effectOccurs(name, e.Result)
	default:
		return false
	}
}

// entityOccurs reports whether the entity variable name occurs in the term.
func entityOccurs(name string, en *Entity) bool {
	switch en.Kind {
	case EntityVariable:
		return en.Name == name
	case EntityUnion:
		for _, sub := range en.Entities {
			if entityOccurs(name, sub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
