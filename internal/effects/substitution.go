// Substitution application and composition for effect and entity variables.
// Substitutions are explicit values threaded through unification and the
// inference walker; nothing is applied implicitly.
package effects

import (
	"fmt"
	"strings"
)

// BindingKind discriminates the two sorts a substitution can bind.
type BindingKind int

const (
	// BindEffect binds an effect variable to an Effect term.
	BindEffect BindingKind = iota
	// BindEntity binds an entity variable to an Entity term.
	BindEntity
)

// Binding maps one variable name to its solved term. Exactly one of Effect
// and Entity is populated, selected by Kind.
type Binding struct {
	Kind   BindingKind
	Name   string
	Effect *Effect
	Entity *Entity
}

// String returns the string representation of a Binding.
func (b Binding) String() string {
	switch b.Kind {
	case BindEffect:
		return fmt.Sprintf("%s => %s", b.Name, b.Effect)
	case BindEntity:
		return fmt.Sprintf("%s => %s", b.Name, b.Entity)
	default:
		return fmt.Sprintf("InvalidBinding(%d)", int(b.Kind))
	}
}

// Substitution is an ordered sequence of bindings. Order matters for
// composition: later bindings apply after earlier ones have been pushed
// through.
type Substitution []Binding

// String returns the string representation of a Substitution.
func (s Substitution) String() string {
	if len(s) == 0 {
		return "{}"
	}
	parts := make([]string, len(s))
	for i, b := range s {
		parts[i] = b.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// lookupEffect finds the first effect binding for name.
func (s Substitution) lookupEffect(name string) (*Effect, bool) {
	for _, b := range s {
		if b.Kind == BindEffect && b.Name == name {
			return b.Effect, true
		}
	}
	return nil, false
}

// lookupEntity finds the first entity binding for name.
func (s Substitution) lookupEntity(name string) (*Entity, bool) {
	for _, b := range s {
		if b.Kind == BindEntity && b.Name == name {
			return b.Entity, true
		}
	}
	return nil, false
}

// ApplyEffect rewrites the effect, replacing every bound variable with its
// bound value. Unresolved variables pass through unchanged. It fails only
// when a self-referential binding chain is detected.
func (s Substitution) ApplyEffect(e *Effect) (*Effect, *ErrorTree) {
	return s.applyEffect(e, nil)
}

// ApplyEntity rewrites the entity the same way ApplyEffect rewrites effects.
func (s Substitution) ApplyEntity(en *Entity) (*Entity, *ErrorTree) {
	return s.applyEntity(en, nil)
}

// chain tracks the variable names resolved along one substitution path, so
// cycles introduced by composition are caught instead of looping.
type chain struct {
	name string
	prev *chain
}

func (c *chain) contains(name string) bool {
	for ; c != nil; c = c.prev {
		if c.name == name {
			return true
		}
	}
	return false
}

func (s Substitution) applyEffect(e *Effect, seen *chain) (*Effect, *ErrorTree) {
	switch e.Kind {
	case EffectVariable:
		value, ok := s.lookupEffect(e.Name)
		if !ok {
			return e, nil
		}
		if seen.contains(e.Name) {
			return nil, NewErrorTree(
				fmt.Sprintf("self-referential binding for effect variable %s", e.Name),
				fmt.Sprintf("applying substitution to %s", e))
		}
		return s.applyEffect(value, &chain{name: e.Name, prev: seen})
	case EffectConcrete:
		components := make([]Component, 0, len(e.Components))
		for _, c := range e.Components {
			en, err := s.applyEntity(c.Entity, nil)
			if err != nil {
				return nil, err
			}
			components = append(components, Component{Kind: c.Kind, Entity: en})
		}
		return NewConcreteEffect(components...), nil
	case EffectArrow:
		params := make([]*Effect, len(e.Params))
		for i, p := range e.Params {
			applied, err := s.applyEffect(p, seen)
			if err != nil {
				return nil, err
			}
			params[i] = applied
		}
		result, err := s.applyEffect(e.Result, seen)
		if err != nil {
			return nil, err
		}
		return NewArrowEffect(params, result), nil
	default:
		unreachable("substitution applied to effect of kind %s", e.Kind)
		return nil, nil
	}
}

func (s Substitution) applyEntity(en *Entity, seen *chain) (*Entity, *ErrorTree) {
	switch en.Kind {
	case EntityConcrete:
		return en, nil
	case EntityVariable:
		value, ok := s.lookupEntity(en.Name)
		if !ok {
			return en, nil
		}
		if seen.contains(en.Name) {
			return nil, NewErrorTree(
				fmt.Sprintf("self-referential binding for entity variable %s", en.Name),
				fmt.Sprintf("applying substitution to %s", en))
		}
		return s.applyEntity(value, &chain{name: en.Name, prev: seen})
	case EntityUnion:
		members := make([]*Entity, len(en.Entities))
		for i, sub := range en.Entities {
			applied, err := s.applyEntity(sub, seen)
			if err != nil {
				return nil, err
			}
			members[i] = applied
		}
		return NewUnionEntity(members...), nil
	default:
		unreachable("substitution applied to entity of kind %s", en.Kind)
		return nil, nil
	}
}

// Compose merges two substitutions so that applying the result once is
// equivalent to applying older and then newer. newer is pushed through
// older's bound values first; newer's bindings for variables older does not
// already bind are appended after. Composition is associative.
func Compose(older, newer Substitution) (Substitution, *ErrorTree) {
	merged := make(Substitution, 0, len(older)+len(newer))
	for _, b := range older {
		switch b.Kind {
		case BindEffect:
			value, err := newer.ApplyEffect(b.Effect)
			if err != nil {
				return nil, err.InLocation(fmt.Sprintf("composing binding %s", b))
			}
			merged = append(merged, Binding{Kind: BindEffect, Name: b.Name, Effect: value})
		case BindEntity:
			value, err := newer.ApplyEntity(b.Entity)
			if err != nil {
				return nil, err.InLocation(fmt.Sprintf("composing binding %s", b))
			}
			merged = append(merged, Binding{Kind: BindEntity, Name: b.Name, Entity: value})
		}
	}
	for _, b := range newer {
		bound := false
		switch b.Kind {
		case BindEffect:
			_, bound = merged.lookupEffect(b.Name)
		case BindEntity:
			_, bound = merged.lookupEntity(b.Name)
		}
		if !bound {
			merged = append(merged, b)
		}
	}
	return merged, nil
}
