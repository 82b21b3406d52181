// Package effects implements the effect inference pass of the Lucent
// compiler. Given a resolved module and the name-resolution lookup table it
// derives, for every expression, which state variables the expression may
// read or update, or a structured diagnostic explaining why no effect could
// be derived.
//
// The pass is a small constraint-based inference system with two interacting
// sorts: effects (read/update/temporal behavior) and the entities (state
// variable sets) those effects touch. Effects are unified Hindley-Milner
// style, generalized into schemes per definition, and instantiated freshly
// at every use site.
package effects

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucent-lang/lucent/internal/ast"
)

// ====== Entities ======

// EntityKind discriminates the entity term variants.
type EntityKind int

const (
	// EntityConcrete is an explicit, order-irrelevant set of state variables.
	EntityConcrete EntityKind = iota
	// EntityVariable is a named, universally quantifiable entity variable.
	EntityVariable
	// EntityUnion is an unordered collection of entities.
	EntityUnion
)

// String returns the string representation of an EntityKind.
func (ek EntityKind) String() string {
	switch ek {
	case EntityConcrete:
		return "Concrete"
	case EntityVariable:
		return "Variable"
	case EntityUnion:
		return "Union"
	default:
		return fmt.Sprintf("Unknown(%d)", int(ek))
	}
}

// StateRef identifies one state variable: its name together with the
// identity of its declaration, so shadowed names stay distinct.
type StateRef struct {
	Name string
	Decl ast.NodeID
}

// String returns the string representation of a StateRef.
func (r StateRef) String() string { return r.Name }

// Entity describes a set of state variables an effect component touches.
// Exactly one variant is populated, selected by Kind.
type Entity struct {
	Kind EntityKind

	// EntityConcrete
	Refs []StateRef

	// EntityVariable
	Name string

	// EntityUnion
	Entities []*Entity
}

// NewConcreteEntity creates a concrete entity over the given state variables.
func NewConcreteEntity(refs ...StateRef) *Entity {
	return &Entity{Kind: EntityConcrete, Refs: refs}
}

// NewEntityVariable creates a named entity variable.
func NewEntityVariable(name string) *Entity {
	return &Entity{Kind: EntityVariable, Name: name}
}

// NewUnionEntity creates a union over the given entities, normalized:
// nested unions are spliced in, concrete members merge into one deduplicated
// set, and a union of fewer than two members collapses.
func NewUnionEntity(entities ...*Entity) *Entity {
	var refs []StateRef
	var symbolic []*Entity
	var splice func(en *Entity)
	splice = func(en *Entity) {
		switch en.Kind {
		case EntityConcrete:
			refs = append(refs, en.Refs...)
		case EntityUnion:
			for _, sub := range en.Entities {
				splice(sub)
			}
		default:
			symbolic = append(symbolic, en)
		}
	}
	for _, en := range entities {
		splice(en)
	}

	flat := make([]*Entity, 0, len(symbolic)+1)
	if len(refs) > 0 {
		flat = append(flat, NewConcreteEntity(dedupRefs(refs)...))
	}
	flat = append(flat, symbolic...)

	switch len(flat) {
	case 0:
		return NewConcreteEntity()
	case 1:
		return flat[0]
	default:
		return &Entity{Kind: EntityUnion, Entities: flat}
	}
}

// String returns the string representation of an Entity.
func (en *Entity) String() string {
	switch en.Kind {
	case EntityConcrete:
		names := make([]string, len(en.Refs))
		for i, r := range en.Refs {
			names[i] = r.String()
		}
		return strings.Join(names, ", ")
	case EntityVariable:
		return en.Name
	case EntityUnion:
		parts := make([]string, len(en.Entities))
		for i, sub := range en.Entities {
			parts[i] = sub.String()
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("InvalidEntity(%d)", int(en.Kind))
	}
}

// Equal reports structural equality. Concrete reference sets and union
// members compare order-insensitively; an entity variable only equals the
// variable with the same name.
func (en *Entity) Equal(other *Entity) bool {
	refsA, varsA, groundA := en.flatten()
	refsB, varsB, groundB := other.flatten()
	if groundA != groundB {
		return false
	}
	return refSetsEqual(refsA, refsB) && nameSetsEqual(varsA, varsB)
}

// flatten resolves the entity into the set of concrete references and the
// set of variable names reachable through unions. ground is true when no
// variable is reachable.
func (en *Entity) flatten() (refs []StateRef, vars []string, ground bool) {
	switch en.Kind {
	case EntityConcrete:
		return en.Refs, nil, true
	case EntityVariable:
		return nil, []string{en.Name}, false
	case EntityUnion:
		ground = true
		for _, sub := range en.Entities {
			subRefs, subVars, subGround := sub.flatten()
			refs = append(refs, subRefs...)
			vars = append(vars, subVars...)
			ground = ground && subGround
		}
		return refs, vars, ground
	default:
		return nil, nil, false
	}
}

func refSetsEqual(a, b []StateRef) bool {
	seen := make(map[StateRef]bool, len(a))
	for _, r := range a {
		seen[r] = true
	}
	for _, r := range b {
		if !seen[r] {
			return false
		}
	}
	back := make(map[StateRef]bool, len(b))
	for _, r := range b {
		back[r] = true
	}
	for _, r := range a {
		if !back[r] {
			return false
		}
	}
	return true
}

func nameSetsEqual(a, b []string) bool {
	seen := make(map[string]bool, len(a))
	for _, n := range a {
		seen[n] = true
	}
	for _, n := range b {
		if !seen[n] {
			return false
		}
	}
	back := make(map[string]bool, len(b))
	for _, n := range b {
		back[n] = true
	}
	for _, n := range a {
		if !back[n] {
			return false
		}
	}
	return true
}

// dedupRefs removes duplicate state references, keeping first occurrences.
func dedupRefs(refs []StateRef) []StateRef {
	seen := make(map[StateRef]bool, len(refs))
	out := make([]StateRef, 0, len(refs))
	for _, r := range refs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// ====== Components ======

// ComponentKind is the direction tag of an effect component.
type ComponentKind int

const (
	ComponentRead ComponentKind = iota
	ComponentUpdate
	ComponentTemporal
)

// String returns the string representation of a ComponentKind.
func (ck ComponentKind) String() string {
	switch ck {
	case ComponentRead:
		return "Read"
	case ComponentUpdate:
		return "Update"
	case ComponentTemporal:
		return "Temporal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(ck))
	}
}

// Component pairs a direction with the entity it touches.
type Component struct {
	Kind   ComponentKind
	Entity *Entity
}

// String returns the string representation of a Component.
func (c Component) String() string {
	return fmt.Sprintf("%s[%s]", c.Kind, c.Entity)
}

// ====== Effects ======

// EffectKind discriminates the effect term variants.
type EffectKind int

const (
	// EffectConcrete is an explicit set of components; no components means Pure.
	EffectConcrete EffectKind = iota
	// EffectVariable is a named effect variable, solved by unification.
	EffectVariable
	// EffectArrow maps an ordered parameter effect list to a result effect.
	EffectArrow
)

// String returns the string representation of an EffectKind.
func (ek EffectKind) String() string {
	switch ek {
	case EffectConcrete:
		return "Concrete"
	case EffectVariable:
		return "Variable"
	case EffectArrow:
		return "Arrow"
	default:
		return fmt.Sprintf("Unknown(%d)", int(ek))
	}
}

// Effect describes the read/update behavior of an expression or operator.
// Exactly one variant is populated, selected by Kind.
type Effect struct {
	Kind EffectKind

	// EffectConcrete; normalized so each direction appears at most once.
	Components []Component

	// EffectVariable
	Name string

	// EffectArrow
	Params []*Effect
	Result *Effect
}

// Pure is the concrete effect with no components: no read, no update.
func Pure() *Effect {
	return &Effect{Kind: EffectConcrete}
}

// NewConcreteEffect creates a concrete effect from the given components,
// merging components that share a direction into a union entity. Components
// whose entity is the empty set are dropped: Read over nothing is no read at
// all, which is how an operator over Pure operands comes out Pure.
func NewConcreteEffect(components ...Component) *Effect {
	merged := make(map[ComponentKind][]*Entity)
	for _, c := range components {
		merged[c.Kind] = append(merged[c.Kind], c.Entity)
	}
	out := make([]Component, 0, len(merged))
	for _, kind := range []ComponentKind{ComponentRead, ComponentUpdate, ComponentTemporal} {
		entities, ok := merged[kind]
		if !ok {
			continue
		}
		entity := NewUnionEntity(entities...)
		if entity.Kind == EntityConcrete && len(entity.Refs) == 0 {
			continue
		}
		out = append(out, Component{Kind: kind, Entity: entity})
	}
	return &Effect{Kind: EffectConcrete, Components: out}
}

// NewReadEffect creates the concrete effect that only reads the entity.
func NewReadEffect(en *Entity) *Effect {
	return NewConcreteEffect(Component{Kind: ComponentRead, Entity: en})
}

// NewUpdateEffect creates the concrete effect that only updates the entity.
func NewUpdateEffect(en *Entity) *Effect {
	return NewConcreteEffect(Component{Kind: ComponentUpdate, Entity: en})
}

// NewEffectVariable creates a named effect variable.
func NewEffectVariable(name string) *Effect {
	return &Effect{Kind: EffectVariable, Name: name}
}

// NewArrowEffect creates an operator effect with the given parameter and
// result effects.
func NewArrowEffect(params []*Effect, result *Effect) *Effect {
	return &Effect{Kind: EffectArrow, Params: params, Result: result}
}

// component returns the entity for the given direction, if present.
func (e *Effect) component(kind ComponentKind) (*Entity, bool) {
	for _, c := range e.Components {
		if c.Kind == kind {
			return c.Entity, true
		}
	}
	return nil, false
}

// IsPure reports whether the effect is the concrete effect with no
// components.
func (e *Effect) IsPure() bool {
	return e.Kind == EffectConcrete && len(e.Components) == 0
}

// String returns the string representation of an Effect.
func (e *Effect) String() string {
	switch e.Kind {
	case EffectConcrete:
		if len(e.Components) == 0 {
			return "Pure"
		}
		parts := make([]string, len(e.Components))
		for i, c := range e.Components {
			parts[i] = c.String()
		}
		return strings.Join(parts, " & ")
	case EffectVariable:
		return e.Name
	case EffectArrow:
		params := make([]string, len(e.Params))
		for i, p := range e.Params {
			params[i] = p.String()
		}
		return fmt.Sprintf("(%s) => %s", strings.Join(params, ", "), e.Result)
	default:
		return fmt.Sprintf("InvalidEffect(%d)", int(e.Kind))
	}
}

// Equal reports structural equality. Concrete effects compare their
// components direction-by-direction; parameter lists compare pairwise.
func (e *Effect) Equal(other *Effect) bool {
	if e.Kind != other.Kind {
		return false
	}
	switch e.Kind {
	case EffectConcrete:
		if len(e.Components) != len(other.Components) {
			return false
		}
		for _, c := range e.Components {
			en, ok := other.component(c.Kind)
			if !ok || !c.Entity.Equal(en) {
				return false
			}
		}
		return true
	case EffectVariable:
		return e.Name == other.Name
	case EffectArrow:
		if len(e.Params) != len(other.Params) {
			return false
		}
		for i, p := range e.Params {
			if !p.Equal(other.Params[i]) {
				return false
			}
		}
		return e.Result.Equal(other.Result)
	default:
		return false
	}
}

// ====== Free names ======

// FreeNames holds the effect-variable and entity-variable names free in a
// term, deduplicated, in first-occurrence order.
type FreeNames struct {
	EffectVars []string
	EntityVars []string
}

// IsEmpty reports whether no free names were collected.
func (fn *FreeNames) IsEmpty() bool {
	return len(fn.EffectVars) == 0 && len(fn.EntityVars) == 0
}

// Sorted returns copies of the name lists in lexicographic order. Handy for
// deterministic rendering; inference itself keeps occurrence order.
func (fn *FreeNames) Sorted() ([]string, []string) {
	effectVars := append([]string(nil), fn.EffectVars...)
	entityVars := append([]string(nil), fn.EntityVars...)
	sort.Strings(effectVars)
	sort.Strings(entityVars)
	return effectVars, entityVars
}

// EffectFreeNames collects the variable names free in the effect.
func EffectFreeNames(e *Effect) *FreeNames {
	fn := &FreeNames{}
	seenEffects := make(map[string]bool)
	seenEntities := make(map[string]bool)
	collectEffectNames(e, fn, seenEffects, seenEntities)
	return fn
}

func collectEffectNames(e *Effect, fn *FreeNames, seenEffects, seenEntities map[string]bool) {
	switch e.Kind {
	case EffectVariable:
		if !seenEffects[e.Name] {
			seenEffects[e.Name] = true
			fn.EffectVars = append(fn.EffectVars, e.Name)
		}
	case EffectConcrete:
		for _, c := range e.Components {
			collectEntityNames(c.Entity, fn, seenEntities)
		}
	case EffectArrow:
		for _, p := range e.Params {
			collectEffectNames(p, fn, seenEffects, seenEntities)
		}
		collectEffectNames(e.Result, fn, seenEffects, seenEntities)
	}
}

func collectEntityNames(en *Entity, fn *FreeNames, seenEntities map[string]bool) {
	switch en.Kind {
	case EntityVariable:
		if !seenEntities[en.Name] {
			seenEntities[en.Name] = true
			fn.EntityVars = append(fn.EntityVars, en.Name)
		}
	case EntityUnion:
		for _, sub := range en.Entities {
			collectEntityNames(sub, fn, seenEntities)
		}
	}
}
