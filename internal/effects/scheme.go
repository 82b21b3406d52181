// Effect schemes: let-polymorphism for effects. A solved effect is
// generalized over its free variables once per definition and instantiated
// with fresh variables at every use site, so call sites never share
// unification state.
package effects

import (
	"fmt"
	"strings"
)

// Scheme is an effect together with the effect-variable and entity-variable
// names free within it, in first-occurrence order.
type Scheme struct {
	Effect     *Effect
	EffectVars []string
	EntityVars []string
}

// Generalize wraps an effect into a scheme quantified over every variable
// free in it.
func Generalize(e *Effect) *Scheme {
	fn := EffectFreeNames(e)
	return &Scheme{Effect: e, EffectVars: fn.EffectVars, EntityVars: fn.EntityVars}
}

// IsMonomorphic reports whether the scheme quantifies no variables, meaning
// instantiation returns the effect unchanged.
func (s *Scheme) IsMonomorphic() bool {
	return len(s.EffectVars) == 0 && len(s.EntityVars) == 0
}

// String returns the string representation of a Scheme.
func (s *Scheme) String() string {
	if s.IsMonomorphic() {
		return s.Effect.String()
	}
	quantified := append(append([]string(nil), s.EffectVars...), s.EntityVars...)
	return fmt.Sprintf("∀%s.%s", strings.Join(quantified, ","), s.Effect)
}

// NameSupply generates fresh variable names. One supply belongs to one
// inference run; the counter is monotone and names are never reused within
// a run. Effect and entity names carry distinct prefixes so the two sorts
// cannot collide.
type NameSupply struct {
	next int
}

// NewNameSupply creates a supply starting at zero.
func NewNameSupply() *NameSupply {
	return &NameSupply{}
}

// FreshEffectVar returns a fresh effect-variable name.
func (ns *NameSupply) FreshEffectVar() string {
	name := fmt.Sprintf("_e%d", ns.next)
	ns.next++
	return name
}

// FreshEntityVar returns a fresh entity-variable name.
func (ns *NameSupply) FreshEntityVar() string {
	name := fmt.Sprintf("_v%d", ns.next)
	ns.next++
	return name
}

// Instantiate produces a fresh copy of the scheme's effect, renaming every
// quantified variable to a name drawn from the supply. Each call site of a
// definition or builtin must instantiate independently; that is what makes
// operators effect-polymorphic across call sites.
func (s *Scheme) Instantiate(supply *NameSupply) (*Effect, *ErrorTree) {
	if s.IsMonomorphic() {
		return s.Effect, nil
	}

	renames := make(Substitution, 0, len(s.EffectVars)+len(s.EntityVars))
	for _, name := range s.EffectVars {
		renames = append(renames, Binding{
			Kind:   BindEffect,
			Name:   name,
			Effect: NewEffectVariable(supply.FreshEffectVar()),
		})
	}
	for _, name := range s.EntityVars {
		renames = append(renames, Binding{
			Kind:   BindEntity,
			Name:   name,
			Entity: NewEntityVariable(supply.FreshEntityVar()),
		})
	}

	instance, err := renames.ApplyEffect(s.Effect)
	if err != nil {
		return nil, err.InLocation(fmt.Sprintf("instantiating scheme %s", s))
	}
	return instance, nil
}
