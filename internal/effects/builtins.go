// Builtin operator signatures. Most builtins follow standard propagation:
// the operator's effect is exactly the union of what its operands read (and,
// for temporal operators, their temporal footprint). A handful of operators
// carry bespoke signatures, notably assignment, which turns its left
// operand's read set into an update.
package effects

import (
	"fmt"
)

// SignatureBuilder produces the effect of a builtin operator at a given
// arity. Callers supply a valid arity for the operator; the builder does
// not re-validate it.
type SignatureBuilder func(arity int) *Effect

// SignatureTable maps builtin operator names to their signature builders.
// The table is static data assembled before inference starts; it is queried
// by name and reports unknown names as ordinary errors.
type SignatureTable struct {
	builders map[string]SignatureBuilder
}

// NewSignatureTable creates an empty table.
func NewSignatureTable() *SignatureTable {
	return &SignatureTable{builders: make(map[string]SignatureBuilder)}
}

// Register adds or replaces the builder for an operator name.
func (st *SignatureTable) Register(name string, builder SignatureBuilder) {
	st.builders[name] = builder
}

// Contains reports whether the table knows the operator name.
func (st *SignatureTable) Contains(name string) bool {
	_, ok := st.builders[name]
	return ok
}

// Signature returns the effect of the named builtin at the given arity, or
// an error when the name is entirely unknown.
func (st *SignatureTable) Signature(name string, arity int) (*Effect, *ErrorTree) {
	builder, ok := st.builders[name]
	if !ok {
		return nil, NewErrorTree(
			fmt.Sprintf("name %s not found in builtin signatures", name),
			fmt.Sprintf("looking up signature for %s/%d", name, arity))
	}
	return builder(arity), nil
}

// StandardPropagation builds the generic propagation signature at the given
// arity:
//
//	(Read[r0] & Temporal[t0], ..., Read[rn] & Temporal[tn])
//	    => Read[r0, ..., rn] & Temporal[t0, ..., tn]
//
// The r/t names are quantified away when the walker generalizes the
// signature, so every call site sees fresh variables. Arity 0 degenerates
// to Pure: the union over no operands is empty.
func StandardPropagation(arity int) *Effect {
	if arity == 0 {
		return Pure()
	}

	params := make([]*Effect, arity)
	reads := make([]*Entity, arity)
	temporals := make([]*Entity, arity)
	for i := 0; i < arity; i++ {
		reads[i] = NewEntityVariable(fmt.Sprintf("r%d", i))
		temporals[i] = NewEntityVariable(fmt.Sprintf("t%d", i))
		params[i] = NewConcreteEffect(
			Component{Kind: ComponentRead, Entity: reads[i]},
			Component{Kind: ComponentTemporal, Entity: temporals[i]},
		)
	}
	result := NewConcreteEffect(
		Component{Kind: ComponentRead, Entity: NewUnionEntity(reads...)},
		Component{Kind: ComponentTemporal, Entity: NewUnionEntity(temporals...)},
	)
	return NewArrowEffect(params, result)
}

// assignSignature is the bespoke signature of state assignment: the left
// operand names the variable being assigned, so its read set becomes an
// update; the right operand propagates as usual.
//
//	(Read[r0], Read[r1] & Temporal[t1]) => Read[r1] & Update[r0]
func assignSignature(int) *Effect {
	target := NewEntityVariable("r0")
	source := NewEntityVariable("r1")
	sourceTemporal := NewEntityVariable("t1")
	params := []*Effect{
		NewReadEffect(target),
		NewConcreteEffect(
			Component{Kind: ComponentRead, Entity: source},
			Component{Kind: ComponentTemporal, Entity: sourceTemporal},
		),
	}
	result := NewConcreteEffect(
		Component{Kind: ComponentRead, Entity: source},
		Component{Kind: ComponentUpdate, Entity: target},
	)
	return NewArrowEffect(params, result)
}

// temporalSignature is the bespoke signature of unary temporal operators:
// whatever the operand reads or asserts temporally becomes part of the
// temporal footprint.
//
//	(Read[r0] & Temporal[t0]) => Temporal[r0, t0]
func temporalSignature(int) *Effect {
	read := NewEntityVariable("r0")
	temporal := NewEntityVariable("t0")
	param := NewConcreteEffect(
		Component{Kind: ComponentRead, Entity: read},
		Component{Kind: ComponentTemporal, Entity: temporal},
	)
	result := NewConcreteEffect(
		Component{Kind: ComponentTemporal, Entity: NewUnionEntity(read, temporal)},
	)
	return NewArrowEffect([]*Effect{param}, result)
}

// DefaultSignatures assembles the builtin table for the Lucent standard
// operators.
func DefaultSignatures() *SignatureTable {
	table := NewSignatureTable()

	propagating := []string{
		"+", "-", "*", "/", "%",
		"==", "!=", "<", ">", "<=", ">=",
		"and", "or", "not", "iff", "implies", "ite",
		"union", "intersect", "exclude", "contains", "in",
		"size", "head", "tail", "append", "concat",
	}
	for _, name := range propagating {
		table.Register(name, StandardPropagation)
	}

	table.Register("assign", assignSignature)
	table.Register("always", temporalSignature)
	table.Register("eventually", temporalSignature)
	table.Register("next", temporalSignature)

	return table
}
