// The inference walker. One Inferrer owns the state of one inference run:
// the two identity-keyed result maps, the running substitution, and the
// fresh name supply. It traverses a module's definitions in order and every
// definition's expression tree in post-order, applying one inference rule
// per node kind.
package effects

import (
	"fmt"

	"github.com/lucent-lang/lucent/internal/ast"
)

// Inferrer derives effects for every expression of one module. It is not
// safe for concurrent use; independent modules get independent Inferrers.
type Inferrer struct {
	lookup   ast.LookupTable
	builtins *SignatureTable
	config   InferenceConfig

	supply  *NameSupply
	subst   Substitution
	effects map[ast.NodeID]*Scheme
	errors  map[ast.NodeID]*ErrorTree

	// frames holds, per enclosing lambda, the fresh effect-variable names
	// bound to its parameters. Generalization must not quantify variables
	// still bound by an enclosing frame.
	frames [][]string
}

// NewInferrer creates an inferrer over the given name-resolution table and
// builtin signatures. A nil config selects DefaultInferenceConfig.
func NewInferrer(lookup ast.LookupTable, builtins *SignatureTable, config *InferenceConfig) *Inferrer {
	cfg := DefaultInferenceConfig()
	if config != nil {
		cfg = *config
	}
	return &Inferrer{
		lookup:   lookup,
		builtins: builtins,
		config:   cfg,
		supply:   NewNameSupply(),
		subst:    Substitution{},
		effects:  make(map[ast.NodeID]*Scheme),
		errors:   make(map[ast.NodeID]*ErrorTree),
	}
}

// Infer runs effect inference over the module and returns the two result
// maps: node identity to derived scheme, and node identity to diagnostic.
// The domains are disjoint. Nodes reachable only through a failed subtree
// may be absent from both.
func (inf *Inferrer) Infer(m *ast.Module) (map[ast.NodeID]*Scheme, map[ast.NodeID]*ErrorTree) {
	for _, def := range m.Defs {
		inf.inferDef(def)
	}
	return inf.effects, inf.errors
}

// ====== Recording ======

// recordEffect publishes (or re-publishes) a node's derived effect,
// quantified over the variables not bound by an enclosing lambda frame.
func (inf *Inferrer) recordEffect(id ast.NodeID, e *Effect) {
	if _, failed := inf.errors[id]; failed {
		return
	}
	inf.effects[id] = inf.generalizeInContext(e)
}

// recordScheme publishes an already-built scheme unchanged.
func (inf *Inferrer) recordScheme(id ast.NodeID, s *Scheme) {
	if _, failed := inf.errors[id]; failed {
		return
	}
	inf.effects[id] = s
}

// recordError publishes a node's diagnostic. Only the first error per node
// is kept, and a node never holds both a scheme and an error.
func (inf *Inferrer) recordError(id ast.NodeID, err *ErrorTree) {
	if _, failed := inf.errors[id]; failed {
		return
	}
	delete(inf.effects, id)
	inf.errors[id] = err
}

// halted reports whether a previous error should suppress dependent rules
// (application, let, lambda exit).
func (inf *Inferrer) halted() bool {
	return len(inf.errors) > 0
}

// ====== Generalization in context ======

// boundNames collects every variable name currently bound by an enclosing
// lambda parameter, following the running substitution so that a parameter
// already solved to a larger term keeps that term's variables bound too.
func (inf *Inferrer) boundNames() map[string]bool {
	bound := make(map[string]bool)
	for _, frame := range inf.frames {
		for _, name := range frame {
			resolved, err := inf.subst.ApplyEffect(NewEffectVariable(name))
			if err != nil {
				bound[name] = true
				continue
			}
			fn := EffectFreeNames(resolved)
			for _, v := range fn.EffectVars {
				bound[v] = true
			}
			for _, v := range fn.EntityVars {
				bound[v] = true
			}
		}
	}
	return bound
}

// generalizeInContext quantifies the effect over its free variables except
// those still bound by an enclosing frame.
func (inf *Inferrer) generalizeInContext(e *Effect) *Scheme {
	fn := EffectFreeNames(e)
	if fn.IsEmpty() {
		return &Scheme{Effect: e}
	}
	bound := inf.boundNames()
	scheme := &Scheme{Effect: e}
	for _, name := range fn.EffectVars {
		if !bound[name] {
			scheme.EffectVars = append(scheme.EffectVars, name)
		}
	}
	for _, name := range fn.EntityVars {
		if !bound[name] {
			scheme.EntityVars = append(scheme.EntityVars, name)
		}
	}
	return scheme
}

// ====== Definition rules ======

func (inf *Inferrer) inferDef(def ast.Def) {
	switch d := def.(type) {
	case *ast.VarDecl:
		// A state variable declaration reads exactly itself.
		ref := StateRef{Name: d.Name, Decl: d.NodeID}
		inf.recordScheme(d.NodeID, &Scheme{Effect: NewReadEffect(NewConcreteEntity(ref))})

	case *ast.ConstDecl:
		if !d.Oper {
			inf.recordScheme(d.NodeID, &Scheme{Effect: Pure()})
			return
		}
		inf.recordScheme(d.NodeID, Generalize(StandardPropagation(d.Arity)))

	case *ast.OperDef:
		inf.inferExpr(d.Expr)
		if scheme, ok := inf.effects[d.Expr.ID()]; ok {
			inf.recordScheme(d.NodeID, scheme)
		}
		// A failed body leaves the definition absent from both maps; later
		// references report an unresolved name instead of cascading.

	default:
		unreachable("definition node of unknown kind %T", def)
	}
}

// ====== Expression rules ======

func (inf *Inferrer) inferExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.BoolLit:
		inf.recordScheme(e.NodeID, &Scheme{Effect: Pure()})
	case *ast.IntLit:
		inf.recordScheme(e.NodeID, &Scheme{Effect: Pure()})
	case *ast.StrLit:
		inf.recordScheme(e.NodeID, &Scheme{Effect: Pure()})
	case *ast.Name:
		inf.inferName(e)
	case *ast.App:
		inf.inferApp(e)
	case *ast.Lambda:
		inf.inferLambda(e)
	case *ast.Let:
		inf.inferLet(e)
	default:
		unreachable("expression node of unknown kind %T", expr)
	}
}

// inferName resolves a name occurrence through the lookup table or the
// builtin signatures and instantiates the result.
func (inf *Inferrer) inferName(name *ast.Name) {
	location := fmt.Sprintf("inferring effect of name %s", name.Name)

	scheme, err := inf.resolveName(name.NodeID, name.Name, 0)
	if err != nil {
		inf.recordError(name.NodeID, err.InLocation(location))
		return
	}
	instance, ierr := scheme.Instantiate(inf.supply)
	if ierr != nil {
		inf.recordError(name.NodeID, ierr.InLocation(location))
		return
	}
	inf.recordEffect(name.NodeID, instance)
}

// resolveName finds the scheme a name occurrence refers to: the lookup
// table first, then the builtin table. arity only matters for builtins.
func (inf *Inferrer) resolveName(occurrence ast.NodeID, name string, arity int) (*Scheme, *ErrorTree) {
	if declID, ok := inf.lookup[occurrence]; ok {
		scheme, recorded := inf.effects[declID]
		if !recorded {
			return nil, NewErrorTree(
				fmt.Sprintf("name %s does not have an inferred effect", name),
				fmt.Sprintf("resolving %s to its declaration", name))
		}
		return scheme, nil
	}
	if inf.builtins.Contains(name) {
		sig, err := inf.builtins.Signature(name, arity)
		if err != nil {
			return nil, err
		}
		return Generalize(sig), nil
	}
	return nil, NewErrorTree(
		fmt.Sprintf("name %s not found", name),
		fmt.Sprintf("resolving %s to its declaration", name))
}

// inferApp handles operator application: arguments first (post-order), then
// the callee's instantiated effect unified against an arrow of the argument
// effects and a fresh result variable.
func (inf *Inferrer) inferApp(app *ast.App) {
	for _, arg := range app.Args {
		inf.inferExpr(arg)
	}
	if inf.halted() {
		return
	}

	location := fmt.Sprintf("trying to infer effect for operator application in %s", app.Oper)

	calleeScheme, err := inf.resolveName(app.NodeID, app.Oper, len(app.Args))
	if err != nil {
		inf.recordError(app.NodeID, err.InLocation(location))
		return
	}
	callee, err := calleeScheme.Instantiate(inf.supply)
	if err != nil {
		inf.recordError(app.NodeID, err.InLocation(location))
		return
	}
	callee, err = inf.subst.ApplyEffect(callee)
	if err != nil {
		inf.recordError(app.NodeID, err.InLocation(location))
		return
	}

	argEffects := make([]*Effect, len(app.Args))
	for i, arg := range app.Args {
		scheme, ok := inf.effects[arg.ID()]
		if !ok {
			unreachable("argument %d of %s has no recorded effect", i, app.Oper)
		}
		instance, ierr := scheme.Instantiate(inf.supply)
		if ierr != nil {
			inf.recordError(app.NodeID, ierr.InLocation(location))
			return
		}
		instance, ierr = inf.subst.ApplyEffect(instance)
		if ierr != nil {
			inf.recordError(app.NodeID, ierr.InLocation(location))
			return
		}
		argEffects[i] = instance
	}

	resultVar := NewEffectVariable(inf.supply.FreshEffectVar())
	wanted := NewArrowEffect(argEffects, resultVar)

	u := &unifier{config: inf.config}
	solution, uerr := u.unifyEffects(callee, wanted)
	if uerr != nil {
		inf.recordError(app.NodeID, uerr.InLocation(location))
		return
	}

	inf.subst, err = Compose(inf.subst, solution)
	if err != nil {
		inf.recordError(app.NodeID, err.InLocation(location))
		return
	}

	// Re-publish every argument under the solved substitution; the refreshed
	// effect is what any later consumer of the argument node sees.
	for i, arg := range app.Args {
		applied, aerr := inf.subst.ApplyEffect(argEffects[i])
		if aerr != nil {
			inf.recordError(app.NodeID, aerr.InLocation(location))
			return
		}
		inf.recordEffect(arg.ID(), applied)
	}

	result, err := inf.subst.ApplyEffect(resultVar)
	if err != nil {
		inf.recordError(app.NodeID, err.InLocation(location))
		return
	}
	inf.recordEffect(app.NodeID, result)
}

// inferLambda binds a fresh effect variable per parameter, infers the body,
// and on exit assembles the generalized arrow scheme. A body whose effect
// is itself an arrow is rejected: operators cannot return operators.
func (inf *Inferrer) inferLambda(lam *ast.Lambda) {
	paramVars := make([]string, len(lam.Params))
	for i, p := range lam.Params {
		paramVars[i] = inf.supply.FreshEffectVar()
		if p.Name != "_" {
			inf.recordScheme(p.NodeID, &Scheme{Effect: NewEffectVariable(paramVars[i])})
		}
	}

	inf.frames = append(inf.frames, paramVars)
	inf.inferExpr(lam.Body)
	inf.frames = inf.frames[:len(inf.frames)-1]

	if inf.halted() {
		return
	}

	location := "inferring effect of operator literal"

	params := make([]*Effect, len(lam.Params))
	for i, p := range lam.Params {
		var paramEffect *Effect
		if p.Name == "_" {
			paramEffect = NewEffectVariable(paramVars[i])
		} else {
			scheme, ok := inf.effects[p.NodeID]
			if !ok {
				unreachable("parameter %s has no recorded effect", p.Name)
			}
			instance, err := scheme.Instantiate(inf.supply)
			if err != nil {
				inf.recordError(lam.NodeID, err.InLocation(location))
				return
			}
			paramEffect = instance
		}
		applied, err := inf.subst.ApplyEffect(paramEffect)
		if err != nil {
			inf.recordError(lam.NodeID, err.InLocation(location))
			return
		}
		params[i] = applied
	}

	bodyScheme, ok := inf.effects[lam.Body.ID()]
	if !ok {
		unreachable("operator body has no recorded effect")
	}
	body, err := bodyScheme.Instantiate(inf.supply)
	if err != nil {
		inf.recordError(lam.NodeID, err.InLocation(location))
		return
	}
	body, err = inf.subst.ApplyEffect(body)
	if err != nil {
		inf.recordError(lam.NodeID, err.InLocation(location))
		return
	}

	if body.Kind == EffectArrow {
		inf.recordError(lam.Body.ID(), NewErrorTree(
			fmt.Sprintf("result cannot be an operator: %s", body),
			location))
		return
	}

	inf.recordEffect(lam.NodeID, NewArrowEffect(params, body))
}

// inferLet infers the local definition, then the body, and forwards the
// body's effect as the let expression's effect.
func (inf *Inferrer) inferLet(let *ast.Let) {
	inf.inferDef(let.Def)
	inf.inferExpr(let.Body)
	if inf.halted() {
		return
	}
	scheme, ok := inf.effects[let.Body.ID()]
	if !ok {
		unreachable("let body has no recorded effect")
	}
	inf.recordScheme(let.NodeID, scheme)
}
