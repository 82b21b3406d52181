// Package main demonstrates the Lucent effect inference engine. It builds a
// few small modules in memory, the way the parser and name resolver would,
// and prints the inferred effect of every definition.
package main

import (
	"fmt"
	"sort"

	"github.com/lucent-lang/lucent/internal/ast"
	"github.com/lucent-lang/lucent/internal/effects"
)

// moduleBuilder assigns node identities the way the parser does: dense,
// unique per module.
type moduleBuilder struct {
	next   ast.NodeID
	lookup ast.LookupTable
}

func newModuleBuilder() *moduleBuilder {
	return &moduleBuilder{lookup: make(ast.LookupTable)}
}

func (b *moduleBuilder) id() ast.NodeID {
	b.next++
	return b.next
}

func (b *moduleBuilder) resolve(occurrence, decl ast.NodeID) {
	b.lookup[occurrence] = decl
}

func main() {
	fmt.Println("🎯 Lucent Effect Inference Demo")
	fmt.Println("=====================================")

	demoStateReads()
	demoStandardPropagation()
	demoPolymorphicOperator()
	demoUnresolvedName()
}

// demoStateReads: var x; def get = x.
func demoStateReads() {
	fmt.Println("\n📍 Demo 1: State Variable Reads")

	b := newModuleBuilder()
	varX := &ast.VarDecl{NodeID: b.id(), Name: "x"}
	refX := &ast.Name{NodeID: b.id(), Name: "x"}
	get := &ast.OperDef{NodeID: b.id(), Name: "get", Expr: refX}
	b.resolve(refX.NodeID, varX.NodeID)

	module := &ast.Module{Name: "reads", Defs: []ast.Def{varX, get}}
	printResults(module, b.lookup, map[ast.NodeID]string{
		varX.NodeID: "var x",
		get.NodeID:  "def get = x",
	})
}

// demoStandardPropagation: const N; N + 1 is Pure.
func demoStandardPropagation() {
	fmt.Println("\n📍 Demo 2: Standard Propagation")

	b := newModuleBuilder()
	constN := &ast.ConstDecl{NodeID: b.id(), Name: "N"}
	refN := &ast.Name{NodeID: b.id(), Name: "N"}
	one := &ast.IntLit{NodeID: b.id(), Value: 1}
	sum := &ast.App{NodeID: b.id(), Oper: "+", Args: []ast.Expr{refN, one}}
	def := &ast.OperDef{NodeID: b.id(), Name: "succ", Expr: sum}
	b.resolve(refN.NodeID, constN.NodeID)

	module := &ast.Module{Name: "propagation", Defs: []ast.Def{constN, def}}
	printResults(module, b.lookup, map[ast.NodeID]string{
		constN.NodeID: "const N",
		def.NodeID:    "def succ = N + 1",
	})
}

// demoPolymorphicOperator: the same identity operator applied at two call
// sites reports each site's own read set.
func demoPolymorphicOperator() {
	fmt.Println("\n📍 Demo 3: Polymorphic Operators")

	b := newModuleBuilder()
	varX := &ast.VarDecl{NodeID: b.id(), Name: "x"}
	varY := &ast.VarDecl{NodeID: b.id(), Name: "y"}

	param := ast.Param{NodeID: b.id(), Name: "p"}
	body := &ast.Name{NodeID: b.id(), Name: "p"}
	lambda := &ast.Lambda{NodeID: b.id(), Params: []ast.Param{param}, Body: body}
	identity := &ast.OperDef{NodeID: b.id(), Name: "identity", Expr: lambda}
	b.resolve(body.NodeID, param.NodeID)

	refX := &ast.Name{NodeID: b.id(), Name: "x"}
	callX := &ast.App{NodeID: b.id(), Oper: "identity", Args: []ast.Expr{refX}}
	useX := &ast.OperDef{NodeID: b.id(), Name: "useX", Expr: callX}
	b.resolve(refX.NodeID, varX.NodeID)
	b.resolve(callX.NodeID, identity.NodeID)

	refY := &ast.Name{NodeID: b.id(), Name: "y"}
	callY := &ast.App{NodeID: b.id(), Oper: "identity", Args: []ast.Expr{refY}}
	useY := &ast.OperDef{NodeID: b.id(), Name: "useY", Expr: callY}
	b.resolve(refY.NodeID, varY.NodeID)
	b.resolve(callY.NodeID, identity.NodeID)

	module := &ast.Module{Name: "poly", Defs: []ast.Def{varX, varY, identity, useX, useY}}
	printResults(module, b.lookup, map[ast.NodeID]string{
		identity.NodeID: "def identity = (p) => p",
		useX.NodeID:     "def useX = identity(x)",
		useY.NodeID:     "def useY = identity(y)",
	})
}

// demoUnresolvedName: applying an undeclared operator reports a diagnostic.
func demoUnresolvedName() {
	fmt.Println("\n📍 Demo 4: Diagnostics")

	b := newModuleBuilder()
	varX := &ast.VarDecl{NodeID: b.id(), Name: "x"}
	refX := &ast.Name{NodeID: b.id(), Name: "x"}
	call := &ast.App{NodeID: b.id(), Oper: "mystery", Args: []ast.Expr{refX}}
	def := &ast.OperDef{NodeID: b.id(), Name: "broken", Expr: call}
	b.resolve(refX.NodeID, varX.NodeID)

	module := &ast.Module{Name: "broken", Defs: []ast.Def{varX, def}}
	printResults(module, b.lookup, map[ast.NodeID]string{
		call.NodeID: "mystery(x)",
	})
}

// printResults runs inference and prints the outcome for the labeled nodes.
func printResults(module *ast.Module, lookup ast.LookupTable, labels map[ast.NodeID]string) {
	inferrer := effects.NewInferrer(lookup, effects.DefaultSignatures(), nil)
	derived, failed := inferrer.Infer(module)

	ids := make([]ast.NodeID, 0, len(labels))
	for id := range labels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if scheme, ok := derived[id]; ok {
			fmt.Printf("  %-28s %s\n", labels[id], scheme)
			continue
		}
		if diag, ok := failed[id]; ok {
			fmt.Printf("  %-28s error:\n%s\n", labels[id], diag)
			continue
		}
		fmt.Printf("  %-28s (no result)\n", labels[id])
	}
}
