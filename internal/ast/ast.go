// Package ast defines the abstract syntax surface consumed by the Lucent
// effect inference engine. The parser and name resolver live elsewhere; this
// package is only the data contract between them and the analysis passes:
// tagged-variant declaration and expression nodes, each carrying the stable
// integer identity assigned at parse time, plus the lookup table produced by
// name resolution.
package ast

// NodeID is the stable identity of a declaration or expression node. IDs are
// assigned during parsing and are unique within one module.
type NodeID int

// LookupTable maps the identity of a name occurrence (a Name node, or an App
// node's operator position) to the identity of the declaration it resolves
// to. It is produced by the name-resolution pass.
type LookupTable map[NodeID]NodeID

// Module is an ordered sequence of top-level definitions. Order matters:
// later definitions may refer to earlier ones.
type Module struct {
	Name string
	Defs []Def
}

// Node is implemented by every AST node.
type Node interface {
	ID() NodeID
}

// Def is a top-level definition node.
type Def interface {
	Node
	defNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// ConstDecl declares an immutable constant. Oper marks constants of operator
// type; for those, Arity is the number of parameters the operator takes.
type ConstDecl struct {
	NodeID NodeID
	Name   string
	Oper   bool
	Arity  int
}

// VarDecl declares a mutable state variable.
type VarDecl struct {
	NodeID NodeID
	Name   string
}

// OperDef defines a named operator: def <name> = <expr>. Parameterized
// operators carry a Lambda expression.
type OperDef struct {
	NodeID NodeID
	Name   string
	Expr   Expr
}

// BoolLit is a boolean literal.
type BoolLit struct {
	NodeID NodeID
	Value  bool
}

// IntLit is an integer literal.
type IntLit struct {
	NodeID NodeID
	Value  int64
}

// StrLit is a string literal.
type StrLit struct {
	NodeID NodeID
	Value  string
}

// Name is a reference to a parameter, state variable, constant or operator.
type Name struct {
	NodeID NodeID
	Name   string
}

// App applies an operator (builtin or user-defined) to arguments. The
// lookup table entry for the App node itself resolves the operator name
// when it refers to a user definition.
type App struct {
	NodeID NodeID
	Oper   string
	Args   []Expr
}

// Param is a lambda parameter. Anonymous placeholders have Name "_".
type Param struct {
	NodeID NodeID
	Name   string
}

// Lambda is an anonymous operator literal.
type Lambda struct {
	NodeID NodeID
	Params []Param
	Body   Expr
}

// Let introduces a local definition scoped to its body expression.
type Let struct {
	NodeID NodeID
	Def    *OperDef
	Body   Expr
}

func (d *ConstDecl) ID() NodeID { return d.NodeID }
func (d *VarDecl) ID() NodeID   { return d.NodeID }
func (d *OperDef) ID() NodeID   { return d.NodeID }
func (e *BoolLit) ID() NodeID   { return e.NodeID }
func (e *IntLit) ID() NodeID    { return e.NodeID }
func (e *StrLit) ID() NodeID    { return e.NodeID }
func (e *Name) ID() NodeID      { return e.NodeID }
func (e *App) ID() NodeID       { return e.NodeID }
func (p *Param) ID() NodeID     { return p.NodeID }
func (e *Lambda) ID() NodeID    { return e.NodeID }
func (e *Let) ID() NodeID       { return e.NodeID }

func (d *ConstDecl) defNode() {}
func (d *VarDecl) defNode()   {}
func (d *OperDef) defNode()   {}

func (e *BoolLit) exprNode() {}
func (e *IntLit) exprNode()  {}
func (e *StrLit) exprNode()  {}
func (e *Name) exprNode()    {}
func (e *App) exprNode()     {}
func (e *Lambda) exprNode()  {}
func (e *Let) exprNode()     {}
