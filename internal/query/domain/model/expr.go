package model

// Expr is a node in the general query expression tree the host compilation
// layer hands to the translators. The tree is richer than what the store can
// execute; the translators pattern-match it into the constrained AST.
type Expr interface {
	exprNode()
}

// Property is a selector for a document field. Path uses dot notation for
// fields nested inside embedded structures, e.g. "customer.address.city".
type Property struct {
	Path     string
	EnumType string // set when the selector was cast for an enum comparison
}

// Constant is a literal value known at build time.
type Constant struct {
	Value interface{}
}

// Param references a named per-call parameter.
type Param struct {
	Name string
}

// ExecContext dereferences the per-call execution context object. An empty
// Path substitutes the context object itself.
type ExecContext struct {
	Path string
}

// Compute is a late-bound sub-expression evaluated at resolution time.
// Source is CEL; the declared variables are "params" and "ctx".
type Compute struct {
	Source string
}

// Cast wraps a selector that was converted for an enum comparison. The
// property-path extractor unwraps it.
type Cast struct {
	Operand  Expr
	EnumType string
}

// Binary is a single-field comparison.
type Binary struct {
	Op    Operator
	Left  Expr
	Right Expr
}

// And is a boolean conjunction.
type And struct {
	Left  Expr
	Right Expr
}

// Or is a boolean disjunction.
type Or struct {
	Left  Expr
	Right Expr
}

// Not negates its operand.
type Not struct {
	Operand Expr
}

// CallKind identifies the recognized method-call shapes.
type CallKind int

const (
	// CallContains is list.Contains(prop): Target is the candidate list,
	// Args[0] is the property selector.
	CallContains CallKind = iota
	// CallContainsStatic is the static Contains(list, prop) form:
	// Args[0] is the list, Args[1] the property selector.
	CallContainsStatic
	// CallStartsWith is prop.StartsWith(prefix).
	CallStartsWith
	// CallArrayContains tests membership in an array field:
	// Target is the array property, Args[0] the candidate value.
	CallArrayContains
	// CallArrayContainsAny tests overlap between an array field and a
	// candidate list.
	CallArrayContainsAny
	// CallEqualsStatic is the boxed Equals(a, b) comparison form.
	CallEqualsStatic
	// CallEqualsInstance is the boxed a.Equals(b) comparison form.
	CallEqualsInstance
)

// Call is a recognized method call in the expression tree.
type Call struct {
	Kind   CallKind
	Target Expr
	Args   []Expr
}

func (*Property) exprNode()    {}
func (*Constant) exprNode()    {}
func (*Param) exprNode()       {}
func (*ExecContext) exprNode() {}
func (*Compute) exprNode()     {}
func (*Cast) exprNode()        {}
func (*Binary) exprNode()      {}
func (*And) exprNode()         {}
func (*Or) exprNode()          {}
func (*Not) exprNode()         {}
func (*Call) exprNode()        {}

// ValueExpr is the deferred value side of a where clause. It stays unresolved
// until the resolver evaluates it against the per-call value context.
type ValueExpr interface {
	valueExprNode()
}

// PrefixSuccessor marks the upper bound of a prefix range scan. The resolver
// evaluates Inner to a string and appends the maximum-codepoint sentinel.
type PrefixSuccessor struct {
	Inner ValueExpr
}

func (*Constant) valueExprNode()        {}
func (*Param) valueExprNode()           {}
func (*ExecContext) valueExprNode()     {}
func (*Compute) valueExprNode()         {}
func (*PrefixSuccessor) valueExprNode() {}

// OrderSpec is an ordering request as the host expresses it: a selector plus
// direction.
type OrderSpec struct {
	Selector   Expr
	Descending bool
}
