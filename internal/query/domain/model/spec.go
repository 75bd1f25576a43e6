package model

// QuerySpec is the host-facing description of one query over an entity,
// expressed as raw expression trees. The translator turns it into a
// QueryExpression.
type QuerySpec struct {
	Entity              string
	Filter              Expr
	OrderBy             []OrderSpec
	Limit               ValueExpr
	LimitToLast         ValueExpr
	Skip                ValueExpr
	StartAfter          *Cursor
	Includes            []IncludeSpec
	Select              SelectExpr
	Aggregation         AggregationKind
	AggregationSelector Expr
	FindByKey           ValueExpr
	ReturnDefault       bool
}

// IncludeSpec is one eager-load request: a chain of navigation names walked
// root-first, optionally filtered, ordered and paginated. The trailing
// options apply to the last collection navigation the chain reaches.
type IncludeSpec struct {
	Steps   []string
	Filter  Expr
	OrderBy []OrderSpec
	Limit   ValueExpr
	Skip    ValueExpr
}

// SelectExpr describes the result shape of a projection request.
type SelectExpr interface {
	selectNode()
}

// SelectIdentity passes the entity through unchanged.
type SelectIdentity struct{}

// SelectFields reads a flat list of fields.
type SelectFields struct {
	Selectors []Expr
}

// SelectShape constructs a new result object from named bindings.
type SelectShape struct {
	Bindings []SelectBinding
}

// SelectBinding is one member of a constructed shape: either a field selector
// or a nested child-collection subquery.
type SelectBinding struct {
	Name     string
	Field    Expr
	Subquery *SubquerySpec
}

// SubquerySpec is a query over a child-collection navigation nested inside a
// projection shape.
type SubquerySpec struct {
	Navigation          string
	Filter              Expr
	OrderBy             []OrderSpec
	Limit               ValueExpr
	Skip                ValueExpr
	Projection          SelectExpr
	Aggregation         AggregationKind
	AggregationSelector Expr
}

func (*SelectIdentity) selectNode() {}
func (*SelectFields) selectNode()   {}
func (*SelectShape) selectNode()    {}
