package model

// Operator is a store comparison operator.
type Operator string

const (
	OperatorEqual              Operator = "=="
	OperatorNotEqual           Operator = "!="
	OperatorLessThan           Operator = "<"
	OperatorLessThanOrEqual    Operator = "<="
	OperatorGreaterThan        Operator = ">"
	OperatorGreaterThanOrEqual Operator = ">="
	OperatorIn                 Operator = "in"
	OperatorNotIn              Operator = "not-in"
	OperatorArrayContains      Operator = "array-contains"
	OperatorArrayContainsAny   Operator = "array-contains-any"
)

// IsListOperator reports whether the operator takes a list of candidates.
func (op Operator) IsListOperator() bool {
	return op == OperatorIn || op == OperatorNotIn || op == OperatorArrayContainsAny
}

// WhereClause is one constrained predicate: a single field compared against a
// deferred value.
type WhereClause struct {
	PropertyPath string
	Operator     Operator
	Value        ValueExpr
	EnumType     string
}

// FilterResult is the normal form of a translated boolean expression: AND
// clauses plus at most one level of disjunction. Arbitrary multi-level
// nesting is never produced.
type FilterResult struct {
	AndClauses     []WhereClause
	OrGroup        []WhereClause
	NestedOrGroups [][]WhereClause
}

// IsOrGroup reports whether the result is a pure top-level disjunction.
func (f *FilterResult) IsOrGroup() bool {
	return len(f.AndClauses) == 0 && len(f.NestedOrGroups) == 0 && len(f.OrGroup) > 0
}

// IsEmpty reports whether the result carries no clauses at all.
func (f *FilterResult) IsEmpty() bool {
	return len(f.AndClauses) == 0 && len(f.OrGroup) == 0 && len(f.NestedOrGroups) == 0
}

// HasDisjunction reports whether any OR group is present at any position.
func (f *FilterResult) HasDisjunction() bool {
	return len(f.OrGroup) > 0 || len(f.NestedOrGroups) > 0
}

// OrderByClause orders a scan by one field.
type OrderByClause struct {
	PropertyPath string
	Descending   bool
}

// PaginationInfo carries scan bounds. Each bound is either a literal Constant
// or a deferred expression until resolution. All three may be absent.
// Exclusivity of Limit and LimitToLast is the executor's concern.
type PaginationInfo struct {
	Limit       ValueExpr
	LimitToLast ValueExpr
	Skip        ValueExpr
}

// IsEmpty reports whether no bound is set.
func (p *PaginationInfo) IsEmpty() bool {
	return p == nil || (p.Limit == nil && p.LimitToLast == nil && p.Skip == nil)
}

// Cursor positions a scan after a given document. It never carries
// expressions; OrderByValues parallel the order-by clauses.
type Cursor struct {
	DocumentID    string
	OrderByValues []interface{}
}

// IncludeInfo is one eager-load request. The include tree is encoded as a
// flat list: ParentEntity names the enclosing include's target entity, with
// "" meaning root level. NavigationName may be a dotted chain when the
// navigation sits behind embedded objects or embedded arrays.
type IncludeInfo struct {
	NavigationName string
	IsCollection   bool
	TargetEntity   string
	CollectionPath string
	ParentEntity   string
	FilterResults  []FilterResult
	OrderByClauses []OrderByClause
	Pagination     *PaginationInfo
}

// AggregationKind identifies a server-side aggregation.
type AggregationKind string

const (
	AggregationNone    AggregationKind = ""
	AggregationCount   AggregationKind = "count"
	AggregationSum     AggregationKind = "sum"
	AggregationAverage AggregationKind = "avg"
	AggregationMin     AggregationKind = "min"
	AggregationMax     AggregationKind = "max"
	AggregationAny     AggregationKind = "any"
)

// NeedsSelector reports whether the aggregation targets a property.
func (a AggregationKind) NeedsSelector() bool {
	switch a {
	case AggregationSum, AggregationAverage, AggregationMin, AggregationMax:
		return true
	default:
		return false
	}
}

// ProjectionKind classifies the result shape of a projection.
type ProjectionKind int

const (
	// ProjectionEntity passes the full entity through.
	ProjectionEntity ProjectionKind = iota
	// ProjectionFieldList reads a flat list of fields.
	ProjectionFieldList
	// ProjectionShape constructs a new result shape.
	ProjectionShape
)

// ProjectionDefinition describes the result shape of a query.
type ProjectionDefinition struct {
	ResultKind     ProjectionKind
	EntityName     string
	Fields         []string
	Subcollections []SubcollectionProjection
}

// HasFieldList reports whether the projection restricts the fields read.
// A field-selective read suppresses the single-document-fetch optimization.
func (p *ProjectionDefinition) HasFieldList() bool {
	return p != nil && len(p.Fields) > 0
}

// SubcollectionProjection is a child-collection query nested inside a
// projection shape. Recursive, unbounded depth.
type SubcollectionProjection struct {
	NavigationName       string
	ResultName           string
	TargetEntity         string
	CollectionPath       string
	FilterResults        []FilterResult
	OrderByClauses       []OrderByClause
	Pagination           *PaginationInfo
	Fields               []string
	Aggregation          AggregationKind
	AggregationProperty  string
	NestedSubcollections []SubcollectionProjection
}

// QueryExpression is the AST root: one query shape, not yet evaluated.
// It is built once per distinct shape and may be cached by the host.
type QueryExpression struct {
	CollectionPath      string
	EntityName          string
	PrimaryKeyProperty  string
	IsIDOnlyQuery       bool
	IDValue             ValueExpr
	FilterResults       []FilterResult
	OrderByClauses      []OrderByClause
	Pagination          *PaginationInfo
	StartAfter          *Cursor
	PendingIncludes     []IncludeInfo
	Aggregation         AggregationKind
	AggregationProperty string
	Projection          *ProjectionDefinition
	ReturnDefault       bool
}
