package model

// ResolvedWhere is a where clause with its value evaluated and converted to
// the store's native representation.
type ResolvedWhere struct {
	PropertyPath string
	Operator     Operator
	Value        interface{}
}

// ResolvedFilter mirrors FilterResult with every clause resolved.
type ResolvedFilter struct {
	AndClauses     []ResolvedWhere
	OrGroup        []ResolvedWhere
	NestedOrGroups [][]ResolvedWhere
}

// IsOrGroup reports whether the filter is a pure top-level disjunction.
func (f *ResolvedFilter) IsOrGroup() bool {
	return len(f.AndClauses) == 0 && len(f.NestedOrGroups) == 0 && len(f.OrGroup) > 0
}

// ResolvedPagination carries concrete scan bounds.
type ResolvedPagination struct {
	Limit       *int64
	LimitToLast *int64
	Skip        *int64
}

// ResolvedInclude is one node of the reconstructed include tree, fully
// resolved for its own navigation.
type ResolvedInclude struct {
	NavigationName string
	IsCollection   bool
	TargetEntity   string
	CollectionPath string
	Filters        []ResolvedFilter
	OrderBy        []OrderByClause
	Pagination     *ResolvedPagination
	Children       []*ResolvedInclude
}

// ResolvedSubcollection is a projection subquery with all expressions
// evaluated.
type ResolvedSubcollection struct {
	NavigationName      string
	ResultName          string
	TargetEntity        string
	CollectionPath      string
	Filters             []ResolvedFilter
	OrderBy             []OrderByClause
	Pagination          *ResolvedPagination
	Fields              []string
	Aggregation         AggregationKind
	AggregationProperty string
	Nested              []*ResolvedSubcollection
}

// ResolvedProjection is the concrete result shape of a resolved plan.
type ResolvedProjection struct {
	ResultKind     ProjectionKind
	EntityName     string
	Fields         []string
	Subcollections []*ResolvedSubcollection
}

// HasFieldList reports whether the projection restricts the fields read.
func (p *ResolvedProjection) HasFieldList() bool {
	return p != nil && len(p.Fields) > 0
}

// ResolvedQuery is the immutable, expression-free execution plan. It is built
// once per invocation, consumed by the executor and discarded. A non-empty
// DocumentID replaces the filtered scan: the executor fetches the document by
// address, then applies any remaining Filters to the fetched document.
type ResolvedQuery struct {
	CollectionPath      string
	EntityName          string
	DocumentID          string
	Filters             []ResolvedFilter
	OrderBy             []OrderByClause
	Pagination          *ResolvedPagination
	StartAfter          *Cursor
	Includes            []*ResolvedInclude
	Aggregation         AggregationKind
	AggregationProperty string
	Projection          *ResolvedProjection
	ReturnDefault       bool
}

// IsDocumentLookup reports whether the plan is a direct fetch by address.
func (q *ResolvedQuery) IsDocumentLookup() bool {
	return q.DocumentID != ""
}
