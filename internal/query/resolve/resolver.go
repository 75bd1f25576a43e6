package resolve

import (
	"fmt"

	"firestore-odm/internal/query/domain/metadata"
	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/query/eval"
	"firestore-odm/internal/shared/errors"
	"firestore-odm/internal/shared/logger"
)

// Resolver walks a translated AST, evaluates every embedded expression
// against the per-call value context, converts values to the store's native
// types, detects single-document fetches and emits the immutable execution
// plan. Deterministic, no I/O; structural incompatibilities raise
// synchronously before any plan exists.
type Resolver struct {
	meta metadata.Source
	eval *eval.Evaluator
	conv *eval.Converter
	log  logger.Logger
}

// NewResolver creates a resolver over the given metadata and evaluation
// machinery.
func NewResolver(meta metadata.Source, ev *eval.Evaluator, conv *eval.Converter, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.WithComponent("query.resolve")
	}
	return &Resolver{meta: meta, eval: ev, conv: conv, log: log}
}

// Resolve produces the execution plan for one invocation.
func (r *Resolver) Resolve(q *model.QueryExpression, vc *eval.Context) (*model.ResolvedQuery, error) {
	entity, err := r.meta.Entity(q.EntityName)
	if err != nil {
		return nil, err
	}

	res := &model.ResolvedQuery{
		CollectionPath:      q.CollectionPath,
		EntityName:          q.EntityName,
		OrderBy:             q.OrderByClauses,
		StartAfter:          q.StartAfter,
		Aggregation:         q.Aggregation,
		AggregationProperty: q.AggregationProperty,
		ReturnDefault:       q.ReturnDefault,
	}

	suppressed := q.Projection.HasFieldList()
	docID, isLookup, err := r.documentID(q, suppressed, vc)
	if err != nil {
		return nil, err
	}
	if isLookup && !suppressed {
		res.DocumentID = docID
		if q.IsIDOnlyQuery {
			// A find-by-key call may carry accompanying filters; they still
			// gate the fetched document.
			res.Filters, err = r.resolveFilters(entity, entity.PrimaryKey(), q.FilterResults, vc)
			if err != nil {
				return nil, err
			}
		}
	} else {
		res.Filters, err = r.resolveFilters(entity, entity.PrimaryKey(), q.FilterResults, vc)
		if err != nil {
			return nil, err
		}
		if isLookup && suppressed {
			// Suppression only disables the address fetch; the find-by-key
			// predicate survives as an ordinary primary-key filter.
			res.Filters = append(res.Filters, model.ResolvedFilter{
				AndClauses: []model.ResolvedWhere{{
					PropertyPath: q.PrimaryKeyProperty,
					Operator:     model.OperatorEqual,
					Value:        docID,
				}},
			})
		}
	}

	if res.Pagination, err = r.resolvePagination(q.Pagination, vc); err != nil {
		return nil, err
	}

	if res.Includes, err = r.resolveIncludes(q.PendingIncludes, vc); err != nil {
		return nil, err
	}

	if q.Projection != nil {
		if res.Projection, err = r.resolveProjection(q.Projection, vc); err != nil {
			return nil, err
		}
	}

	r.log.WithFields(map[string]interface{}{
		"entity":   res.EntityName,
		"lookup":   res.IsDocumentLookup(),
		"filters":  len(res.Filters),
		"includes": len(res.Includes),
	}).Debug("resolved query plan")

	return res, nil
}

// documentID detects the single-document-fetch optimization: a find-by-key
// marker whose key evaluates directly, or exactly one equality clause on the
// primary key with no disjunction anywhere. A field-list projection
// suppresses the address fetch (fetching the whole document defeats
// field-selective reads) but never the predicate: the find-by-key branch
// still evaluates its key so the caller can keep it as a filter, while the
// filter-derived branch bails out early because its clause already sits in
// FilterResults.
func (r *Resolver) documentID(q *model.QueryExpression, suppressed bool, vc *eval.Context) (string, bool, error) {
	if q.IsIDOnlyQuery && q.IDValue != nil {
		v, err := r.eval.Evaluate(q.IDValue, vc)
		if err != nil {
			return "", false, err
		}
		id, err := asDocumentID(v)
		if err != nil {
			return "", false, err
		}
		return id, true, nil
	}

	if suppressed || q.PrimaryKeyProperty == "" {
		return "", false, nil
	}
	var single *model.WhereClause
	count := 0
	for i := range q.FilterResults {
		fr := &q.FilterResults[i]
		if fr.HasDisjunction() {
			return "", false, nil
		}
		for j := range fr.AndClauses {
			count++
			single = &fr.AndClauses[j]
		}
	}
	if count != 1 || single.Operator != model.OperatorEqual || single.PropertyPath != q.PrimaryKeyProperty {
		return "", false, nil
	}
	v, err := r.eval.Evaluate(single.Value, vc)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		// A null key is an evaluation artifact; fall back to the filter path
		// where the primary key is exempt from the null policy.
		return "", false, nil
	}
	id, err := asDocumentID(v)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func asDocumentID(v interface{}) (string, error) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", errors.NewValidationError("document id is empty")
		}
		return id, nil
	case fmt.Stringer:
		return id.String(), nil
	default:
		return "", errors.NewValidationError(
			fmt.Sprintf("document id must be a string, got %T", v))
	}
}

func (r *Resolver) resolveFilters(entity *metadata.EntityMetadata, primaryKey string, filters []model.FilterResult, vc *eval.Context) ([]model.ResolvedFilter, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	out := make([]model.ResolvedFilter, 0, len(filters))
	for i := range filters {
		fr := &filters[i]
		rf := model.ResolvedFilter{}
		var err error
		if rf.AndClauses, err = r.resolveClauses(entity, primaryKey, fr.AndClauses, vc); err != nil {
			return nil, err
		}
		if rf.OrGroup, err = r.resolveClauses(entity, primaryKey, fr.OrGroup, vc); err != nil {
			return nil, err
		}
		for _, group := range fr.NestedOrGroups {
			rg, err := r.resolveClauses(entity, primaryKey, group, vc)
			if err != nil {
				return nil, err
			}
			rf.NestedOrGroups = append(rf.NestedOrGroups, rg)
		}
		out = append(out, rf)
	}
	return out, nil
}

func (r *Resolver) resolveClauses(entity *metadata.EntityMetadata, primaryKey string, clauses []model.WhereClause, vc *eval.Context) ([]model.ResolvedWhere, error) {
	if len(clauses) == 0 {
		return nil, nil
	}
	out := make([]model.ResolvedWhere, 0, len(clauses))
	for i := range clauses {
		rw, err := r.resolveClause(entity, primaryKey, &clauses[i], vc)
		if err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, nil
}

// resolveClause evaluates the clause value and converts it to the store's
// native representation. An evaluated null is only permitted on properties
// opted into null persistence; the primary key is exempt because a null
// there is an evaluation artifact, not an intentional null filter.
func (r *Resolver) resolveClause(entity *metadata.EntityMetadata, primaryKey string, cl *model.WhereClause, vc *eval.Context) (model.ResolvedWhere, error) {
	v, err := r.eval.Evaluate(cl.Value, vc)
	if err != nil {
		return model.ResolvedWhere{}, err
	}

	if v == nil && cl.PropertyPath != primaryKey {
		prop, known := entity.Property(cl.PropertyPath)
		if !known || !prop.PersistsNull {
			return model.ResolvedWhere{}, errors.NewNullFilterError(cl.PropertyPath).
				WithDetail("operator", string(cl.Operator))
		}
	}

	var converted interface{}
	if cl.Operator.IsListOperator() {
		converted, err = r.conv.ToStoreList(v, cl.EnumType)
	} else {
		converted, err = r.conv.ToStoreValue(v, cl.EnumType)
	}
	if err != nil {
		return model.ResolvedWhere{}, err
	}

	return model.ResolvedWhere{
		PropertyPath: cl.PropertyPath,
		Operator:     cl.Operator,
		Value:        converted,
	}, nil
}

func (r *Resolver) resolvePagination(p *model.PaginationInfo, vc *eval.Context) (*model.ResolvedPagination, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	out := &model.ResolvedPagination{}
	var err error
	if out.Limit, err = r.resolveBound(p.Limit, "limit", vc); err != nil {
		return nil, err
	}
	if out.LimitToLast, err = r.resolveBound(p.LimitToLast, "limit-to-last", vc); err != nil {
		return nil, err
	}
	if out.Skip, err = r.resolveBound(p.Skip, "skip", vc); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) resolveBound(expr model.ValueExpr, name string, vc *eval.Context) (*int64, error) {
	if expr == nil {
		return nil, nil
	}
	v, err := r.eval.Evaluate(expr, vc)
	if err != nil {
		return nil, err
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, errors.NewValidationError(
			fmt.Sprintf("%s bound must be an integer, got %T", name, v))
	}
	if n < 0 {
		return nil, errors.NewValidationError(
			fmt.Sprintf("%s bound must not be negative, got %d", name, n))
	}
	return &n, nil
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}
