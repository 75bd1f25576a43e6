package translate

import (
	"fmt"

	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/shared/errors"
)

// TranslateOrderBy maps ordering selectors onto order-by clauses.
func (t *Translator) TranslateOrderBy(specs []model.OrderSpec) ([]model.OrderByClause, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	clauses := make([]model.OrderByClause, 0, len(specs))
	for _, spec := range specs {
		path, _, ok := propertyPath(spec.Selector)
		if !ok {
			return nil, errors.NewTranslationError("order-by selector is not a property path")
		}
		clauses = append(clauses, model.OrderByClause{
			PropertyPath: path,
			Descending:   spec.Descending,
		})
	}
	return clauses, nil
}

// TranslateAggregation maps an aggregation selector onto a bare property
// path. Count and Any carry no selector.
func (t *Translator) TranslateAggregation(kind model.AggregationKind, selector model.Expr) (string, error) {
	if kind == model.AggregationNone {
		if selector != nil {
			return "", errors.NewValidationError("aggregation selector given without an aggregation")
		}
		return "", nil
	}
	if !kind.NeedsSelector() {
		if selector != nil {
			return "", errors.NewValidationError(
				fmt.Sprintf("%s aggregation does not take a selector", kind))
		}
		return "", nil
	}
	if selector == nil {
		return "", errors.NewValidationError(
			fmt.Sprintf("%s aggregation needs a property selector", kind))
	}
	path, _, ok := propertyPath(selector)
	if !ok {
		return "", errors.NewTranslationError("aggregation selector is not a property path")
	}
	return path, nil
}

// translatePagination turns the request's raw bounds into PaginationInfo,
// leaving deferred expressions untouched until resolution.
func (t *Translator) translatePagination(limit, limitToLast, skip model.ValueExpr) *model.PaginationInfo {
	if limit == nil && limitToLast == nil && skip == nil {
		return nil
	}
	return &model.PaginationInfo{Limit: limit, LimitToLast: limitToLast, Skip: skip}
}
