package translate

import (
	"firestore-odm/internal/query/domain/metadata"
	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/shared/logger"
)

// Translator pattern-matches host query expressions into the constrained,
// named AST. It holds no per-query state; one instance serves concurrent
// translations.
type Translator struct {
	meta metadata.Source
	log  logger.Logger
}

// NewTranslator creates a translator over the given model metadata.
func NewTranslator(meta metadata.Source, log logger.Logger) *Translator {
	if log == nil {
		log = logger.WithComponent("query.translate")
	}
	return &Translator{meta: meta, log: log}
}

// Translate assembles the full AST for one query shape. The result carries
// deferred value expressions and is safe to cache per shape: per-call values
// only enter at resolution time.
func (t *Translator) Translate(spec *model.QuerySpec) (*model.QueryExpression, error) {
	entity, err := t.meta.Entity(spec.Entity)
	if err != nil {
		return nil, err
	}

	ast := &model.QueryExpression{
		CollectionPath:     entity.CollectionPath(),
		EntityName:         entity.Name(),
		PrimaryKeyProperty: entity.PrimaryKey(),
		StartAfter:         spec.StartAfter,
		ReturnDefault:      spec.ReturnDefault,
	}

	if spec.FindByKey != nil {
		ast.IsIDOnlyQuery = true
		ast.IDValue = spec.FindByKey
	}

	if fr, err := t.TranslateFilter(spec.Filter); err != nil {
		return nil, err
	} else if fr != nil {
		ast.FilterResults = append(ast.FilterResults, *fr)
	}

	if ast.OrderByClauses, err = t.TranslateOrderBy(spec.OrderBy); err != nil {
		return nil, err
	}

	ast.Pagination = t.translatePagination(spec.Limit, spec.LimitToLast, spec.Skip)

	if ast.PendingIncludes, err = t.TranslateIncludes(spec.Includes, entity); err != nil {
		return nil, err
	}

	if spec.Aggregation != model.AggregationNone {
		prop, err := t.TranslateAggregation(spec.Aggregation, spec.AggregationSelector)
		if err != nil {
			return nil, err
		}
		ast.Aggregation = spec.Aggregation
		ast.AggregationProperty = prop
	}

	if ast.Projection, err = t.TranslateProjection(spec.Select, entity); err != nil {
		return nil, err
	}

	t.log.WithFields(map[string]interface{}{
		"entity":   ast.EntityName,
		"filters":  len(ast.FilterResults),
		"includes": len(ast.PendingIncludes),
	}).Debug("translated query shape")

	return ast, nil
}
