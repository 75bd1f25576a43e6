package translate

import (
	"fmt"

	"firestore-odm/internal/query/domain/metadata"
	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/shared/errors"
)

// TranslateProjection walks a selector's result shape: identity passthrough,
// flat field list, or object construction. Child-collection accesses inside a
// shape become recursive SubcollectionProjection entries carrying their own
// filter, ordering, pagination, fields and aggregation.
func (t *Translator) TranslateProjection(sel model.SelectExpr, entity *metadata.EntityMetadata) (*model.ProjectionDefinition, error) {
	if sel == nil {
		return nil, nil
	}
	switch n := sel.(type) {
	case *model.SelectIdentity:
		return &model.ProjectionDefinition{
			ResultKind: model.ProjectionEntity,
			EntityName: entity.Name(),
		}, nil

	case *model.SelectFields:
		fields, err := t.fieldPaths(n.Selectors)
		if err != nil {
			return nil, err
		}
		return &model.ProjectionDefinition{
			ResultKind: model.ProjectionFieldList,
			EntityName: entity.Name(),
			Fields:     fields,
		}, nil

	case *model.SelectShape:
		def := &model.ProjectionDefinition{
			ResultKind: model.ProjectionShape,
			EntityName: entity.Name(),
		}
		for i := range n.Bindings {
			b := &n.Bindings[i]
			switch {
			case b.Subquery != nil:
				sub, err := t.translateSubquery(b, entity)
				if err != nil {
					return nil, err
				}
				def.Subcollections = append(def.Subcollections, *sub)
			case b.Field != nil:
				path, _, ok := propertyPath(b.Field)
				if !ok {
					return nil, errors.NewTranslationError(
						fmt.Sprintf("shape member %q is not a property path", b.Name))
				}
				def.Fields = append(def.Fields, path)
			default:
				return nil, errors.NewValidationError(
					fmt.Sprintf("shape member %q has neither a field nor a subquery", b.Name))
			}
		}
		return def, nil

	default:
		return nil, errors.NewTranslationError(fmt.Sprintf("unrecognized projection shape %T", sel))
	}
}

func (t *Translator) translateSubquery(b *model.SelectBinding, parent *metadata.EntityMetadata) (*model.SubcollectionProjection, error) {
	sq := b.Subquery
	nav, ok := parent.Navigation(sq.Navigation)
	if !ok {
		return nil, errors.NewAppError(errors.ErrorTypeMetadata,
			fmt.Sprintf("entity %q has no navigation %q", parent.Name(), sq.Navigation)).
			WithCause(errors.ErrUnknownNavigation)
	}
	if nav.Kind != metadata.KindChildCollection {
		return nil, errors.NewTranslationError(fmt.Sprintf(
			"projection subquery %q targets a %s navigation; only child collections can be projected",
			sq.Navigation, nav.Kind))
	}
	target, err := t.meta.Entity(nav.TargetEntity)
	if err != nil {
		return nil, err
	}

	sub := &model.SubcollectionProjection{
		NavigationName: sq.Navigation,
		ResultName:     b.Name,
		TargetEntity:   nav.TargetEntity,
		CollectionPath: nav.CollectionPath,
	}

	if sq.Filter != nil {
		fr, err := t.TranslateFilter(sq.Filter)
		if err != nil {
			return nil, err
		}
		if fr != nil {
			sub.FilterResults = append(sub.FilterResults, *fr)
		}
	}
	if len(sq.OrderBy) > 0 {
		clauses, err := t.TranslateOrderBy(sq.OrderBy)
		if err != nil {
			return nil, err
		}
		sub.OrderByClauses = clauses
	}
	sub.Pagination = t.translatePagination(sq.Limit, nil, sq.Skip)

	if sq.Aggregation != model.AggregationNone {
		prop, err := t.TranslateAggregation(sq.Aggregation, sq.AggregationSelector)
		if err != nil {
			return nil, err
		}
		sub.Aggregation = sq.Aggregation
		sub.AggregationProperty = prop
	}

	if sq.Projection != nil {
		inner, err := t.TranslateProjection(sq.Projection, target)
		if err != nil {
			return nil, err
		}
		sub.Fields = inner.Fields
		sub.NestedSubcollections = inner.Subcollections
	}

	return sub, nil
}

func (t *Translator) fieldPaths(selectors []model.Expr) ([]string, error) {
	fields := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		path, _, ok := propertyPath(sel)
		if !ok {
			return nil, errors.NewTranslationError("projection field selector is not a property path")
		}
		fields = append(fields, path)
	}
	return fields, nil
}
