package resolve

import (
	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/query/eval"
)

// resolveProjection resolves a projection definition: field lists and
// aggregation targets are already literal, but every subcollection carries
// its own filters and pagination that need per-call evaluation.
func (r *Resolver) resolveProjection(p *model.ProjectionDefinition, vc *eval.Context) (*model.ResolvedProjection, error) {
	out := &model.ResolvedProjection{
		ResultKind: p.ResultKind,
		EntityName: p.EntityName,
		Fields:     p.Fields,
	}
	for i := range p.Subcollections {
		sub, err := r.resolveSubcollection(&p.Subcollections[i], vc)
		if err != nil {
			return nil, err
		}
		out.Subcollections = append(out.Subcollections, sub)
	}
	return out, nil
}

func (r *Resolver) resolveSubcollection(sp *model.SubcollectionProjection, vc *eval.Context) (*model.ResolvedSubcollection, error) {
	target, err := r.meta.Entity(sp.TargetEntity)
	if err != nil {
		return nil, err
	}

	out := &model.ResolvedSubcollection{
		NavigationName:      sp.NavigationName,
		ResultName:          sp.ResultName,
		TargetEntity:        sp.TargetEntity,
		CollectionPath:      sp.CollectionPath,
		OrderBy:             sp.OrderByClauses,
		Fields:              sp.Fields,
		Aggregation:         sp.Aggregation,
		AggregationProperty: sp.AggregationProperty,
	}
	if out.Filters, err = r.resolveFilters(target, target.PrimaryKey(), sp.FilterResults, vc); err != nil {
		return nil, err
	}
	if out.Pagination, err = r.resolvePagination(sp.Pagination, vc); err != nil {
		return nil, err
	}
	for i := range sp.NestedSubcollections {
		nested, err := r.resolveSubcollection(&sp.NestedSubcollections[i], vc)
		if err != nil {
			return nil, err
		}
		out.Nested = append(out.Nested, nested)
	}
	return out, nil
}
