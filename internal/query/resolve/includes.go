package resolve

import (
	"fmt"

	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/query/eval"
	"firestore-odm/internal/shared/errors"
)

// resolveIncludes rebuilds the include tree from the flat ParentEntity-linked
// list and resolves every node against its own navigation path, filters,
// ordering and pagination. Reconstruction is order-independent: a child nests
// under the ancestor whose target entity matches its parent pointer no matter
// where either appears in the input list.
func (r *Resolver) resolveIncludes(pending []model.IncludeInfo, vc *eval.Context) ([]*model.ResolvedInclude, error) {
	if len(pending) == 0 {
		return nil, nil
	}

	nodes := make([]*model.ResolvedInclude, len(pending))
	for i := range pending {
		node, err := r.resolveIncludeNode(&pending[i], vc)
		if err != nil {
			return nil, err
		}
		nodes[i] = node
	}

	var roots []*model.ResolvedInclude
	attached := make([]bool, len(pending))
	for i := range pending {
		if pending[i].ParentEntity == "" {
			roots = append(roots, nodes[i])
			attached[i] = true
		}
	}

	// Attach the rest by matching parent pointers against already-attached
	// targets, repeating until a pass makes no progress.
	remaining := len(pending) - len(roots)
	for remaining > 0 {
		progress := false
		for i := range pending {
			if attached[i] {
				continue
			}
			parent := r.findTarget(roots, pending[i].ParentEntity)
			if parent == nil {
				continue
			}
			parent.Children = append(parent.Children, nodes[i])
			attached[i] = true
			remaining--
			progress = true
		}
		if !progress {
			for i := range pending {
				if !attached[i] {
					return nil, errors.NewValidationError(fmt.Sprintf(
						"include %q has parent entity %q but no include targets it",
						pending[i].NavigationName, pending[i].ParentEntity))
				}
			}
		}
	}

	return roots, nil
}

// findTarget searches the attached tree for the node whose target entity
// matches the given parent pointer.
func (r *Resolver) findTarget(nodes []*model.ResolvedInclude, entity string) *model.ResolvedInclude {
	for _, n := range nodes {
		if n.TargetEntity == entity {
			return n
		}
		if found := r.findTarget(n.Children, entity); found != nil {
			return found
		}
	}
	return nil
}

func (r *Resolver) resolveIncludeNode(inc *model.IncludeInfo, vc *eval.Context) (*model.ResolvedInclude, error) {
	target, err := r.meta.Entity(inc.TargetEntity)
	if err != nil {
		return nil, err
	}

	node := &model.ResolvedInclude{
		NavigationName: inc.NavigationName,
		IsCollection:   inc.IsCollection,
		TargetEntity:   inc.TargetEntity,
		CollectionPath: inc.CollectionPath,
		OrderBy:        inc.OrderByClauses,
	}
	if node.Filters, err = r.resolveFilters(target, target.PrimaryKey(), inc.FilterResults, vc); err != nil {
		return nil, err
	}
	if node.Pagination, err = r.resolvePagination(inc.Pagination, vc); err != nil {
		return nil, err
	}
	return node, nil
}
