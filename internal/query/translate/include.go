package translate

import (
	"fmt"
	"strings"

	"firestore-odm/internal/query/domain/metadata"
	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/shared/errors"
)

// TranslateIncludes turns eager-load chains into IncludeInfo nodes. One
// matcher handles every structural variant by classifying each step against
// the navigation kind: references and reference arrays terminate a dotted
// segment, embedded objects and embedded arrays extend it, child collections
// emit their own node and re-root the chain at the element entity. A chain
// that never reaches a reference past its embedded steps contributes nothing.
//
// The output stays a flat list linked by ParentEntity; the resolver rebuilds
// the tree.
func (t *Translator) TranslateIncludes(specs []model.IncludeSpec, root *metadata.EntityMetadata) ([]model.IncludeInfo, error) {
	var out []model.IncludeInfo
	for i := range specs {
		infos, err := t.translateInclude(&specs[i], root)
		if err != nil {
			return nil, err
		}
		out = append(out, infos...)
	}
	return out, nil
}

func (t *Translator) translateInclude(spec *model.IncludeSpec, root *metadata.EntityMetadata) ([]model.IncludeInfo, error) {
	if len(spec.Steps) == 0 {
		return nil, errors.NewValidationError("include request has no navigation steps")
	}

	var out []model.IncludeInfo
	cur := root
	parent := "" // target entity of the enclosing emitted node
	var pathSegs []string

	for _, step := range spec.Steps {
		nav, ok := cur.Navigation(step)
		if !ok {
			return nil, errors.NewAppError(errors.ErrorTypeMetadata,
				fmt.Sprintf("entity %q has no navigation %q", cur.Name(), step)).
				WithCause(errors.ErrUnknownNavigation)
		}

		switch nav.Kind {
		case metadata.KindEmbeddedObject, metadata.KindEmbeddedArray:
			// Inline structure: extend the dotted segment and keep walking.
			pathSegs = append(pathSegs, step)

		case metadata.KindReference, metadata.KindReferenceArray:
			pathSegs = append(pathSegs, step)
			target, err := t.meta.Entity(nav.TargetEntity)
			if err != nil {
				return nil, err
			}
			out = append(out, model.IncludeInfo{
				NavigationName: strings.Join(pathSegs, "."),
				IsCollection:   nav.Kind == metadata.KindReferenceArray,
				TargetEntity:   nav.TargetEntity,
				CollectionPath: target.CollectionPath(),
				ParentEntity:   parent,
			})
			parent = nav.TargetEntity
			pathSegs = nil
			cur = target

		case metadata.KindChildCollection:
			if len(pathSegs) > 0 {
				return nil, errors.NewTranslationError(fmt.Sprintf(
					"child collection %q cannot be loaded through embedded path %q",
					step, strings.Join(pathSegs, ".")))
			}
			target, err := t.meta.Entity(nav.TargetEntity)
			if err != nil {
				return nil, err
			}
			// The child-collection include is preserved as ordinary
			// navigation loading; any trailing embedded/reference chain is
			// parented at the element entity.
			out = append(out, model.IncludeInfo{
				NavigationName: step,
				IsCollection:   true,
				TargetEntity:   nav.TargetEntity,
				CollectionPath: nav.CollectionPath,
				ParentEntity:   parent,
			})
			parent = nav.TargetEntity
			cur = target

		case metadata.KindMap:
			return nil, errors.NewUnsupportedOperationError(step, "eager load through a map navigation")

		default:
			return nil, errors.NewTranslationError(
				fmt.Sprintf("navigation %q has unrecognized kind %s", step, nav.Kind))
		}
	}

	if len(out) == 0 {
		// Chain of embedded steps that never reached a reference: nothing to
		// load. A filter on such a chain is a structural error.
		if spec.Filter != nil || len(spec.OrderBy) > 0 || spec.Limit != nil || spec.Skip != nil {
			return nil, errors.NewValidationError(
				"include options given but the chain loads no navigation")
		}
		return nil, nil
	}

	// Trailing options apply to the last emitted node.
	last := &out[len(out)-1]
	if spec.Filter != nil {
		fr, err := t.TranslateFilter(spec.Filter)
		if err != nil {
			return nil, err
		}
		if fr != nil {
			last.FilterResults = append(last.FilterResults, *fr)
		}
	}
	if len(spec.OrderBy) > 0 {
		clauses, err := t.TranslateOrderBy(spec.OrderBy)
		if err != nil {
			return nil, err
		}
		last.OrderByClauses = clauses
	}
	last.Pagination = t.translatePagination(spec.Limit, nil, spec.Skip)

	return out, nil
}
