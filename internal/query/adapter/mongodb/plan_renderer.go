package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"firestore-odm/internal/query/domain/model"
)

// This package renders a resolved plan into MongoDB query documents. It is
// pure translation: no client, no I/O. The executor owns the round trip.
//
// Documents are stored Firestore-style, each field under a typed slot:
// fields.<name>.<type>Value. The renderer picks the slot from the resolved
// value's Go type, which is concrete by the time a plan reaches it.

// RenderFind translates a resolved plan into a filter document and find
// options ready for a Find call.
func RenderFind(q *model.ResolvedQuery) (bson.M, *options.FindOptions) {
	filter := RenderFilters(q.Filters)
	if cursor := renderCursor(q); len(cursor) > 0 {
		filter = mergeWithAnd(filter, cursor)
	}
	return filter, renderFindOptions(q)
}

// RenderFilters builds the filter document for a set of resolved filters.
// Groups compose with $and; OR groups stay intact as $or sub-documents.
func RenderFilters(filters []model.ResolvedFilter) bson.M {
	var parts []bson.M
	for i := range filters {
		if part := renderFilter(&filters[i]); len(part) > 0 {
			parts = append(parts, part)
		}
	}
	return combineAnd(parts)
}

func renderFilter(f *model.ResolvedFilter) bson.M {
	var parts []bson.M
	for _, w := range f.AndClauses {
		parts = append(parts, renderClause(w))
	}
	if len(f.OrGroup) > 0 {
		parts = append(parts, renderOrGroup(f.OrGroup))
	}
	for _, group := range f.NestedOrGroups {
		parts = append(parts, renderOrGroup(group))
	}
	return combineAnd(parts)
}

func renderOrGroup(group []model.ResolvedWhere) bson.M {
	ors := make([]bson.M, 0, len(group))
	for _, w := range group {
		ors = append(ors, renderClause(w))
	}
	return bson.M{"$or": ors}
}

func combineAnd(parts []bson.M) bson.M {
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return parts[0]
	default:
		return bson.M{"$and": parts}
	}
}

// renderClause translates one resolved clause into its Mongo operator form.
func renderClause(w model.ResolvedWhere) bson.M {
	path := fieldPath(w.PropertyPath, w.Value, w.Operator)
	switch w.Operator {
	case model.OperatorEqual:
		return bson.M{path: w.Value}
	case model.OperatorNotEqual:
		return bson.M{path: bson.M{"$ne": w.Value}}
	case model.OperatorGreaterThan:
		return bson.M{path: bson.M{"$gt": w.Value}}
	case model.OperatorGreaterThanOrEqual:
		return bson.M{path: bson.M{"$gte": w.Value}}
	case model.OperatorLessThan:
		return bson.M{path: bson.M{"$lt": w.Value}}
	case model.OperatorLessThanOrEqual:
		return bson.M{path: bson.M{"$lte": w.Value}}
	case model.OperatorIn:
		return bson.M{path: bson.M{"$in": w.Value}}
	case model.OperatorNotIn:
		return bson.M{path: bson.M{"$nin": w.Value}}
	case model.OperatorArrayContains:
		return bson.M{path: bson.M{"$elemMatch": bson.M{"$eq": w.Value}}}
	case model.OperatorArrayContainsAny:
		return bson.M{path: bson.M{"$in": w.Value}}
	default:
		return bson.M{path: w.Value}
	}
}

// fieldPath picks the typed value slot for a field. Array operators always
// target the array slot regardless of the candidate's type.
func fieldPath(name string, value interface{}, op model.Operator) string {
	if op == model.OperatorArrayContains || op == model.OperatorArrayContainsAny {
		return fmt.Sprintf("fields.%s.arrayValue", name)
	}
	// List operators compare against the element type, not the list.
	if list, ok := value.([]interface{}); ok && op.IsListOperator() {
		var elem interface{}
		if len(list) > 0 {
			elem = list[0]
		}
		return fmt.Sprintf("fields.%s.%s", name, valueSlot(elem))
	}
	return fmt.Sprintf("fields.%s.%s", name, valueSlot(value))
}

func valueSlot(value interface{}) string {
	switch value.(type) {
	case string:
		return "stringValue"
	case bool:
		return "booleanValue"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integerValue"
	case float32, float64:
		return "doubleValue"
	case time.Time:
		return "timestampValue"
	case nil:
		return "nullValue"
	default:
		return "stringValue"
	}
}

// renderFindOptions maps ordering, bounds and field projection onto find
// options. LimitToLast inverts the sort; the executor re-reverses the page.
func renderFindOptions(q *model.ResolvedQuery) *options.FindOptions {
	opts := options.Find()

	limitToLast := q.Pagination != nil && q.Pagination.LimitToLast != nil

	if q.Pagination != nil {
		if q.Pagination.Limit != nil {
			opts.SetLimit(*q.Pagination.Limit)
		}
		if limitToLast {
			opts.SetLimit(*q.Pagination.LimitToLast)
		}
		if q.Pagination.Skip != nil {
			opts.SetSkip(*q.Pagination.Skip)
		}
	}

	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, o := range q.OrderBy {
			dir := 1
			if o.Descending != limitToLast {
				dir = -1
			}
			sort = append(sort, bson.E{Key: orderFieldPath(o.PropertyPath), Value: dir})
		}
		opts.SetSort(sort)
	}

	if q.Projection.HasFieldList() {
		proj := bson.M{}
		for _, field := range q.Projection.Fields {
			proj["fields."+field] = 1
		}
		opts.SetProjection(proj)
	}

	return opts
}

// orderFieldPath targets the string slot when no value is available to infer
// the type from.
func orderFieldPath(name string) string {
	return fmt.Sprintf("fields.%s.stringValue", name)
}

// renderCursor builds the start-after clauses: one direction-aware range
// predicate per order field, matching the cursor's parallel values.
func renderCursor(q *model.ResolvedQuery) bson.M {
	if q.StartAfter == nil || len(q.OrderBy) == 0 {
		return nil
	}
	var parts []bson.M
	for i, o := range q.OrderBy {
		if i >= len(q.StartAfter.OrderByValues) {
			break
		}
		v := q.StartAfter.OrderByValues[i]
		path := fieldPath(o.PropertyPath, v, model.OperatorGreaterThan)
		if o.Descending {
			parts = append(parts, bson.M{path: bson.M{"$lt": v}})
		} else {
			parts = append(parts, bson.M{path: bson.M{"$gt": v}})
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return bson.M{"$and": parts}
}

// mergeWithAnd joins two filter documents, folding into an existing $and
// instead of nesting.
func mergeWithAnd(a, b bson.M) bson.M {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	andA, okA := a["$and"].([]bson.M)
	andB, okB := b["$and"].([]bson.M)
	switch {
	case okA && okB:
		return bson.M{"$and": append(andA, andB...)}
	case okA:
		return bson.M{"$and": append(andA, b)}
	case okB:
		return bson.M{"$and": append([]bson.M{a}, andB...)}
	default:
		return bson.M{"$and": []bson.M{a, b}}
	}
}

// RenderAggregation translates an aggregation plan into a pipeline. Count
// groups on document count; the property aggregations target the double slot
// since numeric fields resolve to floating point.
func RenderAggregation(q *model.ResolvedQuery) ([]bson.M, error) {
	if q.Aggregation == model.AggregationNone {
		return nil, fmt.Errorf("plan carries no aggregation")
	}
	pipeline := []bson.M{}
	if match := RenderFilters(q.Filters); len(match) > 0 {
		pipeline = append(pipeline, bson.M{"$match": match})
	}

	switch q.Aggregation {
	case model.AggregationCount, model.AggregationAny:
		pipeline = append(pipeline, bson.M{"$count": "value"})
	case model.AggregationSum, model.AggregationAverage, model.AggregationMin, model.AggregationMax:
		field := fmt.Sprintf("$fields.%s.doubleValue", q.AggregationProperty)
		op := map[model.AggregationKind]string{
			model.AggregationSum:     "$sum",
			model.AggregationAverage: "$avg",
			model.AggregationMin:     "$min",
			model.AggregationMax:     "$max",
		}[q.Aggregation]
		pipeline = append(pipeline, bson.M{
			"$group": bson.M{"_id": nil, "value": bson.M{op: field}},
		})
	default:
		return nil, fmt.Errorf("unrecognized aggregation %q", q.Aggregation)
	}
	return pipeline, nil
}
