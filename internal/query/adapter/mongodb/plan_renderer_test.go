package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"firestore-odm/internal/query/domain/model"
)

func where(path string, op model.Operator, v interface{}) model.ResolvedWhere {
	return model.ResolvedWhere{PropertyPath: path, Operator: op, Value: v}
}

func TestRenderFilters_SingleClause(t *testing.T) {
	got := RenderFilters([]model.ResolvedFilter{{
		AndClauses: []model.ResolvedWhere{
			where("Category", model.OperatorEqual, "Electronics"),
		},
	}})
	assert.Equal(t, bson.M{"fields.Category.stringValue": "Electronics"}, got)
}

func TestRenderFilters_AndComposition(t *testing.T) {
	got := RenderFilters([]model.ResolvedFilter{{
		AndClauses: []model.ResolvedWhere{
			where("Price", model.OperatorGreaterThan, 100.0),
			where("Category", model.OperatorEqual, "Electronics"),
		},
	}})
	assert.Equal(t, bson.M{"$and": []bson.M{
		{"fields.Price.doubleValue": bson.M{"$gt": 100.0}},
		{"fields.Category.stringValue": "Electronics"},
	}}, got)
}

func TestRenderFilters_TypedSlots(t *testing.T) {
	cases := []struct {
		value interface{}
		slot  string
	}{
		{"x", "stringValue"},
		{true, "booleanValue"},
		{int64(7), "integerValue"},
		{uint(7), "integerValue"},
		{uint64(7), "integerValue"},
		{7.5, "doubleValue"},
		{nil, "nullValue"},
	}
	for _, tc := range cases {
		got := RenderFilters([]model.ResolvedFilter{{
			AndClauses: []model.ResolvedWhere{where("F", model.OperatorEqual, tc.value)},
		}})
		assert.Equal(t, bson.M{"fields.F." + tc.slot: tc.value}, got)
	}
}

func TestRenderFilters_OrGroupStaysIntact(t *testing.T) {
	got := RenderFilters([]model.ResolvedFilter{{
		AndClauses: []model.ResolvedWhere{
			where("Category", model.OperatorEqual, "Electronics"),
		},
		NestedOrGroups: [][]model.ResolvedWhere{{
			where("Brand", model.OperatorEqual, "acme"),
			where("Brand", model.OperatorEqual, "globex"),
		}},
	}})
	assert.Equal(t, bson.M{"$and": []bson.M{
		{"fields.Category.stringValue": "Electronics"},
		{"$or": []bson.M{
			{"fields.Brand.stringValue": "acme"},
			{"fields.Brand.stringValue": "globex"},
		}},
	}}, got)
}

func TestRenderFilters_ListOperatorsUseElementSlot(t *testing.T) {
	got := RenderFilters([]model.ResolvedFilter{{
		AndClauses: []model.ResolvedWhere{
			where("Qty", model.OperatorIn, []interface{}{int64(1), int64(2)}),
		},
	}})
	assert.Equal(t, bson.M{
		"fields.Qty.integerValue": bson.M{"$in": []interface{}{int64(1), int64(2)}},
	}, got)

	got = RenderFilters([]model.ResolvedFilter{{
		AndClauses: []model.ResolvedWhere{
			where("Tag", model.OperatorNotIn, []interface{}{"a"}),
		},
	}})
	assert.Equal(t, bson.M{
		"fields.Tag.stringValue": bson.M{"$nin": []interface{}{"a"}},
	}, got)
}

func TestRenderFilters_ArrayOperatorsTargetArraySlot(t *testing.T) {
	got := RenderFilters([]model.ResolvedFilter{{
		AndClauses: []model.ResolvedWhere{
			where("Tags", model.OperatorArrayContains, "sale"),
		},
	}})
	assert.Equal(t, bson.M{
		"fields.Tags.arrayValue": bson.M{"$elemMatch": bson.M{"$eq": "sale"}},
	}, got)

	got = RenderFilters([]model.ResolvedFilter{{
		AndClauses: []model.ResolvedWhere{
			where("Tags", model.OperatorArrayContainsAny, []interface{}{"sale", "new"}),
		},
	}})
	assert.Equal(t, bson.M{
		"fields.Tags.arrayValue": bson.M{"$in": []interface{}{"sale", "new"}},
	}, got)
}

func intPtr(n int64) *int64 { return &n }

func TestRenderFind_OrderingAndBounds(t *testing.T) {
	filter, opts := RenderFind(&model.ResolvedQuery{
		OrderBy: []model.OrderByClause{
			{PropertyPath: "Name"},
			{PropertyPath: "Price", Descending: true},
		},
		Pagination: &model.ResolvedPagination{Limit: intPtr(10), Skip: intPtr(20)},
	})

	assert.Equal(t, bson.M{}, filter)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(10), *opts.Limit)
	require.NotNil(t, opts.Skip)
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, bson.D{
		{Key: "fields.Name.stringValue", Value: 1},
		{Key: "fields.Price.stringValue", Value: -1},
	}, opts.Sort)
}

// LimitToLast reads the tail of the ordering by inverting every sort
// direction; the executor reverses the page afterwards.
func TestRenderFind_LimitToLastInvertsSort(t *testing.T) {
	_, opts := RenderFind(&model.ResolvedQuery{
		OrderBy: []model.OrderByClause{
			{PropertyPath: "Date"},
			{PropertyPath: "Total", Descending: true},
		},
		Pagination: &model.ResolvedPagination{LimitToLast: intPtr(5)},
	})

	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, bson.D{
		{Key: "fields.Date.stringValue", Value: -1},
		{Key: "fields.Total.stringValue", Value: 1},
	}, opts.Sort)
}

func TestRenderFind_FieldListProjection(t *testing.T) {
	_, opts := RenderFind(&model.ResolvedQuery{
		Projection: &model.ResolvedProjection{
			ResultKind: model.ProjectionFieldList,
			Fields:     []string{"Name", "Price"},
		},
	})
	assert.Equal(t, bson.M{"fields.Name": 1, "fields.Price": 1}, opts.Projection)
}

func TestRenderFind_CursorMergesWithFilter(t *testing.T) {
	filter, _ := RenderFind(&model.ResolvedQuery{
		Filters: []model.ResolvedFilter{{
			AndClauses: []model.ResolvedWhere{
				where("Category", model.OperatorEqual, "Electronics"),
			},
		}},
		OrderBy: []model.OrderByClause{
			{PropertyPath: "Name"},
			{PropertyPath: "Price", Descending: true},
		},
		StartAfter: &model.Cursor{
			DocumentID:    "p-9",
			OrderByValues: []interface{}{"Laptop", 999.0},
		},
	})

	assert.Equal(t, bson.M{"$and": []bson.M{
		{"fields.Category.stringValue": "Electronics"},
		{"fields.Name.stringValue": bson.M{"$gt": "Laptop"}},
		{"fields.Price.doubleValue": bson.M{"$lt": 999.0}},
	}}, filter)
}

func TestRenderAggregation_Count(t *testing.T) {
	pipeline, err := RenderAggregation(&model.ResolvedQuery{
		Aggregation: model.AggregationCount,
		Filters: []model.ResolvedFilter{{
			AndClauses: []model.ResolvedWhere{
				where("Status", model.OperatorEqual, "Pending"),
			},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []bson.M{
		{"$match": bson.M{"fields.Status.stringValue": "Pending"}},
		{"$count": "value"},
	}, pipeline)
}

func TestRenderAggregation_SumOverProperty(t *testing.T) {
	pipeline, err := RenderAggregation(&model.ResolvedQuery{
		Aggregation:         model.AggregationSum,
		AggregationProperty: "Total",
	})
	require.NoError(t, err)
	assert.Equal(t, []bson.M{
		{"$group": bson.M{"_id": nil, "value": bson.M{"$sum": "$fields.Total.doubleValue"}}},
	}, pipeline)
}

func TestRenderAggregation_RequiresAggregationPlan(t *testing.T) {
	_, err := RenderAggregation(&model.ResolvedQuery{})
	assert.Error(t, err)
}
