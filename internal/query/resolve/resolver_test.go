package resolve

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestore-odm/internal/query/config"
	"firestore-odm/internal/query/domain/metadata"
	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/query/eval"
	"firestore-odm/internal/shared/errors"
)

func resolverMeta() *metadata.Registry {
	product := metadata.NewEntity("Product", "products", "Id").
		WithNullableProperty("Description").
		WithEnumProperty("Status", "ProductStatus")
	customer := metadata.NewEntity("Customer", "customers", "Id")
	region := metadata.NewEntity("Region", "regions", "Id")
	orderItem := metadata.NewEntity("OrderItem", "items", "Id")
	return metadata.NewRegistry().
		Register(product).Register(customer).Register(region).Register(orderItem).
		RegisterEnum(metadata.NewEnum("ProductStatus", map[int64]string{
			0: "active",
			1: "discontinued",
		}))
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	meta := resolverMeta()
	ev, err := eval.NewEvaluator(16, nil)
	require.NoError(t, err)
	conv := eval.NewConverter(meta, config.Default())
	return NewResolver(meta, ev, conv, nil)
}

func productAST(filters ...model.FilterResult) *model.QueryExpression {
	return &model.QueryExpression{
		CollectionPath:     "products",
		EntityName:         "Product",
		PrimaryKeyProperty: "Id",
		FilterResults:      filters,
	}
}

func eqClause(path string, v model.ValueExpr) model.WhereClause {
	return model.WhereClause{PropertyPath: path, Operator: model.OperatorEqual, Value: v}
}

// Scenario: Price > 100 && Category == "Electronics" is a general collection
// scan with two resolved AND clauses.
func TestResolve_GeneralCollectionPlan(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{
		{PropertyPath: "Price", Operator: model.OperatorGreaterThan, Value: &model.Constant{Value: decimal.NewFromInt(100)}},
		eqClause("Category", &model.Constant{Value: "Electronics"}),
	}})

	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)

	assert.False(t, res.IsDocumentLookup())
	assert.Equal(t, "products", res.CollectionPath)
	require.Len(t, res.Filters, 1)
	require.Len(t, res.Filters[0].AndClauses, 2)
	assert.Equal(t, 100.0, res.Filters[0].AndClauses[0].Value)
	assert.Equal(t, "Electronics", res.Filters[0].AndClauses[1].Value)
}

// Scenario: a find-by-key call becomes a direct document fetch with an empty
// filter set.
func TestResolve_FindByKeyBecomesDocumentLookup(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST()
	ast.IsIDOnlyQuery = true
	ast.IDValue = &model.Constant{Value: "sku-42"}

	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	assert.Equal(t, "sku-42", res.DocumentID)
	assert.Empty(t, res.Filters)
}

func TestResolve_SingleEqOnPrimaryKeyBecomesDocumentLookup(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{
		eqClause("Id", &model.Param{Name: "id"}),
	}})

	res, err := r.Resolve(ast, &eval.Context{Params: map[string]interface{}{"id": "sku-42"}})
	require.NoError(t, err)
	assert.Equal(t, "sku-42", res.DocumentID)
	assert.Empty(t, res.Filters)
}

func TestResolve_SecondClauseDisablesDocumentLookup(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{
		eqClause("Id", &model.Constant{Value: "sku-42"}),
		eqClause("Category", &model.Constant{Value: "Electronics"}),
	}})

	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	assert.False(t, res.IsDocumentLookup())
	assert.Len(t, res.Filters[0].AndClauses, 2)
}

func TestResolve_OrGroupDisablesDocumentLookup(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST(model.FilterResult{
		AndClauses: []model.WhereClause{
			eqClause("Id", &model.Constant{Value: "sku-42"}),
		},
		NestedOrGroups: [][]model.WhereClause{{
			eqClause("Category", &model.Constant{Value: "a"}),
			eqClause("Category", &model.Constant{Value: "b"}),
		}},
	})

	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	assert.False(t, res.IsDocumentLookup())
}

func TestResolve_FieldListProjectionSuppressesDocumentLookup(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{
		eqClause("Id", &model.Constant{Value: "sku-42"}),
	}})
	ast.Projection = &model.ProjectionDefinition{
		ResultKind: model.ProjectionFieldList,
		EntityName: "Product",
		Fields:     []string{"Name", "Price"},
	}

	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	// Fetching the whole document by address would defeat the
	// field-selective read.
	assert.False(t, res.IsDocumentLookup())
	require.Len(t, res.Filters, 1)
	assert.Equal(t, "Id", res.Filters[0].AndClauses[0].PropertyPath)
}

func TestResolve_FindByKeyWithFieldListKeepsKeyFilter(t *testing.T) {
	r := newTestResolver(t)

	// Suppression turns off the address fetch, not the key predicate: the
	// key must survive as a primary-key filter or the plan degenerates into
	// an unfiltered collection scan.
	ast := productAST()
	ast.IsIDOnlyQuery = true
	ast.IDValue = &model.Constant{Value: "sku-42"}
	ast.Projection = &model.ProjectionDefinition{
		ResultKind: model.ProjectionFieldList,
		EntityName: "Product",
		Fields:     []string{"Name"},
	}

	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	assert.False(t, res.IsDocumentLookup())
	require.Len(t, res.Filters, 1)
	require.Len(t, res.Filters[0].AndClauses, 1)
	cl := res.Filters[0].AndClauses[0]
	assert.Equal(t, "Id", cl.PropertyPath)
	assert.Equal(t, model.OperatorEqual, cl.Operator)
	assert.Equal(t, "sku-42", cl.Value)
}

func TestResolve_FindByKeyWithAccompanyingFilter(t *testing.T) {
	r := newTestResolver(t)

	// Filters alongside a find-by-key still gate the fetched document.
	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{
		eqClause("Category", &model.Constant{Value: "Electronics"}),
	}})
	ast.IsIDOnlyQuery = true
	ast.IDValue = &model.Constant{Value: "sku-42"}

	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	assert.Equal(t, "sku-42", res.DocumentID)
	require.Len(t, res.Filters, 1)
	require.Len(t, res.Filters[0].AndClauses, 1)
	assert.Equal(t, "Category", res.Filters[0].AndClauses[0].PropertyPath)
	assert.Equal(t, "Electronics", res.Filters[0].AndClauses[0].Value)
}

// Scenario: Name.StartsWith("Lap") resolved to its range pair.
func TestResolve_PrefixRangeScan(t *testing.T) {
	r := newTestResolver(t)

	prefix := &model.Constant{Value: "Lap"}
	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{
		{PropertyPath: "Name", Operator: model.OperatorGreaterThanOrEqual, Value: prefix},
		{PropertyPath: "Name", Operator: model.OperatorLessThan, Value: &model.PrefixSuccessor{Inner: prefix}},
	}})

	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	require.Len(t, res.Filters[0].AndClauses, 2)
	assert.Equal(t, "Lap", res.Filters[0].AndClauses[0].Value)
	assert.Equal(t, "Lap\U0010FFFF", res.Filters[0].AndClauses[1].Value)
}

func TestResolve_NullFilterPolicy(t *testing.T) {
	r := newTestResolver(t)

	// Not opted into null persistence: raises before any plan exists.
	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{
		eqClause("Category", &model.Constant{Value: nil}),
	}})
	_, err := r.Resolve(ast, &eval.Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNullFilterNotAllowed)
	assert.Contains(t, err.Error(), "Category")

	// Opted in: resolves with a null value.
	ast = productAST(model.FilterResult{AndClauses: []model.WhereClause{
		eqClause("Description", &model.Constant{Value: nil}),
	}})
	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	assert.Nil(t, res.Filters[0].AndClauses[0].Value)
}

func TestResolve_NullPrimaryKeyFilterIsExempt(t *testing.T) {
	r := newTestResolver(t)

	// A null primary key is an evaluation artifact: it neither becomes a
	// document lookup nor trips the null policy.
	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{
		eqClause("Id", &model.Constant{Value: nil}),
	}})
	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	assert.False(t, res.IsDocumentLookup())
	assert.Nil(t, res.Filters[0].AndClauses[0].Value)
}

func TestResolve_EvaluationFailurePropagates(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{
		eqClause("Category", &model.Param{Name: "missing"}),
	}})
	_, err := r.Resolve(ast, &eval.Context{Params: map[string]interface{}{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownParameter)
}

func TestResolve_EnumFilterConvertsPerConfiguration(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{{
		PropertyPath: "Status",
		Operator:     model.OperatorEqual,
		Value:        &model.Constant{Value: 1},
		EnumType:     "ProductStatus",
	}}})
	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	assert.Equal(t, "discontinued", res.Filters[0].AndClauses[0].Value)
}

func TestResolve_InListResolvedAndBounded(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST(model.FilterResult{AndClauses: []model.WhereClause{{
		PropertyPath: "Category",
		Operator:     model.OperatorIn,
		Value:        &model.Param{Name: "cats"},
	}}})

	res, err := r.Resolve(ast, &eval.Context{
		Params: map[string]interface{}{"cats": []string{"a", "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, res.Filters[0].AndClauses[0].Value)
}

func TestResolve_NestedOrGroupsResolved(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST(model.FilterResult{
		AndClauses: []model.WhereClause{
			eqClause("Category", &model.Constant{Value: "Electronics"}),
		},
		NestedOrGroups: [][]model.WhereClause{{
			eqClause("Brand", &model.Param{Name: "b1"}),
			eqClause("Brand", &model.Param{Name: "b2"}),
		}},
	})

	res, err := r.Resolve(ast, &eval.Context{
		Params: map[string]interface{}{"b1": "acme", "b2": "globex"},
	})
	require.NoError(t, err)
	require.Len(t, res.Filters[0].NestedOrGroups, 1)
	assert.Equal(t, "acme", res.Filters[0].NestedOrGroups[0][0].Value)
	assert.Equal(t, "globex", res.Filters[0].NestedOrGroups[0][1].Value)
}

func TestResolve_PaginationExpressionsEvaluated(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST()
	ast.Pagination = &model.PaginationInfo{
		Limit: &model.Param{Name: "n"},
		Skip:  &model.Constant{Value: 10},
	}

	res, err := r.Resolve(ast, &eval.Context{Params: map[string]interface{}{"n": 3}})
	require.NoError(t, err)
	require.NotNil(t, res.Pagination)
	require.NotNil(t, res.Pagination.Limit)
	assert.Equal(t, int64(3), *res.Pagination.Limit)
	require.NotNil(t, res.Pagination.Skip)
	assert.Equal(t, int64(10), *res.Pagination.Skip)
	assert.Nil(t, res.Pagination.LimitToLast)
}

func TestResolve_NegativePaginationBoundRaises(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST()
	ast.Pagination = &model.PaginationInfo{Limit: &model.Constant{Value: -1}}

	_, err := r.Resolve(ast, &eval.Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidQuery)
}

func TestResolve_CursorCopiedThrough(t *testing.T) {
	r := newTestResolver(t)

	cursor := &model.Cursor{DocumentID: "p-9", OrderByValues: []interface{}{"Laptop"}}
	ast := productAST()
	ast.StartAfter = cursor
	ast.OrderByClauses = []model.OrderByClause{{PropertyPath: "Name"}}

	res, err := r.Resolve(ast, &eval.Context{})
	require.NoError(t, err)
	assert.Same(t, cursor, res.StartAfter)
	assert.Equal(t, ast.OrderByClauses, res.OrderBy)
}

func TestResolve_ProjectionSubcollectionsResolved(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST()
	ast.Projection = &model.ProjectionDefinition{
		ResultKind: model.ProjectionShape,
		EntityName: "Product",
		Fields:     []string{"Name"},
		Subcollections: []model.SubcollectionProjection{{
			NavigationName: "Items",
			ResultName:     "Items",
			TargetEntity:   "OrderItem",
			CollectionPath: "items",
			FilterResults: []model.FilterResult{{AndClauses: []model.WhereClause{
				eqClause("Status", &model.Param{Name: "status"}),
			}}},
			Pagination: &model.PaginationInfo{Limit: &model.Constant{Value: 3}},
			Fields:     []string{"Id", "Total"},
		}},
	}

	res, err := r.Resolve(ast, &eval.Context{Params: map[string]interface{}{"status": "Pending"}})
	require.NoError(t, err)
	require.NotNil(t, res.Projection)
	require.Len(t, res.Projection.Subcollections, 1)
	sub := res.Projection.Subcollections[0]
	assert.Equal(t, "Pending", sub.Filters[0].AndClauses[0].Value)
	require.NotNil(t, sub.Pagination.Limit)
	assert.Equal(t, int64(3), *sub.Pagination.Limit)
	assert.Equal(t, []string{"Id", "Total"}, sub.Fields)
}
