package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/query/eval"
	"firestore-odm/internal/shared/errors"
)

// The flat include list links children to parents by entity name, so the tree
// must come out the same no matter the order the nodes arrive in.
func TestResolveIncludes_OrderIndependent(t *testing.T) {
	r := newTestResolver(t)

	parentFirst := []model.IncludeInfo{
		{NavigationName: "Customer", TargetEntity: "Customer", CollectionPath: "customers"},
		{NavigationName: "Region", TargetEntity: "Region", CollectionPath: "regions", ParentEntity: "Customer"},
	}
	childFirst := []model.IncludeInfo{
		{NavigationName: "Region", TargetEntity: "Region", CollectionPath: "regions", ParentEntity: "Customer"},
		{NavigationName: "Customer", TargetEntity: "Customer", CollectionPath: "customers"},
	}

	for _, pending := range [][]model.IncludeInfo{parentFirst, childFirst} {
		ast := productAST()
		ast.PendingIncludes = pending

		res, err := r.Resolve(ast, &eval.Context{})
		require.NoError(t, err)
		require.Len(t, res.Includes, 1)

		root := res.Includes[0]
		assert.Equal(t, "Customer", root.NavigationName)
		require.Len(t, root.Children, 1)
		assert.Equal(t, "Region", root.Children[0].NavigationName)
		assert.Empty(t, root.Children[0].Children)
	}
}

func TestResolveIncludes_NodeOptionsResolved(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST()
	ast.PendingIncludes = []model.IncludeInfo{{
		NavigationName: "Items",
		IsCollection:   true,
		TargetEntity:   "OrderItem",
		CollectionPath: "items",
		FilterResults: []model.FilterResult{{AndClauses: []model.WhereClause{
			eqClause("Status", &model.Param{Name: "status"}),
		}}},
		Pagination: &model.PaginationInfo{Limit: &model.Param{Name: "n"}},
	}}

	res, err := r.Resolve(ast, &eval.Context{
		Params: map[string]interface{}{"status": "open", "n": 5},
	})
	require.NoError(t, err)
	require.Len(t, res.Includes, 1)

	node := res.Includes[0]
	assert.True(t, node.IsCollection)
	require.Len(t, node.Filters, 1)
	assert.Equal(t, "open", node.Filters[0].AndClauses[0].Value)
	require.NotNil(t, node.Pagination.Limit)
	assert.Equal(t, int64(5), *node.Pagination.Limit)
}

func TestResolveIncludes_OrphanParentRaises(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST()
	ast.PendingIncludes = []model.IncludeInfo{
		{NavigationName: "Region", TargetEntity: "Region", CollectionPath: "regions", ParentEntity: "Customer"},
	}

	_, err := r.Resolve(ast, &eval.Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidQuery)
	assert.Contains(t, err.Error(), "Region")
	assert.Contains(t, err.Error(), "Customer")
}

func TestResolveIncludes_NodeEvaluationFailurePropagates(t *testing.T) {
	r := newTestResolver(t)

	ast := productAST()
	ast.PendingIncludes = []model.IncludeInfo{{
		NavigationName: "Customer",
		TargetEntity:   "Customer",
		CollectionPath: "customers",
		FilterResults: []model.FilterResult{{AndClauses: []model.WhereClause{
			eqClause("Tier", &model.Param{Name: "missing"}),
		}}},
	}}

	_, err := r.Resolve(ast, &eval.Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownParameter)
}
