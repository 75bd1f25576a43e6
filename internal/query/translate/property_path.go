package translate

import (
	"firestore-odm/internal/query/domain/model"
)

// propertyPath resolves a selector expression to a dotted property path,
// unwrapping casts used for enum comparisons. ok is false when the expression
// is not property-shaped.
func propertyPath(e model.Expr) (path string, enumType string, ok bool) {
	switch n := e.(type) {
	case *model.Property:
		return n.Path, n.EnumType, true
	case *model.Cast:
		path, inner, ok := propertyPath(n.Operand)
		if !ok {
			return "", "", false
		}
		// The outermost cast names the enum; an inner annotation wins only
		// when the cast carries none.
		if n.EnumType != "" {
			return path, n.EnumType, true
		}
		return path, inner, true
	default:
		return "", "", false
	}
}

// asValueExpr narrows an expression-tree node to a deferred clause value.
func asValueExpr(e model.Expr) (model.ValueExpr, bool) {
	switch n := e.(type) {
	case *model.Constant:
		return n, true
	case *model.Param:
		return n, true
	case *model.ExecContext:
		return n, true
	case *model.Compute:
		return n, true
	default:
		return nil, false
	}
}
