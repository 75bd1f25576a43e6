package translate

import (
	"fmt"

	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/shared/errors"
)

// TranslateFilter turns a boolean expression tree into the store's normal
// form: AND clauses plus at most one level of disjunction. A nil expression
// yields a nil result (no filter requested). An expression shape the store
// cannot express raises; nothing is ever silently dropped.
func (t *Translator) TranslateFilter(e model.Expr) (*model.FilterResult, error) {
	if e == nil {
		return nil, nil
	}
	switch n := e.(type) {
	case *model.And:
		res := &model.FilterResult{}
		if err := t.flattenAnd(n, res); err != nil {
			return nil, err
		}
		return res, nil
	case *model.Or:
		group, err := t.flattenOr(n)
		if err != nil {
			return nil, err
		}
		return &model.FilterResult{OrGroup: group}, nil
	default:
		clauses, err := t.translateLeaf(e)
		if err != nil {
			return nil, err
		}
		return &model.FilterResult{AndClauses: clauses}, nil
	}
}

// flattenAnd collects simple comparisons associatively. An OR sub-expression
// encountered while flattening stays intact as one nested group; merging it
// into the AND clauses would change meaning.
func (t *Translator) flattenAnd(e model.Expr, res *model.FilterResult) error {
	switch n := e.(type) {
	case *model.And:
		if err := t.flattenAnd(n.Left, res); err != nil {
			return err
		}
		return t.flattenAnd(n.Right, res)
	case *model.Or:
		group, err := t.flattenOr(n)
		if err != nil {
			return err
		}
		res.NestedOrGroups = append(res.NestedOrGroups, group)
		return nil
	default:
		clauses, err := t.translateLeaf(e)
		if err != nil {
			return err
		}
		res.AndClauses = append(res.AndClauses, clauses...)
		return nil
	}
}

// flattenOr collects the members of a disjunction. Each member must reduce to
// exactly one clause: the store cannot nest a conjunction inside an OR group.
func (t *Translator) flattenOr(e model.Expr) ([]model.WhereClause, error) {
	switch n := e.(type) {
	case *model.Or:
		left, err := t.flattenOr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.flattenOr(n.Right)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case *model.And:
		return nil, errors.NewTranslationError("store cannot nest AND inside an OR group")
	default:
		clauses, err := t.translateLeaf(e)
		if err != nil {
			return nil, err
		}
		if len(clauses) != 1 {
			return nil, errors.NewTranslationError(
				"predicate expands to multiple clauses and cannot be a member of an OR group")
		}
		return clauses, nil
	}
}

// translateLeaf translates a single predicate node. Most shapes yield one
// clause; StartsWith yields the two clauses of its range scan.
func (t *Translator) translateLeaf(e model.Expr) ([]model.WhereClause, error) {
	switch n := e.(type) {
	case *model.Binary:
		cl, err := t.comparisonClause(n)
		if err != nil {
			return nil, err
		}
		return []model.WhereClause{cl}, nil

	case *model.Property, *model.Cast:
		// Bare boolean property access: x.Flag.
		path, enumType, ok := propertyPath(n)
		if !ok {
			return nil, t.unsupported(e)
		}
		return []model.WhereClause{{
			PropertyPath: path,
			Operator:     model.OperatorEqual,
			Value:        &model.Constant{Value: true},
			EnumType:     enumType,
		}}, nil

	case *model.Not:
		return t.translateNegated(n.Operand)

	case *model.Call:
		return t.translateCall(n)

	default:
		return nil, t.unsupported(e)
	}
}

// comparisonClause identifies which operand is the property path; the other
// becomes the deferred clause value. When the property sits on the right the
// operator is mirrored.
func (t *Translator) comparisonClause(n *model.Binary) (model.WhereClause, error) {
	path, enumType, ok := propertyPath(n.Left)
	other := n.Right
	op := n.Op
	if !ok {
		path, enumType, ok = propertyPath(n.Right)
		other = n.Left
		op = mirrorOperator(n.Op)
		if !ok {
			return model.WhereClause{}, errors.NewTranslationError(
				"comparison has no property-path operand")
		}
	}
	val, ok := asValueExpr(other)
	if !ok {
		return model.WhereClause{}, errors.NewTranslationError(
			fmt.Sprintf("comparison value for %q is not a resolvable expression", path))
	}
	return model.WhereClause{PropertyPath: path, Operator: op, Value: val, EnumType: enumType}, nil
}

// mirrorOperator flips a comparison when the property operand is on the right.
func mirrorOperator(op model.Operator) model.Operator {
	switch op {
	case model.OperatorLessThan:
		return model.OperatorGreaterThan
	case model.OperatorLessThanOrEqual:
		return model.OperatorGreaterThanOrEqual
	case model.OperatorGreaterThan:
		return model.OperatorLessThan
	case model.OperatorGreaterThanOrEqual:
		return model.OperatorLessThanOrEqual
	default:
		return op
	}
}

func (t *Translator) translateCall(n *model.Call) ([]model.WhereClause, error) {
	switch n.Kind {
	case model.CallContains:
		cl, err := t.membershipClause(n.Target, n.Args, model.OperatorIn)
		if err != nil {
			return nil, err
		}
		return []model.WhereClause{cl}, nil

	case model.CallContainsStatic:
		if len(n.Args) != 2 {
			return nil, errors.NewValidationError("static Contains call needs a list and a selector")
		}
		cl, err := t.membershipClause(n.Args[0], n.Args[1:], model.OperatorIn)
		if err != nil {
			return nil, err
		}
		return []model.WhereClause{cl}, nil

	case model.CallStartsWith:
		return t.startsWithClauses(n)

	case model.CallArrayContains:
		cl, err := t.arrayClause(n, model.OperatorArrayContains)
		if err != nil {
			return nil, err
		}
		return []model.WhereClause{cl}, nil

	case model.CallArrayContainsAny:
		cl, err := t.arrayClause(n, model.OperatorArrayContainsAny)
		if err != nil {
			return nil, err
		}
		return []model.WhereClause{cl}, nil

	case model.CallEqualsStatic:
		if len(n.Args) != 2 {
			return nil, errors.NewValidationError("static Equals call needs two operands")
		}
		cl, err := t.equalsClause(n.Args[0], n.Args[1])
		if err != nil {
			return nil, err
		}
		return []model.WhereClause{cl}, nil

	case model.CallEqualsInstance:
		if n.Target == nil || len(n.Args) != 1 {
			return nil, errors.NewValidationError("instance Equals call needs a target and one operand")
		}
		cl, err := t.equalsClause(n.Target, n.Args[0])
		if err != nil {
			return nil, err
		}
		return []model.WhereClause{cl}, nil

	default:
		return nil, t.unsupported(n)
	}
}

// membershipClause builds an IN / NOT-IN clause: list holds the candidates,
// args[0] the property selector.
func (t *Translator) membershipClause(list model.Expr, args []model.Expr, op model.Operator) (model.WhereClause, error) {
	if len(args) != 1 {
		return model.WhereClause{}, errors.NewValidationError("Contains call needs exactly one selector")
	}
	path, enumType, ok := propertyPath(args[0])
	if !ok {
		return model.WhereClause{}, errors.NewTranslationError(
			"Contains selector is not a property path")
	}
	val, ok := asValueExpr(list)
	if !ok {
		return model.WhereClause{}, errors.NewTranslationError(
			fmt.Sprintf("candidate list for %q is not a resolvable expression", path))
	}
	return model.WhereClause{PropertyPath: path, Operator: op, Value: val, EnumType: enumType}, nil
}

// startsWithClauses simulates prefix search via a range scan: the store has
// no native substring operator, so prefix matching becomes
// Gte(prefix) && Lt(successor(prefix)).
func (t *Translator) startsWithClauses(n *model.Call) ([]model.WhereClause, error) {
	path, _, ok := propertyPath(n.Target)
	if !ok {
		return nil, errors.NewTranslationError("StartsWith target is not a property path")
	}
	if len(n.Args) != 1 {
		return nil, errors.NewValidationError("StartsWith needs exactly one prefix argument")
	}
	prefix, ok := asValueExpr(n.Args[0])
	if !ok {
		return nil, errors.NewTranslationError(
			fmt.Sprintf("StartsWith prefix for %q is not a resolvable expression", path))
	}
	return []model.WhereClause{
		{PropertyPath: path, Operator: model.OperatorGreaterThanOrEqual, Value: prefix},
		{PropertyPath: path, Operator: model.OperatorLessThan, Value: &model.PrefixSuccessor{Inner: prefix}},
	}, nil
}

func (t *Translator) arrayClause(n *model.Call, op model.Operator) (model.WhereClause, error) {
	path, _, ok := propertyPath(n.Target)
	if !ok {
		return model.WhereClause{}, errors.NewTranslationError(
			"array membership target is not a property path")
	}
	if len(n.Args) != 1 {
		return model.WhereClause{}, errors.NewValidationError("array membership needs one candidate argument")
	}
	val, ok := asValueExpr(n.Args[0])
	if !ok {
		return model.WhereClause{}, errors.NewTranslationError(
			fmt.Sprintf("array membership candidate for %q is not a resolvable expression", path))
	}
	return model.WhereClause{PropertyPath: path, Operator: op, Value: val}, nil
}

// equalsClause handles boxed Equals(a, b) comparisons. Whichever operand is
// property-shaped becomes the clause path; when both are, the left wins.
func (t *Translator) equalsClause(a, b model.Expr) (model.WhereClause, error) {
	if path, enumType, ok := propertyPath(a); ok {
		val, ok := asValueExpr(b)
		if !ok {
			return model.WhereClause{}, errors.NewTranslationError(
				fmt.Sprintf("Equals value for %q is not a resolvable expression", path))
		}
		return model.WhereClause{PropertyPath: path, Operator: model.OperatorEqual, Value: val, EnumType: enumType}, nil
	}
	if path, enumType, ok := propertyPath(b); ok {
		val, ok := asValueExpr(a)
		if !ok {
			return model.WhereClause{}, errors.NewTranslationError(
				fmt.Sprintf("Equals value for %q is not a resolvable expression", path))
		}
		return model.WhereClause{PropertyPath: path, Operator: model.OperatorEqual, Value: val, EnumType: enumType}, nil
	}
	return model.WhereClause{}, errors.NewTranslationError("Equals call has no property-path operand")
}

// translateNegated handles the recognized negation shapes. Negated array
// membership is a hard unsupported-operation error: the store has no operator
// for it, so the query must fail before any plan exists.
func (t *Translator) translateNegated(inner model.Expr) ([]model.WhereClause, error) {
	switch n := inner.(type) {
	case *model.Property, *model.Cast:
		path, enumType, ok := propertyPath(n)
		if !ok {
			return nil, t.unsupported(inner)
		}
		return []model.WhereClause{{
			PropertyPath: path,
			Operator:     model.OperatorEqual,
			Value:        &model.Constant{Value: false},
			EnumType:     enumType,
		}}, nil

	case *model.Call:
		switch n.Kind {
		case model.CallContains:
			cl, err := t.membershipClause(n.Target, n.Args, model.OperatorNotIn)
			if err != nil {
				return nil, err
			}
			return []model.WhereClause{cl}, nil
		case model.CallContainsStatic:
			if len(n.Args) != 2 {
				return nil, errors.NewValidationError("static Contains call needs a list and a selector")
			}
			cl, err := t.membershipClause(n.Args[0], n.Args[1:], model.OperatorNotIn)
			if err != nil {
				return nil, err
			}
			return []model.WhereClause{cl}, nil
		case model.CallArrayContains, model.CallArrayContainsAny:
			path, _, _ := propertyPath(n.Target)
			return nil, errors.NewUnsupportedOperationError(path, "negated array membership")
		default:
			return nil, t.unsupported(inner)
		}

	default:
		return nil, t.unsupported(inner)
	}
}

func (t *Translator) unsupported(e model.Expr) error {
	err := errors.NewTranslationError(fmt.Sprintf("cannot translate expression node %T", e)).
		WithComponent("query.translate")
	t.log.WithError(err).Debugf("rejected expression node %T", e)
	return err
}
