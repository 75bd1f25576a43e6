package eval

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	lru "github.com/hashicorp/golang-lru/v2"

	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/shared/errors"
	"firestore-odm/internal/shared/logger"
)

// prefixSentinel is the maximum Unicode codepoint. Appending it to an
// evaluated prefix forms the exclusive upper bound of a prefix range scan.
const prefixSentinel = "\U0010FFFF"

// Context carries the per-call values a resolution runs against. Params binds
// named parameters; Exec is the per-call execution context object that
// find-by-key calls dereference directly. Each resolution must own its
// Context; the pipeline never mutates it.
type Context struct {
	Params map[string]interface{}
	Exec   interface{}
}

// Evaluator turns deferred value expressions into concrete runtime values.
// Computed sub-expressions are CEL: compiled once, cached, then executed
// against the call's params and context object.
type Evaluator struct {
	env      *cel.Env
	programs *lru.Cache[string, cel.Program]
	log      logger.Logger
}

// NewEvaluator creates an evaluator with a bounded program cache.
func NewEvaluator(cacheSize int, log logger.Logger) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("params", decls.NewMapType(decls.String, decls.Dyn)),
			decls.NewVar("ctx", decls.Dyn),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}
	programs, err := lru.New[string, cel.Program](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create program cache: %w", err)
	}
	if log == nil {
		log = logger.WithComponent("query.eval")
	}
	return &Evaluator{env: env, programs: programs, log: log}, nil
}

// Evaluate produces the concrete value of a deferred expression. Literals
// take the fast path with no compilation. Every failure propagates: a value
// that cannot be evaluated must never silently become null, which would
// change the meaning of the filter it feeds.
func (ev *Evaluator) Evaluate(expr model.ValueExpr, vc *Context) (interface{}, error) {
	switch n := expr.(type) {
	case *model.Constant:
		return n.Value, nil

	case *model.Param:
		if vc == nil || vc.Params == nil {
			return nil, errors.NewEvaluationError(
				fmt.Sprintf("parameter %q referenced but no parameters bound", n.Name),
				errors.ErrUnknownParameter)
		}
		v, ok := vc.Params[n.Name]
		if !ok {
			return nil, errors.NewEvaluationError(
				fmt.Sprintf("parameter %q not bound in value context", n.Name),
				errors.ErrUnknownParameter)
		}
		return v, nil

	case *model.ExecContext:
		if vc == nil {
			return nil, errors.NewEvaluationError("execution context referenced but none bound", nil)
		}
		if n.Path == "" {
			return vc.Exec, nil
		}
		return derefPath(vc.Exec, n.Path)

	case *model.Compute:
		return ev.evalProgram(n.Source, vc)

	case *model.PrefixSuccessor:
		inner, err := ev.Evaluate(n.Inner, vc)
		if err != nil {
			return nil, err
		}
		s, ok := inner.(string)
		if !ok {
			return nil, errors.NewEvaluationError(
				fmt.Sprintf("prefix bound requires a string, got %T", inner), nil)
		}
		return s + prefixSentinel, nil

	default:
		return nil, errors.NewEvaluationError(
			fmt.Sprintf("unrecognized value expression %T", expr), nil)
	}
}

// program returns the compiled form of a computed expression, compiling at
// most once per source.
func (ev *Evaluator) program(source string) (cel.Program, error) {
	if prog, ok := ev.programs.Get(source); ok {
		return prog, nil
	}
	ast, issues := ev.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, errors.NewEvaluationError(
			fmt.Sprintf("failed to compile value expression %q", source), issues.Err())
	}
	prog, err := ev.env.Program(ast)
	if err != nil {
		return nil, errors.NewEvaluationError(
			fmt.Sprintf("failed to build program for %q", source), err)
	}
	ev.programs.Add(source, prog)
	return prog, nil
}

func (ev *Evaluator) evalProgram(source string, vc *Context) (interface{}, error) {
	prog, err := ev.program(source)
	if err != nil {
		return nil, err
	}
	activation := map[string]interface{}{
		"params": map[string]interface{}{},
		"ctx":    map[string]interface{}{},
	}
	if vc != nil {
		if vc.Params != nil {
			activation["params"] = vc.Params
		}
		if vc.Exec != nil {
			activation["ctx"] = vc.Exec
		}
	}
	out, _, err := prog.Eval(activation)
	if err != nil {
		return nil, errors.NewEvaluationError(
			fmt.Sprintf("value expression %q failed", source), err)
	}
	return out.Value(), nil
}

// derefPath walks a dotted path through struct fields and string-keyed maps.
func derefPath(root interface{}, path string) (interface{}, error) {
	cur := root
	for _, seg := range strings.Split(path, ".") {
		if cur == nil {
			return nil, errors.NewEvaluationError(
				fmt.Sprintf("cannot dereference %q through nil", path), nil)
		}
		v := reflect.ValueOf(cur)
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil, errors.NewEvaluationError(
					fmt.Sprintf("cannot dereference %q through nil", path), nil)
			}
			v = v.Elem()
		}
		switch v.Kind() {
		case reflect.Struct:
			f := v.FieldByName(seg)
			if !f.IsValid() {
				return nil, errors.NewEvaluationError(
					fmt.Sprintf("execution context has no field %q in path %q", seg, path), nil)
			}
			cur = f.Interface()
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return nil, errors.NewEvaluationError(
					fmt.Sprintf("execution context map in path %q is not string-keyed", path), nil)
			}
			mv := v.MapIndex(reflect.ValueOf(seg))
			if !mv.IsValid() {
				return nil, errors.NewEvaluationError(
					fmt.Sprintf("execution context has no key %q in path %q", seg, path), nil)
			}
			cur = mv.Interface()
		default:
			return nil, errors.NewEvaluationError(
				fmt.Sprintf("cannot dereference segment %q of path %q on %s", seg, path, v.Kind()), nil)
		}
	}
	return cur, nil
}
