package query

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"firestore-odm/internal/query/config"
	"firestore-odm/internal/query/domain/metadata"
	"firestore-odm/internal/query/domain/model"
	"firestore-odm/internal/query/eval"
	"firestore-odm/internal/query/resolve"
	"firestore-odm/internal/query/translate"
	"firestore-odm/internal/shared/logger"
)

// Pipeline wires the translation-and-resolution stages together: host query
// expressions go in, immutable execution plans come out. The pipeline holds
// no per-call state; one instance serves concurrent queries as long as each
// call owns its value context.
type Pipeline struct {
	Config     *config.Config
	Translator *translate.Translator
	Resolver   *resolve.Resolver
	Logger     logger.Logger

	shapes *lru.Cache[string, *model.QueryExpression]
}

// NewPipeline creates a pipeline over the given model metadata.
func NewPipeline(meta metadata.Source, cfg *config.Config, log logger.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFormat)
	}

	evaluator, err := eval.NewEvaluator(cfg.ProgramCacheSize, log.WithComponent("query.eval"))
	if err != nil {
		return nil, err
	}
	converter := eval.NewConverter(meta, cfg)

	shapes, err := lru.New[string, *model.QueryExpression](cfg.ShapeCacheSize)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Config:     cfg,
		Translator: translate.NewTranslator(meta, log.WithComponent("query.translate")),
		Resolver:   resolve.NewResolver(meta, evaluator, converter, log.WithComponent("query.resolve")),
		Logger:     log,
		shapes:     shapes,
	}, nil
}

// Compile translates one query shape into its AST.
func (p *Pipeline) Compile(spec *model.QuerySpec) (*model.QueryExpression, error) {
	return p.Translator.Translate(spec)
}

// CompileCached translates one query shape, reusing the cached AST when the
// host has seen the shape before. The AST carries only deferred expressions,
// so sharing it across calls is safe.
func (p *Pipeline) CompileCached(shapeKey string, spec *model.QuerySpec) (*model.QueryExpression, error) {
	if ast, ok := p.shapes.Get(shapeKey); ok {
		return ast, nil
	}
	ast, err := p.Translator.Translate(spec)
	if err != nil {
		return nil, err
	}
	p.shapes.Add(shapeKey, ast)
	return ast, nil
}

// Resolve evaluates one AST against a per-call value context and emits the
// execution plan.
func (p *Pipeline) Resolve(ast *model.QueryExpression, vc *eval.Context) (*model.ResolvedQuery, error) {
	return p.Resolver.Resolve(ast, vc)
}

// Plan compiles and resolves in one step, for hosts that do not cache shapes.
func (p *Pipeline) Plan(spec *model.QuerySpec, vc *eval.Context) (*model.ResolvedQuery, error) {
	ast, err := p.Compile(spec)
	if err != nil {
		return nil, err
	}
	return p.Resolve(ast, vc)
}
