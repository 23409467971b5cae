// Package graphlet is an embeddable GraphQL execution engine. It parses and
// validates executable documents with gqlparser, then drives the execution
// algorithm in internal/executor: concurrent field resolution with ordered
// responses, null propagation, abstract types, variable coercion,
// subscriptions and incremental delivery via @defer and @stream.
//
// The minimal embedding is a schema plus a Resolvers value:
//
//	schema, err := graphlet.ParseSchema(sdl)
//	engine := graphlet.New(schema, &graphlet.Resolvers{
//		Fields: map[string]graphlet.FieldResolver{
//			"Query.hello": func(ctx context.Context, source any, args map[string]any) (any, error) {
//				return "world", nil
//			},
//		},
//	})
//	resp := engine.Do(ctx, graphlet.Request{Query: "{ hello }"})
package graphlet

import (
	"context"

	"github.com/vektah/gqlparser/v2/gqlerror"

	executor "github.com/hanpama/graphlet/internal/executor"
	introspection "github.com/hanpama/graphlet/internal/introspection"
	language "github.com/hanpama/graphlet/internal/language"
	reqid "github.com/hanpama/graphlet/internal/reqid"
	schema "github.com/hanpama/graphlet/internal/schema"
)

// Schema pairs the parsed SDL (used for document validation) with the
// executable type-system surface the executor reads.
type Schema struct {
	source *language.Schema
	types  *schema.Schema
}

// ParseSchema parses and validates an SDL document.
func ParseSchema(sdl string) (*Schema, error) {
	src, err := language.LoadSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}
	return &Schema{source: src, types: schema.FromAST(src)}, nil
}

// Types exposes the executable type-system surface, mainly for callers
// implementing executor.Runtime directly.
func (s *Schema) Types() *schema.Schema { return s.types }

// Request is one GraphQL request against an Engine.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any
	Root          any
}

// Response is the GraphQL response format; it marshals with the data key
// omitted for request-level failures.
type Response = executor.ExecutionResult

// GraphQLError is re-exported for callers inspecting Response.Errors.
type GraphQLError = executor.GraphQLError

// IncrementalPayload is one deferred or streamed unit from DoIncremental.
type IncrementalPayload = executor.IncrementalPayload

// Engine executes requests against one schema and one runtime.
type Engine struct {
	schema  *Schema
	exec    *executor.Executor
	runtime executor.Runtime
}

type config struct {
	maxParallelism int
	introspection  bool
}

type Option func(*config)

// WithMaxParallelism bounds the number of concurrently running resolvers.
func WithMaxParallelism(n int) Option {
	return func(c *config) { c.maxParallelism = n }
}

// WithoutIntrospection disables the __schema and __type entry points.
func WithoutIntrospection() Option {
	return func(c *config) { c.introspection = false }
}

// New builds an Engine over the schema and runtime. Unless disabled, the
// runtime is wrapped to serve introspection fields.
func New(s *Schema, runtime executor.Runtime, opts ...Option) *Engine {
	cfg := config{introspection: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	types := s.types
	if cfg.introspection {
		wrapper := introspection.Wrap(runtime, s.types)
		runtime = wrapper.Runtime
		types = wrapper.Schema
	}

	var execOpts []executor.Option
	if cfg.maxParallelism > 0 {
		execOpts = append(execOpts, executor.WithMaxParallelism(cfg.maxParallelism))
	}
	return &Engine{
		schema:  s,
		exec:    executor.NewExecutor(runtime, types, execOpts...),
		runtime: runtime,
	}
}

// Do parses, validates and executes one request. Parse and validation
// failures produce a response with errors and no data key; execution failures
// follow the partial-success rules of the response format.
func (e *Engine) Do(ctx context.Context, req Request) *Response {
	ctx, _ = reqid.NewContext(ctx)
	doc, errResp := e.prepareDocument(req.Query)
	if errResp != nil {
		return errResp
	}
	return e.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, req.Root)
}

// Subscribe sets up a subscription and returns one response per source event.
// Setup failures (including parse and validation errors) yield a single
// response on the returned channel.
func (e *Engine) Subscribe(ctx context.Context, req Request) <-chan *Response {
	ctx, _ = reqid.NewContext(ctx)
	doc, errResp := e.prepareDocument(req.Query)
	if errResp != nil {
		out := make(chan *Response, 1)
		out <- errResp
		close(out)
		return out
	}
	return e.exec.Subscribe(ctx, doc, req.OperationName, req.Variables, req.Root)
}

// DoIncremental executes like Do but honors @defer and @stream, returning the
// initial response plus a channel of incremental payloads.
func (e *Engine) DoIncremental(ctx context.Context, req Request) (*Response, <-chan *IncrementalPayload) {
	ctx, _ = reqid.NewContext(ctx)
	doc, errResp := e.prepareDocument(req.Query)
	if errResp != nil {
		payloads := make(chan *IncrementalPayload)
		close(payloads)
		return errResp, payloads
	}
	return e.exec.ExecuteIncremental(ctx, doc, req.OperationName, req.Variables, req.Root)
}

func (e *Engine) prepareDocument(query string) (*language.QueryDocument, *Response) {
	doc, err := language.ParseQuery(query)
	if err != nil {
		return nil, &Response{Errors: toGraphQLErrors(err)}
	}
	if errs := language.Validate(e.schema.source, doc); len(errs) > 0 {
		return nil, &Response{Errors: toGraphQLErrors(errs)}
	}
	return doc, nil
}

func toGraphQLErrors(err error) []GraphQLError {
	switch e := err.(type) {
	case gqlerror.List:
		out := make([]GraphQLError, 0, len(e))
		for _, item := range e {
			out = append(out, fromGQLError(item))
		}
		return out
	case *gqlerror.Error:
		return []GraphQLError{fromGQLError(e)}
	default:
		return []GraphQLError{{Message: err.Error()}}
	}
}

func fromGQLError(err *gqlerror.Error) GraphQLError {
	out := GraphQLError{Message: err.Message, Extensions: err.Extensions}
	for _, loc := range err.Locations {
		out.Locations = append(out.Locations, executor.Location{Line: loc.Line, Column: loc.Column})
	}
	for _, elem := range err.Path {
		out.Path = append(out.Path, elem)
	}
	return out
}
