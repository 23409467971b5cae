// Package executor implements the GraphQL execution algorithm: it walks a
// validated document together with the type-system surface and a root value,
// collects and merges field selections, resolves each field through an
// injected Runtime, and assembles a single ordered response tree with the
// error containment rules of the GraphQL response format.
//
// # Execution model
//
// Execution proceeds selection set by selection set:
//
//  1. collectFields groups the selection's field nodes by response key in
//     document order, expanding fragments whose type condition the runtime
//     object type satisfies and honoring @skip/@include.
//  2. Each field group resolves independently: argument coercion, resolver
//     invocation via Runtime.ResolveField, then value completion against the
//     field's declared type.
//  3. Completion recurses back into step 1 for composite values.
//
// Sibling field groups of query operations (and of every nested object) are
// started concurrently, one goroutine per group, with the number of
// simultaneously running resolvers bounded by a limiter channel. Every
// group's result lands in a pre-allocated slot, and the response object is
// assembled only after all groups have settled, so response keys always keep
// selection order and list items keep index order no matter which resolver
// finished first. Mutation root fields are the one exception: they run
// strictly serially in document order, each completed before the next starts.
//
// # Error containment
//
// Field-level failures (resolver errors and panics, bad leaf serialization,
// unresolvable abstract types, nulls for Non-Null positions) never escape the
// field boundary: each is recorded exactly once with its response path and
// source location, and the field contributes null. A null in a Non-Null
// position then bubbles to the nearest nullable ancestor as a purely
// structural second step that adds no further error entries. Only
// request-level failures - unknown or ambiguous operation, missing root
// type, invalid variables - short-circuit before any resolver runs, producing
// a result with errors and no data key at all.
//
// # Subscriptions and incremental delivery
//
// Subscribe resolves the subscription's root field to a source event stream
// (a channel supplied by the runtime) and executes each received event as if
// it were a query, yielding one ExecutionResult per event. ExecuteIncremental
// additionally honors @defer and @stream boundaries: each deferred fragment
// or streamed list item becomes an independent unit of work whose payload is
// delivered on a pull-paced channel after the initial result.
package executor
