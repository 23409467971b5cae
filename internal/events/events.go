// Package events defines the execution events published through the eventbus.
// Subscribers (tracing, logging, metrics) attach without the executor knowing
// about them.
package events

import "time"

// OperationStart is emitted before an operation's root selection executes.
// For subscriptions it is emitted once per source event.
type OperationStart struct {
	OperationName string
	OperationType string
}

// OperationFinish is emitted after the operation's response tree is
// assembled.
type OperationFinish struct {
	OperationName string
	OperationType string
	ErrorCount    int
	Duration      time.Duration
}

// FieldStart is emitted before a field's resolver is invoked.
type FieldStart struct {
	ParentType string
	Field      string
	Path       string
}

// FieldFinish is emitted once the resolver (including an awaited thunk) has
// settled. Err is the resolver's failure, if any, before error wrapping.
type FieldFinish struct {
	ParentType string
	Field      string
	Path       string
	Duration   time.Duration
	Err        error
}

// SubscriptionEvent is emitted when a source event is received, before its
// per-event execution.
type SubscriptionEvent struct {
	OperationName string
	Seq           int
}
