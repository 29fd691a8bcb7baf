// Package task defines the unit of asynchronous work, the handler contract,
// and the static name-to-queue routing.
package task

import (
	"context"
	"encoding/json"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusStarted Status = "STARTED"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Task is the message published to the broker. Routing is resolved at
// enqueue time and baked in; workers never re-resolve it.
type Task struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Queue   string          `json:"queue"`
	Payload json.RawMessage `json:"payload"`
}

// Result is what every handler returns. Downstream failures are data: a
// handler that reaches its collaborator and gets an error back still returns
// a Result (with OK=false), and the task completes as SUCCESS.
type Result struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func Ok(data any) Result       { return Result{OK: true, Data: data} }
func Fail(msg string) Result   { return Result{OK: false, Error: msg} }
func FailErr(err error) Result { return Result{OK: false, Error: err.Error()} }

// Handler executes one task. It must fold its own downstream errors into the
// returned Result; a panic is the only way it can fail the task itself.
type Handler func(ctx context.Context, payload json.RawMessage) Result
