// Package result holds task status and outcomes, keyed by task id and
// queryable by the gateway's polling endpoint. Records expire after a fixed
// retention window regardless of status.
package result

import (
	"context"
	"errors"

	"github.com/phenopredict/phenogate/internal/task"
)

// ErrNotFound is returned by Get for an id that was never issued or whose
// record has aged out. Callers must keep this distinct from a pending task.
var ErrNotFound = errors.New("result: task not found")

// Record is the stored view of a task. Result is nil until the task reaches
// a terminal status.
type Record struct {
	Status task.Status  `json:"status"`
	Result *task.Result `json:"result"`
}

type Store interface {
	// CreatePending writes the initial PENDING record. The record must be
	// visible to Get before CreatePending returns.
	CreatePending(ctx context.Context, id string) error
	MarkStarted(ctx context.Context, id string) error
	// Complete sets a terminal status (SUCCESS or FAILURE) plus the result.
	Complete(ctx context.Context, id string, status task.Status, res task.Result) error
	Get(ctx context.Context, id string) (Record, error)
}
