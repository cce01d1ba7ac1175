// Package prioritizer defines the port for the remote prioritization service.
package prioritizer

import (
	"context"

	"github.com/Strob0t/TaskFlow/internal/domain/prioritization"
)

// Prioritizer scores a task set. Implementations return results for some or
// all of the submitted ids, or an error when the call fails or the response
// does not match the result schema.
type Prioritizer interface {
	Prioritize(ctx context.Context, tasks []prioritization.Input) ([]prioritization.Result, error)
}
