package server

import (
	"context"

	"github.com/preston-bernstein/racket-score-service/internal/results"
)

// Uploader defines the minimal result uploader behavior needed by the server.
type Uploader interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() results.Status
}
