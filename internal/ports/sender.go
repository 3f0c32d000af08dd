package ports

import (
	"context"

	"github.com/chadvangaalen/sfr/internal/domain"
)

// BatchSender performs one wire call delivering a batch to the telemetry
// service. Any returned error is treated as a transport-level failure and
// retried; a decoded reply is final, whatever its status codes say.
type BatchSender interface {
	Send(ctx context.Context, batch domain.Batch) (*domain.Reply, error)
}
