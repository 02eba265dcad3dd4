// Package leads provides lead management functionality.
// This file defines the public API of the leads bounded context.
// Only types and interfaces defined here should be imported by other domains.
package leads

import (
	"context"

	"hxms_backend/internal/leads/transport"
	"hxms_backend/internal/scope"
)

// Saver is the single lead save path. The HTTP handler reaches it directly
// or through the queue; the background worker calls it for queued saves.
type Saver interface {
	Save(ctx context.Context, actor scope.Actor, req transport.SaveLeadRequest) (transport.LeadResponse, error)
}
