package service

import (
	"context"

	"hxms_backend/internal/leads/ports"
	"hxms_backend/internal/leads/transport"
	"hxms_backend/internal/scope"
	"hxms_backend/platform/metrics"
)

// LeadSaveStrategy decides where a lead save runs.
type LeadSaveStrategy interface {
	Save(ctx context.Context, actor scope.Actor, req transport.SaveLeadRequest) (transport.SaveLeadResponse, error)
}

// DirectStrategy saves within the request.
type DirectStrategy struct {
	svc *Service
}

// NewDirectStrategy creates a DirectStrategy.
func NewDirectStrategy(svc *Service) *DirectStrategy {
	return &DirectStrategy{svc: svc}
}

// Save runs the save synchronously.
func (d *DirectStrategy) Save(ctx context.Context, actor scope.Actor, req transport.SaveLeadRequest) (transport.SaveLeadResponse, error) {
	lead, err := d.svc.Save(ctx, actor, req)
	if err != nil {
		return transport.SaveLeadResponse{}, err
	}
	return transport.SaveLeadResponse{Lead: &lead}, nil
}

// QueuedStrategy validates what it can up front and hands the save to the
// background worker, which runs the same Service.Save.
type QueuedStrategy struct {
	enqueuer ports.LeadSaveEnqueuer
	metrics  *metrics.Metrics
}

// NewQueuedStrategy creates a QueuedStrategy. m may be nil.
func NewQueuedStrategy(enqueuer ports.LeadSaveEnqueuer, m *metrics.Metrics) *QueuedStrategy {
	return &QueuedStrategy{enqueuer: enqueuer, metrics: m}
}

// Save enqueues the request and returns its task id.
func (q *QueuedStrategy) Save(ctx context.Context, actor scope.Actor, req transport.SaveLeadRequest) (transport.SaveLeadResponse, error) {
	if !req.IsEdit() {
		if err := ValidateCreate(req); err != nil {
			q.metrics.ObserveLeadSave("queued", "invalid", 0)
			return transport.SaveLeadResponse{}, err
		}
	}

	taskID, err := q.enqueuer.EnqueueLeadSave(ctx, actor, req)
	if err != nil {
		q.metrics.ObserveLeadSave("queued", "error", 0)
		return transport.SaveLeadResponse{}, err
	}
	q.metrics.ObserveLeadSave("queued", "enqueued", 0)
	return transport.SaveLeadResponse{Queued: true, TaskID: taskID}, nil
}

var (
	_ LeadSaveStrategy = (*DirectStrategy)(nil)
	_ LeadSaveStrategy = (*QueuedStrategy)(nil)
)
