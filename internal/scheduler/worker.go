package scheduler

import (
	"context"
	"fmt"

	"hxms_backend/internal/leads"
	"hxms_backend/platform/apperr"
	"hxms_backend/platform/config"
	"hxms_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	saver  leads.Saver
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, saver leads.Saver, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		saver:  saver,
		log:    log,
	}

	mux.HandleFunc(TaskLeadSave, w.handleLeadSave)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleLeadSave runs a queued save. Failures a retry cannot fix are not retried.
func (w *Worker) handleLeadSave(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadSavePayload(task)
	if err != nil {
		return fmt.Errorf("%w: decode lead save: %v", asynq.SkipRetry, err)
	}

	lead, err := w.saver.Save(ctx, payload.Actor, payload.Request)
	if err != nil {
		if permanent(err) {
			w.log.Warn("queued lead save rejected", "userId", payload.Actor.UserID, "error", err)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	w.log.Info("queued lead save done", "leadId", lead.ID, "userId", payload.Actor.UserID)
	return nil
}

func permanent(err error) bool {
	switch apperr.GetKind(err) {
	case apperr.KindValidation, apperr.KindBadRequest, apperr.KindForbidden, apperr.KindNotFound, apperr.KindConflict:
		return true
	default:
		return false
	}
}
