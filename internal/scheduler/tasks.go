package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"hxms_backend/internal/leads/transport"
	"hxms_backend/internal/scope"
)

const TaskLeadSave = "leads.save"

// LeadSavePayload carries a lead save to the worker together with the actor
// it runs as.
type LeadSavePayload struct {
	Actor   scope.Actor               `json:"actor"`
	Request transport.SaveLeadRequest `json:"request"`
}

func NewLeadSaveTask(payload LeadSavePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadSave, data), nil
}

func ParseLeadSavePayload(task *asynq.Task) (LeadSavePayload, error) {
	var payload LeadSavePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadSavePayload{}, err
	}
	return payload, nil
}
