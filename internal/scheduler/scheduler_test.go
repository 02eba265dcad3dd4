package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hxms_backend/internal/leads/transport"
	"hxms_backend/internal/scope"
	"hxms_backend/platform/apperr"
	"hxms_backend/platform/logger"
)

type testConfig struct {
	redisURL string
	queue    string
}

func (c testConfig) GetRedisURL() string       { return c.redisURL }
func (c testConfig) GetRedisTLSInsecure() bool { return false }
func (c testConfig) GetAsynqQueueName() string { return c.queue }
func (c testConfig) GetAsynqConcurrency() int  { return 1 }

func str(v string) *string { return &v }

func TestEnqueueLeadSave(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(testConfig{redisURL: "redis://" + mr.Addr(), queue: "leads"})
	require.NoError(t, err)
	defer client.Close()

	taskID, err := client.EnqueueLeadSave(context.Background(), scope.Actor{UserID: 1}, transport.SaveLeadRequest{CustomerName: str("Zhang")})
	require.NoError(t, err)
	assert.NotEmpty(t, taskID)

	pending, err := mr.List("asynq:{leads}:pending")
	require.NoError(t, err)
	assert.Equal(t, []string{taskID}, pending)
}

func TestNewClientRequiresRedis(t *testing.T) {
	_, err := NewClient(testConfig{})
	assert.Error(t, err)
}

func TestLeadSavePayloadRoundTrip(t *testing.T) {
	task, err := NewLeadSaveTask(LeadSavePayload{
		Actor:   scope.Actor{UserID: 7, Roles: []string{"sales_rep"}},
		Request: transport.SaveLeadRequest{CustomerPhone: str("13900000001")},
	})
	require.NoError(t, err)
	assert.Equal(t, TaskLeadSave, task.Type())

	payload, err := ParseLeadSavePayload(task)
	require.NoError(t, err)
	assert.Equal(t, int64(7), payload.Actor.UserID)
	assert.Equal(t, "13900000001", *payload.Request.CustomerPhone)
}

type fakeSaver struct {
	err   error
	calls int
}

func (f *fakeSaver) Save(context.Context, scope.Actor, transport.SaveLeadRequest) (transport.LeadResponse, error) {
	f.calls++
	if f.err != nil {
		return transport.LeadResponse{}, f.err
	}
	return transport.LeadResponse{ID: 11}, nil
}

func TestHandleLeadSave(t *testing.T) {
	task, err := NewLeadSaveTask(LeadSavePayload{Actor: scope.Actor{UserID: 1}})
	require.NoError(t, err)

	cases := []struct {
		name      string
		saveErr   error
		wantErr   bool
		skipRetry bool
	}{
		{name: "ok"},
		{name: "validation", saveErr: apperr.Required("customerName"), wantErr: true, skipRetry: true},
		{name: "forbidden", saveErr: apperr.Forbidden("outside scope"), wantErr: true, skipRetry: true},
		{name: "transient", saveErr: errors.New("connection reset"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			saver := &fakeSaver{err: tc.saveErr}
			w := &Worker{saver: saver, log: logger.Nop()}

			err := w.handleLeadSave(context.Background(), task)
			assert.Equal(t, 1, saver.calls)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestHandleLeadSaveRejectsBadPayload(t *testing.T) {
	w := &Worker{saver: &fakeSaver{}, log: logger.Nop()}
	err := w.handleLeadSave(context.Background(), asynq.NewTask(TaskLeadSave, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
