package notify

import (
	"context"
	"encoding/json"
	"testing"

	"zamora-controlplane/pkg/config"
	"zamora-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type captureMessenger struct {
	to   string
	body string
	err  error
}

func (m *captureMessenger) Send(ctx context.Context, to, body string) error {
	if m.err != nil {
		return m.err
	}
	m.to = to
	m.body = body
	return nil
}

func newTestWorker(m Messenger) *Worker {
	cfg := &config.Config{}
	cfg.Licensing.SupportRecipient = "+260000000000"
	return NewWorker(WorkerParams{Config: cfg, Messenger: m})
}

func TestHandleLicenseRequest(t *testing.T) {
	m := &captureMessenger{}
	w := newTestWorker(m)

	payload, err := json.Marshal(LicenseRequestPayload{
		PropertyID:   "prop-1",
		PropertyName: "Livingstone Lodge",
		RequesterID:  "user-1",
		DurationDays: 60,
		Message:      "License request: Livingstone Lodge wants 60 days",
	})
	require.NoError(t, err)

	task := asynq.NewTask(taskname.LicenseRequestNotify, payload)
	require.NoError(t, w.HandleLicenseRequest(context.Background(), task))
	require.Equal(t, "+260000000000", m.to)
	require.Contains(t, m.body, "Livingstone Lodge")
}

func TestHandleLicenseRequestBadPayload(t *testing.T) {
	w := newTestWorker(&captureMessenger{})

	task := asynq.NewTask(taskname.LicenseRequestNotify, []byte("not json"))
	require.Error(t, w.HandleLicenseRequest(context.Background(), task))
}

func TestHandleLicenseActivated(t *testing.T) {
	m := &captureMessenger{}
	w := newTestWorker(m)

	payload, err := json.Marshal(LicenseActivatedPayload{
		PropertyID: "prop-1",
		LicenseKey: "ZAMR-AAAA-BBBB-CCCC",
		Message:    "License ZAMR-AAAA-BBBB-CCCC activated",
	})
	require.NoError(t, err)

	task := asynq.NewTask(taskname.LicenseActivatedNotify, payload)
	require.NoError(t, w.HandleLicenseActivated(context.Background(), task))
	require.Contains(t, m.body, "ZAMR-AAAA-BBBB-CCCC")
}
