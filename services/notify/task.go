package notify

import (
	"context"
	"encoding/json"

	"zamora-controlplane/pkg/config"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Worker struct {
	config    *config.Config
	messenger Messenger
}

type WorkerParams struct {
	fx.In
	Config    *config.Config
	Messenger Messenger
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		config:    p.Config,
		messenger: p.Messenger,
	}
}

// HandleLicenseRequest forwards a storefront license request to the support
// recipient for manual follow-up. Activation stays a manual admin step.
func (w *Worker) HandleLicenseRequest(ctx context.Context, t *asynq.Task) error {
	var payload LicenseRequestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		zap.L().Error("failed to decode license request payload", zap.Error(err))
		return err
	}

	zap.L().Info("delivering license request",
		zap.String("property_id", payload.PropertyID),
		zap.Int("duration_days", payload.DurationDays),
	)

	return w.messenger.Send(ctx, w.config.Licensing.SupportRecipient, payload.Message)
}

func (w *Worker) HandleLicenseActivated(ctx context.Context, t *asynq.Task) error {
	var payload LicenseActivatedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		zap.L().Error("failed to decode license activated payload", zap.Error(err))
		return err
	}

	return w.messenger.Send(ctx, w.config.Licensing.SupportRecipient, payload.Message)
}

func (w *Worker) HandleLicenseRevoked(ctx context.Context, t *asynq.Task) error {
	var payload LicenseRevokedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		zap.L().Error("failed to decode license revoked payload", zap.Error(err))
		return err
	}

	return w.messenger.Send(ctx, w.config.Licensing.SupportRecipient, payload.Message)
}

// zapMessenger is the default delivery channel: it writes the message to the
// log. Real deployments swap in an SMS or chat-backed Messenger via fx.
type zapMessenger struct{}

func NewZapMessenger() Messenger {
	return zapMessenger{}
}

func (zapMessenger) Send(ctx context.Context, to, body string) error {
	zap.L().Info("outbound message", zap.String("to", to), zap.String("body", body))
	return nil
}
