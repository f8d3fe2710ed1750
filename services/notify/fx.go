package notify

import (
	"zamora-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("notify.module",
	fx.Provide(NewZapMessenger, NewWorker),
)

var WorkerModule = fx.Module("notify.worker",
	Module,
	fx.Invoke(registerHandlers),
)

func registerHandlers(mux *asynq.ServeMux, w *Worker) {
	mux.HandleFunc(taskname.LicenseRequestNotify, w.HandleLicenseRequest)
	mux.HandleFunc(taskname.LicenseActivatedNotify, w.HandleLicenseActivated)
	mux.HandleFunc(taskname.LicenseRevokedNotify, w.HandleLicenseRevoked)
}
