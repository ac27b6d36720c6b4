package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/quickmailhq/leadsync/internal/usecase"
)

// SyncHandler exposes the discovery pass as a manual trigger, for reruns
// outside the cron window.
type SyncHandler struct {
	Sync *usecase.SyncDriveUseCase
	Log  *logrus.Logger
}

func NewSyncHandler(sync *usecase.SyncDriveUseCase, log *logrus.Logger) *SyncHandler {
	return &SyncHandler{Sync: sync, Log: log}
}

func (h *SyncHandler) Handle(w http.ResponseWriter, r *http.Request) {
	report, err := h.Sync.Execute(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("manual sync failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}
