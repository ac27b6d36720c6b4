package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/quickmailhq/leadsync/internal/entity"
	"github.com/quickmailhq/leadsync/internal/infra/queue"
	"github.com/quickmailhq/leadsync/internal/usecase"
)

// FileHandler re-triggers processing for one file: after a fixed config
// row, a corrected source file, or a dead-lettered event. It only enqueues;
// the worker does the actual processing, same as the scheduled path.
type FileHandler struct {
	Files  usecase.FileRepository
	Events queue.FileEventPublisher
	Log    *logrus.Logger
}

func NewFileHandler(files usecase.FileRepository, events queue.FileEventPublisher, log *logrus.Logger) *FileHandler {
	return &FileHandler{Files: files, Events: events, Log: log}
}

type ProcessFileResponse struct {
	FileUUID string `json:"file_uuid"`
	Status   string `json:"status"`
}

func (h *FileHandler) Process(w http.ResponseWriter, r *http.Request) {
	fileUUID := chi.URLParam(r, "fileID")

	file, err := h.Files.FindByUUID(r.Context(), fileUUID)
	if err != nil {
		if errors.Is(err, entity.ErrFileNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
			return
		}
		h.Log.WithError(err).Error("load file for reprocess")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if file.Processed {
		writeJSON(w, http.StatusConflict, ProcessFileResponse{FileUUID: file.UUID, Status: "already_processed"})
		return
	}

	payload := queue.FileReadyPayload{
		FileUUID: file.UUID,
		DriveID:  file.DriveID,
		Name:     file.Name,
		FileType: file.FileType,
	}
	if err := h.Events.PublishFileReady(r.Context(), payload); err != nil {
		h.Log.WithError(err).Error("publish reprocess event")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "could not enqueue file"})
		return
	}

	writeJSON(w, http.StatusAccepted, ProcessFileResponse{FileUUID: file.UUID, Status: "enqueued"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
