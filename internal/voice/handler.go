// Package voice adapts the speech endpoints of the OpenAI-compatible API
// onto the demo's HTTP surface. No audio processing happens here.
package voice

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"absher/internal/platform/middleware"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/httputil"
)

// 10 MiB covers short voice notes; anything larger is rejected.
const maxAudioBytes = 10 << 20

// Speech is the transcription and synthesis surface the handler needs.
type Speech interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
	Speech(ctx context.Context, text string) ([]byte, error)
}

// Handler handles the voice endpoints. speech may be nil when no API key
// is configured; both endpoints then answer 503.
type Handler struct {
	speech Speech
	logger *slog.Logger
}

func New(speech Speech, logger *slog.Logger) *Handler {
	return &Handler{
		speech: speech,
		logger: logger,
	}
}

// Register registers the voice routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/voice/transcribe", h.handleTranscribe)
	r.Post("/voice/tts", h.handleTTS)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if h.speech == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "voice features are not configured"))
		return
	}

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected multipart form with an audio file"))
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "audio file is required"))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read audio file"))
		return
	}

	text, err := h.speech.Transcribe(ctx, header.Filename, audio)
	if err != nil {
		h.logger.ErrorContext(ctx, "transcription failed",
			"request_id", requestID,
			"filename", header.Filename,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "transcription is temporarily unavailable"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}

type ttsRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if h.speech == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "voice features are not configured"))
		return
	}

	var req ttsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "text is required"))
		return
	}

	audio, err := h.speech.Speech(ctx, req.Text)
	if err != nil {
		h.logger.ErrorContext(ctx, "speech synthesis failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "speech synthesis is temporarily unavailable"))
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
