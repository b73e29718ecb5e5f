package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/lumiere/internal/imaging"
	"github.com/erazemk/lumiere/internal/upload"
)

// UploadHandler proxies menu image uploads to the media CDN.
type UploadHandler struct {
	Uploader upload.Uploader
}

type uploadResponse struct {
	*upload.Result
	Success bool `json:"success"`
}

// Upload handles POST /api/upload with a multipart "image_file" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "No image provided")
		return
	}

	file, header, err := r.FormFile("image_file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		jsonError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	processed, err := imaging.Process(file)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			jsonError(w, http.StatusBadRequest, "image too large")
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.Uploader == nil {
		jsonError(w, http.StatusInternalServerError, upload.ErrNoUploaders.Error())
		return
	}
	res, err := h.Uploader.Upload(r.Context(), upload.Image{
		Data: processed.Data,
		MIME: processed.MIME,
		Ext:  processed.Ext(),
	})
	if err != nil {
		slog.Error("uploading image", "error", err)
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("image uploaded", "provider", res.Provider, "url", res.URL,
		"bytes", len(processed.Data), "bgRemoved", res.BackgroundRemoved)
	jsonResponse(w, http.StatusOK, uploadResponse{Result: res, Success: true})
}
