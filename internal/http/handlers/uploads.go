package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/medibook/medibook-platform/internal/uploads"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// allowedUploadTypes maps accepted attachment MIME types to the coarse
// attachment category the chat protocol carries.
var allowedUploadTypes = map[string]string{
	"image/jpeg": "image",
	"image/png":  "image",
	"image/gif":  "image",
	"image/webp": "image",

	"application/pdf":    "document",
	"application/msword": "document",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "document",
	"text/plain": "document",
}

// UploadHandler accepts chat attachment uploads.
type UploadHandler struct {
	blobs    uploads.BlobStore
	maxBytes int64
	logger   *logging.Logger
}

func NewUploadHandler(blobs uploads.BlobStore, maxBytes int64, logger *logging.Logger) *UploadHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &UploadHandler{blobs: blobs, maxBytes: maxBytes, logger: logger}
}

// UploadResponse describes a stored attachment.
type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimetype"`
	Kind     string `json:"kind"`
}

// Upload stores a multipart file and returns the URL to reference it from a
// chat message.
// POST /api/chat/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		jsonError(w, "file exceeds size limit", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	kind, ok := allowedUploadTypes[contentType]
	if !ok {
		jsonError(w, "unsupported file type", http.StatusUnsupportedMediaType)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := uuid.NewString() + ext
	url, err := h.blobs.Save(r.Context(), key, contentType, file)
	if err != nil {
		h.logger.Error("attachment store failed", "filename", header.Filename, "error", err)
		jsonError(w, "failed to store file", http.StatusInternalServerError)
		return
	}

	h.logger.Info("attachment uploaded",
		"filename", header.Filename, "size", header.Size, "mime_type", contentType, "url", url)
	writeJSON(w, http.StatusCreated, UploadResponse{
		URL:      url,
		Filename: header.Filename,
		Size:     header.Size,
		MimeType: contentType,
		Kind:     kind,
	})
}
