package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/JaimeStill/slate/pkg/handlers"
	"github.com/JaimeStill/slate/pkg/routes"
	"github.com/JaimeStill/slate/pkg/storage"
)

// storageHandler serves raw blobs: uploaded script sources and evidence exports.
type storageHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newStorageHandler(store storage.System, logger *slog.Logger) *storageHandler {
	return &storageHandler{
		store:  store,
		logger: logger.With("handler", "storage"),
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Tag:    "Storage",
		Routes: []routes.Route{
			{Method: "HEAD", Pattern: "/{key...}", Handler: h.exists, Summary: "Check a blob exists"},
			{Method: "GET", Pattern: "/{key...}", Handler: h.download, Summary: "Download a blob"},
		},
	}
}

func (h *storageHandler) exists(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.Exists(r.Context(), r.PathValue("key"))
	switch {
	case err != nil:
		w.WriteHeader(storage.MapHTTPStatus(err))
	case !ok:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (h *storageHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType(key))
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("blob stream interrupted", "key", key, "error", err)
	}
}

func contentType(key string) string {
	switch ext := path.Ext(key); ext {
	case ".fountain", ".spmd", ".txt":
		return "text/plain; charset=utf-8"
	case ".fdx":
		return "application/xml"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}
