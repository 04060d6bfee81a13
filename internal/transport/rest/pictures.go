package rest

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/abgdnv/gocatalog/pkg/web"
)

// mimeTypes maps picture file extensions to their MIME types. Unrecognized
// extensions fall back to a generic binary type.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".gif":  "image/gif",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".wmf":  "image/wmf",
	".jp2":  "image/jp2",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// GetPicture serves the picture file of a catalog item from the configured
// pics directory, with the MIME type derived from the file extension.
func (h *Handler) GetPicture(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	item, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondItemError(w, r, mLogger, id, err, "retrieve picture for")
		return
	}
	if item.PictureFileName == "" {
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Catalog item with ID %d has no picture", id))
		return
	}

	path := filepath.Join(h.picsDir, item.PictureFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			mLogger.WarnContext(r.Context(), "Picture file missing", "ID", id, "path", path)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Picture for catalog item with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error reading picture file", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to read picture file")
		return
	}

	w.Header().Set("Content-Type", mimeTypeFor(item.PictureFileName))
	http.ServeFile(w, r, path)
}

func mimeTypeFor(fileName string) string {
	if mime, ok := mimeTypes[filepath.Ext(fileName)]; ok {
		return mime
	}
	return "application/octet-stream"
}
