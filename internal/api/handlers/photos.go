package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courtesyinspect/courtesyinspect/internal/photos"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
)

// maxPhotoBytes caps one upload at 10 MiB.
const maxPhotoBytes = 10 << 20

// UploadPhoto accepts a multipart form with a "photo" file part and an
// optional "item_id" field.
func (h *Handlers) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		respondError(w, r, apperr.E(apperr.Invalid, "expected multipart form with a photo part"))
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, r, apperr.E(apperr.Invalid, "photo part is required"))
		return
	}
	defer file.Close()

	photo, err := h.Photos.Attach(r.Context(), c, chi.URLParam(r, "inspectionID"), photos.AttachInput{
		ItemID:      r.FormValue("item_id"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, photo)
}

// ListPhotos returns the inspection's photos in upload order.
func (h *Handlers) ListPhotos(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	list, err := h.Photos.List(r.Context(), c, chi.URLParam(r, "inspectionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"photos": list, "count": len(list)})
}
