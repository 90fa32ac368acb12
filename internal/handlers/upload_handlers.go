package handlers

import (
	"fmt"
	"net/http"

	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/utils"
)

// uploadImage reads the multipart "file" field and forwards it to the
// image host under the given folder.
func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request, folder string) {
	if err := r.ParseMultipartForm(media.MaxUploadBytes); err != nil {
		respondError(w, utils.NewValidationError("file", "multipart form required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, utils.NewValidationError("file", "file field required"))
		return
	}
	defer file.Close()

	if header.Size > media.MaxUploadBytes {
		respondError(w, utils.NewValidationError("file", "file too large"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	filename := fmt.Sprintf("%s/%s", folder, header.Filename)

	result, err := s.Media.UploadImage(r.Context(), filename, contentType, file)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// HandleUploadProfilePicture uploads an avatar, foldered per user.
func (s *Server) HandleUploadProfilePicture() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.CallerFromContext(r.Context())
		s.uploadImage(w, r, fmt.Sprintf("avatars/%s", caller.ID))
	}
}

// HandleUploadCoverImage uploads a post cover image.
func (s *Server) HandleUploadCoverImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.CallerFromContext(r.Context())
		s.uploadImage(w, r, fmt.Sprintf("covers/%s", caller.ID))
	}
}

// DeleteImageRequest identifies a hosted image by its public ID.
type DeleteImageRequest struct {
	PublicID string `json:"public_id"`
}

// HandleDeleteImage removes a hosted image.
func (s *Server) HandleDeleteImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteImageRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}

		if err := s.Media.DeleteImage(r.Context(), req.PublicID); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusNoContent, nil)
	}
}
