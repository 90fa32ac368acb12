package handlers

import (
	"net/http"

	"inkwell/internal/engine/actors"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
)

// HandleMyProfile returns the caller's account plus post statistics.
func (s *Server) HandleMyProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.CallerFromContext(r.Context())

		result, err := s.ask(s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: caller.ID})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandleUpdateMyProfile applies a partial profile patch to the caller.
func (s *Server) HandleUpdateMyProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.CallerFromContext(r.Context())

		var patch models.UserUpdate
		if err := decodeJSON(r, &patch); err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetUserActor(), &actors.UpdateProfileMsg{
			UserID: caller.ID,
			Patch:  &patch,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandleMyPosts lists the caller's own posts, drafts included. The status
// query parameter narrows to "draft" or "published".
func (s *Server) HandleMyPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.CallerFromContext(r.Context())

		filter, err := parseListQuery(r)
		if err != nil {
			respondError(w, err)
			return
		}
		authorID := caller.ID
		filter.AuthorID = &authorID

		s.listPosts(w, r, caller, filter)
	}
}

// HandleGetUser returns a user's public profile.
func (s *Server) HandleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetUserActor(), &actors.GetPublicUserMsg{UserID: userID})
		if err != nil {
			respondError(w, err)
			return
		}
		respondResult(w, http.StatusOK, result)
	}
}

// HandleUserPosts lists a user's published posts. Drafts never appear
// here, whoever asks.
func (s *Server) HandleUserPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		filter, err := parseListQuery(r)
		if err != nil {
			respondError(w, err)
			return
		}
		filter.AuthorID = &userID
		filter.Status = models.StatusPublished

		caller := middleware.CallerFromContext(r.Context())
		s.listPosts(w, r, caller, filter)
	}
}
