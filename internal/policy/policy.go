// Package policy decides which posts and comments a caller may see or
// change. Every function is a pure function of (caller, resource owner,
// resource status); enforcement happens wherever these are called.
package policy

import (
	"inkwell/internal/models"
	"inkwell/internal/types"
	"inkwell/internal/utils"

	"github.com/google/uuid"
)

// CanReadPost reports whether the caller may read a post with the given
// owner and status. Published posts are readable by everyone; drafts only
// by their owner or an admin.
func CanReadPost(caller types.Caller, ownerID uuid.UUID, status string) bool {
	if status == models.StatusPublished {
		return true
	}
	return caller.IsAdmin() || caller.Owns(ownerID)
}

// CanModify reports whether the caller may mutate or delete a resource
// owned by ownerID.
func CanModify(caller types.Caller, ownerID uuid.UUID) bool {
	return caller.IsAdmin() || caller.Owns(ownerID)
}

// ShouldCountView reports whether a successful read should bump the view
// counter. Views are counted once per read of a published post, with no
// per-viewer dedup.
func ShouldCountView(status string) bool {
	return status == models.StatusPublished
}

// NormalizeListFilter rewrites a listing filter so it can never leak
// another user's drafts, regardless of what the request asked for.
//
// Rules:
//   - status "draft" requires authentication; a non-admin is always scoped
//     to their own drafts even if they asked for another author's.
//   - status "" or "all" unions published posts with drafts the caller
//     may see: all drafts for admins, own drafts for users, none for
//     anonymous callers.
//   - status "published" needs no adjustment.
func NormalizeListFilter(caller types.Caller, filter *models.PostFilter) error {
	switch filter.Status {
	case models.StatusPublished:
		return nil

	case models.StatusDraft:
		if !caller.Authenticated {
			return utils.NewUnauthorizedError("authentication required to view drafts")
		}
		if !caller.IsAdmin() {
			id := caller.ID
			filter.AuthorID = &id
		}
		return nil

	case "", models.StatusAll:
		filter.Status = ""
		if caller.IsAdmin() {
			filter.AllDrafts = true
			return nil
		}
		if caller.Authenticated {
			id := caller.ID
			filter.DraftsOwner = &id
			return nil
		}
		// Anonymous callers see published posts only.
		filter.Status = models.StatusPublished
		return nil

	default:
		return utils.NewValidationError("status", "must be draft, published or all")
	}
}
