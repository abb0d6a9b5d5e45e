// Package policy decides which version of a content item a viewer may
// see, and who may mutate it. Everything here is a pure function; the
// request layer feeds it a resolved identity (or nil for anonymous)
// and acts on the verdict.
package policy

import "tidder/internal/auth"

// Verdict is computed per (viewer, item) pair at read time, never stored.
type Verdict int

const (
	// Hidden items must be indistinguishable from missing ones.
	// Surfacing them as anything but 404 would leak that a draft
	// exists.
	Hidden Verdict = iota

	// RedactedVisible items are listed, but title/body are replaced
	// by the redaction marker.
	RedactedVisible

	FullyVisible
)

// Item is the visibility-relevant slice of a post or comment.
// Comments are always implicitly published.
type Item struct {
	AuthorID  string
	Published bool
	Deleted   bool
}

// Decide computes the verdict. showAll must already be gated to
// admins (auth.ResolveShowAll); here it bypasses both flags.
//
// Note the draft gate applies to admins too: an admin without
// show_all gets Hidden for someone else's draft. Opting in to see
// moderated-out content is explicit, never ambient.
func Decide(viewer *auth.Identity, item Item, showAll bool) Verdict {
	if showAll {
		return FullyVisible
	}
	if !item.Published && !isAuthor(viewer, item) {
		return Hidden
	}
	if item.Deleted {
		// Deletion redacts even for the item's own author.
		return RedactedVisible
	}
	return FullyVisible
}

// CanModify permits unpublish/delete: admins (moderation) or the
// author.
func CanModify(viewer *auth.Identity, item Item) bool {
	return isAdmin(viewer) || isAuthor(viewer, item)
}

// CanPublish permits publishing a draft: the author only. Publishing
// is an authorial act; admins moderate, they don't publish on a
// user's behalf.
func CanPublish(viewer *auth.Identity, item Item) bool {
	return isAuthor(viewer, item)
}

func isAuthor(viewer *auth.Identity, item Item) bool {
	return viewer != nil && viewer.UserID == item.AuthorID
}

func isAdmin(viewer *auth.Identity) bool {
	return viewer != nil && viewer.IsAdmin()
}
