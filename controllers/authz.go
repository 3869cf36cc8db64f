package controllers

import "github.com/Inozem/hw05-final/models"

// Decision is the outcome of an authorization check for a mutating action.
// Denials are never error pages here: anonymous callers go to login and
// keep the original path for resumption, while authenticated-but-not-owner
// callers are silently sent to a safe fallback view.
type Decision int

const (
	// Allow permits the action.
	Allow Decision = iota
	// LoginRedirect sends an anonymous caller to the login page with a
	// next parameter equal to the requested path.
	LoginRedirect
	// DetailRedirect sends the caller to the post detail view without
	// mutating anything.
	DetailRedirect
	// ProfileRedirect sends the caller to the target profile without
	// mutating anything.
	ProfileRedirect
)

// CanCreatePost gates post creation: any authenticated user may publish.
func CanCreatePost(id Identity) Decision {
	if !id.Authenticated() {
		return LoginRedirect
	}
	return Allow
}

// CanEditPost gates post editing: only the author may edit. Non-owners are
// redirected to the post detail view rather than shown an error.
func CanEditPost(id Identity, post models.Post) Decision {
	if !id.Authenticated() {
		return LoginRedirect
	}
	if post.AuthorID != id.ID {
		return DetailRedirect
	}
	return Allow
}

// CanComment gates comment creation: any authenticated user may comment.
func CanComment(id Identity) Decision {
	if !id.Authenticated() {
		return LoginRedirect
	}
	return Allow
}

// CanFollow gates creating a follow edge. Following yourself is a no-op
// redirect back to the profile, never an edge.
func CanFollow(id Identity, author models.User) Decision {
	if !id.Authenticated() {
		return LoginRedirect
	}
	if author.ID == id.ID {
		return ProfileRedirect
	}
	return Allow
}

// CanUnfollow gates removing a follow edge. Whether the edge exists is the
// follow service's concern, not the gate's.
func CanUnfollow(id Identity) Decision {
	if !id.Authenticated() {
		return LoginRedirect
	}
	return Allow
}
