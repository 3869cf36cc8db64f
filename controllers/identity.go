package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Inozem/hw05-final/middleware"
)

// Identity is the acting requester: a concrete user or anonymous. It is
// resolved once per request from the session middleware and passed
// explicitly into every decision so the gate stays independently testable.
type Identity struct {
	ID       uint
	Username string
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.ID != 0
}

// redirectToLogin aborts the request and sends the caller to the login
// page, keeping the requested path for resumption.
func redirectToLogin(ctx *gin.Context) {
	middleware.RedirectToLogin(ctx)
	ctx.Abort()
}

// currentIdentity reads the identity the session middleware attached to the
// request, or the zero Identity for anonymous requests.
func currentIdentity(ctx *gin.Context) Identity {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return Identity{}
	}
	id, ok := value.(uint)
	if !ok {
		return Identity{}
	}
	username, _ := ctx.Get(middleware.ContextUsernameKey)
	name, _ := username.(string)
	return Identity{ID: id, Username: name}
}
