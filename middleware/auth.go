package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Inozem/hw05-final/utils"
)

const (
	// SessionCookie is the name of the cookie carrying the session JWT.
	SessionCookie = "session"
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// LoginPath is the entry point anonymous users are redirected to.
	LoginPath = "/auth/login/"
)

// CurrentUser resolves the session cookie into an identity when present.
// Requests without a valid session continue anonymously; rejecting them is
// LoginRequired's job.
func CurrentUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(SessionCookie)
		if err != nil || token == "" {
			ctx.Next()
			return
		}
		if utils.IsTokenBlacklisted(token) {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(token)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// LoginRequired redirects anonymous requests to the login page, carrying
// the originally requested path so authentication can resume the action.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, exists := ctx.Get(ContextUserIDKey); !exists {
			RedirectToLogin(ctx)
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// RedirectToLogin sends the client to the login page with a next parameter
// equal to the originally requested path.
func RedirectToLogin(ctx *gin.Context) {
	next := ctx.Request.URL.RequestURI()
	ctx.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(next))
}
