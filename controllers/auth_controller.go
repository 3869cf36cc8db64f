package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Inozem/hw05-final/middleware"
	"github.com/Inozem/hw05-final/models"
	"github.com/Inozem/hw05-final/utils"
)

// sessionDuration is how long an issued session cookie stays valid.
const sessionDuration = 7 * 24 * time.Hour

// AuthController implements the session boundary: signup, login with
// resumption of the originally requested path, and logout with token
// revocation. Authentication itself is not part of the core; the rest of
// the application only consumes the identity it yields.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// SignupForm renders the registration page.
func (a *AuthController) SignupForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "signup.html", gin.H{})
}

// Signup registers a new user and signs them in.
func (a *AuthController) Signup(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	email := strings.TrimSpace(ctx.PostForm("email"))
	password := ctx.PostForm("password")

	if !validUsername(username) {
		ctx.HTML(http.StatusOK, "signup.html", gin.H{"error": "username must be 3-64 letters, digits, '-' or '_'", "username": username, "email": email})
		return
	}
	if len(password) < 8 {
		ctx.HTML(http.StatusOK, "signup.html", gin.H{"error": "password must be at least 8 characters", "username": username, "email": email})
		return
	}

	var count int64
	if err := a.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		serverError(ctx, err)
		return
	}
	if count > 0 {
		ctx.HTML(http.StatusOK, "signup.html", gin.H{"error": "username already taken", "username": username, "email": email})
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		serverError(ctx, err)
		return
	}

	user := models.User{Username: username, Email: email, PasswordHash: hash}
	if err := a.db.Create(&user).Error; err != nil {
		serverError(ctx, err)
		return
	}

	a.startSession(ctx, user)
	ctx.Redirect(http.StatusFound, "/")
}

// LoginForm renders the login page, keeping the next parameter for
// resumption after authentication.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "login.html", gin.H{"next": ctx.Query("next")})
}

// Login authenticates a user and resumes the originally requested path
// when a safe next parameter is present.
func (a *AuthController) Login(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")
	next := ctx.PostForm("next")

	var user models.User
	err := a.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !utils.CheckPassword(user.PasswordHash, password)) {
		ctx.HTML(http.StatusOK, "login.html", gin.H{"error": "invalid username or password", "username": username, "next": next})
		return
	}
	if err != nil {
		serverError(ctx, err)
		return
	}

	a.startSession(ctx, user)
	ctx.Redirect(http.StatusFound, safeNext(next))
}

// Logout revokes the current session token and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token, err := ctx.Cookie(middleware.SessionCookie); err == nil && token != "" {
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/")
}

func (a *AuthController) startSession(ctx *gin.Context, user models.User) {
	token, err := utils.GenerateToken(user.ID, user.Username, sessionDuration)
	if err != nil {
		serverError(ctx, err)
		return
	}
	ctx.SetCookie(middleware.SessionCookie, token, int(sessionDuration.Seconds()), "/", "", false, true)
}

// safeNext only resumes local paths; anything else falls back to the
// global feed so the login page cannot be used as an open redirect.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/"
}

func validUsername(s string) bool {
	if len(s) < 3 || len(s) > 64 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
