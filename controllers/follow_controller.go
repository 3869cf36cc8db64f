package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Inozem/hw05-final/models"
)

// FollowController maintains the directed follow edges of the social graph.
// Edges are created and destroyed only here.
type FollowController struct {
	db *gorm.DB
}

// NewFollowController creates a new FollowController instance.
func NewFollowController(db *gorm.DB) *FollowController {
	return &FollowController{db: db}
}

// Follow subscribes the acting identity to the named author. Self-follow
// and an already existing edge both redirect back to the profile without
// creating anything.
func (f *FollowController) Follow(ctx *gin.Context) {
	author, ok := f.loadAuthor(ctx)
	if !ok {
		return
	}

	id := currentIdentity(ctx)
	switch CanFollow(id, author) {
	case LoginRedirect:
		redirectToLogin(ctx)
		return
	case ProfileRedirect:
		redirectToProfile(ctx, author.Username)
		return
	}

	var count int64
	if err := f.db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", id.ID, author.ID).
		Count(&count).Error; err != nil {
		serverError(ctx, err)
		return
	}
	if count > 0 {
		redirectToProfile(ctx, author.Username)
		return
	}

	edge := models.Follow{UserID: id.ID, AuthorID: author.ID}
	if err := f.db.Create(&edge).Error; err != nil {
		serverError(ctx, err)
		return
	}

	ctx.HTML(http.StatusOK, "follow_done.html", gin.H{
		"author":   author,
		"identity": id,
	})
}

// Unfollow removes the follow edge from the acting identity to the named
// author, or 404s when no such edge exists.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	author, ok := f.loadAuthor(ctx)
	if !ok {
		return
	}

	id := currentIdentity(ctx)
	if CanUnfollow(id) == LoginRedirect {
		redirectToLogin(ctx)
		return
	}

	var edge models.Follow
	if err := f.db.
		Where("user_id = ? AND author_id = ?", id.ID, author.ID).
		First(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(ctx)
			return
		}
		serverError(ctx, err)
		return
	}

	if err := f.db.Delete(&edge).Error; err != nil {
		serverError(ctx, err)
		return
	}

	ctx.HTML(http.StatusOK, "unfollow_done.html", gin.H{
		"author":   author,
		"identity": id,
	})
}

func (f *FollowController) loadAuthor(ctx *gin.Context) (models.User, bool) {
	var author models.User
	if err := f.db.Where("username = ?", ctx.Param("username")).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(ctx)
			return models.User{}, false
		}
		serverError(ctx, err)
		return models.User{}, false
	}
	return author, true
}

func redirectToProfile(ctx *gin.Context, username string) {
	ctx.Redirect(http.StatusFound, "/profile/"+username+"/")
}
