package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Inozem/hw05-final/config"
	"github.com/Inozem/hw05-final/models"
	"github.com/Inozem/hw05-final/utils"
)

// PostController manages the post detail view and the create/edit/comment
// mutations.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// postForm is the user-editable subset of a post. The author is never part
// of it: it is forced from the acting identity on every write.
type postForm struct {
	Text    string
	GroupID *uint
	Image   string
}

// Detail renders a single post with its comments, newest comment first.
func (p *PostController) Detail(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	var comments []models.Comment
	if err := p.db.Where("post_id = ?", post.ID).
		Preload("Author").
		Order("created DESC").
		Find(&comments).Error; err != nil {
		serverError(ctx, err)
		return
	}

	ctx.HTML(http.StatusOK, "post_detail.html", gin.H{
		"post":     post,
		"comments": comments,
		"identity": currentIdentity(ctx),
	})
}

// CreateForm renders the empty post form.
func (p *PostController) CreateForm(ctx *gin.Context) {
	p.renderForm(ctx, gin.H{"is_edit": false})
}

// Create publishes a new post for the acting identity and redirects to
// their profile feed. The author field is never taken from the request.
func (p *PostController) Create(ctx *gin.Context) {
	id := currentIdentity(ctx)
	if CanCreatePost(id) == LoginRedirect {
		redirectToLogin(ctx)
		return
	}

	form, formErr := p.bindPostForm(ctx)
	if formErr != "" {
		p.renderForm(ctx, gin.H{"is_edit": false, "error": formErr, "text": form.Text})
		return
	}

	post := models.Post{
		Text:     form.Text,
		AuthorID: id.ID,
		GroupID:  form.GroupID,
		Image:    form.Image,
	}
	if err := p.db.Create(&post).Error; err != nil {
		serverError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:feed:global:")

	ctx.Redirect(http.StatusFound, "/profile/"+id.Username+"/")
}

// EditForm renders the post form pre-filled with an existing post. Only the
// author sees it; anyone else is sent to the post detail view.
func (p *PostController) EditForm(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	switch CanEditPost(currentIdentity(ctx), post) {
	case LoginRedirect:
		redirectToLogin(ctx)
		return
	case DetailRedirect:
		redirectToDetail(ctx, post.ID)
		return
	}

	p.renderForm(ctx, gin.H{"is_edit": true, "post": post, "text": post.Text})
}

// Edit applies a post update for its author. Text, group and image are the
// only editable fields; author and publication date survive untouched.
func (p *PostController) Edit(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	switch CanEditPost(currentIdentity(ctx), post) {
	case LoginRedirect:
		redirectToLogin(ctx)
		return
	case DetailRedirect:
		redirectToDetail(ctx, post.ID)
		return
	}

	form, formErr := p.bindPostForm(ctx)
	if formErr != "" {
		p.renderForm(ctx, gin.H{"is_edit": true, "post": post, "error": formErr, "text": form.Text})
		return
	}

	updates := map[string]interface{}{
		"text":     form.Text,
		"group_id": form.GroupID,
	}
	if form.Image != "" {
		updates["image"] = form.Image
	}
	// Update through a bare Post keyed by ID: the loaded post carries its
	// preloaded author, and saving through it would also write to users.
	if err := p.db.Model(&models.Post{ID: post.ID}).Updates(updates).Error; err != nil {
		serverError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:feed:global:")

	redirectToDetail(ctx, post.ID)
}

// AddComment appends a comment to a post. Success or validation failure,
// the caller always lands back on the post detail view.
func (p *PostController) AddComment(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	id := currentIdentity(ctx)
	if CanComment(id) == LoginRedirect {
		redirectToLogin(ctx)
		return
	}

	text := strings.TrimSpace(utils.Sanitize(ctx.PostForm("text")))
	if text != "" {
		comment := models.Comment{
			PostID:   post.ID,
			AuthorID: id.ID,
			Text:     text,
		}
		if err := p.db.Create(&comment).Error; err != nil {
			serverError(ctx, err)
			return
		}
	}

	redirectToDetail(ctx, post.ID)
}

// loadPost fetches the post addressed by the :id route parameter with its
// author and group. It writes the 404/500 response itself and reports
// success through the second return value.
func (p *PostController) loadPost(ctx *gin.Context) (models.Post, bool) {
	postID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		notFound(ctx)
		return models.Post{}, false
	}

	var post models.Post
	if err := p.db.Preload("Author").Preload("Group").First(&post, uint(postID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(ctx)
			return models.Post{}, false
		}
		serverError(ctx, err)
		return models.Post{}, false
	}
	return post, true
}

// bindPostForm validates the shared create/edit form. A non-empty second
// return value is the validation message to re-render with.
func (p *PostController) bindPostForm(ctx *gin.Context) (postForm, string) {
	form := postForm{
		Text: strings.TrimSpace(utils.Sanitize(ctx.PostForm("text"))),
	}
	if form.Text == "" {
		return form, "post text cannot be empty"
	}

	if raw := strings.TrimSpace(ctx.PostForm("group")); raw != "" {
		groupID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return form, "unknown group"
		}
		var group models.Group
		if err := p.db.First(&group, uint(groupID)).Error; err != nil {
			return form, "unknown group"
		}
		gid := group.ID
		form.GroupID = &gid
	}

	if fh, err := ctx.FormFile("image"); err == nil && fh != nil {
		url, err := utils.SaveImage(fh, config.Get().StaticDir)
		if err != nil {
			return form, fmt.Sprintf("image rejected: %v", err)
		}
		form.Image = url
	}

	return form, ""
}

func (p *PostController) renderForm(ctx *gin.Context, context gin.H) {
	context["identity"] = currentIdentity(ctx)
	var groups []models.Group
	if err := p.db.Find(&groups).Error; err == nil {
		context["groups"] = groups
	}
	ctx.HTML(http.StatusOK, "create_post.html", context)
}

func redirectToDetail(ctx *gin.Context, postID uint) {
	ctx.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", postID))
}
