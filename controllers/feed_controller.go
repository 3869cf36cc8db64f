package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Inozem/hw05-final/config"
	"github.com/Inozem/hw05-final/models"
	"github.com/Inozem/hw05-final/utils"
)

// FeedController assembles the four post feeds: global, per-group,
// per-author and the personalized follow feed. Every feed goes through the
// same pagination and eager-loading discipline so list rendering is uniform.
type FeedController struct {
	db *gorm.DB
}

// NewFeedController creates a new FeedController instance.
func NewFeedController(db *gorm.DB) *FeedController {
	return &FeedController{db: db}
}

// cachedFeed is the redis payload for the short-lived global feed cache.
type cachedFeed struct {
	Posts []models.Post `json:"posts"`
	Page  utils.Page    `json:"page"`
}

// Index renders the global feed, newest first. Pages are cached for a few
// seconds; the feed is deterministic and side-effect-free, so serving a
// slightly stale page is safe.
func (f *FeedController) Index(ctx *gin.Context) {
	cfg := config.Get()
	key := fmt.Sprintf("cache:feed:global:page=%d:size=%d", requestedPage(ctx), cfg.PostsPerPage)

	var cached cachedFeed
	if utils.CacheGetJSON(key, &cached) {
		f.renderFeed(ctx, "index.html", gin.H{}, cached.Posts, cached.Page)
		return
	}

	posts, page, err := f.paginatePosts(ctx, f.db.Model(&models.Post{}))
	if err != nil {
		serverError(ctx, err)
		return
	}

	utils.CacheSetJSON(key, cachedFeed{Posts: posts, Page: page}, time.Duration(cfg.FeedCacheSeconds)*time.Second)
	f.renderFeed(ctx, "index.html", gin.H{}, posts, page)
}

// GroupPosts renders the feed of a single group, or 404 when the slug is
// unknown.
func (f *FeedController) GroupPosts(ctx *gin.Context) {
	slug := ctx.Param("slug")

	var group models.Group
	if err := f.db.Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(ctx)
			return
		}
		serverError(ctx, err)
		return
	}

	posts, page, err := f.paginatePosts(ctx, f.db.Model(&models.Post{}).Where("group_id = ?", group.ID))
	if err != nil {
		serverError(ctx, err)
		return
	}

	f.renderFeed(ctx, "group_list.html", gin.H{"group": group}, posts, page)
}

// Profile renders an author's feed together with whether the acting
// identity already follows them.
func (f *FeedController) Profile(ctx *gin.Context) {
	username := ctx.Param("username")

	var author models.User
	if err := f.db.Where("username = ?", username).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(ctx)
			return
		}
		serverError(ctx, err)
		return
	}

	following := false
	if id := currentIdentity(ctx); id.Authenticated() {
		var count int64
		if err := f.db.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", id.ID, author.ID).
			Count(&count).Error; err != nil {
			serverError(ctx, err)
			return
		}
		following = count > 0
	}

	posts, page, err := f.paginatePosts(ctx, f.db.Model(&models.Post{}).Where("author_id = ?", author.ID))
	if err != nil {
		serverError(ctx, err)
		return
	}

	f.renderFeed(ctx, "profile.html", gin.H{"author": author, "following": following}, posts, page)
}

// FollowIndex renders the personalized feed: posts by exactly the authors
// the acting identity follows. The route requires authentication.
func (f *FeedController) FollowIndex(ctx *gin.Context) {
	id := currentIdentity(ctx)

	followed := f.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", id.ID)
	posts, page, err := f.paginatePosts(ctx, f.db.Model(&models.Post{}).Where("author_id IN (?)", followed))
	if err != nil {
		serverError(ctx, err)
		return
	}

	f.renderFeed(ctx, "follow.html", gin.H{}, posts, page)
}

// paginatePosts applies the shared pagination and eager-loading discipline
// to a prepared posts query: newest first, author and group preloaded, one
// page per request.
func (f *FeedController) paginatePosts(ctx *gin.Context, query *gorm.DB) ([]models.Post, utils.Page, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.Page{}, err
	}

	page := utils.NewPage(total, config.Get().PostsPerPage, ctx.Query("page"))

	var posts []models.Post
	if err := query.
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&posts).Error; err != nil {
		return nil, utils.Page{}, err
	}

	return posts, page, nil
}

func (f *FeedController) renderFeed(ctx *gin.Context, template string, extra gin.H, posts []models.Post, page utils.Page) {
	context := gin.H{
		"page_obj": posts,
		"page":     page,
		"identity": currentIdentity(ctx),
	}
	for k, v := range extra {
		context[k] = v
	}
	ctx.HTML(http.StatusOK, template, context)
}

// requestedPage normalizes the raw page parameter for cache keys. Clamping
// against the total happens later in the paginator; here only garbage input
// collapses to page one.
func requestedPage(ctx *gin.Context) int {
	n, err := strconv.Atoi(ctx.Query("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func notFound(ctx *gin.Context) {
	ctx.String(http.StatusNotFound, "404: page not found")
	ctx.Abort()
}

func serverError(ctx *gin.Context, err error) {
	if utils.Sugar != nil {
		utils.Sugar.Errorf("request failed: %v", err)
	}
	ctx.String(http.StatusInternalServerError, "internal server error")
	ctx.Abort()
}
