package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Inozem/hw05-final/config"
	"github.com/Inozem/hw05-final/controllers"
	"github.com/Inozem/hw05-final/middleware"
	"github.com/Inozem/hw05-final/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if utils.Logger != nil {
		r.Use(utils.Ginzap(utils.Logger))
		r.Use(utils.RecoveryWithZap(utils.Logger))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Every request resolves its identity once; handlers never read the
	// session themselves.
	r.Use(middleware.CurrentUser())

	r.LoadHTMLGlob(cfg.TemplatesGlob)
	r.Static("/static", "./"+cfg.StaticDir)

	feedController := controllers.NewFeedController(db)
	postController := controllers.NewPostController(db)
	followController := controllers.NewFollowController(db)
	authController := controllers.NewAuthController(db)

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.GET("/signup/", authController.SignupForm)
	authGroup.POST("/signup/", authController.Signup)
	authGroup.GET("/login/", authController.LoginForm)
	authGroup.POST("/login/", authController.Login)
	authGroup.GET("/logout/", authController.Logout)

	r.GET("/", feedController.Index)
	r.GET("/group/:slug/", feedController.GroupPosts)
	r.GET("/profile/:username/", feedController.Profile)
	r.GET("/posts/:id/", postController.Detail)

	protected := r.Group("")
	protected.Use(middleware.LoginRequired())
	protected.GET("/create/", postController.CreateForm)
	protected.POST("/create/", middleware.RateLimitMiddleware(), postController.Create)
	protected.GET("/posts/:id/edit/", postController.EditForm)
	protected.POST("/posts/:id/edit/", middleware.RateLimitMiddleware(), postController.Edit)
	protected.POST("/posts/:id/comment/", middleware.RateLimitMiddleware(), postController.AddComment)
	protected.GET("/follow/", feedController.FollowIndex)
	protected.GET("/profile/:username/follow/", followController.Follow)
	protected.GET("/profile/:username/unfollow/", followController.Unfollow)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.String(http.StatusNotFound, "404: page not found")
	})

	return r
}
