package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"skoropad/internal/infra/config"
	"skoropad/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Ads            AdsHTTP
	Chat           ChatHTTP
	Admin          AdminHTTP
	Upload         UploadHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Content-Disposition",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Ads != nil {
		api.GET("/ads", h.Ads.Catalog)
		api.GET("/ads/categories", h.Ads.Categories)
		api.GET("/ads/stats", h.Ads.Stats)
		api.GET("/ads/mine", h.Ads.Mine)
		api.GET("/ads/:id", h.Ads.Get)
		api.POST("/ads", h.Ads.Create)
		api.DELETE("/ads/:id", h.Ads.Delete)
		api.GET("/users/:id", h.Ads.Showcase)
	}
	if h.Upload != nil {
		api.POST("/uploads/images", h.Upload.UploadImage)
	}
	if h.Chat != nil {
		chatGroup := api.Group("/chat")
		chatGroup.GET("/conversations", h.Chat.ListConversations)
		chatGroup.GET("/conversations/:id/messages", h.Chat.ListMessages)
		chatGroup.POST("/conversations/:id/read", h.Chat.MarkRead)
		chatGroup.POST("/messages", h.Chat.SendMessage)
		chatGroup.GET("/notifications", h.Chat.Notifications)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.GET("/users", h.Admin.ListUsers)
		adminGroup.POST("/users/:id/ban", h.Admin.SetBanned)
		adminGroup.POST("/users/:id/role", h.Admin.SetRole)
		adminGroup.DELETE("/ads/:id", h.Admin.DeleteAdvertisement)
		adminGroup.POST("/ads/:id/vip", h.Admin.SetAdvertisementVIP)
		adminGroup.GET("/log", h.Admin.RecentLog)
		adminGroup.GET("/export", h.Admin.Export)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
