// internal/handlers/routes.go
package handlers

import (
	"log/slog"
	"net/http"

	"healcheck-back/internal/accounts"
	"healcheck-back/internal/auth"
	"healcheck-back/internal/middleware"
	"healcheck-back/internal/nutrition"
	"healcheck-back/internal/storage"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Users          *accounts.Directory
	Issuer         *auth.TokenIssuer
	Images         *nutrition.Service
	Store          storage.Store
	MaxUploadBytes int64
	Logger         *slog.Logger
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORSMiddleware())
	r.MaxMultipartMemory = d.MaxUploadBytes + 1<<20

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}
	r.GET(storage.PublicPrefix+"/:name", ServeUpload(d.Store, d.Logger))

	public := r.Group("/api")
	{
		public.POST("/register", Register(d.Users, d.Issuer))
		public.POST("/login", Login(d.Users, d.Issuer))
		public.POST("/logout", Logout)
	}

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(d.Issuer))
	{
		protected.GET("/profile", GetProfile(d.Users))
		protected.POST("/images/upload", UploadImage(d.Images, d.MaxUploadBytes))
		protected.GET("/images", ListImages(d.Images))
		protected.GET("/images/:id", GetImage(d.Images))
		protected.DELETE("/images/:id", DeleteImage(d.Images))
	}

	return r
}
