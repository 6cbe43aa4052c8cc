package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/applicants"
	googleauth "recruit-backend/internal/auth"
	"recruit-backend/internal/promo"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/shared/storage/object"
)

const submitRateGroup = "SUBMIT"

// RouterDeps carries the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config           config.Config
	ApplicantHandler *applicants.Handler
	PromoHandler     *promo.Handler
	GoogleAuth       *googleauth.GoogleService
	// Files serves public URLs of the local object store; nil for S3.
	Files object.ObjectStore
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	cfg := deps.Config
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				submitRateGroup: middleware.PerMinute(cfg.SubmitRatePerMin, cfg.SubmitBurst),
				"DEFAULT":       middleware.PerMinute(600, 120),
			},
			GroupFor: rateGroup,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.Files != nil {
		registerFileRoutes(api, deps.Files)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.ApplicantHandler != nil {
		deps.ApplicantHandler.RegisterPublicRoutes(api)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth())
	registerMeRoutes(admin)
	if deps.ApplicantHandler != nil {
		deps.ApplicantHandler.RegisterAdminRoutes(admin)
	}
	if deps.PromoHandler != nil {
		deps.PromoHandler.RegisterRoutes(admin)
	}

	return r
}

func rateGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && strings.HasSuffix(c.Request.URL.Path, "/applications") {
		return submitRateGroup
	}
	return "DEFAULT"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
