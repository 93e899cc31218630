package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/smallbiznis/zalci/internal/account/domain"
	authdomain "github.com/smallbiznis/zalci/internal/auth/domain"
	"github.com/smallbiznis/zalci/internal/auth/session"
	"github.com/smallbiznis/zalci/internal/authorization"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/zalci/internal/checkout/domain"
	claimdomain "github.com/smallbiznis/zalci/internal/claim/domain"
	"github.com/smallbiznis/zalci/internal/config"
	contactdomain "github.com/smallbiznis/zalci/internal/contact/domain"
	creditdomain "github.com/smallbiznis/zalci/internal/credit/domain"
	downloaddomain "github.com/smallbiznis/zalci/internal/download/domain"
	favoritedomain "github.com/smallbiznis/zalci/internal/favorite/domain"
	"github.com/smallbiznis/zalci/internal/observability"
	obsmiddleware "github.com/smallbiznis/zalci/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/zalci/internal/observability/metrics"
	obstracing "github.com/smallbiznis/zalci/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/zalci/internal/payment/domain"
	purchasedomain "github.com/smallbiznis/zalci/internal/purchase/domain"
	"github.com/smallbiznis/zalci/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func corsConfig(cfg config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After", "X-Rate-Limited-Reason"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.SiteURL != "" {
		corsCfg.AllowOrigins = []string{cfg.SiteURL}
	} else {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	}
	return corsCfg
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(cfg, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	verifier    authdomain.Verifier
	sessions    *session.Manager
	authzSvc    authorization.Service
	limiter     *ratelimit.Limiter
	catalogSvc  catalogdomain.Service
	purchaseSvc purchasedomain.Service
	creditSvc   creditdomain.Service
	claimSvc    claimdomain.Service
	checkoutSvc checkoutdomain.Service
	paymentSvc  paymentdomain.Service
	downloadSvc downloaddomain.Service
	favoriteSvc favoritedomain.Service
	accountSvc  accountdomain.Service
	contactSvc  contactdomain.Service
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Verifier    authdomain.Verifier
	Sessions    *session.Manager
	AuthzSvc    authorization.Service
	Limiter     *ratelimit.Limiter
	CatalogSvc  catalogdomain.Service
	PurchaseSvc purchasedomain.Service
	CreditSvc   creditdomain.Service
	ClaimSvc    claimdomain.Service
	CheckoutSvc checkoutdomain.Service
	PaymentSvc  paymentdomain.Service
	DownloadSvc downloaddomain.Service
	FavoriteSvc favoritedomain.Service
	AccountSvc  accountdomain.Service
	ContactSvc  contactdomain.Service
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		verifier:    p.Verifier,
		sessions:    p.Sessions,
		authzSvc:    p.AuthzSvc,
		limiter:     p.Limiter,
		catalogSvc:  p.CatalogSvc,
		purchaseSvc: p.PurchaseSvc,
		creditSvc:   p.CreditSvc,
		claimSvc:    p.ClaimSvc,
		checkoutSvc: p.CheckoutSvc,
		paymentSvc:  p.PaymentSvc,
		downloadSvc: p.DownloadSvc,
		favoriteSvc: p.FavoriteSvc,
		accountSvc:  p.AccountSvc,
		contactSvc:  p.ContactSvc,
		obsMetrics:  p.ObsMetrics,
	}

	svc.registerPublicRoutes()
	svc.registerUserRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	api.GET("/songs", s.ListSongs)
	api.GET("/songs/:id", s.GetSong)

	// -------- Payment Webhooks --------
	api.POST("/webhook", s.HandleStripeWebhook)
	api.POST("/payments/webhooks/:provider", s.HandlePaymentWebhook)

	api.POST("/contact", s.RateLimit(), s.SubmitContact)
}

func (s *Server) registerUserRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.POST("/checkout", s.RateLimit(), s.CreateCheckout)
	api.GET("/purchases/:trackId/entitlement", s.GetEntitlement)
	api.GET("/library", s.ListLibrary)
	api.GET("/download", s.Download)

	api.POST("/free-claim", s.RateLimit(), s.FreeClaim)
	api.POST("/share/claim", s.RateLimit(), s.ClaimShareBonus)
	api.GET("/user/stats", s.GetUserStats)
	api.POST("/user/stats", s.UpdateUserStats)

	api.GET("/favorites", s.ListFavorites)
	api.POST("/favorites", s.AddFavorite)
	api.DELETE("/favorites", s.RemoveFavorite)

	api.POST("/auth/delete-account", s.DeleteAccount)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.AuthRequired())

	admin.POST("/songs", s.AuthorizeAction(authorization.ObjectCatalog, authorization.ActionCatalogCreate), s.CreateSong)
	admin.DELETE("/songs/:id", s.AuthorizeAction(authorization.ObjectCatalog, authorization.ActionCatalogDelete), s.DeleteSong)

	if !s.cfg.IsProduction() {
		wipe := s.AuthorizeAction(authorization.ObjectCatalog, authorization.ActionCatalogWipe)
		admin.POST("/temp-wipe", wipe, s.TempWipe)
		admin.GET("/temp-wipe", wipe, s.TempWipe)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
