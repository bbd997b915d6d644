package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sitescope/sitescope/internal/config"
	"github.com/sitescope/sitescope/internal/freescan"
	freescandomain "github.com/sitescope/sitescope/internal/freescan/domain"
	"github.com/sitescope/sitescope/internal/ledger"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	"github.com/sitescope/sitescope/internal/payment"
	paymentdomain "github.com/sitescope/sitescope/internal/payment/domain"
	"github.com/sitescope/sitescope/internal/promo"
	promodomain "github.com/sitescope/sitescope/internal/promo/domain"
	"github.com/sitescope/sitescope/internal/ratelimit"
	"github.com/sitescope/sitescope/internal/scan"
	scandomain "github.com/sitescope/sitescope/internal/scan/domain"
	"github.com/sitescope/sitescope/internal/subscription"
	subscriptiondomain "github.com/sitescope/sitescope/internal/subscription/domain"
	"github.com/sitescope/sitescope/internal/user"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	user.Module,
	ledger.Module,
	promo.Module,
	subscription.Module,
	payment.Module,
	freescan.Module,
	scan.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(RunHTTP),
)

func NewEngine(log *zap.Logger, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	userSvc     userdomain.Service
	ledgerSvc   ledgerdomain.Service
	promoSvc    promodomain.Service
	subSvc      subscriptiondomain.Service
	paymentSvc  paymentdomain.Service
	freescanSvc freescandomain.Service
	scanSvc     scandomain.Service
	scanLimiter *ratelimit.ScanSubmitLimiter
}

type ServerParam struct {
	fx.In

	Engine      *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	UserSvc     userdomain.Service
	LedgerSvc   ledgerdomain.Service
	PromoSvc    promodomain.Service
	SubSvc      subscriptiondomain.Service
	PaymentSvc  paymentdomain.Service
	FreescanSvc freescandomain.Service
	ScanSvc     scandomain.Service
	ScanLimiter *ratelimit.ScanSubmitLimiter `optional:"true"`
}

func NewServer(p ServerParam) *Server {
	return &Server{
		engine:      p.Engine,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		userSvc:     p.UserSvc,
		ledgerSvc:   p.LedgerSvc,
		promoSvc:    p.PromoSvc,
		subSvc:      p.SubSvc,
		paymentSvc:  p.PaymentSvc,
		freescanSvc: p.FreescanSvc,
		scanSvc:     p.ScanSvc,
		scanLimiter: p.ScanLimiter,
	}
}

func RegisterRoutes(s *Server) {
	v1 := s.engine.Group("/v1")

	v1.POST("/scans", s.HandleSubmitScan)
	v1.GET("/credits/balance", s.HandleGetBalance)
	v1.GET("/credits/history", s.HandleListEntries)
	v1.GET("/freescan", s.HandleFreeScanStatus)
	v1.GET("/subscription", s.HandleGetSubscription)
	v1.POST("/signup/bonus", s.HandleSignupBonus)
	v1.POST("/promo/redeem", s.HandleRedeemPromo)
	v1.POST("/promo/codes", s.HandleCreatePromoCode)
	v1.POST("/webhooks/payment", s.HandlePaymentWebhook)
}

func RunHTTP(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	logger := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
