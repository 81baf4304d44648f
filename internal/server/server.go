package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/payline/internal/config"
	"github.com/smallbiznis/payline/internal/observability"
	obslogger "github.com/smallbiznis/payline/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/payline/internal/observability/metrics"
	obstracing "github.com/smallbiznis/payline/internal/observability/tracing"
	"github.com/smallbiznis/payline/internal/payment"
	paymentdomain "github.com/smallbiznis/payline/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	payment.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
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

type Params struct {
	fx.In

	Engine     *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	PaymentSvc paymentdomain.Service
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	paymentSvc paymentdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		engine:     p.Engine,
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("http.server"),
		paymentSvc: p.PaymentSvc,
	}
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")

	payments := api.Group("/payments")
	payments.POST("", s.CreatePayment)
	payments.GET("", s.ListPayments)
	payments.GET("/:id", s.GetPaymentByID)
	payments.PUT("/:id", s.UpdatePaymentStatus)
	payments.GET("/payer/:payerId", s.ListPaymentsByPayer)

	api.POST("/internal/test/cleanup", s.TestCleanup)
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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
