package router

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fakenews-detector/internal/core/auth"
	"fakenews-detector/internal/domain"
	"fakenews-detector/internal/inference"
	httpez "fakenews-detector/internal/transport/http/ez"
	mdw "fakenews-detector/internal/transport/http/middleware"
)

// Classifier is the inference adapter seen by the handlers.
type Classifier interface {
	Classify(ctx context.Context, text string) (*inference.Result, error)
}

// TextExtractor is the OCR adapter seen by the handlers.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, image io.Reader) (string, error)
}

// Deps holds everything the request pipeline needs, constructed once in
// main and injected. No handler touches process-global state.
type Deps struct {
	Log        *zap.Logger
	JWT        *auth.JWTer
	Users      domain.UserRepository
	History    domain.HistoryRepository
	Classifier Classifier
	OCR        TextExtractor
}

type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewAPIEngine(d Deps, opt Options) *gin.Engine {
	if opt.RequestTimeout <= 0 {
		opt.RequestTimeout = 30 * time.Second
	}

	r := gin.New()
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(opt.RequestTimeout),
		ginzap.RecoveryWithZap(d.Log, true),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = opt.CORSOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "AI Fake News Detector API"})
	})
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pub := r.Group("")
	authed := r.Group("")
	authed.Use(mdw.AuthJWT(d.JWT))

	mountAuthActions(httpez.New(pub), d)
	mountAnalysisActions(httpez.New(authed), d)
	mountUserActions(httpez.New(authed), d)

	return r
}
