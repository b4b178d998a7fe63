// Command pushd runs the push-notification delivery service: it holds the
// VAPID signing key, persists subscription registrations, and fans match
// notifications out to subscribed devices.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"

	"github.com/ysawayama/u11-premier-pwa-sub001/delivery"
	"github.com/ysawayama/u11-premier-pwa-sub001/keys"
	"github.com/ysawayama/u11-premier-pwa-sub001/storage"
	"github.com/ysawayama/u11-premier-pwa-sub001/webpush"
)

type config struct {
	Port   string `env:"PORT, default=8080"`
	DBPath string `env:"DB_PATH, default=subscriptions.db"`

	// Exactly one signing key source is used: KMS key name wins, then an
	// inline base64 key, then the PEM file (generated on first run).
	VAPIDKMSKey     string `env:"VAPID_KMS_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDKeyPath    string `env:"VAPID_KEY_PATH, default=vapid-private.pem"`
	VAPIDSubject    string `env:"VAPID_SUBJECT, default=mailto:club@example.com"`

	JWTSecret string `env:"JWT_SECRET, required"`

	PushTimeout time.Duration `env:"PUSH_TIMEOUT, default=30s"`
	PushTTL     int           `env:"PUSH_TTL, default=3600"`
	LogLevel    string        `env:"LOG_LEVEL, default=info"`
}

// signer is what the wiring needs from a VAPID key: message signing plus the
// public key clients subscribe with.
type signer interface {
	webpush.Signer
	PublicKeyBase64() string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FromContext(ctx).Fatalf("loading config: %v", err)
	}

	logger := clog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	ctx = clog.WithLogger(ctx, logger)
	log := clog.FromContext(ctx)

	sgn, err := newSigner(ctx, cfg)
	if err != nil {
		log.Fatalf("initializing VAPID signer: %v", err)
	}
	log.Infof("VAPID public key: %s", sgn.PublicKeyBase64())

	store, err := storage.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening subscription store: %v", err)
	}
	defer store.Close()

	pushClient := webpush.NewClient(sgn, cfg.VAPIDSubject).
		WithHTTPClient(&http.Client{Timeout: cfg.PushTimeout})

	svc := delivery.NewService(store, pushClient, cfg.PushTTL)
	srv := delivery.NewServer(store, svc, sgn.PublicKeyBase64(), []byte(cfg.JWTSecret))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(loggerMiddleware(logger))
	srv.Register(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("listening on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}

func newSigner(ctx context.Context, cfg config) (signer, error) {
	switch {
	case cfg.VAPIDKMSKey != "":
		return keys.NewKMSSigner(ctx, cfg.VAPIDKMSKey)
	case cfg.VAPIDPrivateKey != "":
		return keys.NewFileSignerFromBase64(cfg.VAPIDPrivateKey)
	default:
		return keys.LoadOrGenerate(cfg.VAPIDKeyPath)
	}
}

// loggerMiddleware puts the process logger into every request context and
// emits one line per request.
func loggerMiddleware(logger *clog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			c.SetRequest(req.WithContext(clog.WithLogger(req.Context(), logger)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("request",
				"method", req.Method,
				"uri", req.RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start).String(),
			)
			return err
		}
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
