package delivery

import (
	"net/http"

	"github.com/chainguard-dev/clog"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/ysawayama/u11-premier-pwa-sub001/storage"
)

// Server exposes the delivery and registration surface over HTTP.
type Server struct {
	store     storage.Storage
	svc       *Service
	publicKey string // VAPID applicationServerKey handed to clients
	jwtSecret []byte
}

// NewServer creates the HTTP surface. publicKey is the base64url VAPID
// public key clients pass to PushManager.subscribe().
func NewServer(store storage.Storage, svc *Service, publicKey string, jwtSecret []byte) *Server {
	return &Server{
		store:     store,
		svc:       svc,
		publicKey: publicKey,
		jwtSecret: jwtSecret,
	}
}

// Register mounts the routes. Registration endpoints need any authenticated
// user; the send endpoint is restricted to coach/admin.
func (s *Server) Register(e *echo.Echo) {
	e.Validator = NewValidator()

	e.GET("/api/push/vapid-public-key", s.handleVAPIDPublicKey)

	api := e.Group("/api/push", Auth(s.jwtSecret))
	api.POST("/subscriptions", s.handleSubscribe)
	api.DELETE("/subscriptions", s.handleUnsubscribe)
	api.POST("/send", s.handleSend, RequireRole(RoleCoach, RoleAdmin))
}

func (s *Server) handleVAPIDPublicKey(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"publicKey": s.publicKey})
}

func (s *Server) handleSubscribe(c echo.Context) error {
	var req SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	sub := req.subscription()
	if err := sub.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	record := &storage.Record{
		UserID:       principal(c).Subject,
		Subscription: sub,
	}
	if err := s.store.Upsert(c.Request().Context(), record); err != nil {
		clog.FromContext(c.Request().Context()).Errorf("saving subscription: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save subscription")
	}

	clog.FromContext(c.Request().Context()).Infof("registered subscription %s for user %s", record.ID, record.UserID)
	return c.JSON(http.StatusOK, map[string]string{"id": record.ID})
}

func (s *Server) handleUnsubscribe(c echo.Context) error {
	var req UnsubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := s.store.DeleteByEndpoint(c.Request().Context(), req.Endpoint); err != nil {
		clog.FromContext(c.Request().Context()).Errorf("deleting subscription: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete subscription")
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSend(c echo.Context) error {
	ctx := c.Request().Context()

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	target, err := req.target()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	records, err := s.svc.Resolve(ctx, target)
	if err != nil {
		clog.FromContext(ctx).Errorf("resolving recipients: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "subscription lookup failed")
	}

	result, err := s.svc.Deliver(ctx, records, req.Notification.payload())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "building push payload failed")
	}

	clog.FromContext(ctx).Infof("fan-out by %s: sent %d of %d", principal(c).Subject, result.Sent, result.Total)
	return c.JSON(http.StatusOK, result)
}

// Validator adapts go-playground/validator to echo, mapping struct
// validation failures to 400.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
