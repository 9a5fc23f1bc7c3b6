// Package httpapi exposes the registry entry points over HTTP with gin.
package httpapi

import (
	"errors"
	"expvar"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"kittycore/internal/core"
	"kittycore/internal/observability"
	"kittycore/pkg/domain"
)

const originKey = "kittycore.origin"

// Options configures the router.
type Options struct {
	Logger      zerolog.Logger
	CORSOrigins []string
	// Metrics mounts GET /metrics backed by the default Prometheus registry.
	Metrics bool
	// Expvar mounts GET /debug/vars.
	Expvar bool
}

// Server binds a core.Service to HTTP routes.
type Server struct {
	service *core.Service
	auth    domain.Authenticator
	router  *gin.Engine
	started time.Time
}

// New builds the router. auth resolves bearer tokens for mutating routes.
func New(service *core.Service, auth domain.Authenticator, opts Options) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(opts.Logger))
	if opts.Metrics {
		r.Use(observability.RequestMetrics())
	}
	if origins := normalizeOrigins(opts.CORSOrigins); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{service: service, auth: auth, router: r, started: time.Now()}
	s.registerRoutes(opts)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes(opts Options) {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(s.started).String()})
	})
	if opts.Metrics {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	if opts.Expvar {
		s.router.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	}

	v1 := s.router.Group("/v1")
	v1.GET("/kitties/:id", s.getKitty)
	v1.GET("/kitties", s.getCount)
	v1.GET("/accounts/:account/balance", s.getBalance)

	signed := v1.Group("", s.requireOrigin)
	signed.POST("/kitties", s.createKitty)
	signed.POST("/kitties/breed", s.breedKitty)
	signed.PUT("/kitties/:id/price", s.setPrice)
	signed.POST("/kitties/:id/buy", s.buyKitty)
	signed.POST("/kitties/:id/transfer", s.transferKitty)
}

// requireOrigin authenticates the bearer token and stores the origin.
func (s *Server) requireOrigin(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		writeError(c, domain.NewError(domain.CodeBadOrigin, "bearer token required"))
		c.Abort()
		return
	}
	origin, err := s.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		c.Abort()
		return
	}
	c.Set(originKey, origin)
	c.Next()
}

func originFrom(c *gin.Context) domain.Origin {
	if v, ok := c.Get(originKey); ok {
		if origin, ok := v.(domain.Origin); ok {
			return origin
		}
	}
	return domain.Origin{}
}

type errorBody struct {
	Code    domain.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps registry codes onto HTTP statuses.
func statusFor(err error) int {
	var rv domain.RuleViolationError
	if errors.As(err, &rv) {
		return http.StatusUnprocessableEntity
	}
	switch domain.CodeOf(err) {
	case domain.CodeUnknownKitty:
		return http.StatusNotFound
	case domain.CodeNotOwner:
		return http.StatusForbidden
	case domain.CodeBadOrigin:
		return http.StatusUnauthorized
	case domain.CodeNoPriceSet, domain.CodeKittiesCountOverflow:
		return http.StatusConflict
	case domain.CodeIdenticalParents, domain.CodePriceMustBePositive, domain.CodeCannotTransferToSelf, domain.CodeInvalidAccount:
		return http.StatusUnprocessableEntity
	case domain.CodeInsufficientFunds, domain.CodeKeepAlive, domain.CodeExistentialDeposit:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorBody{Code: domain.CodeOf(err), Message: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		body.Message = de.Message
	} else if status == http.StatusInternalServerError {
		body.Message = "internal error"
	}
	_ = c.Error(err)
	c.JSON(status, body)
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
