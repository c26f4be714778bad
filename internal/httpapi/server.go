// Package httpapi is the REST surface of the service.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"coursecart-be/internal/cart"
	"coursecart-be/internal/catalog"
	"coursecart-be/internal/checkout"
	"coursecart-be/internal/enrollment"
	"coursecart-be/internal/logger"
	"coursecart-be/internal/metrics"
	mw "coursecart-be/internal/middleware"
	"coursecart-be/internal/order"
	"coursecart-be/internal/payment/webhook"
	"coursecart-be/internal/user"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Pinger reports database reachability for the readiness probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Address      string
	CORSOrigins  []string
	SecureCookie bool

	DB          Pinger
	Users       user.Service
	Catalog     catalog.Service
	Cart        cart.Service
	Checkout    checkout.Service
	Orders      order.Service
	Enrollments enrollment.Service
	Webhooks    *webhook.Handler
	Metrics     *metrics.Metrics
	Limiter     *mw.RateLimiter
}

type Server struct {
	opts *Options
	app  *echo.Echo
}

func NewServer(opts *Options) *Server {
	s := &Server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	v := NewValidator()

	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Validator = v
	s.app.HTTPErrorHandler = NewHTTPErrorHandler(v)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(logger.RequestID())
	s.app.Use(mw.RequestLogger())
	if s.opts.Metrics != nil {
		s.app.Use(mw.Metrics(s.opts.Metrics))
	}
	s.app.Use(middleware.Recover())
	if len(s.opts.CORSOrigins) > 0 {
		s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     s.opts.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders: []string{
				echo.HeaderContentType,
				echo.HeaderAuthorization,
				logger.HeaderRequestID,
				HeaderIdempotencyKey,
			},
		}))
	}
	s.app.Use(mw.Authenticate())
	if s.opts.Limiter != nil {
		s.app.Use(s.opts.Limiter.Middleware())
	}

	s.routes()
}

func (s *Server) routes() {
	e := s.app
	requireAuth := mw.RequireAuth

	// Operations
	e.GET("/health/live", s.live)
	e.GET("/health/ready", s.ready)
	if s.opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}

	// Session
	a := e.Group("/auth")
	a.POST("/register", s.register)
	a.POST("/login", s.login)
	a.POST("/logout", s.logout)
	a.GET("/me", s.me, requireAuth)

	// Catalog
	e.GET("/courses", s.listCourses)
	e.GET("/courses/:slug", s.getCourse)

	// Cart
	c := e.Group("/cart", requireAuth)
	c.POST("", s.addCartItem)
	c.GET("", s.listCart)
	c.DELETE("", s.clearCart)
	c.GET("/check", s.checkCart)
	c.DELETE("/:id", s.removeCartItem)

	// Checkout
	e.POST("/checkout", s.checkout)
	e.POST("/checkout/buy", s.buyNow)
	e.POST("/checkout/verify", s.verifyPayment)
	if s.opts.Webhooks != nil {
		e.POST("/webhook/razorpay", s.opts.Webhooks.Razorpay)
	}

	// Orders & enrollments
	e.GET("/orders", s.listOrders, requireAuth)
	e.GET("/orders/:id", s.getOrder, requireAuth)
	e.GET("/enrollments", s.listEnrollments, requireAuth)

	// Admin
	adm := e.Group("/admin", mw.RequireAdmin)
	adm.GET("/courses", s.adminListCourses)
	adm.POST("/courses", s.adminCreateCourse)
	adm.PUT("/courses/:id", s.adminUpdateCourse)
	adm.DELETE("/courses/:id", s.adminDeleteCourse)
	adm.GET("/:kind", s.adminListLookups)
	adm.POST("/:kind", s.adminCreateLookup)
	adm.PUT("/:kind/:id", s.adminUpdateLookup)
	adm.DELETE("/:kind/:id", s.adminDeleteLookup)
}

func (s *Server) Start() error {
	logger.L().Info("HTTP server listening on " + s.opts.Address)
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// ServeHTTP lets tests drive the router directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *Server) live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) ready(c echo.Context) error {
	if s.opts.DB == nil {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.opts.DB.PingContext(ctx); err != nil {
		logger.FromCtx(ctx).Warn("readiness check failed")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
