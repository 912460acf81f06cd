package server

import (
	"context"
	"net/http"
	"time"

	"studioslot/internal/auth"
	"studioslot/internal/booking"
	"studioslot/internal/class"
	"studioslot/internal/config"
	"studioslot/internal/favorite"
	"studioslot/internal/pass"
	"studioslot/internal/promotion"
	"studioslot/internal/user"

	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Users      *user.Handler
	Classes    *class.Handler
	Passes     *pass.Handler
	Bookings   *booking.Handler
	Favorites  *favorite.Handler
	Promotions *promotion.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, h Handlers, db Pinger, mailer EmailSender) *Server {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	limit := RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router.GET("/health", Health(db))
	router.GET("/metrics", Metrics())
	router.GET("/promotions/current", limit, h.Promotions.Current)
	SetupSwagger(router)

	// limit runs after auth so members are keyed by id rather than address
	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware, limit)
	{
		protected.GET("/me", h.Users.GetMe)
		protected.POST("/me/waiver", h.Users.SignWaiver)
		protected.GET("/me/streak", h.Bookings.GetStreak)

		protected.GET("/passes", h.Passes.ListPasses)
		protected.GET("/passes/active", h.Passes.GetActivePass)
		protected.GET("/passes/:passID/transactions", h.Passes.ListTransactions)

		protected.GET("/classes", h.Classes.ListSchedule)
		protected.GET("/classes/:classID", h.Classes.GetClass)
		protected.POST("/classes/:classID/book", h.Bookings.CreateBooking)

		protected.GET("/bookings", h.Bookings.ListMyBookings)
		protected.POST("/bookings/:bookingID/cancel", h.Bookings.CancelBooking)
		protected.GET("/bookings/:bookingID/checkin-code", h.Bookings.GetCheckInCode)

		protected.GET("/favorites", h.Favorites.List)
		protected.PUT("/favorites/:classID", h.Favorites.Add)
		protected.DELETE("/favorites/:classID", h.Favorites.Remove)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole("admin"), limit)
	{
		admin.GET("/classes", h.Classes.ListSchedule)
		admin.POST("/classes", h.Classes.CreateClass)
		admin.POST("/classes/import", h.Classes.ImportSchedule)
		admin.POST("/classes/:classID/cancel", h.Bookings.CancelClass)
		admin.GET("/classes/:classID/roster", h.Bookings.ListRoster)

		admin.POST("/checkin", h.Bookings.CheckIn)
		admin.POST("/bookings/:bookingID/attendance", h.Bookings.MarkAttendance)

		admin.POST("/promotions", h.Promotions.Create)
		admin.GET("/test-email", TestEmail(mailer))
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
