// README: API gateway; builds the gin engine and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitebay/internal/http/handlers"
	"bitebay/internal/http/middleware"
	"bitebay/internal/infra"
)

type ServerDeps struct {
	Verifier       infra.TokenVerifier
	Resolver       middleware.CallerResolver
	AllowedOrigins []string
	Limiter        *middleware.Limiter

	Registration  handlers.Registrar
	Profiles      handlers.Profiles
	Orders        handlers.OrderAdvancer
	Deliveries    handlers.Deliveries
	Refunds       handlers.RefundProcessor
	Stats         handlers.StatsReader
	Locations     handlers.Locations
	Notifications handlers.Notifications
	Tracking      handlers.Snapshotter
	Feed          handlers.FeedRunner
	OTP           handlers.Passcodes
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	return &Server{deps: deps}
}

func (s *Server) Routes() *gin.Engine {
	d := s.deps
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestID(), middleware.Logging(), middleware.CORS(d.AllowedOrigins))

	auth := middleware.Auth(d.Verifier, d.Resolver)
	optionalAuth := middleware.OptionalAuth(d.Verifier, d.Resolver)
	limit := d.Limiter.Middleware()

	fn := handlers.NewFunctionsHandler(d.Registration, d.Orders, d.Deliveries, d.Refunds, d.Stats)
	functions := r.Group("/functions/v1")
	functions.POST("/register-user", optionalAuth, limit, fn.RegisterUser)
	functions.POST("/update-order-status", auth, fn.UpdateOrderStatus)
	functions.POST("/accept-delivery", auth, fn.AcceptDelivery)
	functions.POST("/process-refund", auth, fn.ProcessRefund)
	functions.GET("/admin-stats", auth, fn.AdminStats)

	api := r.Group("/api/v1", auth)

	profileHandler := handlers.NewProfileHandler(d.Profiles)
	api.GET("/me", profileHandler.Me)

	trackingHandler := handlers.NewTrackingHandler(d.Tracking, d.Feed)
	api.GET("/orders/:id/tracking", trackingHandler.Get)
	api.GET("/orders/:id/tracking/stream", trackingHandler.Stream)

	deliveryHandler := handlers.NewDeliveryHandler(d.Deliveries, d.Locations)
	api.POST("/deliveries/:orderId/progress", deliveryHandler.Progress)
	api.PUT("/partners/me/location", deliveryHandler.UpdateLocation)
	api.PUT("/partners/me/availability", deliveryHandler.SetAvailability)

	notificationHandler := handlers.NewNotificationHandler(d.Notifications)
	api.GET("/notifications", notificationHandler.List)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)

	adminHandler := handlers.NewAdminHandler(d.Registration)
	api.POST("/admin/users/:id/role", adminHandler.AssignRole)
	api.POST("/admin/users/:id/verify", adminHandler.Verify)

	otpHandler := handlers.NewOTPHandler(d.OTP)
	otpGroup := r.Group("/auth/v1", limit)
	otpGroup.POST("/otp", otpHandler.Issue)
	otpGroup.POST("/otp/verify", otpHandler.Verify)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// OPTIONS preflights land here and are answered by the CORS middleware.
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}
