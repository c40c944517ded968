// README: Entry point; loads config, wires services, serves HTTP until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bitebay/internal/config"
	httptransport "bitebay/internal/http"
	"bitebay/internal/http/middleware"
	"bitebay/internal/infra"
	"bitebay/internal/logger"
	"bitebay/internal/modules/delivery"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/location"
	"bitebay/internal/modules/notification"
	"bitebay/internal/modules/order"
	"bitebay/internal/modules/otp"
	"bitebay/internal/modules/refund"
	"bitebay/internal/modules/registration"
	"bitebay/internal/modules/stats"
	"bitebay/internal/modules/tracking"
	"bitebay/internal/realtime"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("load config", zap.Error(err))
	}
	logger.Init(cfg.Log.Env)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()
	bus := realtime.NewRedisBus(redisClient)

	idp, err := identityProvider(ctx, cfg, dbPool)
	if err != nil {
		log.Fatal("identity provider init", zap.Error(err))
	}
	mailer, err := newMailer(ctx, cfg)
	if err != nil {
		log.Fatal("mailer init", zap.Error(err))
	}
	geocoder := newGeocoder(cfg, log)

	identitySvc := identity.NewService(identity.NewStore(dbPool))
	notificationSvc := notification.NewService(notification.NewStore(dbPool), mailer, cfg.Settings.EmailNotifications)

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore, bus, notificationSvc)
	deliverySvc := delivery.NewService(
		delivery.NewStore(dbPool),
		delivery.NewRedisDispatchLog(redisClient),
		orderSvc,
		notificationSvc,
		bus,
	)
	orderSvc.UseBroadcaster(deliverySvc)

	locationSvc := location.NewService(location.NewStore(dbPool), bus)
	trackingSvc := tracking.NewService(orderSvc, deliverySvc, geocoder, cfg.Settings.GeolocationTimeout)
	trackingSvc.UseRouter(newRouter(cfg, log))
	trackingSvc.UseRefreshIntervals(cfg.Settings.TrackingPollInterval, cfg.Settings.ListPollInterval)
	feed := tracking.NewFeed(trackingSvc, bus, cfg.Settings.TrackingPollInterval)
	refundSvc := refund.NewService(refund.NewStore(dbPool), orderSvc, notificationSvc)
	registrationSvc := registration.NewService(registration.NewStore(dbPool), idp)
	statsSvc := stats.NewService(stats.NewStore(dbPool, orderStore), cfg.Settings.RecentOrdersLimit)
	otpSvc := otp.NewService(otp.NewStore(dbPool), mailer, cfg.Settings.OTPTTL)

	limiter := middleware.NewLimiter(cfg.Settings.RegisterRateLimit, cfg.Settings.RegisterBurst)
	go sweepLimiter(ctx, limiter)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Verifier:       idp,
		Resolver:       identitySvc,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Limiter:        limiter,
		Registration:   registrationSvc,
		Profiles:       identitySvc,
		Orders:         orderSvc,
		Deliveries:     deliverySvc,
		Refunds:        refundSvc,
		Stats:          statsSvc,
		Locations:      locationSvc,
		Notifications:  notificationSvc,
		Tracking:       trackingSvc,
		Feed:           feed,
		OTP:            otpSvc,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", zap.Error(err))
		}
	}()

	log.Info("bitebay api listening", zap.String("addr", cfg.HTTP.Addr), zap.String("auth", cfg.Auth.Provider))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("http server", zap.Error(err))
	}
	log.Info("bitebay api stopped")
}
