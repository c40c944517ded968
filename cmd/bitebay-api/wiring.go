// README: Picks infrastructure providers from config.
package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"bitebay/internal/config"
	"bitebay/internal/geo"
	"bitebay/internal/http/middleware"
	"bitebay/internal/infra"
)

const cityKmPerHour = 20

func identityProvider(ctx context.Context, cfg config.Config, db *pgxpool.Pool) (infra.IdentityProvider, error) {
	if cfg.Auth.Provider == config.AuthProviderFirebase {
		return infra.NewFirebaseProvider(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.CredentialsFile)
	}
	return infra.NewJWTProvider(cfg.Auth.JWTSecret, db), nil
}

func newMailer(ctx context.Context, cfg config.Config) (infra.Mailer, error) {
	if !cfg.Email.Enabled {
		return infra.LogMailer{}, nil
	}
	return infra.NewSESMailer(ctx, cfg.Email.Region, cfg.Email.Sender)
}

// newGeocoder prefers Google when a key is configured; the built-in place table
// always answers last.
func newGeocoder(cfg config.Config, log *zap.Logger) geo.Geocoder {
	chain := geo.Chain{}
	if cfg.Maps.APIKey != "" {
		g, err := geo.NewGoogleGeocoder(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			log.Warn("google geocoder disabled", zap.Error(err))
		} else {
			chain = append(chain, g)
		}
	}
	return append(chain, geo.NewFallbackGeocoder(geo.DefaultPlaces))
}

// newRouter backs Google directions with a straight-line estimate at city speed.
func newRouter(cfg config.Config, log *zap.Logger) geo.Router {
	chain := geo.RouteChain{}
	if cfg.Maps.APIKey != "" {
		r, err := geo.NewGoogleRouter(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			log.Warn("google directions disabled", zap.Error(err))
		} else {
			chain = append(chain, r)
		}
	}
	return append(chain, geo.SpeedRouter{KmPerHour: cityKmPerHour})
}

func sweepLimiter(ctx context.Context, l *middleware.Limiter) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}
