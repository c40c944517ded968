package geo

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"bitebay/internal/logger"
	"bitebay/internal/types"
)

// Chain asks each geocoder in turn and returns the first answer.
type Chain []Geocoder

func (c Chain) Geocode(ctx context.Context, address string) (types.Point, error) {
	var errs []error
	for _, g := range c {
		p, err := g.Geocode(ctx, address)
		if err == nil {
			return p, nil
		}
		logger.FromCtx(ctx).Debug("geocoder miss", zap.String("address", address), zap.Error(err))
		errs = append(errs, err)
	}
	return types.Point{}, exhausted(errs)
}

func (c Chain) Reverse(ctx context.Context, p types.Point) (string, error) {
	var errs []error
	for _, g := range c {
		addr, err := g.Reverse(ctx, p)
		if err == nil {
			return addr, nil
		}
		errs = append(errs, err)
	}
	return "", exhausted(errs)
}

// exhausted reports ErrNoResult only when every member answered with a miss;
// a transient failure anywhere keeps the lookup retryable.
func exhausted(errs []error) error {
	for _, err := range errs {
		if !errors.Is(err, ErrNoResult) {
			return errors.Join(errs...)
		}
	}
	return errors.Join(append([]error{ErrNoResult}, errs...)...)
}
