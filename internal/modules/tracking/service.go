// README: Assembles a full tracking snapshot for one order.
package tracking

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"bitebay/internal/apperr"
	"bitebay/internal/geo"
	"bitebay/internal/logger"
	"bitebay/internal/modules/delivery"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/order"
	"bitebay/internal/types"
)

var ErrForbidden = apperr.New(apperr.ErrForbidden, "not allowed to track this order")

const (
	geocodeCacheSize = 1024
	geocodeCacheTTL  = 6 * time.Hour
)

type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	Storefront(ctx context.Context, id types.ID) (*order.Storefront, error)
	Items(ctx context.Context, orderID types.ID) ([]order.Item, error)
}

type Deliveries interface {
	Assignment(ctx context.Context, orderID types.ID) (*delivery.Assignment, error)
	Partner(ctx context.Context, id types.ID) (*delivery.Partner, error)
}

type PartnerView struct {
	ID            types.ID `json:"id"`
	VehicleType   string   `json:"vehicleType,omitempty"`
	VehicleNumber string   `json:"vehicleNumber,omitempty"`
}

// Refresh tells clients how often to poll when they cannot hold a stream open.
type Refresh struct {
	TrackingSeconds int `json:"trackingSeconds"`
	ListSeconds     int `json:"listSeconds"`
}

// Snapshot is the complete view state; consumers replace, never merge.
type Snapshot struct {
	OrderID          types.ID        `json:"orderId"`
	Status           order.Status    `json:"status"`
	AssignmentStatus delivery.Status `json:"assignmentStatus,omitempty"`
	Step             int             `json:"step"`
	StepLabel        string          `json:"stepLabel"`
	Items            []order.Item    `json:"items"`
	StoreName        string          `json:"storeName"`
	StorePoint       *types.Point    `json:"storeLocation,omitempty"`
	DeliveryAddress  string          `json:"deliveryAddress"`
	CustomerPoint    *types.Point    `json:"deliveryLocation,omitempty"`
	Partner          *PartnerView    `json:"deliveryPartner,omitempty"`
	Position         *types.Point    `json:"position,omitempty"`
	PositionLive     bool            `json:"positionLive"`
	ETAMinutes       *int            `json:"etaMinutes,omitempty"`
	ShowMap          bool            `json:"showMap"`
	Terminal         bool            `json:"terminal"`
	Refresh          *Refresh        `json:"refresh,omitempty"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}

type Service struct {
	orders     Orders
	deliveries Deliveries
	geocoder   geo.Geocoder
	geoTimeout time.Duration
	router     geo.Router
	refresh    *Refresh

	// geocoded holds hits and definitive misses (nil) per address.
	geocoded *expirable.LRU[string, *types.Point]
}

func NewService(orders Orders, deliveries Deliveries, geocoder geo.Geocoder, geoTimeout time.Duration) *Service {
	return &Service{
		orders:     orders,
		deliveries: deliveries,
		geocoder:   geocoder,
		geoTimeout: geoTimeout,
		geocoded:   expirable.NewLRU[string, *types.Point](geocodeCacheSize, nil, geocodeCacheTTL),
	}
}

// UseRouter enables arrival estimates once the order has left the store.
func (s *Service) UseRouter(r geo.Router) {
	s.router = r
}

// UseRefreshIntervals advertises the poll cadence in every snapshot.
func (s *Service) UseRefreshIntervals(tracking, list time.Duration) {
	s.refresh = &Refresh{
		TrackingSeconds: int(tracking / time.Second),
		ListSeconds:     int(list / time.Second),
	}
}

func (s *Service) Snapshot(ctx context.Context, caller *identity.Caller, orderID types.ID) (*Snapshot, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	sf, err := s.orders.Storefront(ctx, o.StoreID)
	if err != nil {
		return nil, err
	}
	a, err := s.deliveries.Assignment(ctx, orderID)
	if err == delivery.ErrAssignmentNotFound {
		a, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !canView(caller, o, sf, a) {
		return nil, ErrForbidden
	}

	snap := &Snapshot{
		OrderID:         o.ID,
		Status:          o.Status,
		StoreName:       sf.Name,
		StorePoint:      sf.Point,
		DeliveryAddress: o.DeliveryAddress,
		CustomerPoint:   o.DeliveryPoint,
		Refresh:         s.refresh,
		GeneratedAt:     time.Now().UTC(),
	}
	if snap.Items, err = s.orders.Items(ctx, o.ID); err != nil {
		logger.FromCtx(ctx).Warn("load order items failed",
			zap.String("order_id", string(o.ID)), zap.Error(err))
		snap.Items = []order.Item{}
	}
	if snap.StorePoint == nil {
		snap.StorePoint = s.geocode(ctx, sf.Address)
	}
	if snap.CustomerPoint == nil {
		snap.CustomerPoint = s.geocode(ctx, o.DeliveryAddress)
	}

	var live *types.Point
	if a != nil {
		snap.AssignmentStatus = a.Status
		if a.PartnerID != nil {
			p, err := s.deliveries.Partner(ctx, *a.PartnerID)
			if err != nil {
				logger.FromCtx(ctx).Warn("load delivery partner failed",
					zap.String("order_id", string(o.ID)), zap.Error(err))
			} else {
				snap.Partner = &PartnerView{ID: p.UserID, VehicleType: p.VehicleType, VehicleNumber: p.VehicleNumber}
				live = p.Position
			}
		}
	}

	snap.Step = CurrentStep(o.Status, snap.AssignmentStatus)
	snap.StepLabel = StepLabels[snap.Step]
	snap.Position = EstimatePosition(snap.Step, live, snap.StorePoint, snap.CustomerPoint)
	snap.PositionLive = live != nil
	snap.ShowMap = ShowMap(snap.Step, snap.StorePoint, snap.CustomerPoint)
	snap.Terminal = o.Status.Terminal() || snap.AssignmentStatus == delivery.StatusDelivered
	if snap.Step == StepDispatched || snap.Step == StepOnTheWay {
		snap.ETAMinutes = s.eta(ctx, snap.Position, snap.CustomerPoint)
	}
	return snap, nil
}

func (s *Service) eta(ctx context.Context, from, to *types.Point) *int {
	if s.router == nil || from == nil || to == nil {
		return nil
	}
	rctx, cancel := context.WithTimeout(ctx, s.geoTimeout)
	defer cancel()
	d, err := s.router.TravelTime(rctx, *from, *to)
	if err != nil {
		logger.FromCtx(ctx).Info("eta unavailable", zap.Error(err))
		return nil
	}
	minutes := int(math.Ceil(d.Minutes()))
	return &minutes
}

func canView(c *identity.Caller, o *order.Order, sf *order.Storefront, a *delivery.Assignment) bool {
	switch {
	case c == nil:
		return false
	case c.IsAdmin():
		return true
	case c.Is(identity.RoleCustomer):
		return o.CustomerID == c.UserID
	case c.Is(identity.RoleVendor):
		return sf.VendorID == c.UserID
	case c.Is(identity.RoleDeliveryPartner):
		return a != nil && a.AssignedTo(c.UserID)
	}
	return false
}

// geocode resolves an address through the cache. Only answers and
// definitive misses are cached; transient failures are retried next time.
func (s *Service) geocode(ctx context.Context, address string) *types.Point {
	if s.geocoder == nil || address == "" {
		return nil
	}
	if p, seen := s.geocoded.Get(address); seen {
		return p
	}

	gctx, cancel := context.WithTimeout(ctx, s.geoTimeout)
	defer cancel()
	pt, err := s.geocoder.Geocode(gctx, address)
	if err != nil {
		logger.FromCtx(ctx).Info("geocode failed", zap.String("address", address), zap.Error(err))
		if errors.Is(err, geo.ErrNoResult) {
			s.geocoded.Add(address, nil)
		}
		return nil
	}
	s.geocoded.Add(address, &pt)
	return &pt
}
