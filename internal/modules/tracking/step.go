// README: Pure derivations for the tracking view: step index, position estimate, map gate.
package tracking

import (
	"bitebay/internal/geo"
	"bitebay/internal/modules/delivery"
	"bitebay/internal/modules/order"
	"bitebay/internal/types"
)

const (
	StepPlaced = iota
	StepConfirmed
	StepPreparing
	StepReady
	StepDispatched
	StepOnTheWay
	StepDelivered
)

var StepLabels = []string{
	"Order placed",
	"Order confirmed",
	"Preparing",
	"Ready for pickup",
	"Dispatched",
	"On the way",
	"Delivered",
}

// CurrentStep combines both statuses; the highest matching rule wins.
func CurrentStep(orderStatus order.Status, assignmentStatus delivery.Status) int {
	switch {
	case orderStatus == order.StatusDelivered || assignmentStatus == delivery.StatusDelivered:
		return StepDelivered
	case assignmentStatus == delivery.StatusInTransit || assignmentStatus == delivery.StatusPickedUp:
		return StepOnTheWay
	case orderStatus == order.StatusDispatched:
		return StepDispatched
	case orderStatus == order.StatusReady:
		return StepReady
	case orderStatus == order.StatusPreparing:
		return StepPreparing
	case orderStatus == order.StatusConfirmed:
		return StepConfirmed
	default:
		return StepPlaced
	}
}

// EstimatePosition prefers the partner's live fix. Without one it places the
// order at the store until pickup, halfway while on the way, and at the
// customer once delivered.
func EstimatePosition(step int, partner, store, customer *types.Point) *types.Point {
	if partner != nil {
		return partner
	}
	switch {
	case step <= StepDispatched:
		return store
	case step == StepOnTheWay:
		if store == nil || customer == nil {
			return nil
		}
		m := geo.Midpoint(*store, *customer)
		return &m
	default:
		return customer
	}
}

func ShowMap(step int, store, customer *types.Point) bool {
	return step >= StepDispatched && store != nil && customer != nil
}
