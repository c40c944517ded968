// README: Location snapshot for persistence and replay.
package location

import (
	"time"

	"bitebay/internal/apperr"
	"bitebay/internal/types"
)

type Snapshot struct {
	ID         int64
	PartnerID  types.ID
	Position   types.Point
	RecordedAt time.Time
}

var (
	ErrForbidden       = apperr.New(apperr.ErrForbidden, "only delivery partners report locations")
	ErrInvalidPosition = apperr.New(apperr.ErrValidation, "latitude must be within [-90, 90] and longitude within [-180, 180]")
	ErrPartnerNotFound = apperr.New(apperr.ErrNotFound, "delivery partner not found")
)
