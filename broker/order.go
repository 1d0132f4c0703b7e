package broker

import (
	"fmt"

	"github.com/google/uuid"
)

// orderNamespace scopes order IDs so they never collide with IDs minted
// elsewhere from the same names.
var orderNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("default-broker/order"))

// Order offers to buy (MWh > 0) or sell (MWh < 0) energy in a future
// timeslot. LimitPrice is per MWh; buy limits are negative because the
// broker pays.
type Order struct {
	ID         uuid.UUID
	Broker     string
	Timeslot   int
	MWh        float64
	LimitPrice float64
}

// NewOrder creates an order whose ID is derived from the broker name, the
// timeslot and a per-broker sequence number, so identical runs mint
// identical IDs.
func NewOrder(broker string, seq int64, timeslot int, mwh, limitPrice float64) *Order {
	name := fmt.Sprintf("%s/%d/%d", broker, timeslot, seq)
	return &Order{
		ID:         uuid.NewSHA1(orderNamespace, []byte(name)),
		Broker:     broker,
		Timeslot:   timeslot,
		MWh:        mwh,
		LimitPrice: limitPrice,
	}
}

// IsBuy reports whether the order buys energy.
func (o *Order) IsBuy() bool {
	return o.MWh > 0
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{%s ts=%d mwh=%g limit=%g}", o.ID, o.Timeslot, o.MWh, o.LimitPrice)
}
