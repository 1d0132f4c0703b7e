package broker

import "time"

// Clock is the broker's read-only view of simulated time.
type Clock interface {
	// CurrentTimeslot returns the serial number of the running timeslot.
	CurrentTimeslot() int
	// EnabledTimeslots returns the future timeslots open for trading, ascending.
	EnabledTimeslots() []int
	// TimeslotStart returns the start instant of the given timeslot.
	TimeslotStart(serial int) time.Time
}

// TariffMarket accepts the broker's standing tariffs.
type TariffMarket interface {
	SetDefaultTariff(spec *TariffSpecification)
}

// OrderRouter carries orders to the wholesale market. Routing is
// fire-and-forget; the broker never waits for an acknowledgement.
type OrderRouter interface {
	RouteOrder(order *Order)
}

// PositionLookup reports the broker's current market position for a timeslot.
type PositionLookup interface {
	FindMarketPosition(timeslot int) (*MarketPosition, bool)
}

// CustomerRepo resolves customer classes by name.
type CustomerRepo interface {
	FindByName(name string) (*CustomerInfo, bool)
}

// Collaborators groups everything the broker needs from its host.
type Collaborators struct {
	Clock        Clock
	Competition  Competition
	TariffMarket TariffMarket
	Router       OrderRouter
	Positions    PositionLookup
	Customers    CustomerRepo
	RNG          *PartitionedRNG
}
