// Package broker implements the default broker of a retail electricity
// market simulation.
//
// # Reading Guide
//
// Start with these files:
//   - broker.go: the Broker service, message dispatch and bootstrap export
//   - customer.go: per-customer usage profile (hour-of-week ring, smoothed)
//   - planner.go: per-timeslot order generation
//   - escalator.go: limit-price escalation across repeated attempts
//
// # Host interfaces
//
// The broker never owns time, the message bus or the market. It reads them
// through small interfaces declared in collaborators.go:
//   - Clock: current and enabled timeslots
//   - TariffMarket: publication of the standing tariffs
//   - OrderRouter: outbound orders
//   - PositionLookup: the broker's committed energy per timeslot
//   - CustomerRepo: customer lookup when replaying bootstrap data
//
// The sim package provides a deterministic host implementing all of them.
//
// # Sign conventions
//
// Tariff-side quantities take the customer viewpoint (consumption kWh is
// negative). Market-side quantities take the broker viewpoint (positive MWh
// is bought; a buy limit price is negative because the broker pays).
package broker
