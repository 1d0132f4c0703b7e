// Package sim provides a deterministic host for the default broker.
//
// # Reading Guide
//
// Start with these files to understand the host loop:
//   - world.go: World wiring and the per-timeslot Step
//   - bus.go: deterministic message ordering within a timeslot
//   - market.go: order matching and market positions
//
// # Timeslot order
//
// Each Step posts, for the current timeslot: market clearings for orders
// placed last timeslot, customer tariff transactions, the weather report,
// the TimeslotUpdate, and finally the CashPosition. The bus delivers them
// sorted by kind priority, so the broker always trades last.
//
// # Determinism
//
// All randomness flows from one broker.PartitionedRNG seeded from the
// scenario. Customers, market and weather each draw from their own
// subsystem, so changing one model never perturbs the others.
package sim
