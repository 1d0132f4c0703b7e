package api

import "time"

// ErrorBody is the envelope for every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Broker string `json:"broker"`
}

// CustomerCount is one subscribed population.
type CustomerCount struct {
	Key        string `json:"key"`
	Population int    `json:"population"`
}

// CustomersResponse answers GET /api/v1/customers.
type CustomersResponse struct {
	Customers []CustomerCount `json:"customers"`
}

// OrderView is one live entry of the last-order table.
type OrderView struct {
	ID         string  `json:"id"`
	Timeslot   int     `json:"timeslot"`
	MWh        float64 `json:"mwh"`
	LimitPrice float64 `json:"limit_price"`
}

// OrdersResponse answers GET /api/v1/orders.
type OrdersResponse struct {
	Orders []OrderView `json:"orders"`
}

// CustomerSeries summarizes one customer's bootstrap usage series.
type CustomerSeries struct {
	Name      string  `json:"name"`
	PowerType string  `json:"power_type"`
	Timeslots int     `json:"timeslots"`
	TotalKWh  float64 `json:"total_kwh"`
}

// MarketSeries summarizes the market bootstrap series.
type MarketSeries struct {
	Timeslots int     `json:"timeslots"`
	TotalMWh  float64 `json:"total_mwh"`
}

// BootstrapResponse answers GET /api/v1/bootstrap.
type BootstrapResponse struct {
	Customers      []CustomerSeries `json:"customers"`
	Market         *MarketSeries    `json:"market,omitempty"`
	WeatherReports int              `json:"weather_reports"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
