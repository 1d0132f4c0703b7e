package api

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tac-sim/default-broker/broker"
	"github.com/tac-sim/default-broker/broker/trace"
)

// BrokerView is the read side of a running broker. *broker.Guarded
// satisfies it.
type BrokerView interface {
	Name() string
	CustomerCounts() map[string]int
	LastOrders() []broker.Order
	CollectBootstrapData(maxTimeslots int) []broker.Message
	TraceSummary() *trace.TraceSummary
}

// Handler serves the inspection endpoints.
type Handler struct {
	view BrokerView
	now  func() time.Time
}

// NewHandler creates a handler over view.
func NewHandler(view BrokerView) *Handler {
	return &Handler{view: view, now: time.Now}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Broker: h.view.Name()})
}

// Customers handles GET /api/v1/customers
func (h *Handler) Customers(c *gin.Context) {
	counts := h.view.CustomerCounts()
	resp := CustomersResponse{Customers: make([]CustomerCount, 0, len(counts))}
	for key, n := range counts {
		resp.Customers = append(resp.Customers, CustomerCount{Key: key, Population: n})
	}
	sort.Slice(resp.Customers, func(i, j int) bool { return resp.Customers[i].Key < resp.Customers[j].Key })
	c.JSON(http.StatusOK, resp)
}

// Orders handles GET /api/v1/orders
func (h *Handler) Orders(c *gin.Context) {
	orders := h.view.LastOrders()
	resp := OrdersResponse{Orders: make([]OrderView, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, OrderView{
			ID:         o.ID.String(),
			Timeslot:   o.Timeslot,
			MWh:        o.MWh,
			LimitPrice: o.LimitPrice,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Bootstrap handles GET /api/v1/bootstrap?max=N
func (h *Handler) Bootstrap(c *gin.Context) {
	maxTimeslots := broker.DefaultCompetition().BootstrapTimeslotCount
	if raw := c.Query("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", "max must be a non-negative integer")
			return
		}
		maxTimeslots = n
	}
	items := h.view.CollectBootstrapData(maxTimeslots)
	if items == nil {
		respondError(c, http.StatusConflict, "NOT_BOOTSTRAP", "broker is not in bootstrap mode")
		return
	}
	resp := BootstrapResponse{Customers: []CustomerSeries{}, GeneratedAt: h.now().UTC()}
	for _, item := range items {
		switch m := item.(type) {
		case *broker.CustomerBootstrapData:
			resp.Customers = append(resp.Customers, CustomerSeries{
				Name:      m.CustomerName,
				PowerType: string(m.PowerType),
				Timeslots: len(m.NetUsage),
				TotalKWh:  sum(m.NetUsage),
			})
		case *broker.MarketBootstrapData:
			resp.Market = &MarketSeries{Timeslots: len(m.MWh), TotalMWh: sum(m.MWh)}
		case *broker.WeatherReport:
			resp.WeatherReports++
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Trace handles GET /api/v1/trace
func (h *Handler) Trace(c *gin.Context) {
	summary := h.view.TraceSummary()
	if summary == nil {
		respondError(c, http.StatusNotFound, "TRACE_DISABLED", "decision tracing is off")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

func sum(vals []float64) float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total
}
