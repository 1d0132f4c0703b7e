package broker

import "time"

// Message is anything the host delivers to the broker. The set of message
// types is closed; Receive dispatches on the concrete type and drops anything
// it does not recognize.
type Message interface {
	messageKind() string
}

// TxType is the kind of a TariffTransaction.
type TxType string

const (
	TxPublish  TxType = "PUBLISH"
	TxSignup   TxType = "SIGNUP"
	TxWithdraw TxType = "WITHDRAW"
	TxConsume  TxType = "CONSUME"
	TxProduce  TxType = "PRODUCE"
	TxPeriodic TxType = "PERIODIC"
)

// TariffTransaction reports subscription changes and metered usage under one
// tariff. KWh follows the customer viewpoint: consumption is negative,
// production positive.
type TariffTransaction struct {
	TxType        TxType
	Tariff        *TariffSpecification
	Customer      *CustomerInfo
	CustomerCount int
	KWh           float64
	Charge        float64
	PostedTime    time.Time
}

// MarketTransaction is one wholesale clearing for the broker. MWh follows the
// broker viewpoint: positive means energy bought. Price is per MWh and
// negative when the broker pays.
type MarketTransaction struct {
	Timeslot int
	MWh      float64
	Price    float64
}

// WeatherReport is the observed weather for one timeslot.
type WeatherReport struct {
	Timeslot      int
	Temperature   float64
	WindSpeed     float64
	WindDirection float64
	Cloudiness    float64
}

// CustomerBootstrapData is the net usage series of one customer under the
// standing tariff of the given power type, oldest first.
type CustomerBootstrapData struct {
	CustomerName string
	PowerType    PowerType
	NetUsage     []float64
}

// MarketBootstrapData pairs cleared MWh with the volume-weighted price paid,
// one entry per timeslot, oldest first.
type MarketBootstrapData struct {
	MWh         []float64
	MarketPrice []float64
}

// MarketPosition is the broker's net committed energy in a timeslot.
type MarketPosition struct {
	Timeslot       int
	OverallBalance float64 // MWh
}

// CashPosition is the last message accounting sends in a timeslot; it is the
// broker's cue to trade.
type CashPosition struct {
	Balance float64
}

// TimeslotUpdate announces the new enabled window. The broker reads the
// window from its Clock instead, so it ignores this message.
type TimeslotUpdate struct {
	FirstEnabled int
	LastEnabled  int
}

func (*TariffTransaction) messageKind() string     { return "TariffTransaction" }
func (*MarketTransaction) messageKind() string     { return "MarketTransaction" }
func (*WeatherReport) messageKind() string         { return "WeatherReport" }
func (*CustomerBootstrapData) messageKind() string { return "CustomerBootstrapData" }
func (*MarketBootstrapData) messageKind() string   { return "MarketBootstrapData" }
func (*MarketPosition) messageKind() string        { return "MarketPosition" }
func (*CashPosition) messageKind() string          { return "CashPosition" }
func (*TimeslotUpdate) messageKind() string        { return "TimeslotUpdate" }

// KindOf returns the type name of a message, for logging and ordering.
func KindOf(msg Message) string {
	if msg == nil {
		return "<nil>"
	}
	return msg.messageKind()
}
