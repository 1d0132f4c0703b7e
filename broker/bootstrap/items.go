package bootstrap

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tac-sim/default-broker/broker"
)

// itemsList is the heterogeneous, ordered content of <bootstrap>.
type itemsList struct {
	Items []broker.Message
}

type customerData struct {
	XMLName      xml.Name `xml:"customer-bootstrap-data"`
	CustomerName string   `xml:"customerName,attr"`
	PowerType    string   `xml:"powerType,attr"`
	NetUsage     string   `xml:"netUsage"`
}

type marketData struct {
	XMLName     xml.Name `xml:"market-bootstrap-data"`
	MWh         string   `xml:"mwh"`
	MarketPrice string   `xml:"marketPrice"`
}

type weatherReport struct {
	XMLName       xml.Name `xml:"weather-report"`
	Timeslot      int      `xml:"timeslot,attr"`
	Temperature   float64  `xml:"temperature,attr"`
	WindSpeed     float64  `xml:"windSpeed,attr"`
	WindDirection float64  `xml:"windDirection,attr"`
	Cloudiness    float64  `xml:"cloudCover,attr"`
}

// MarshalXML writes each item as its own element, skipping message types
// that have no place in a bootstrap dataset.
func (l itemsList) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, item := range l.Items {
		var v any
		switch m := item.(type) {
		case *broker.CustomerBootstrapData:
			v = customerData{CustomerName: m.CustomerName, PowerType: string(m.PowerType), NetUsage: formatFloats(m.NetUsage)}
		case *broker.MarketBootstrapData:
			v = marketData{MWh: formatFloats(m.MWh), MarketPrice: formatFloats(m.MarketPrice)}
		case *broker.WeatherReport:
			v = weatherReport{Timeslot: m.Timeslot, Temperature: m.Temperature, WindSpeed: m.WindSpeed,
				WindDirection: m.WindDirection, Cloudiness: m.Cloudiness}
		default:
			logrus.Warnf("skipping %s in bootstrap data", broker.KindOf(item))
			continue
		}
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads items in document order. Unknown elements are skipped.
func (l *itemsList) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			item, err := decodeItem(d, t)
			if err != nil {
				return err
			}
			if item != nil {
				l.Items = append(l.Items, item)
			}
		case xml.EndElement:
			return nil
		}
	}
}

func decodeItem(d *xml.Decoder, start xml.StartElement) (broker.Message, error) {
	switch start.Name.Local {
	case "customer-bootstrap-data":
		var w customerData
		if err := d.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		if !broker.IsValidPowerType(w.PowerType) {
			return nil, fmt.Errorf("customer %s: unknown power type %q", w.CustomerName, w.PowerType)
		}
		usage, err := parseFloats(w.NetUsage)
		if err != nil {
			return nil, fmt.Errorf("customer %s netUsage: %w", w.CustomerName, err)
		}
		return &broker.CustomerBootstrapData{CustomerName: w.CustomerName, PowerType: broker.PowerType(w.PowerType), NetUsage: usage}, nil
	case "market-bootstrap-data":
		var w marketData
		if err := d.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		mwh, err := parseFloats(w.MWh)
		if err != nil {
			return nil, fmt.Errorf("market mwh: %w", err)
		}
		price, err := parseFloats(w.MarketPrice)
		if err != nil {
			return nil, fmt.Errorf("market price: %w", err)
		}
		return &broker.MarketBootstrapData{MWh: mwh, MarketPrice: price}, nil
	case "weather-report":
		var w weatherReport
		if err := d.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		return &broker.WeatherReport{Timeslot: w.Timeslot, Temperature: w.Temperature, WindSpeed: w.WindSpeed,
			WindDirection: w.WindDirection, Cloudiness: w.Cloudiness}, nil
	default:
		logrus.Warnf("skipping unknown bootstrap element <%s>", start.Name.Local)
		return nil, d.Skip()
	}
}

func formatFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
