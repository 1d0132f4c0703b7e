// Package bootstrap reads and writes the bootstrap dataset: the game
// configuration of a bootstrap run plus the customer, market and weather
// records the default broker collected during it.
//
// The document layout is
//
//	<powertac-bootstrap-data>
//	  <config>
//	    <bootstrap-offset value="N"/>
//	    <competition .../>
//	    <plugin-config ...>...</plugin-config>*
//	  </config>
//	  <bootstrap>
//	    items, in the order the broker produced them
//	  </bootstrap>
//	</powertac-bootstrap-data>
package bootstrap

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tac-sim/default-broker/broker"
)

// Dataset is a decoded bootstrap document.
type Dataset struct {
	// BootstrapOffset is the number of timeslots discarded at the start of
	// the bootstrap run before recording began.
	BootstrapOffset int
	Competition     broker.Competition
	PluginConfigs   []broker.PluginConfig
	// Items holds CustomerBootstrapData, MarketBootstrapData and
	// WeatherReport messages in document order.
	Items []broker.Message
}

// CustomerData returns the customer items of the dataset.
func (ds *Dataset) CustomerData() []*broker.CustomerBootstrapData {
	var out []*broker.CustomerBootstrapData
	for _, item := range ds.Items {
		if cbd, ok := item.(*broker.CustomerBootstrapData); ok {
			out = append(out, cbd)
		}
	}
	return out
}

// MarketData returns the market item of the dataset, if present.
func (ds *Dataset) MarketData() (*broker.MarketBootstrapData, bool) {
	for _, item := range ds.Items {
		if mbd, ok := item.(*broker.MarketBootstrapData); ok {
			return mbd, true
		}
	}
	return nil, false
}

// WeatherReports returns the weather items of the dataset.
func (ds *Dataset) WeatherReports() []*broker.WeatherReport {
	var out []*broker.WeatherReport
	for _, item := range ds.Items {
		if wr, ok := item.(*broker.WeatherReport); ok {
			out = append(out, wr)
		}
	}
	return out
}

// PluginConfig returns the plugin config with the given role name.
func (ds *Dataset) PluginConfig(roleName string) (broker.PluginConfig, bool) {
	for _, pc := range ds.PluginConfigs {
		if pc.RoleName == roleName {
			return pc, true
		}
	}
	return broker.PluginConfig{}, false
}

// Write encodes ds as a bootstrap document.
func Write(w io.Writer, ds *Dataset) error {
	bw := bufio.NewWriter(w)
	if _, err := io.WriteString(bw, xml.Header); err != nil {
		return fmt.Errorf("writing bootstrap header: %w", err)
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", "  ")
	if err := enc.Encode(toDocument(ds)); err != nil {
		return fmt.Errorf("encoding bootstrap data: %w", err)
	}
	if _, err := io.WriteString(bw, "\n"); err != nil {
		return fmt.Errorf("writing bootstrap data: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing bootstrap data: %w", err)
	}
	return nil
}

// WriteFile writes ds to path, replacing any existing file.
func WriteFile(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating bootstrap file: %w", err)
	}
	if err := Write(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a bootstrap document.
func Read(r io.Reader) (*Dataset, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing bootstrap data: %w", err)
	}
	return fromDocument(&doc)
}

// ReadFile decodes the bootstrap document at path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading bootstrap file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// === wire types ===

type document struct {
	XMLName   xml.Name  `xml:"powertac-bootstrap-data"`
	Config    config    `xml:"config"`
	Bootstrap itemsList `xml:"bootstrap"`
}

type config struct {
	Offset        valueAttr      `xml:"bootstrap-offset"`
	Competition   competition    `xml:"competition"`
	PluginConfigs []pluginConfig `xml:"plugin-config"`
}

type valueAttr struct {
	Value int `xml:"value,attr"`
}

type competition struct {
	Name                        string `xml:"name,attr"`
	TimeslotsOpen               int    `xml:"timeslotsOpen,attr"`
	DeactivateTimeslotsAhead    int    `xml:"deactivateTimeslotsAhead,attr"`
	TimeslotLength              int    `xml:"timeslotLength,attr"`
	BootstrapTimeslotCount      int    `xml:"bootstrapTimeslotCount,attr"`
	BootstrapDiscardedTimeslots int    `xml:"bootstrapDiscardedTimeslots,attr"`
	SimulationBaseTime          string `xml:"simulationBaseTime,attr,omitempty"`
}

type pluginConfig struct {
	RoleName   string      `xml:"roleName,attr"`
	Name       string      `xml:"name,attr,omitempty"`
	Attributes []attribute `xml:"attribute"`
}

type attribute struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func toDocument(ds *Dataset) *document {
	c := ds.Competition
	doc := &document{
		Config: config{
			Offset: valueAttr{Value: ds.BootstrapOffset},
			Competition: competition{
				Name:                        c.Name,
				TimeslotsOpen:               c.TimeslotsOpen,
				DeactivateTimeslotsAhead:    c.DeactivateTimeslotsAhead,
				TimeslotLength:              c.TimeslotLengthMinutes,
				BootstrapTimeslotCount:      c.BootstrapTimeslotCount,
				BootstrapDiscardedTimeslots: c.BootstrapDiscardedTimeslots,
			},
		},
		Bootstrap: itemsList{Items: ds.Items},
	}
	if !c.BaseTime.IsZero() {
		doc.Config.Competition.SimulationBaseTime = c.BaseTime.UTC().Format(time.RFC3339)
	}
	for _, pc := range ds.PluginConfigs {
		xpc := pluginConfig{RoleName: pc.RoleName, Name: pc.Name}
		names := make([]string, 0, len(pc.Attributes))
		for name := range pc.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			xpc.Attributes = append(xpc.Attributes, attribute{Name: name, Value: pc.Attributes[name]})
		}
		doc.Config.PluginConfigs = append(doc.Config.PluginConfigs, xpc)
	}
	return doc
}

func fromDocument(doc *document) (*Dataset, error) {
	xc := doc.Config.Competition
	ds := &Dataset{
		BootstrapOffset: doc.Config.Offset.Value,
		Competition: broker.Competition{
			Name:                        xc.Name,
			TimeslotsOpen:               xc.TimeslotsOpen,
			DeactivateTimeslotsAhead:    xc.DeactivateTimeslotsAhead,
			TimeslotLengthMinutes:       xc.TimeslotLength,
			BootstrapTimeslotCount:      xc.BootstrapTimeslotCount,
			BootstrapDiscardedTimeslots: xc.BootstrapDiscardedTimeslots,
		},
		Items: doc.Bootstrap.Items,
	}
	if xc.SimulationBaseTime != "" {
		t, err := time.Parse(time.RFC3339, xc.SimulationBaseTime)
		if err != nil {
			return nil, fmt.Errorf("parsing competition base time %q: %w", xc.SimulationBaseTime, err)
		}
		ds.Competition.BaseTime = t
	}
	for _, xpc := range doc.Config.PluginConfigs {
		pc := broker.NewPluginConfig(xpc.RoleName, xpc.Name)
		for _, a := range xpc.Attributes {
			pc.Attributes[a.Name] = a.Value
		}
		ds.PluginConfigs = append(ds.PluginConfigs, pc)
	}
	logrus.Infof("found %d bootstrap items", len(ds.Items))
	return ds, nil
}
