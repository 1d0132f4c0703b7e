package broker

import (
	"time"

	"github.com/sirupsen/logrus"
)

// SubscriptionBook maps tariff → customer → CustomerRecord.
//
// The tariff level holds exactly the broker's standing tariffs and is fixed
// at construction. The customer level fills in lazily, on first signup or
// first bootstrap injection. Iteration follows insertion order at both
// levels so exports are reproducible.
type SubscriptionBook struct {
	tariffs []*tariffEntry
	byID    map[string]*tariffEntry

	base          time.Time
	duration      time.Duration
	bootstrapMode bool
}

type tariffEntry struct {
	spec      *TariffSpecification
	customers []*CustomerRecord
	byName    map[string]*CustomerRecord
}

// NewSubscriptionBook creates a book over the given tariffs.
func NewSubscriptionBook(tariffs []*TariffSpecification, base time.Time, duration time.Duration, bootstrapMode bool) *SubscriptionBook {
	b := &SubscriptionBook{
		byID:          make(map[string]*tariffEntry),
		base:          base,
		duration:      duration,
		bootstrapMode: bootstrapMode,
	}
	for _, spec := range tariffs {
		e := &tariffEntry{spec: spec, byName: make(map[string]*CustomerRecord)}
		b.tariffs = append(b.tariffs, e)
		b.byID[spec.ID] = e
	}
	return b
}

// Tariffs returns the standing tariffs in creation order.
func (b *SubscriptionBook) Tariffs() []*TariffSpecification {
	out := make([]*TariffSpecification, len(b.tariffs))
	for i, e := range b.tariffs {
		out[i] = e.spec
	}
	return out
}

// TariffFor returns the standing tariff of the given power type.
func (b *SubscriptionBook) TariffFor(pt PowerType) (*TariffSpecification, bool) {
	for _, e := range b.tariffs {
		if e.spec.PowerType == pt {
			return e.spec, true
		}
	}
	return nil, false
}

// Owns reports whether the tariff is one of the book's standing tariffs.
func (b *SubscriptionBook) Owns(tariff *TariffSpecification) bool {
	if tariff == nil {
		return false
	}
	_, ok := b.byID[tariff.ID]
	return ok
}

// Find returns the record for (tariff, customer), if any.
func (b *SubscriptionBook) Find(tariff *TariffSpecification, customer *CustomerInfo) (*CustomerRecord, bool) {
	if tariff == nil || customer == nil {
		return nil, false
	}
	e, ok := b.byID[tariff.ID]
	if !ok {
		return nil, false
	}
	r, ok := e.byName[customer.Name]
	return r, ok
}

// Ensure returns the record for (tariff, customer), creating it with the
// given population when absent. The second result is true if the record
// was created.
func (b *SubscriptionBook) Ensure(tariff *TariffSpecification, customer *CustomerInfo, population int) (*CustomerRecord, bool) {
	if r, ok := b.Find(tariff, customer); ok {
		return r, false
	}
	e := b.byID[tariff.ID]
	r := NewCustomerRecord(customer, population, b.base, b.duration, b.bootstrapMode)
	e.customers = append(e.customers, r)
	e.byName[customer.Name] = r
	return r, true
}

// Each calls fn for every record, tariffs first, customers in insertion order.
func (b *SubscriptionBook) Each(fn func(tariff *TariffSpecification, record *CustomerRecord)) {
	for _, e := range b.tariffs {
		for _, r := range e.customers {
			fn(e.spec, r)
		}
	}
}

// CollectUsage returns the energy balance the broker needs at rawIndex, in
// kWh. Customer usage is negative for consumption, so the sum is negated to
// express it from the broker's side.
func (b *SubscriptionBook) CollectUsage(rawIndex int) float64 {
	result := 0.0
	b.Each(func(_ *TariffSpecification, r *CustomerRecord) {
		result += r.Predict(rawIndex)
	})
	return -result
}

// Apply updates the book from a tariff transaction. Transactions for other
// brokers' tariffs and kinds other than SIGNUP, WITHDRAW, PRODUCE and
// CONSUME are ignored.
func (b *SubscriptionBook) Apply(ttx *TariffTransaction) {
	if !b.Owns(ttx.Tariff) || ttx.Customer == nil {
		logrus.Debugf("ignoring %s transaction for foreign tariff or unknown customer", ttx.TxType)
		return
	}
	record, exists := b.Find(ttx.Tariff, ttx.Customer)

	switch ttx.TxType {
	case TxSignup:
		if !exists {
			b.Ensure(ttx.Tariff, ttx.Customer, ttx.CustomerCount)
		} else {
			record.Signup(ttx.CustomerCount)
		}
	case TxWithdraw:
		if !exists {
			logrus.Warnf("unknown customer %s withdraws subscription", ttx.Customer.Name)
			return
		}
		record.Withdraw(ttx.CustomerCount)
	case TxProduce, TxConsume:
		if !exists {
			logrus.Warnf("%s by unknown customer %s ignored", ttx.TxType, ttx.Customer.Name)
			return
		}
		if ttx.CustomerCount != record.SubscribedPopulation {
			logrus.Warnf("%s by subset %d of subscribed population %d",
				ttx.TxType, ttx.CustomerCount, record.SubscribedPopulation)
		}
		record.RecordAt(ttx.KWh, ttx.PostedTime)
	}
}

// CustomerCounts returns the subscribed population keyed by customer name
// followed by the tariff's power type.
func (b *SubscriptionBook) CustomerCounts() map[string]int {
	result := make(map[string]int)
	b.Each(func(spec *TariffSpecification, r *CustomerRecord) {
		result[r.Customer.Name+string(spec.PowerType)] = r.SubscribedPopulation
	})
	return result
}
