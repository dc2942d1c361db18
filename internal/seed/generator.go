// Package seed generates a deterministic synthetic dataset: customers with
// demographics, one subscription each, purchase transactions, and behavioral
// events. Churn patterns are planted (month-to-month contracts, short tenure,
// high charges, and young customers churn more; churned customers go quiet
// before their last payment) so the downstream feature engine and models have
// real signal to recover. The same seed always produces the same dataset.
package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// Config controls the size and shape of the generated dataset.
type Config struct {
	Customers          int
	Seed               int64
	ReferenceDate      time.Time
	ChurnThresholdDays int
}

// Dataset is one generated raw snapshot.
type Dataset struct {
	Customers     []*domain.Customer
	Subscriptions []*domain.Subscription
	Transactions  []*domain.Transaction
	Events        []*domain.BehavioralEvent
}

// ChurnRate is the fraction of generated subscriptions that are inactive.
func (d *Dataset) ChurnRate() float64 {
	if len(d.Subscriptions) == 0 {
		return 0
	}
	var churned int
	for _, sub := range d.Subscriptions {
		if sub.IsActive == 0 {
			churned++
		}
	}
	return float64(churned) / float64(len(d.Subscriptions))
}

// Generator produces synthetic datasets.
type Generator struct {
	cfg Config
	rng *rand.Rand
	log *zap.Logger
}

// New creates a generator. The signup window opens 2022-01-01 and closes at
// the reference date or 2025-06-30, whichever is earlier.
func New(cfg Config, log *zap.Logger) (*Generator, error) {
	if cfg.Customers <= 0 {
		return nil, fmt.Errorf("invalid customer count: %d", cfg.Customers)
	}
	if cfg.ChurnThresholdDays <= 0 {
		return nil, fmt.Errorf("invalid churn threshold: %d days", cfg.ChurnThresholdDays)
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		log: log,
	}, nil
}

var (
	firstNames = []string{
		"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael",
		"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
		"Joseph", "Jessica", "Thomas", "Sarah", "Carlos", "Maria", "Wei", "Yuki",
		"Ahmed", "Fatima", "Lucas", "Emma", "Noah", "Olivia", "Liam", "Sophia",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
		"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
		"Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
		"Lee", "Tanaka", "Kim", "Nguyen", "Chen", "Singh", "Ali", "Müller",
	}
	cities = []string{
		"New York", "Chicago", "Houston", "Phoenix", "Philadelphia", "Austin",
		"Columbus", "Seattle", "Denver", "Boston", "Portland", "Atlanta",
	}
	states = []string{
		"NY", "IL", "TX", "AZ", "PA", "OH", "WA", "CO", "MA", "OR", "GA", "CA",
	}
	timezones = []string{
		"America/New_York", "America/Chicago", "America/Denver",
		"America/Los_Angeles", "America/Toronto", "Europe/London", "Asia/Tokyo",
	}
	productCategories = []string{"Electronics", "Clothing", "Groceries", "Home", "Sports"}
	paymentMethods    = []string{"Credit", "Debit", "Cash", "Digital Wallet"}
)

// weightedChoice draws an index by weight. Weights must sum to 1.
func (g *Generator) weightedChoice(weights []float64) int {
	r := g.rng.Float64()
	var cum float64
	for i, w := range weights {
		cum += w
		if r < cum {
			return i
		}
	}
	return len(weights) - 1
}

// poisson draws from a Poisson distribution by Knuth's method, switching to a
// normal approximation for large means where exp(-mean) underflows.
func (g *Generator) poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	if mean > 500 {
		k := int(math.Round(mean + math.Sqrt(mean)*g.rng.NormFloat64()))
		if k < 0 {
			k = 0
		}
		return k
	}
	limit := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= g.rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func (g *Generator) newID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// The math/rand reader never fails.
		panic(err)
	}
	return id.String()
}

func (g *Generator) dateBetween(start, end time.Time) time.Time {
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return start
	}
	return start.AddDate(0, 0, g.rng.Intn(days+1))
}

// Generate builds a full dataset.
func (g *Generator) Generate() *Dataset {
	ds := &Dataset{}
	ds.Customers = g.generateCustomers()
	ds.Subscriptions = g.generateSubscriptions(ds.Customers)

	subsByCustomer := make(map[string]*domain.Subscription, len(ds.Subscriptions))
	for _, sub := range ds.Subscriptions {
		subsByCustomer[sub.CustomerID] = sub
	}
	ds.Transactions = g.generateTransactions(ds.Customers, subsByCustomer)
	ds.Events = g.generateEvents(ds.Customers, subsByCustomer)

	g.log.Info("Synthetic dataset generated",
		zap.Int("customers", len(ds.Customers)),
		zap.Int("subscriptions", len(ds.Subscriptions)),
		zap.Int("transactions", len(ds.Transactions)),
		zap.Int("events", len(ds.Events)),
		zap.Float64("churn_rate", ds.ChurnRate()))
	return ds
}

func (g *Generator) generateCustomers() []*domain.Customer {
	signupStart := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	signupEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	if g.cfg.ReferenceDate.Before(signupEnd) {
		signupEnd = g.cfg.ReferenceDate
	}

	channels := []string{"Organic Search", "Paid Search", "Social Media", "Referral", "Email", "Direct"}
	channelWeights := []float64{0.25, 0.20, 0.20, 0.15, 0.10, 0.10}

	customers := make([]*domain.Customer, g.cfg.Customers)
	for i := range customers {
		first := firstNames[g.rng.Intn(len(firstNames))]
		last := lastNames[g.rng.Intn(len(lastNames))]
		channel := channels[g.weightedChoice(channelWeights)]

		var referralCredits int32
		if channel == "Referral" {
			referralCredits = int32(g.rng.Intn(51))
		}

		locIdx := g.rng.Intn(len(cities))
		customers[i] = &domain.Customer{
			CustomerID:             g.newID(),
			FirstName:              first,
			LastName:               last,
			Email:                  fmt.Sprintf("%s.%s.%d@example.com", first, last, g.rng.Intn(10000)),
			Age:                    int32(18 + g.rng.Intn(58)),
			Gender:                 []string{"Male", "Female", "Other"}[g.weightedChoice([]float64{0.48, 0.48, 0.04})],
			SignupDate:             g.dateBetween(signupStart, signupEnd),
			City:                   cities[locIdx],
			State:                  states[locIdx],
			Segment:                []string{"Consumer", "Corporate", "Home Office"}[g.weightedChoice([]float64{0.60, 0.25, 0.15})],
			AcquisitionChannel:     channel,
			DeviceType:             []string{"Desktop", "Mobile", "Tablet"}[g.weightedChoice([]float64{0.45, 0.45, 0.10})],
			Timezone:               timezones[g.rng.Intn(len(timezones))],
			PreferredLanguage:      []string{"English", "Spanish", "French"}[g.weightedChoice([]float64{0.80, 0.15, 0.05})],
			InitialReferralCredits: referralCredits,
		}
	}
	return customers
}

func (g *Generator) generateSubscriptions(customers []*domain.Customer) []*domain.Subscription {
	now := g.cfg.ReferenceDate
	subs := make([]*domain.Subscription, len(customers))

	for i, cust := range customers {
		tenureDays := int(now.Sub(cust.SignupDate).Hours() / 24)

		contract := []string{"Month-to-month", "One year", "Two year"}[g.weightedChoice([]float64{0.55, 0.30, 0.15})]
		plan := []string{"Basic", "Standard", "Premium"}[g.weightedChoice([]float64{0.40, 0.35, 0.25})]

		var charges float64
		switch plan {
		case "Basic":
			charges = 9.99 + g.rng.Float64()*20
		case "Standard":
			charges = 30 + g.rng.Float64()*25
		default:
			charges = 55 + g.rng.Float64()*25
		}
		charges = math.Round(charges*100) / 100

		churnProb := 0.15
		if contract == "Month-to-month" {
			churnProb += 0.20
		}
		if tenureDays < 180 {
			churnProb += 0.15
		}
		if charges > 60 {
			churnProb += 0.10
		}
		if cust.Age < 25 {
			churnProb += 0.05
		}

		var lastPaymentDaysAgo int
		var active uint8
		if g.rng.Float64() < churnProb {
			// Churned: the payment gap usually exceeds the threshold, except
			// for customers too young to have one that long.
			maxDays := tenureDays
			if maxDays > 365 {
				maxDays = 365
			}
			if maxDays <= g.cfg.ChurnThresholdDays+1 {
				lo := tenureDays / 2
				if lo < 1 {
					lo = 1
				}
				hi := tenureDays
				if hi <= lo {
					hi = lo + 1
				}
				lastPaymentDaysAgo = lo + g.rng.Intn(hi-lo)
			} else {
				lastPaymentDaysAgo = g.cfg.ChurnThresholdDays + 1 + g.rng.Intn(maxDays-g.cfg.ChurnThresholdDays-1)
			}
		} else {
			lastPaymentDaysAgo = g.rng.Intn(30)
			active = 1
		}

		subs[i] = &domain.Subscription{
			CustomerID:      cust.CustomerID,
			PlanType:        plan,
			MonthlyCharges:  charges,
			ContractType:    contract,
			LastPaymentDate: now.AddDate(0, 0, -lastPaymentDaysAgo),
			IsActive:        active,
		}
	}
	return subs
}

func (g *Generator) generateTransactions(customers []*domain.Customer, subs map[string]*domain.Subscription) []*domain.Transaction {
	now := g.cfg.ReferenceDate
	var txs []*domain.Transaction

	for _, cust := range customers {
		sub := subs[cust.CustomerID]
		tenureDays := int(now.Sub(cust.SignupDate).Hours() / 24)

		var count int
		var end time.Time
		if sub.IsActive == 0 {
			count = g.poisson(5)
			if count < 1 {
				count = 1
			}
			gap := tenureDays / 2
			if gap > 60 {
				gap = 60
			}
			if gap < 1 {
				gap = 1
			}
			end = sub.LastPaymentDate.AddDate(0, 0, -g.rng.Intn(gap))
		} else {
			base := tenureDays / 30
			if base < 1 {
				base = 1
			}
			count = g.poisson(float64(base) * 0.8)
			end = now.AddDate(0, 0, -g.rng.Intn(7))
		}

		start := cust.SignupDate
		if start.After(end) {
			back := tenureDays / 2
			if back < 1 {
				back = 1
			}
			start = end.AddDate(0, 0, -back)
		}

		for t := 0; t < count; t++ {
			category := productCategories[g.rng.Intn(len(productCategories))]
			var unitPrice float64
			switch category {
			case "Electronics":
				unitPrice = 50 + g.rng.Float64()*450
			case "Clothing":
				unitPrice = 15 + g.rng.Float64()*135
			case "Groceries":
				unitPrice = 5 + g.rng.Float64()*45
			case "Home":
				unitPrice = 20 + g.rng.Float64()*280
			default:
				unitPrice = 10 + g.rng.Float64()*190
			}
			unitPrice = math.Round(unitPrice*100) / 100
			quantity := int32(1 + g.rng.Intn(5))

			txs = append(txs, &domain.Transaction{
				TransactionID:   g.newID(),
				CustomerID:      cust.CustomerID,
				TransactionDate: g.dateBetween(start, end),
				ProductCategory: category,
				Quantity:        quantity,
				UnitPrice:       unitPrice,
				TotalAmount:     math.Round(unitPrice*float64(quantity)*100) / 100,
				PaymentMethod:   paymentMethods[g.rng.Intn(len(paymentMethods))],
			})
		}
	}
	return txs
}

var eventTypes = []string{
	domain.EventLogin, "feature_browse", "feature_search", "feature_checkout",
	"feature_wishlist", "feature_review", domain.EventSupportTicket, domain.EventAppCrash,
}

var eventTypeWeights = []float64{0.50, 0.15, 0.10, 0.08, 0.07, 0.05, 0.03, 0.02}

func (g *Generator) generateEvents(customers []*domain.Customer, subs map[string]*domain.Subscription) []*domain.BehavioralEvent {
	now := g.cfg.ReferenceDate
	var events []*domain.BehavioralEvent

	for _, cust := range customers {
		sub := subs[cust.CustomerID]
		tenureDays := int(now.Sub(cust.SignupDate).Hours() / 24)

		var count int
		var end time.Time
		if sub.IsActive == 0 {
			// Churned customers went quiet before their last payment.
			gap := tenureDays / 4
			if gap > 30 {
				gap = 30
			}
			if gap < 1 {
				gap = 1
			}
			end = sub.LastPaymentDate.AddDate(0, 0, -g.rng.Intn(gap))
			count = g.poisson(20)
			if count < 5 {
				count = 5
			}
		} else {
			end = now.AddDate(0, 0, -g.rng.Intn(3))
			base := tenureDays / 7
			if base < 10 {
				base = 10
			}
			count = g.poisson(float64(base) * 1.5)
		}

		start := cust.SignupDate
		if start.After(end) {
			back := tenureDays / 3
			if back < 1 {
				back = 1
			}
			start = end.AddDate(0, 0, -back)
		}

		for e := 0; e < count; e++ {
			eventType := eventTypes[g.weightedChoice(eventTypeWeights)]

			var sessionMinutes float64
			if eventType == domain.EventLogin {
				sessionMinutes = g.rng.ExpFloat64() * 12
				if sessionMinutes > 120 {
					sessionMinutes = 120
				}
				sessionMinutes = math.Round(sessionMinutes*100) / 100
			}

			var pagesViewed int32
			if eventType == domain.EventLogin || eventType == "feature_browse" {
				pagesViewed = int32(1 + g.rng.Intn(14))
			}

			events = append(events, &domain.BehavioralEvent{
				EventID:                g.newID(),
				CustomerID:             cust.CustomerID,
				EventDate:              g.dateBetween(start, end),
				EventType:              eventType,
				DeviceType:             cust.DeviceType,
				SessionDurationMinutes: sessionMinutes,
				PagesViewed:            pagesViewed,
			})
		}
	}
	return events
}
