package domain

import "time"

// Customer represents a raw customer record in the warehouse.
type Customer struct {
	CustomerID             string    `ch:"customer_id"`
	FirstName              string    `ch:"first_name"`
	LastName               string    `ch:"last_name"`
	Email                  string    `ch:"email"`
	Age                    int32     `ch:"age"`
	Gender                 string    `ch:"gender"`
	SignupDate             time.Time `ch:"signup_date"`
	City                   string    `ch:"city"`
	State                  string    `ch:"state"`
	Segment                string    `ch:"segment"`
	AcquisitionChannel     string    `ch:"acquisition_channel"`
	DeviceType             string    `ch:"device_type"`
	Timezone               string    `ch:"timezone"`
	PreferredLanguage      string    `ch:"preferred_language"`
	InitialReferralCredits int32     `ch:"initial_referral_credits"`
}

// CustomerDimension is the enriched customer dimension row, rebuilt each run
// relative to an explicit as-of date.
type CustomerDimension struct {
	Customer
	TenureDays   int    `ch:"tenure_days"`
	TenureMonths int    `ch:"tenure_months"`
	CohortMonth  string `ch:"cohort_month"`
}

// Tenure derives tenure fields and the signup cohort for the given as-of date.
func (c Customer) Tenure(asOf time.Time) CustomerDimension {
	days := int(asOf.Sub(c.SignupDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return CustomerDimension{
		Customer:     c,
		TenureDays:   days,
		TenureMonths: days / 30,
		CohortMonth:  c.SignupDate.Format("2006-01"),
	}
}
