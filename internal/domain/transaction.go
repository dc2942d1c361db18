package domain

import "time"

// Transaction represents an append-only purchase fact.
type Transaction struct {
	TransactionID   string    `ch:"transaction_id"`
	CustomerID      string    `ch:"customer_id"`
	TransactionDate time.Time `ch:"transaction_date"`
	ProductCategory string    `ch:"product_category"`
	Quantity        int32     `ch:"quantity"`
	UnitPrice       float64   `ch:"unit_price"`
	TotalAmount     float64   `ch:"total_amount"`
	PaymentMethod   string    `ch:"payment_method"`
}

// Subscription represents the single active subscription record per customer.
type Subscription struct {
	CustomerID      string    `ch:"customer_id"`
	PlanType        string    `ch:"plan_type"`
	MonthlyCharges  float64   `ch:"monthly_charges"`
	ContractType    string    `ch:"contract_type"`
	LastPaymentDate time.Time `ch:"last_payment_date"`
	IsActive        uint8     `ch:"is_active"`
}
