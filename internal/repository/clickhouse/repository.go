package clickhouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// Repository implements the warehouse repositories on ClickHouse.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id String,
		first_name String,
		last_name String,
		email String,
		age Int32,
		gender LowCardinality(String),
		signup_date DateTime,
		city String,
		state LowCardinality(String),
		segment LowCardinality(String),
		acquisition_channel LowCardinality(String),
		device_type LowCardinality(String),
		timezone LowCardinality(String),
		preferred_language LowCardinality(String),
		initial_referral_credits Int32
	) ENGINE = MergeTree()
	ORDER BY customer_id`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		customer_id String,
		plan_type LowCardinality(String),
		monthly_charges Float64,
		contract_type LowCardinality(String),
		last_payment_date DateTime,
		is_active UInt8
	) ENGINE = ReplacingMergeTree(last_payment_date)
	ORDER BY customer_id`,

	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id String,
		customer_id String,
		transaction_date DateTime,
		product_category LowCardinality(String),
		quantity Int32,
		unit_price Float64,
		total_amount Float64,
		payment_method LowCardinality(String)
	) ENGINE = MergeTree()
	ORDER BY (customer_id, transaction_date)
	PARTITION BY toYYYYMM(transaction_date)`,

	`CREATE TABLE IF NOT EXISTS behavioral_events (
		event_id String,
		customer_id String,
		event_date DateTime,
		event_type LowCardinality(String),
		device_type LowCardinality(String),
		session_duration_minutes Float64,
		pages_viewed Int32,
		processed_at DateTime64(3) DEFAULT now64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	PRIMARY KEY (event_id)
	ORDER BY (event_id, event_date)
	PARTITION BY toYYYYMM(event_date)
	SETTINGS index_granularity = 8192`,

	churnFeaturesDDL("churn_features"),
	churnFeaturesDDL("churn_features_next"),

	`CREATE TABLE IF NOT EXISTS cohort_retention (
		cohort_month LowCardinality(String),
		snapshot_month LowCardinality(String),
		customers UInt64,
		churned UInt64,
		retention_rate Float64,
		computed_at DateTime64(3) DEFAULT now64(3),
		snapshot_number UInt32
	) ENGINE = ReplacingMergeTree(computed_at)
	ORDER BY (cohort_month, snapshot_month)`,
}

func churnFeaturesDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		customer_id String,
		as_of_date DateTime,
		age Int32,
		gender LowCardinality(String),
		segment LowCardinality(String),
		acquisition_channel LowCardinality(String),
		device_type LowCardinality(String),
		initial_referral_credits Int32,
		cohort_month LowCardinality(String),
		tenure_days Int32,
		tenure_months Int32,
		contract_type LowCardinality(String),
		plan_type LowCardinality(String),
		monthly_charges Float64,
		recency_days Int32,
		frequency Int32,
		monetary Float64,
		avg_transaction_value Float64,
		total_transactions Int32,
		days_since_last_transaction Int32,
		recency_score Int32,
		frequency_score Int32,
		monetary_score Int32,
		rfm_composite_score Float64,
		rfm_segment LowCardinality(String),
		total_events Int32,
		active_days Int32,
		login_count Int32,
		feature_usage_count Int32,
		support_ticket_count Int32,
		app_crash_count Int32,
		engagement_rate Float64,
		avg_events_per_active_day Float64,
		avg_session_duration_minutes Float64,
		days_since_last_event Int32,
		events_last_7_days Int32,
		events_last_30_days Int32,
		events_last_90_days Int32,
		logins_last_30_days Int32,
		feature_usage_last_30_days Int32,
		support_tickets_last_90_days Int32,
		app_crashes_last_90_days Int32,
		days_since_last_login Int32,
		features_per_login Float64,
		problem_event_rate_pct Float64,
		engagement_recency_score Int32,
		engagement_frequency_score Int32,
		feature_adoption_score Int32,
		engagement_composite_score Float64,
		engagement_segment LowCardinality(String),
		churn_flag UInt8,
		churn_risk_score Int32,
		risk_tier LowCardinality(String),
		recommended_action LowCardinality(String),
		estimated_lifetime_value Float64,
		revenue_at_risk Float64
	) ENGINE = MergeTree()
	ORDER BY customer_id`, table)
}

// InitSchema creates the raw tables and marts if they do not exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := r.client.Conn().Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertEvents inserts a batch of behavioral events.
func (r *Repository) InsertEvents(ctx context.Context, events []*domain.BehavioralEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO behavioral_events")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	insertedCount := 0
	for _, event := range events {
		if event.Version == 0 {
			event.Version = uint64(time.Now().UnixNano())
		}
		if event.ProcessedAt.IsZero() {
			event.ProcessedAt = time.Now()
		}

		err := batch.Append(
			event.EventID,
			event.CustomerID,
			event.EventDate,
			event.EventType,
			event.DeviceType,
			event.SessionDurationMinutes,
			event.PagesViewed,
			event.ProcessedAt,
			event.Version,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		insertedCount++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return insertedCount, nil
}

// InsertCustomers loads generated customers into the raw table.
func (r *Repository) InsertCustomers(ctx context.Context, customers []*domain.Customer) (int, error) {
	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO customers")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare customers batch: %w", err)
	}

	for _, c := range customers {
		err := batch.Append(
			c.CustomerID, c.FirstName, c.LastName, c.Email, c.Age, c.Gender,
			c.SignupDate, c.City, c.State, c.Segment, c.AcquisitionChannel,
			c.DeviceType, c.Timezone, c.PreferredLanguage, c.InitialReferralCredits,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append customer to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send customers batch: %w", err)
	}
	return len(customers), nil
}

// InsertSubscriptions loads generated subscriptions into the raw table.
func (r *Repository) InsertSubscriptions(ctx context.Context, subs []*domain.Subscription) (int, error) {
	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO subscriptions")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare subscriptions batch: %w", err)
	}

	for _, s := range subs {
		err := batch.Append(
			s.CustomerID, s.PlanType, s.MonthlyCharges, s.ContractType,
			s.LastPaymentDate, s.IsActive,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append subscription to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send subscriptions batch: %w", err)
	}
	return len(subs), nil
}

// InsertTransactions loads generated transactions into the raw table.
func (r *Repository) InsertTransactions(ctx context.Context, txs []*domain.Transaction) (int, error) {
	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO transactions")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare transactions batch: %w", err)
	}

	for _, t := range txs {
		err := batch.Append(
			t.TransactionID, t.CustomerID, t.TransactionDate, t.ProductCategory,
			t.Quantity, t.UnitPrice, t.TotalAmount, t.PaymentMethod,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append transaction to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send transactions batch: %w", err)
	}
	return len(txs), nil
}

// Customers reads the full raw customers table.
func (r *Repository) Customers(ctx context.Context) ([]*domain.Customer, error) {
	query := `
		SELECT customer_id, first_name, last_name, email, age, gender,
		       signup_date, city, state, segment, acquisition_channel,
		       device_type, timezone, preferred_language, initial_referral_credits
		FROM customers
	`

	rows, err := r.client.Conn().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(
			&c.CustomerID, &c.FirstName, &c.LastName, &c.Email, &c.Age, &c.Gender,
			&c.SignupDate, &c.City, &c.State, &c.Segment, &c.AcquisitionChannel,
			&c.DeviceType, &c.Timezone, &c.PreferredLanguage, &c.InitialReferralCredits,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer rows: %w", err)
	}
	return customers, nil
}

// Subscriptions reads the latest subscription record per customer.
func (r *Repository) Subscriptions(ctx context.Context) ([]*domain.Subscription, error) {
	query := `
		SELECT customer_id, plan_type, monthly_charges, contract_type,
		       last_payment_date, is_active
		FROM subscriptions FINAL
	`

	rows, err := r.client.Conn().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(
			&s.CustomerID, &s.PlanType, &s.MonthlyCharges, &s.ContractType,
			&s.LastPaymentDate, &s.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		subs = append(subs, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}

// Transactions reads the full raw transactions table.
func (r *Repository) Transactions(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT transaction_id, customer_id, transaction_date, product_category,
		       quantity, unit_price, total_amount, payment_method
		FROM transactions
	`

	rows, err := r.client.Conn().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.TransactionID, &t.CustomerID, &t.TransactionDate, &t.ProductCategory,
			&t.Quantity, &t.UnitPrice, &t.TotalAmount, &t.PaymentMethod,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txs, nil
}

// BehavioralEvents reads the deduplicated behavioral events table.
func (r *Repository) BehavioralEvents(ctx context.Context) ([]*domain.BehavioralEvent, error) {
	query := `
		SELECT event_id, customer_id, event_date, event_type, device_type,
		       session_duration_minutes, pages_viewed, processed_at, version
		FROM behavioral_events FINAL
	`

	rows, err := r.client.Conn().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query behavioral events: %w", err)
	}
	defer rows.Close()

	var events []*domain.BehavioralEvent
	for rows.Next() {
		var e domain.BehavioralEvent
		if err := rows.Scan(
			&e.EventID, &e.CustomerID, &e.EventDate, &e.EventType, &e.DeviceType,
			&e.SessionDurationMinutes, &e.PagesViewed, &e.ProcessedAt, &e.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan behavioral event row: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating behavioral event rows: %w", err)
	}
	return events, nil
}

// Ping checks if the ClickHouse connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection.
func (r *Repository) Close() error {
	return r.client.Close()
}
