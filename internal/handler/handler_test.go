package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/dto"
	"github.com/kbai612/churn-analytics-service/internal/ml"
	"github.com/kbai612/churn-analytics-service/internal/repository"
)

// MockEventService is a mock implementation of service.EventServicer.
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) ProcessEvent(event *dto.PublishEventRequest) (string, error) {
	args := m.Called(event)
	return args.String(0), args.Error(1)
}

func (m *MockEventService) ProcessBulkEvents(events []dto.PublishEventRequest) ([]string, []string, error) {
	args := m.Called(events)
	var ids, errs []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	if args.Get(1) != nil {
		errs = args.Get(1).([]string)
	}
	return ids, errs, args.Error(2)
}

// MockInsightService is a mock implementation of service.InsightServicer.
type MockInsightService struct {
	mock.Mock
}

func (m *MockInsightService) Summary(ctx context.Context) (*dto.SummaryResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SummaryResponse), args.Error(1)
}

func (m *MockInsightService) Customer(ctx context.Context, customerID string) (*dto.CustomerInsightResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CustomerInsightResponse), args.Error(1)
}

// MockPredictService is a mock implementation of service.PredictServicer.
type MockPredictService struct {
	mock.Mock
}

func (m *MockPredictService) Score(req *dto.PredictRequest) (*dto.PredictResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PredictResponse), args.Error(1)
}

func (m *MockPredictService) Explain(req *dto.ExplainRequest) (*dto.ExplainResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ExplainResponse), args.Error(1)
}

type testMocks struct {
	events   *MockEventService
	insights *MockInsightService
	predicts *MockPredictService
}

func testHandler() (*Handler, *testMocks) {
	gin.SetMode(gin.TestMode)
	mocks := &testMocks{
		events:   new(MockEventService),
		insights: new(MockInsightService),
		predicts: new(MockPredictService),
	}
	h := NewHandler(mocks.events, mocks.insights, mocks.predicts, zap.NewNop())
	return h, mocks
}

func doRequest(h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler_HealthCheck(t *testing.T) {
	h, _ := testHandler()

	w := doRequest(h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHandler_PublishEvent_Accepted(t *testing.T) {
	h, mocks := testHandler()
	mocks.events.On("ProcessEvent", mock.Anything).Return("evt_abc", nil)

	w := doRequest(h, http.MethodPost, "/events", dto.PublishEventRequest{
		CustomerID: "cust_1",
		EventType:  "login",
		EventDate:  "2026-02-09",
	})

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp dto.PublishEventResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "evt_abc", resp.EventID)
	assert.Equal(t, "accepted", resp.Status)
}

func TestHandler_PublishEvent_ValidationError(t *testing.T) {
	h, mocks := testHandler()

	// Missing required event_type.
	w := doRequest(h, http.MethodPost, "/events", map[string]any{
		"customer_id": "cust_1",
		"event_date":  "2026-02-09",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mocks.events.AssertNotCalled(t, "ProcessEvent", mock.Anything)
}

func TestHandler_PublishEvent_ServiceError(t *testing.T) {
	h, mocks := testHandler()
	mocks.events.On("ProcessEvent", mock.Anything).Return("", errors.New("queue unavailable"))

	w := doRequest(h, http.MethodPost, "/events", dto.PublishEventRequest{
		CustomerID: "cust_1",
		EventType:  "login",
		EventDate:  "2026-02-09",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandler_PublishEventsBulk(t *testing.T) {
	h, mocks := testHandler()
	mocks.events.On("ProcessBulkEvents", mock.Anything).Return(
		[]string{"evt_1", "evt_2"}, []string{"invalid event_date"}, nil)

	w := doRequest(h, http.MethodPost, "/events/bulk", dto.PublishEventsBulkRequest{
		Events: []dto.PublishEventRequest{
			{CustomerID: "cust_1", EventType: "login", EventDate: "2026-02-09"},
			{CustomerID: "cust_2", EventType: "login", EventDate: "2026-02-09"},
			{CustomerID: "cust_3", EventType: "login", EventDate: "2026-02-09"},
		},
	})

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp dto.PublishBulkEventsResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 1, resp.Rejected)
}

func TestHandler_PublishEventsBulk_EmptyRejected(t *testing.T) {
	h, mocks := testHandler()

	w := doRequest(h, http.MethodPost, "/events/bulk", dto.PublishEventsBulkRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mocks.events.AssertNotCalled(t, "ProcessBulkEvents", mock.Anything)
}

func TestHandler_GetSummary(t *testing.T) {
	h, mocks := testHandler()
	mocks.insights.On("Summary", mock.Anything).Return(&dto.SummaryResponse{
		TotalCustomers:   1000,
		ChurnedCustomers: 270,
		ChurnRate:        0.27,
	}, nil)

	w := doRequest(h, http.MethodGet, "/insights/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.SummaryResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1000), resp.TotalCustomers)
	assert.InDelta(t, 0.27, resp.ChurnRate, 1e-9)
}

func TestHandler_GetCustomer(t *testing.T) {
	h, mocks := testHandler()
	mocks.insights.On("Customer", mock.Anything, "cust_1").Return(&dto.CustomerInsightResponse{
		CustomerID:     "cust_1",
		ChurnRiskScore: 85,
		RiskTier:       "Critical",
	}, nil)

	w := doRequest(h, http.MethodGet, "/insights/customers/cust_1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.CustomerInsightResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cust_1", resp.CustomerID)
	assert.Equal(t, "Critical", resp.RiskTier)
}

func TestHandler_GetCustomer_NotFound(t *testing.T) {
	h, mocks := testHandler()
	mocks.insights.On("Customer", mock.Anything, "ghost").Return(nil, repository.ErrCustomerNotFound)

	w := doRequest(h, http.MethodGet, "/insights/customers/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestHandler_Predict(t *testing.T) {
	h, mocks := testHandler()
	mocks.predicts.On("Score", mock.Anything).Return(&dto.PredictResponse{
		Model:            "Gradient Boosting",
		Prediction:       1,
		ChurnProbability: 0.82,
		RiskCategory:     "Critical",
	}, nil)

	w := doRequest(h, http.MethodPost, "/predict", dto.PredictRequest{
		Features: map[string]any{"recency_days": 180.0},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.PredictResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Prediction)
	assert.InDelta(t, 0.82, resp.ChurnProbability, 1e-9)
	assert.Equal(t, "Critical", resp.RiskCategory)
}

func TestHandler_Predict_MissingFeatures(t *testing.T) {
	h, mocks := testHandler()

	w := doRequest(h, http.MethodPost, "/predict", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mocks.predicts.AssertNotCalled(t, "Score", mock.Anything)
}

func TestHandler_Predict_MissingColumnRejected(t *testing.T) {
	h, mocks := testHandler()
	mocks.predicts.On("Score", mock.Anything).Return(
		nil, fmt.Errorf("%w: recency_days", ml.ErrMissingFeature))

	w := doRequest(h, http.MethodPost, "/predict", dto.PredictRequest{
		Features: map[string]any{"contract_type": "Month-to-month"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
	assert.Contains(t, w.Body.String(), "recency_days")
}

func TestHandler_Explain(t *testing.T) {
	h, mocks := testHandler()
	mocks.predicts.On("Explain", mock.Anything).Return(&dto.ExplainResponse{
		Model:            "Random Forest",
		ChurnProbability: 0.64,
		RiskCategory:     "High",
		BaseValue:        0.27,
		Contributions: []dto.ContributionEntry{
			{Feature: "recency_days", Value: 1.8, Contribution: 0.21},
		},
	}, nil)

	w := doRequest(h, http.MethodPost, "/predict/explain", dto.ExplainRequest{
		Features: map[string]any{"recency_days": 180.0},
		TopN:     5,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.ExplainResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Random Forest", resp.Model)
	assert.Len(t, resp.Contributions, 1)
	assert.Equal(t, "recency_days", resp.Contributions[0].Feature)
}
