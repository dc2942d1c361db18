package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/dto"
)

// MockQueuePublisher is a mock implementation of queue.QueuePublisher.
type MockQueuePublisher struct {
	mock.Mock
}

func (m *MockQueuePublisher) PublishEvent(ctx context.Context, event *dto.PublishEventRequest, eventID string) error {
	args := m.Called(ctx, event, eventID)
	return args.Error(0)
}

func fixedClock() time.Time {
	return time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
}

func testEventService(publisher *MockQueuePublisher) *EventService {
	return &EventService{
		publisher: publisher,
		clock:     fixedClock,
		log:       zap.NewNop(),
	}
}

func validRequest() *dto.PublishEventRequest {
	return &dto.PublishEventRequest{
		CustomerID:             "cust_1",
		EventType:              "login",
		EventDate:              "2026-02-09",
		DeviceType:             "Mobile",
		SessionDurationMinutes: 12.5,
		PagesViewed:            4,
	}
}

func TestEventService_ProcessEvent_Publishes(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	svc := testEventService(mockPublisher)

	mockPublisher.On("PublishEvent", mock.Anything, mock.Anything, mock.AnythingOfType("string")).Return(nil)

	eventID, err := svc.ProcessEvent(validRequest())
	assert.NoError(t, err)
	assert.NotEmpty(t, eventID)

	mockPublisher.AssertExpectations(t)
}

func TestEventService_ProcessEvent_DeterministicID(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	svc := testEventService(mockPublisher)
	mockPublisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	first, err := svc.ProcessEvent(validRequest())
	assert.NoError(t, err)
	second, err := svc.ProcessEvent(validRequest())
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	changed := validRequest()
	changed.PagesViewed = 5
	third, err := svc.ProcessEvent(changed)
	assert.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestEventService_ProcessEvent_RejectsFutureDate(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	svc := testEventService(mockPublisher)

	req := validRequest()
	req.EventDate = "2026-02-11"

	_, err := svc.ProcessEvent(req)
	assert.Error(t, err)
	mockPublisher.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventService_ProcessEvent_RejectsInvalidDate(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	svc := testEventService(mockPublisher)

	req := validRequest()
	req.EventDate = "Feb 9th 2026"

	_, err := svc.ProcessEvent(req)
	assert.Error(t, err)
}

func TestEventService_ProcessEvent_PublishFailure(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	svc := testEventService(mockPublisher)

	publishErr := errors.New("queue unavailable")
	mockPublisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(publishErr)

	_, err := svc.ProcessEvent(validRequest())
	assert.ErrorIs(t, err, publishErr)
}

func TestEventService_ProcessBulkEvents_MixedResults(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	svc := testEventService(mockPublisher)
	mockPublisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	bad := *validRequest()
	bad.EventDate = "not a date"

	eventIDs, errs, err := svc.ProcessBulkEvents([]dto.PublishEventRequest{
		*validRequest(), bad, *validRequest(),
	})
	assert.NoError(t, err)
	assert.Len(t, eventIDs, 2)
	assert.Len(t, errs, 1)
}
