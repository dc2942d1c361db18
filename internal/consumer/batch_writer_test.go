package consumer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// MockEventRepository is a mock implementation of repository.EventRepository.
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) InsertEvents(ctx context.Context, events []*domain.BehavioralEvent) (int, error) {
	args := m.Called(ctx, events)
	return args.Int(0), args.Error(1)
}

func (m *MockEventRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testEnvelope(eventID string, acked, nacked *atomic.Int32) *Envelope {
	event := &domain.BehavioralEvent{
		EventID:    eventID,
		CustomerID: "cust_1",
		EventType:  "login",
		EventDate:  time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	}

	ack := func(ctx context.Context) error {
		if acked != nil {
			acked.Add(1)
		}
		return nil
	}
	nack := func(ctx context.Context) error {
		if nacked != nil {
			nacked.Add(1)
		}
		return nil
	}

	return NewEnvelope(event, ack, nack)
}

func TestBatchWriter_Start_BatchSizeThreshold(t *testing.T) {
	mockRepo := new(MockEventRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 3,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, config, log)

	var acked atomic.Int32
	mockRepo.On("InsertEvents", mock.Anything, mock.MatchedBy(func(events []*domain.BehavioralEvent) bool {
		return len(events) == 3
	})).Return(3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	in <- testEnvelope("1", &acked, nil)
	in <- testEnvelope("2", &acked, nil)
	in <- testEnvelope("3", &acked, nil)

	time.Sleep(100 * time.Millisecond)

	mockRepo.AssertExpectations(t)
	if acked.Load() != 3 {
		t.Fatalf("expected 3 acks, got %d", acked.Load())
	}
}

func TestBatchWriter_Start_TimeoutFlush(t *testing.T) {
	mockRepo := new(MockEventRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 10,
		FlushTimeout: 50 * time.Millisecond,
	}

	writer := NewBatchWriter(mockRepo, config, log)

	mockRepo.On("InsertEvents", mock.Anything, mock.MatchedBy(func(events []*domain.BehavioralEvent) bool {
		return len(events) == 2
	})).Return(2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	in <- testEnvelope("1", nil, nil)
	in <- testEnvelope("2", nil, nil)

	time.Sleep(150 * time.Millisecond)

	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_Start_InsertFailureNacks(t *testing.T) {
	mockRepo := new(MockEventRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 2,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, config, log)

	insertErr := errors.New("database connection error")
	mockRepo.On("InsertEvents", mock.Anything, mock.Anything).Return(0, insertErr)

	var acked, nacked atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	in <- testEnvelope("1", &acked, &nacked)
	in <- testEnvelope("2", &acked, &nacked)

	time.Sleep(100 * time.Millisecond)

	mockRepo.AssertExpectations(t)
	if acked.Load() != 0 {
		t.Fatalf("expected no acks on insert failure, got %d", acked.Load())
	}
	if nacked.Load() != 2 {
		t.Fatalf("expected 2 nacks, got %d", nacked.Load())
	}
}

func TestBatchWriter_Start_PartialInsertNacks(t *testing.T) {
	mockRepo := new(MockEventRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 3,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, config, log)

	// Repository reports 2 of 3 inserted.
	mockRepo.On("InsertEvents", mock.Anything, mock.MatchedBy(func(events []*domain.BehavioralEvent) bool {
		return len(events) == 3
	})).Return(2, nil)

	var acked, nacked atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go writer.Start(ctx, in)

	in <- testEnvelope("1", &acked, &nacked)
	in <- testEnvelope("2", &acked, &nacked)
	in <- testEnvelope("3", &acked, &nacked)

	time.Sleep(100 * time.Millisecond)

	mockRepo.AssertExpectations(t)
	if acked.Load() != 0 {
		t.Fatalf("expected no acks on partial insert, got %d", acked.Load())
	}
	if nacked.Load() != 3 {
		t.Fatalf("expected 3 nacks, got %d", nacked.Load())
	}
}

func TestBatchWriter_Start_FlushOnChannelClose(t *testing.T) {
	mockRepo := new(MockEventRepository)
	log := zap.NewNop()

	config := BatchWriterConfig{
		MaxBatchSize: 10,
		FlushTimeout: 10 * time.Second,
	}

	writer := NewBatchWriter(mockRepo, config, log)

	mockRepo.On("InsertEvents", mock.Anything, mock.MatchedBy(func(events []*domain.BehavioralEvent) bool {
		return len(events) == 2
	})).Return(2, nil)

	ctx := context.Background()

	in := make(chan *Envelope, 5)
	done := make(chan struct{})

	go func() {
		writer.Start(ctx, in)
		close(done)
	}()

	in <- testEnvelope("1", nil, nil)
	in <- testEnvelope("2", nil, nil)
	close(in)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("batch writer did not stop after input channel close")
	}

	mockRepo.AssertExpectations(t)
}
