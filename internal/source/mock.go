package source

import (
	"chatapp-client/internal/models"
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mock is an in-process message source. It keeps the whole history in memory and
// answers after a random delay, failing a share of the sends.
type Mock struct {
	mutex   sync.Mutex
	history map[string][]models.Message // ascending by createdAt

	userID      string
	minLatency  time.Duration
	maxLatency  time.Duration
	failureRate float64
	rng         *rand.Rand
	now         func() time.Time

	sugar *zap.SugaredLogger
}

type MockOption func(*Mock)

func WithLatency(minLatency time.Duration, maxLatency time.Duration) MockOption {
	return func(m *Mock) {
		if minLatency < 0 || maxLatency < minLatency {
			return
		}
		m.minLatency = minLatency
		m.maxLatency = maxLatency
	}
}

func WithFailureRate(rate float64) MockOption {
	return func(m *Mock) {
		if rate >= 0 && rate <= 1 {
			m.failureRate = rate
		}
	}
}

// WithRandSeed makes latency, failures and generated seed data reproducible.
func WithRandSeed(seed uint64) MockOption {
	return func(m *Mock) {
		m.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func WithClock(now func() time.Time) MockOption {
	return func(m *Mock) {
		m.now = now
	}
}

// NewMock creates a mock source that signs sent messages with userID. By default it
// answers within 100 to 300 ms and fails 5% of the sends.
func NewMock(sugar *zap.SugaredLogger, userID string, opts ...MockOption) *Mock {
	m := &Mock{
		history:     make(map[string][]models.Message),
		userID:      userID,
		minLatency:  100 * time.Millisecond,
		maxLatency:  300 * time.Millisecond,
		failureRate: 0.05,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:         time.Now,
		sugar:       sugar,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddHistory puts messages into the backend history of their channels.
func (m *Mock) AddHistory(messages ...models.Message) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	touched := make(map[string]struct{})
	for _, msg := range messages {
		m.history[msg.ChannelID] = append(m.history[msg.ChannelID], msg)
		touched[msg.ChannelID] = struct{}{}
	}
	for channelID := range touched {
		history := m.history[channelID]
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].CreatedAt.Before(history[j].CreatedAt)
		})
	}
}

func (m *Mock) FetchMessages(ctx context.Context, channelID string, before *time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	err := m.wait(ctx)
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	history := m.history[channelID]

	end := len(history)
	if before != nil {
		end = sort.Search(len(history), func(i int) bool {
			return !history[i].CreatedAt.Before(*before)
		})
	}
	start := max(end-limit, 0)

	page := make([]models.Message, 0, end-start)
	for i := end - 1; i >= start; i-- {
		page = append(page, history[i])
	}

	m.sugar.Debugf("Mock source returned %d message(s) of channel [%s]", len(page), channelID)
	return page, nil
}

func (m *Mock) SendMessage(ctx context.Context, channelID string, content string) (models.Message, error) {
	err := m.wait(ctx)
	if err != nil {
		return models.Message{}, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.rng.Float64() < m.failureRate {
		return models.Message{}, fmt.Errorf("sending to channel [%s]: %w", channelID, ErrSimulatedFailure)
	}

	msg := models.Message{
		ID:               uuid.NewString(),
		ChannelID:        channelID,
		SenderID:         m.userID,
		Content:          content,
		EncryptedContent: content,
		Nonce:            uuid.NewString(),
		CreatedAt:        m.now().UTC(),
		Attachments:      []models.Attachment{},
	}
	m.history[channelID] = append(m.history[channelID], msg)

	return msg, nil
}

func (m *Mock) wait(ctx context.Context) error {
	m.mutex.Lock()
	delay := m.minLatency
	if spread := m.maxLatency - m.minLatency; spread > 0 {
		delay += time.Duration(m.rng.Int64N(int64(spread)))
	}
	m.mutex.Unlock()

	if delay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
