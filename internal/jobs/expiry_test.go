package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderExpirer struct {
	mock.Mock
}

func (m *MockOrderExpirer) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

func TestScheduler_SweepOrders(t *testing.T) {
	t.Run("Expires", func(t *testing.T) {
		orders := new(MockOrderExpirer)
		s := NewScheduler(orders, 30*time.Minute)
		orders.On("ExpireStale", mock.Anything, 30*time.Minute).Return(3, nil)

		assert.Equal(t, 3, s.SweepOrders(context.Background()))
		orders.AssertExpectations(t)
	})

	t.Run("ErrorIsSwallowed", func(t *testing.T) {
		orders := new(MockOrderExpirer)
		s := NewScheduler(orders, time.Hour)
		orders.On("ExpireStale", mock.Anything, time.Hour).Return(0, errors.New("db down"))

		assert.Equal(t, 0, s.SweepOrders(context.Background()))
	})

	t.Run("SweepHasDeadline", func(t *testing.T) {
		orders := new(MockOrderExpirer)
		s := NewScheduler(orders, time.Hour)
		orders.On("ExpireStale", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), time.Hour).Return(0, nil)

		s.SweepOrders(context.Background())
		orders.AssertExpectations(t)
	})
}

func TestScheduler_ScheduleOrderExpiry(t *testing.T) {
	s := NewScheduler(new(MockOrderExpirer), time.Hour)

	require.NoError(t, s.ScheduleOrderExpiry(""))
	require.NoError(t, s.ScheduleOrderExpiry("*/10 * * * *"))
	assert.Error(t, s.ScheduleOrderExpiry("not a spec"))
	assert.Len(t, s.cron.Entries(), 2)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
