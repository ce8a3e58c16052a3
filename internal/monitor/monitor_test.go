package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wear-and-tear-backend/config"
	"wear-and-tear-backend/internal/model"
	"wear-and-tear-backend/internal/notification"
	"wear-and-tear-backend/internal/service"
	"wear-and-tear-backend/internal/store"
	"wear-and-tear-backend/internal/wear"
)

// mockStore is a mock implementation of the store.Store interface.
type mockStore struct {
	ListConfigsFunc        func(ctx context.Context) ([]wear.AppConfig, error)
	UpdateItemStatusesFunc func(ctx context.Context, now time.Time, statuses []wear.Status) ([]store.Alert, error)
}

func (m *mockStore) GetConfig(ctx context.Context, publicID string) (*wear.AppConfig, error) {
	return nil, store.ErrConfigNotFound
}

func (m *mockStore) ListConfigs(ctx context.Context) ([]wear.AppConfig, error) {
	return m.ListConfigsFunc(ctx)
}

func (m *mockStore) UpdateConfig(ctx context.Context, cfg wear.AppConfig) error {
	return nil
}

func (m *mockStore) GetRawConfig(ctx context.Context, publicID string) (*model.AssetAppConfig, error) {
	return nil, store.ErrConfigNotFound
}

func (m *mockStore) PatchConfig(ctx context.Context, patch store.ConfigPatch) error {
	return nil
}

func (m *mockStore) UpdateItemStatuses(ctx context.Context, now time.Time, statuses []wear.Status) ([]store.Alert, error) {
	return m.UpdateItemStatusesFunc(ctx, now, statuses)
}

func (m *mockStore) DB() *gorm.DB {
	return nil
}

// sampleSource answers every query with fixed samples keyed by selector.
type sampleSource map[string][]wear.Sample

func (s sampleSource) Query(ctx context.Context, q wear.Query) ([]wear.Sample, error) {
	samples, ok := s[q.Selector]
	if !ok {
		return nil, errors.New("unknown selector")
	}
	return samples, nil
}

func ptr[T any](v T) *T { return &v }

func TestMonitor_EvaluateOnce(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	cfgs := []wear.AppConfig{{
		PublicID: "cfg-1",
		Values: []wear.Record{
			{ID: "a", Name: ptr("Bearing"), Metric: &wear.Metric{Selector: "hours"}, UpperLimit: ptr(100.0)},
			{ID: "b", Name: ptr("Belt"), Metric: &wear.Metric{Selector: "broken"}, UpperLimit: ptr(100.0)},
		},
		StateValues: []wear.Record{{ID: "a", ResetOn: ptr(int64(1000))}, {ID: "b"}},
	}}

	var received []wear.Status
	mock := &mockStore{
		ListConfigsFunc: func(ctx context.Context) ([]wear.AppConfig, error) {
			return cfgs, nil
		},
		UpdateItemStatusesFunc: func(ctx context.Context, now time.Time, statuses []wear.Status) ([]store.Alert, error) {
			received = statuses
			return []store.Alert{{ItemID: "a", ConfigID: "cfg-1", Level: wear.LevelExceeded}}, nil
		},
	}

	source := sampleSource{"hours": {{Value: 10, Time: 900}, {Value: 130, Time: 2000}}}
	items := service.New(mock, nil, source, nil, nil)
	pool := notification.NewWorkerPool(1, nil, nil, nil, nil)
	monitor := NewService(&config.Config{}, mock, items, pool, nil)

	var dispatched store.Alert
	go func() {
		for alert := range pool.Jobs() {
			dispatched = alert
			wg.Done()
		}
	}()

	monitor.EvaluateOnce(context.Background())
	wg.Wait()

	require.Len(t, received, 2)
	assert.Equal(t, wear.LevelExceeded, received[0].Level)
	assert.Equal(t, 120.0, received[0].Usage)
	assert.Equal(t, wear.LevelUnknown, received[1].Level, "a failing query must not drop the item")
	assert.Equal(t, "a", dispatched.ItemID)
}

func TestMonitor_EvaluateOnce_ListError(t *testing.T) {
	mock := &mockStore{
		ListConfigsFunc: func(ctx context.Context) ([]wear.AppConfig, error) {
			return nil, errors.New("db down")
		},
		UpdateItemStatusesFunc: func(ctx context.Context, now time.Time, statuses []wear.Status) ([]store.Alert, error) {
			t.Error("statuses must not be updated when items cannot be loaded")
			return nil, nil
		},
	}

	items := service.New(mock, nil, sampleSource{}, nil, nil)
	pool := notification.NewWorkerPool(1, nil, nil, nil, nil)
	monitor := NewService(&config.Config{}, mock, items, pool, nil)

	monitor.EvaluateOnce(context.Background())
	assert.Empty(t, pool.Jobs())
}

func TestMonitor_EvaluateOnce_FullQueueAfterShutdown(t *testing.T) {
	mock := &mockStore{
		ListConfigsFunc: func(ctx context.Context) ([]wear.AppConfig, error) {
			return []wear.AppConfig{{
				PublicID:    "cfg-1",
				Values:      []wear.Record{{ID: "a", Metric: &wear.Metric{Selector: "hours"}, UpperLimit: ptr(100.0)}},
				StateValues: []wear.Record{{ID: "a", ResetOn: ptr(int64(1000))}},
			}}, nil
		},
		UpdateItemStatusesFunc: func(ctx context.Context, now time.Time, statuses []wear.Status) ([]store.Alert, error) {
			return []store.Alert{{ItemID: "a", ConfigID: "cfg-1", Level: wear.LevelExceeded}}, nil
		},
	}

	source := sampleSource{"hours": {{Value: 10, Time: 900}, {Value: 130, Time: 2000}}}
	items := service.New(mock, nil, source, nil, nil)
	pool := notification.NewWorkerPool(1, nil, nil, nil, nil)
	for len(pool.Jobs()) < cap(pool.Jobs()) {
		pool.Jobs() <- store.Alert{ItemID: "filler"}
	}
	monitor := NewService(&config.Config{}, mock, items, pool, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		monitor.EvaluateOnce(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("EvaluateOnce blocked on a full queue after cancellation")
	}
}

func TestMonitor_RunDisabled(t *testing.T) {
	monitor := NewService(&config.Config{}, &mockStore{}, nil, nil, nil)

	done := make(chan struct{})
	go func() {
		monitor.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled monitor should return immediately")
	}
}
