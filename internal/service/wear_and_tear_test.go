package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wear-and-tear-backend/internal/ixapi"
	"wear-and-tear-backend/internal/wear"
)

// mockStore keeps configuration records in memory.
type mockStore struct {
	configs   map[string]wear.AppConfig
	updates   []wear.AppConfig
	updateErr error
}

func newMockStore(cfgs ...wear.AppConfig) *mockStore {
	m := &mockStore{configs: map[string]wear.AppConfig{}}
	for _, c := range cfgs {
		m.configs[c.PublicID] = c
	}
	return m
}

func (m *mockStore) GetConfig(ctx context.Context, publicID string) (*wear.AppConfig, error) {
	cfg, ok := m.configs[publicID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &cfg, nil
}

func (m *mockStore) ListConfigs(ctx context.Context) ([]wear.AppConfig, error) {
	var out []wear.AppConfig
	for _, c := range m.configs {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockStore) UpdateConfig(ctx context.Context, cfg wear.AppConfig) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, cfg)
	m.configs[cfg.PublicID] = cfg
	return nil
}

// mockAPI serves a single live stateValues string.
type mockAPI struct {
	state    *string
	getErr   error
	fields   []string
	patched  []ixapi.AssetAppConfig
	patchErr error
}

func (m *mockAPI) GetAssetAppConfig(ctx context.Context, publicID string, fields ...string) (*ixapi.AssetAppConfig, error) {
	m.fields = fields
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &ixapi.AssetAppConfig{PublicID: publicID, StateValues: m.state}, nil
}

func (m *mockAPI) PatchAssetAppConfig(ctx context.Context, cfg ixapi.AssetAppConfig) error {
	m.patched = append(m.patched, cfg)
	return m.patchErr
}

type stubSource struct {
	samples []wear.Sample
	err     error
	queries []wear.Query
}

func (s *stubSource) Query(ctx context.Context, q wear.Query) ([]wear.Sample, error) {
	s.queries = append(s.queries, q)
	return s.samples, s.err
}

func ptr[T any](v T) *T { return &v }

func newTestService(store ConfigStore, api PlatformAPI, source wear.SampleSource) *Service {
	svc := New(store, api, source, nil, nil)
	svc.newID = func() string { return "new-id" }
	return svc
}

func TestService_AddItem(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := New(store, nil, nil, nil, nil)

	id, err := svc.AddItem(ctx, wear.AppConfig{PublicID: "cfg-1"}, wear.Record{
		Name:       ptr("Bearing"),
		UpperLimit: ptr(100.0),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Len(t, store.updates, 1)
	written := store.updates[0]
	require.Len(t, written.Values, 1)
	require.Len(t, written.StateValues, 1)
	assert.Equal(t, id, written.Values[0].ID)
	assert.Equal(t, id, written.StateValues[0].ID)
	assert.Equal(t, "Bearing", *written.Values[0].Name)
	assert.Equal(t, wear.Record{ID: id}, written.StateValues[0])
}

func TestService_AddItem_DoesNotMutateInput(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, nil, nil)

	values := make([]wear.Record, 1, 4)
	values[0] = wear.Record{ID: "a"}
	cfg := wear.AppConfig{PublicID: "cfg-1", Values: values, StateValues: []wear.Record{{ID: "a"}}}

	_, err := svc.AddItem(context.Background(), cfg, wear.Record{Name: ptr("Belt")})
	require.NoError(t, err)
	assert.Len(t, cfg.Values, 1)
	assert.Equal(t, "a", values[:2][0].ID)
	assert.Equal(t, wear.Record{}, values[:2][1])
}

func TestService_AddItem_StoreError(t *testing.T) {
	store := newMockStore()
	store.updateErr = errors.New("db down")
	svc := newTestService(store, nil, nil)

	_, err := svc.AddItem(context.Background(), wear.AppConfig{PublicID: "cfg-1"}, wear.Record{})
	assert.ErrorContains(t, err, "db down")
}

func TestService_UpdateItem(t *testing.T) {
	ctx := context.Background()
	cfg := wear.AppConfig{
		PublicID: "cfg-1",
		Values: []wear.Record{
			{ID: "a", Name: ptr("Bearing"), UpperLimit: ptr(100.0)},
			{ID: "b", Name: ptr("Belt")},
		},
		StateValues: []wear.Record{{ID: "a", ResetOn: ptr(int64(5))}, {ID: "b"}},
	}

	testCases := []struct {
		name           string
		id             string
		update         wear.Record
		expectedValues []wear.Record
	}{
		{
			name:   "Merges into the matching entry",
			id:     "a",
			update: wear.Record{Name: ptr("Main bearing"), WarningLimit: ptr(80.0)},
			expectedValues: []wear.Record{
				{ID: "a", Name: ptr("Main bearing"), UpperLimit: ptr(100.0), WarningLimit: ptr(80.0)},
				{ID: "b", Name: ptr("Belt")},
			},
		},
		{
			name:   "Id and reset date are protected",
			id:     "b",
			update: wear.Record{ID: "z", ResetOn: ptr(int64(99)), UpperLimit: ptr(10.0)},
			expectedValues: []wear.Record{
				{ID: "a", Name: ptr("Bearing"), UpperLimit: ptr(100.0)},
				{ID: "b", Name: ptr("Belt"), UpperLimit: ptr(10.0)},
			},
		},
		{
			name:           "Missing id still persists",
			id:             "missing",
			update:         wear.Record{Name: ptr("Ghost")},
			expectedValues: cfg.Values,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockStore(cfg)
			svc := newTestService(store, nil, nil)

			require.NoError(t, svc.UpdateItem(ctx, cfg, tc.id, tc.update))
			require.Len(t, store.updates, 1)
			assert.Equal(t, tc.expectedValues, store.updates[0].Values)
			assert.Equal(t, cfg.StateValues, store.updates[0].StateValues)
		})
	}
}

func TestService_RemoveItem(t *testing.T) {
	ctx := context.Background()
	cfg := wear.AppConfig{
		PublicID: "cfg-1",
		Values:   []wear.Record{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		// State is out of order and misses c.
		StateValues: []wear.Record{{ID: "b"}, {ID: "a", ResetOn: ptr(int64(5))}},
	}
	store := newMockStore(cfg)
	svc := newTestService(store, nil, nil)

	for _, id := range []string{"a", "c"} {
		current, err := store.GetConfig(ctx, "cfg-1")
		require.NoError(t, err)
		require.NoError(t, svc.RemoveItem(ctx, *current, id))

		items, err := svc.Items(ctx, "cfg-1")
		require.NoError(t, err)
		for _, item := range items {
			assert.NotEqual(t, id, item.ID)
		}
	}

	final := store.configs["cfg-1"]
	assert.Equal(t, []wear.Record{{ID: "b"}}, final.Values)
	assert.Equal(t, []wear.Record{{ID: "b"}}, final.StateValues)
}

func TestService_ResetItem(t *testing.T) {
	ctx := context.Background()
	resetOn := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

	t.Run("sets resetOn and keeps unknown keys", func(t *testing.T) {
		state := `[{"_id":"a","resetOn":1,"note":"x"},{"_id":"b","counter":12345678901234567}]`
		api := &mockAPI{state: &state}
		svc := newTestService(newMockStore(), api, nil)

		require.NoError(t, svc.ResetItem(ctx, "cfg-1", "b", resetOn))
		assert.Equal(t, []string{"publicId", "stateValues"}, api.fields)
		require.Len(t, api.patched, 1)
		assert.Equal(t, "cfg-1", api.patched[0].PublicID)
		assert.Nil(t, api.patched[0].Values)
		assert.JSONEq(t,
			`[{"_id":"a","resetOn":1,"note":"x"},{"_id":"b","counter":12345678901234567,"resetOn":1717200000000}]`,
			*api.patched[0].StateValues)
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		api := &mockAPI{getErr: errors.New("unauthorized")}
		svc := newTestService(newMockStore(), api, nil)

		assert.ErrorContains(t, svc.ResetItem(ctx, "cfg-1", "a", resetOn), "unauthorized")
		assert.Empty(t, api.patched)
	})

	t.Run("malformed state propagates", func(t *testing.T) {
		state := `[{"_id":`
		api := &mockAPI{state: &state}
		svc := newTestService(newMockStore(), api, nil)

		assert.Error(t, svc.ResetItem(ctx, "cfg-1", "a", resetOn))
		assert.Empty(t, api.patched)
	})

	t.Run("empty state is a no-op", func(t *testing.T) {
		api := &mockAPI{}
		svc := newTestService(newMockStore(), api, nil)

		assert.NoError(t, svc.ResetItem(ctx, "cfg-1", "a", resetOn))
		assert.Empty(t, api.patched)
	})

	t.Run("patch error propagates", func(t *testing.T) {
		state := `[{"_id":"a"}]`
		api := &mockAPI{state: &state, patchErr: errors.New("conflict")}
		svc := newTestService(newMockStore(), api, nil)

		assert.ErrorContains(t, svc.ResetItem(ctx, "cfg-1", "a", resetOn), "conflict")
	})
}

func TestService_ItemStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	start := now.Add(-24 * time.Hour).UnixMilli()
	item := wear.Item{
		ID:              "a",
		ConfigID:        "cfg-1",
		Metric:          wear.Metric{Selector: "hours"},
		CycleStartDate:  &start,
		CycleStartValue: 10,
		UpperLimit:      100,
		WarningLimit:    ptr(50.0),
	}

	testCases := []struct {
		name          string
		source        *stubSource
		expectedLevel wear.Level
		expectedUsage float64
		expectErr     bool
	}{
		{
			name:          "Warning after enough usage",
			source:        &stubSource{samples: []wear.Sample{{Value: 5, Time: start - 1}, {Value: 70, Time: start + 1}}},
			expectedLevel: wear.LevelWarning,
			expectedUsage: 60,
		},
		{
			name:          "No samples yields unknown",
			source:        &stubSource{},
			expectedLevel: wear.LevelUnknown,
		},
		{
			name:          "Source error",
			source:        &stubSource{err: errors.New("timeout")},
			expectedLevel: wear.LevelUnknown,
			expectErr:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(newMockStore(), nil, tc.source)
			status, err := svc.ItemStatus(ctx, item, now)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expectedLevel, status.Level)
			assert.Equal(t, tc.expectedUsage, status.Usage)
			require.Len(t, tc.source.queries, 1)
			assert.True(t, tc.source.queries[0].From.Equal(time.UnixMilli(start)))
		})
	}
}

func TestService_ItemsForList(t *testing.T) {
	store := newMockStore(wear.AppConfig{
		PublicID:    "cfg-1",
		Values:      []wear.Record{{ID: "a", Name: ptr("Bearing")}},
		StateValues: []wear.Record{{ID: "a", ResetOn: ptr(int64(5))}},
	})
	svc := newTestService(store, nil, nil)

	items, err := svc.ItemsForList(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "cfg-1", items[0].ConfigID)
	assert.Equal(t, int64(5), *items[0].ResetOn)

	item, ok, err := svc.Item(context.Background(), "cfg-1", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bearing", item.Name)

	_, ok, err = svc.Item(context.Background(), "cfg-1", "zzz")
	require.NoError(t, err)
	assert.False(t, ok)
}
