package wear

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapTranslator map[string]string

func (m mapTranslator) Translate(key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}

func TestBuildQuery(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(72 * time.Hour)
	tr := mapTranslator{"FOO.BAR": "hours"}

	t.Run("uses reset date over cycle start", func(t *testing.T) {
		item := Item{
			Metric:         Metric{Selector: "DataSource:abc.Tag:1"},
			CycleStartDate: ptr(past.Add(-time.Hour).UnixMilli()),
			ResetOn:        ptr(past.UnixMilli()),
		}
		q := BuildQuery(item, now, tr)
		assert.Equal(t, past, q.From)
		assert.Equal(t, now, q.To)
		assert.Equal(t, "DataSource:abc.Tag:1", q.Selector)
		assert.Equal(t, "raw", q.PostAggr)
		assert.Equal(t, 1, q.Limit)
		assert.True(t, q.ExtendedBoundary)
		assert.Equal(t, 0, q.Decimals)
		assert.Nil(t, q.Factor)
		assert.Nil(t, q.Unit)
	})

	t.Run("future cycle start gives an empty range", func(t *testing.T) {
		item := Item{CycleStartDate: ptr(future.UnixMilli())}
		q := BuildQuery(item, now, tr)
		assert.Equal(t, future, q.From)
		assert.Equal(t, future, q.To)
	})

	t.Run("no baseline starts at now", func(t *testing.T) {
		q := BuildQuery(Item{}, now, tr)
		assert.Equal(t, now, q.From)
		assert.Equal(t, now, q.To)
	})

	t.Run("copies decimals and factor", func(t *testing.T) {
		item := Item{Metric: Metric{Decimals: ptr(2), Factor: ptr(0.5)}}
		q := BuildQuery(item, now, tr)
		assert.Equal(t, 2, q.Decimals)
		require.NotNil(t, q.Factor)
		assert.Equal(t, 0.5, *q.Factor)
	})

	t.Run("translates unit placeholders", func(t *testing.T) {
		q := BuildQuery(Item{Metric: Metric{Unit: ptr("__TRANSLATION__.FOO.BAR")}}, now, tr)
		require.NotNil(t, q.Unit)
		assert.Equal(t, "hours", *q.Unit)
	})

	t.Run("plain unit passes through", func(t *testing.T) {
		q := BuildQuery(Item{Metric: Metric{Unit: ptr("rpm")}}, now, tr)
		require.NotNil(t, q.Unit)
		assert.Equal(t, "rpm", *q.Unit)
	})
}

func TestQueryJSON(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	q := BuildQuery(Item{Metric: Metric{Selector: "sel", Unit: ptr("rpm")}}, now, nil)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"selector": "sel",
		"postAggr": "raw",
		"decimals": 0,
		"from": "2024-06-01T12:00:00.000Z",
		"to": "2024-06-01T12:00:00.000Z",
		"limit": 1,
		"extendedBoundary": true,
		"unit": "rpm"
	}`, string(data))

	var decoded Query
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.From.Equal(now))
	assert.Equal(t, "rpm", *decoded.Unit)
}
