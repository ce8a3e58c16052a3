package wear

import (
	"context"
	"encoding/json"
	"time"

	"wear-and-tear-backend/internal/parse"
)

const isoMillisLayout = "2006-01-02T15:04:05.000Z07:00"

// Translator resolves a translation key to localized text.
type Translator interface {
	Translate(key string) string
}

// SampleSource executes a metric query and returns time-ordered samples.
type SampleSource interface {
	Query(ctx context.Context, q Query) ([]Sample, error)
}

// Query is a raw time-series query for the samples of one metric.
type Query struct {
	Selector         string
	PostAggr         string
	Decimals         int
	From             time.Time
	To               time.Time
	Limit            int
	ExtendedBoundary bool
	Factor           *float64
	Unit             *string
}

type queryJSON struct {
	Selector         string   `json:"selector"`
	PostAggr         string   `json:"postAggr"`
	Decimals         int      `json:"decimals"`
	From             string   `json:"from"`
	To               string   `json:"to"`
	Limit            int      `json:"limit"`
	ExtendedBoundary bool     `json:"extendedBoundary"`
	Factor           *float64 `json:"factor,omitempty"`
	Unit             *string  `json:"unit,omitempty"`
}

// MarshalJSON encodes the bounds as ISO-8601 UTC timestamps with millisecond precision.
func (q Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(queryJSON{
		Selector:         q.Selector,
		PostAggr:         q.PostAggr,
		Decimals:         q.Decimals,
		From:             q.From.UTC().Format(isoMillisLayout),
		To:               q.To.UTC().Format(isoMillisLayout),
		Limit:            q.Limit,
		ExtendedBoundary: q.ExtendedBoundary,
		Factor:           q.Factor,
		Unit:             q.Unit,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (q *Query) UnmarshalJSON(data []byte) error {
	var raw queryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	from, err := time.Parse(time.RFC3339Nano, raw.From)
	if err != nil {
		return err
	}
	to, err := time.Parse(time.RFC3339Nano, raw.To)
	if err != nil {
		return err
	}
	*q = Query{
		Selector:         raw.Selector,
		PostAggr:         raw.PostAggr,
		Decimals:         raw.Decimals,
		From:             from,
		To:               to,
		Limit:            raw.Limit,
		ExtendedBoundary: raw.ExtendedBoundary,
		Factor:           raw.Factor,
		Unit:             raw.Unit,
	}
	return nil
}

// BuildQuery derives the query that fetches the samples ResolveProgression
// needs for item. The range starts at the reset date, else the cycle start
// date, else now, and never ends before it starts. Limit is 1 with an
// extended boundary, which yields the boundary sample plus the first sample
// after the start.
func BuildQuery(item Item, now time.Time, tr Translator) Query {
	from := now
	switch b := item.Baseline().(type) {
	case Reset:
		from = time.UnixMilli(b.Date)
	case StartingPoint:
		from = time.UnixMilli(b.Date)
	}
	to := now
	if !now.After(from) {
		to = from
	}

	q := Query{
		Selector:         item.Metric.Selector,
		PostAggr:         "raw",
		From:             from.UTC(),
		To:               to.UTC(),
		Limit:            1,
		ExtendedBoundary: true,
		Factor:           item.Metric.Factor,
	}
	if item.Metric.Decimals != nil {
		q.Decimals = *item.Metric.Decimals
	}
	if item.Metric.Unit != nil {
		unit := *item.Metric.Unit
		if parse.IsTranslationKey(unit) && tr != nil {
			unit = tr.Translate(parse.TrimNamespace(unit))
		}
		q.Unit = &unit
	}
	return q
}
