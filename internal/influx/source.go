package influx

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"wear-and-tear-backend/config"
	"wear-and-tear-backend/internal/wear"
)

// Source reads raw metric samples from InfluxDB 2. The metric selector is
// matched against the _field of the configured measurement.
type Source struct {
	client      influxdb2.Client
	org         string
	bucket      string
	measurement string
	run         func(ctx context.Context, flux string) ([]wear.Sample, error)
}

var _ wear.SampleSource = (*Source)(nil)

// New connects a Source using cfg.
func New(cfg config.InfluxConfig) (*Source, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, errors.New("influx url, token, org and bucket are required")
	}
	opts := influxdb2.DefaultOptions().
		SetHTTPRequestTimeout(timeoutSeconds(cfg.TimeoutMS))
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	s := &Source{client: client, org: cfg.Org, bucket: cfg.Bucket, measurement: cfg.Measurement}
	s.run = s.exec
	return s, nil
}

// timeoutSeconds converts ms to the whole seconds the client accepts, rounding
// up so that a sub-second timeout does not become zero (no timeout).
func timeoutSeconds(ms int) uint {
	if ms <= 0 {
		return 0
	}
	return uint((ms + 999) / 1000)
}

// Close releases the underlying client.
func (s *Source) Close() {
	if s == nil || s.client == nil {
		return
	}
	s.client.Close()
}

// Query returns the last sample at or before q.From when an extended boundary
// is requested, followed by up to q.Limit samples after q.From and not later
// than q.To. The factor is applied to every value, which is then rounded when
// decimals are requested.
func (s *Source) Query(ctx context.Context, q wear.Query) ([]wear.Sample, error) {
	var samples []wear.Sample

	if q.ExtendedBoundary {
		boundary, err := s.run(ctx, boundaryFlux(s.bucket, s.measurement, q))
		if err != nil {
			return nil, fmt.Errorf("boundary query failed: %w", err)
		}
		samples = append(samples, boundary...)
	}

	if q.To.After(q.From) {
		after, err := s.run(ctx, rangeFlux(s.bucket, s.measurement, q))
		if err != nil {
			return nil, fmt.Errorf("range query failed: %w", err)
		}
		samples = append(samples, after...)
	}

	for i := range samples {
		samples[i].Value = scale(samples[i].Value, q.Factor, q.Decimals)
	}
	if samples == nil {
		samples = []wear.Sample{}
	}
	return samples, nil
}

func (s *Source) exec(ctx context.Context, flux string) ([]wear.Sample, error) {
	result, err := s.client.QueryAPI(s.org).Query(ctx, flux)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var samples []wear.Sample
	for result.Next() {
		record := result.Record()
		value, ok := toFloat(record.Value())
		if !ok {
			continue
		}
		samples = append(samples, wear.Sample{Value: value, Time: record.Time().UnixMilli()})
	}
	if result.Err() != nil {
		return nil, result.Err()
	}
	return samples, nil
}

func boundaryFlux(bucket, measurement string, q wear.Query) string {
	stop := q.From.Add(time.Millisecond)
	return fmt.Sprintf(`from(bucket: %s)
  |> range(start: 0, stop: %s)
  |> filter(fn: (r) => r._measurement == %s and r._field == %s)
  |> last()`,
		strconv.Quote(bucket), stop.UTC().Format(time.RFC3339Nano),
		strconv.Quote(measurement), strconv.Quote(q.Selector))
}

func rangeFlux(bucket, measurement string, q wear.Query) string {
	limit := q.Limit
	if limit <= 0 {
		limit = 1
	}
	start := q.From.Add(time.Millisecond)
	stop := q.To.Add(time.Millisecond)
	return fmt.Sprintf(`from(bucket: %s)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %s and r._field == %s)
  |> sort(columns: ["_time"])
  |> limit(n: %d)`,
		strconv.Quote(bucket), start.UTC().Format(time.RFC3339Nano), stop.UTC().Format(time.RFC3339Nano),
		strconv.Quote(measurement), strconv.Quote(q.Selector), limit)
}

func scale(value float64, factor *float64, decimals int) float64 {
	if factor != nil {
		value *= *factor
	}
	if decimals <= 0 {
		return value
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(value*p) / p
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
