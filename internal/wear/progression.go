package wear

// Sample is a single observation of a metric. Time is in epoch milliseconds.
type Sample struct {
	Value float64 `json:"value"`
	Time  int64   `json:"time"`
}

// Point is a resolved (value, time) pair used for progression.
type Point struct {
	Value float64 `json:"value"`
	Time  int64   `json:"time"`
}

// Progression holds the reference point and the current point of an item.
type Progression struct {
	Previous Point `json:"previous"`
	Current  Point `json:"current"`
}

// ResolveProgression picks the previous and current points for item from
// samples, which are expected to be ordered by time. The second return value
// is false when there is not enough data to compute progression.
//
// The samples come from a query with an extended boundary, so the first one
// may lie at or before the baseline. An item that was never reset uses its
// cycle start as the previous point and ignores that boundary sample.
func ResolveProgression(item Item, samples []Sample) (Progression, bool) {
	if len(samples) == 0 {
		return Progression{}, false
	}

	switch b := item.Baseline().(type) {
	case StartingPoint:
		previous := Point{Value: b.Value, Time: b.Date}
		switch {
		case len(samples) == 1 && samples[0].Time > previous.Time:
			return Progression{Previous: previous, Current: Point(samples[0])}, true
		case len(samples) > 1:
			return Progression{Previous: previous, Current: Point(samples[1])}, true
		}
		return Progression{}, false
	default:
		if len(samples) < 2 {
			return Progression{}, false
		}
		return Progression{Previous: Point(samples[0]), Current: Point(samples[1])}, true
	}
}
