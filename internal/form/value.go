package form

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"wear-and-tear-backend/internal/parse"
	"wear-and-tear-backend/internal/wear"
)

// Value is the value object produced by the item form.
type Value struct {
	Name          string         `json:"name"`
	Metric        *wear.Metric   `json:"metric"`
	Threshold     Threshold      `json:"threshold"`
	StartingPoint *StartingPoint `json:"startingPoint,omitempty"`
}

// Threshold mirrors the "threshold" form group.
type Threshold struct {
	UpperLimit   *float64 `json:"upperLimit"`
	WarningLimit *float64 `json:"warningLimit"`
}

// StartingPoint mirrors the "startingPoint" form group.
type StartingPoint struct {
	CycleStartValue *float64 `json:"cycleStartValue"`
	CycleStartDate  *string  `json:"cycleStartDate"`
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, key := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return "invalid form value: " + strings.Join(parts, "; ")
}

// ErrInvalid is matched by every *ValidationError through errors.Is.
var ErrInvalid = errors.New("invalid form value")

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Validate checks v against the constraints of the form schema. The starting
// point group is mandatory only when requireStartingPoint is set.
func (v Value) Validate(requireStartingPoint bool, loc *time.Location) error {
	fields := make(map[string]string)

	if strings.TrimSpace(v.Name) == "" {
		fields["name"] = "is required"
	}
	if v.Metric == nil || strings.TrimSpace(v.Metric.Selector) == "" {
		fields["metric"] = "is required"
	}

	upper := v.Threshold.UpperLimit
	switch {
	case upper == nil:
		fields["threshold.upperLimit"] = "is required"
	case *upper < 0:
		fields["threshold.upperLimit"] = "must be at least 0"
	}
	if warn := v.Threshold.WarningLimit; warn != nil {
		switch {
		case *warn < 0:
			fields["threshold.warningLimit"] = "must be at least 0"
		case upper != nil && *warn > *upper:
			fields["threshold.warningLimit"] = "must not exceed the upper limit"
		}
	}

	sp := v.StartingPoint
	if sp == nil {
		if requireStartingPoint {
			fields["startingPoint"] = "is required"
		}
	} else {
		switch {
		case sp.CycleStartValue == nil:
			if requireStartingPoint {
				fields["startingPoint.cycleStartValue"] = "is required"
			}
		case *sp.CycleStartValue < 0:
			fields["startingPoint.cycleStartValue"] = "must be at least 0"
		}
		switch {
		case sp.CycleStartDate == nil || strings.TrimSpace(*sp.CycleStartDate) == "":
			if requireStartingPoint {
				fields["startingPoint.cycleStartDate"] = "is required"
			}
		default:
			if _, err := parse.ParseISODate(*sp.CycleStartDate, loc); err != nil {
				fields["startingPoint.cycleStartDate"] = "is not a valid date"
			}
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ToRecord maps the form value onto a partial item. Starting point fields the
// form left empty stay unset so that an update does not clear them. The
// threshold group is always complete, so an empty warning limit clears it.
func (v Value) ToRecord(loc *time.Location) (wear.Record, error) {
	name := v.Name
	r := wear.Record{
		Name:              &name,
		Metric:            v.Metric,
		UpperLimit:        v.Threshold.UpperLimit,
		WarningLimit:      v.Threshold.WarningLimit,
		ClearWarningLimit: v.Threshold.WarningLimit == nil,
	}

	if sp := v.StartingPoint; sp != nil {
		r.CycleStartValue = sp.CycleStartValue
		if sp.CycleStartDate != nil && strings.TrimSpace(*sp.CycleStartDate) != "" {
			ms, err := parse.ParseISODate(*sp.CycleStartDate, loc)
			if err != nil {
				return wear.Record{}, fmt.Errorf("cycle start date: %w", err)
			}
			r.CycleStartDate = &ms
		}
	}
	return r, nil
}

// FromItem renders item as a form value for editing.
func FromItem(item wear.Item, loc *time.Location) Value {
	metric := item.Metric
	upper := item.UpperLimit
	startValue := item.CycleStartValue

	v := Value{
		Name:   item.Name,
		Metric: &metric,
		Threshold: Threshold{
			UpperLimit:   &upper,
			WarningLimit: item.WarningLimit,
		},
		StartingPoint: &StartingPoint{CycleStartValue: &startValue},
	}
	if item.CycleStartDate != nil && *item.CycleStartDate != 0 {
		date := parse.FormatISODate(*item.CycleStartDate, loc)
		v.StartingPoint.CycleStartDate = &date
	}
	return v
}
