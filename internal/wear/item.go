package wear

import (
	"encoding/json"
	"maps"
)

// Metric references an external time-series metric.
type Metric struct {
	Selector string   `json:"selector"`
	Decimals *int     `json:"decimals,omitempty"`
	Factor   *float64 `json:"factor,omitempty"`
	// Unit may be a translation placeholder such as "__TRANSLATION__.HOURS".
	Unit *string `json:"unit,omitempty"`
	// Extra holds members of the stored metric this type does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

var metricKeys = []string{"selector", "decimals", "factor", "unit"}

func (m Metric) MarshalJSON() ([]byte, error) {
	type plain Metric
	data, err := json.Marshal(plain(m))
	if err != nil {
		return nil, err
	}
	return withExtra(data, m.Extra)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	type plain Metric
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraMembers(data, metricKeys)
	if err != nil {
		return err
	}
	p.Extra = extra
	*m = Metric(p)
	return nil
}

// Record is a partial item as stored in a configuration record's values or
// stateValues sequence. Unset fields are nil.
type Record struct {
	ID              string   `json:"_id,omitempty"`
	Name            *string  `json:"name,omitempty"`
	Metric          *Metric  `json:"metric,omitempty"`
	CycleStartDate  *int64   `json:"cycleStartDate,omitempty"`
	CycleStartValue *float64 `json:"cycleStartValue,omitempty"`
	UpperLimit      *float64 `json:"upperLimit,omitempty"`
	WarningLimit    *float64 `json:"warningLimit,omitempty"`
	ResetOn         *int64   `json:"resetOn,omitempty"`

	// ClearWarningLimit makes Merge drop the warning limit when other does
	// not set one. It is never stored.
	ClearWarningLimit bool `json:"-"`
	// Extra holds members of the stored entry this type does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

var recordKeys = []string{
	"_id", "name", "metric", "cycleStartDate", "cycleStartValue", "upperLimit", "warningLimit", "resetOn",
}

func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	data, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return withExtra(data, r.Extra)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraMembers(data, recordKeys)
	if err != nil {
		return err
	}
	p.Extra = extra
	*r = Record(p)
	return nil
}

// extraMembers returns the members of the JSON object data not named in known.
func extraMembers(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, key := range known {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// withExtra adds the extra members to the encoded object data. Modelled
// fields take precedence.
func withExtra(data []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, ok := all[key]; !ok {
			all[key] = value
		}
	}
	return json.Marshal(all)
}

// Merge returns r with every field set in other copied over it. Unknown
// members of both are kept, those of other winning.
func (r Record) Merge(other Record) Record {
	if other.ID != "" {
		r.ID = other.ID
	}
	if other.Name != nil {
		r.Name = other.Name
	}
	if other.Metric != nil {
		r.Metric = other.Metric
	}
	if other.CycleStartDate != nil {
		r.CycleStartDate = other.CycleStartDate
	}
	if other.CycleStartValue != nil {
		r.CycleStartValue = other.CycleStartValue
	}
	if other.UpperLimit != nil {
		r.UpperLimit = other.UpperLimit
	}
	if other.WarningLimit != nil {
		r.WarningLimit = other.WarningLimit
	} else if other.ClearWarningLimit {
		r.WarningLimit = nil
	}
	if other.ResetOn != nil {
		r.ResetOn = other.ResetOn
	}
	if len(other.Extra) > 0 {
		extra := make(map[string]json.RawMessage, len(r.Extra)+len(other.Extra))
		maps.Copy(extra, r.Extra)
		maps.Copy(extra, other.Extra)
		r.Extra = extra
	}
	return r
}

// Item is a fully merged wear-and-tear item.
type Item struct {
	ID              string   `json:"_id"`
	ConfigID        string   `json:"_appConfigId"`
	Name            string   `json:"name"`
	Metric          Metric   `json:"metric"`
	CycleStartDate  *int64   `json:"cycleStartDate"`
	CycleStartValue float64  `json:"cycleStartValue"`
	UpperLimit      float64  `json:"upperLimit"`
	WarningLimit    *float64 `json:"warningLimit"`
	ResetOn         *int64   `json:"resetOn"`
}

// Baseline is the reference point progression is measured from. It is either
// a StartingPoint or a Reset.
type Baseline interface {
	baseline()
}

// StartingPoint is the original cycle start of an item that was never reset.
type StartingPoint struct {
	Value float64
	Date  int64
}

// Reset marks the moment the item's cycle was last restarted.
type Reset struct {
	Date int64
}

func (StartingPoint) baseline() {}
func (Reset) baseline()         {}

// Baseline returns the active baseline of the item, or nil when neither a
// reset nor a cycle start date is known. A zero timestamp counts as unset.
func (it Item) Baseline() Baseline {
	if it.ResetOn != nil && *it.ResetOn != 0 {
		return Reset{Date: *it.ResetOn}
	}
	if it.CycleStartDate != nil && *it.CycleStartDate != 0 {
		return StartingPoint{Value: it.CycleStartValue, Date: *it.CycleStartDate}
	}
	return nil
}

// itemFromRecord fills an Item from a merged record.
func itemFromRecord(configID string, r Record) Item {
	it := Item{
		ID:             r.ID,
		ConfigID:       configID,
		CycleStartDate: r.CycleStartDate,
		WarningLimit:   r.WarningLimit,
		ResetOn:        r.ResetOn,
	}
	if r.Name != nil {
		it.Name = *r.Name
	}
	if r.Metric != nil {
		it.Metric = *r.Metric
	}
	if r.CycleStartValue != nil {
		it.CycleStartValue = *r.CycleStartValue
	}
	if r.UpperLimit != nil {
		it.UpperLimit = *r.UpperLimit
	}
	return it
}
