package wear

// Level classifies how worn an item is.
type Level string

const (
	LevelUnknown  Level = "unknown"
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelExceeded Level = "exceeded"
)

// Severity orders levels so escalations can be detected.
func (l Level) Severity() int {
	switch l {
	case LevelOK:
		return 1
	case LevelWarning:
		return 2
	case LevelExceeded:
		return 3
	}
	return 0
}

// Status is the remaining-life view of an item.
type Status struct {
	ItemID      string       `json:"itemId"`
	ConfigID    string       `json:"configId"`
	Name        string       `json:"name"`
	Level       Level        `json:"level"`
	Usage       float64      `json:"usage"`
	Remaining   float64      `json:"remaining"`
	Percentage  *float64     `json:"percentage,omitempty"`
	UpperLimit  float64      `json:"upperLimit"`
	Progression *Progression `json:"progression,omitempty"`
}

// Evaluate computes usage and remaining life of item from p. Usage is the
// metric growth between the previous and the current point.
func Evaluate(item Item, p Progression) Status {
	usage := p.Current.Value - p.Previous.Value
	st := Status{
		ItemID:      item.ID,
		ConfigID:    item.ConfigID,
		Name:        item.Name,
		Usage:       usage,
		Remaining:   item.UpperLimit - usage,
		UpperLimit:  item.UpperLimit,
		Progression: &p,
		Level:       LevelOK,
	}
	if item.UpperLimit > 0 {
		pct := usage / item.UpperLimit * 100
		st.Percentage = &pct
	}

	switch {
	case usage >= item.UpperLimit:
		st.Level = LevelExceeded
	case item.WarningLimit != nil && usage >= *item.WarningLimit:
		st.Level = LevelWarning
	}
	return st
}

// UnknownStatus describes an item whose progression could not be resolved.
func UnknownStatus(item Item) Status {
	return Status{
		ItemID:     item.ID,
		ConfigID:   item.ConfigID,
		Name:       item.Name,
		Level:      LevelUnknown,
		Remaining:  item.UpperLimit,
		UpperLimit: item.UpperLimit,
	}
}
