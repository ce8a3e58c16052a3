package wear

// AppConfig is a stored configuration record holding the static item
// definitions (Values) and their mutable runtime state (StateValues).
type AppConfig struct {
	PublicID    string   `json:"publicId"`
	Values      []Record `json:"values"`
	StateValues []Record `json:"stateValues"`
}

// MergeConfig combines the two parallel sequences of cfg into items, one per
// entry of Values and in the same order. The state entry is looked up by id;
// when no state entry carries the id, the entry at the same position is used
// so that legacy records written without ids still line up.
func MergeConfig(cfg *AppConfig) []Item {
	if cfg == nil {
		return []Item{}
	}

	stateByID := make(map[string]Record, len(cfg.StateValues))
	for _, s := range cfg.StateValues {
		if s.ID == "" {
			continue
		}
		if _, dup := stateByID[s.ID]; !dup {
			stateByID[s.ID] = s
		}
	}

	items := make([]Item, 0, len(cfg.Values))
	for i, value := range cfg.Values {
		merged := value
		if state, ok := stateByID[value.ID]; ok {
			merged = merged.Merge(state)
		} else if i < len(cfg.StateValues) {
			merged = merged.Merge(cfg.StateValues[i])
		}
		items = append(items, itemFromRecord(cfg.PublicID, merged))
	}
	return items
}

// MergeConfigs flattens the items of every configuration in order.
func MergeConfigs(cfgs []AppConfig) []Item {
	items := []Item{}
	for i := range cfgs {
		items = append(items, MergeConfig(&cfgs[i])...)
	}
	return items
}
