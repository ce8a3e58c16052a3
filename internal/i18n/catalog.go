package i18n

// defaults are the English labels used by the item form and push alerts.
var defaults = map[string]string{
	"NAME":                         "Name",
	"METRIC":                       "Metric",
	"THRESHOLD":                    "Threshold",
	"WARNING_LIMIT":                "Warning limit",
	"UPPER_LIMIT":                  "Upper limit",
	"STARTING_POINT":               "Starting point",
	"__TEXT__.STARTING_POINT_INFO": "The metric value and date from which wear is counted.",
	"CYCLE_START_VALUE":            "Cycle start value",
	"CYCLE_START_DATE":             "Cycle start date",
	"HOURS":                        "hours",
	"CYCLES":                       "cycles",
	"__TEXT__.ALERT_WARNING":       "Wear warning",
	"__TEXT__.ALERT_EXCEEDED":      "Wear limit exceeded",
}

// Catalog resolves translation keys to localized text.
type Catalog struct {
	entries map[string]string
}

// NewCatalog builds a catalog from the built-in defaults with overrides applied.
func NewCatalog(overrides map[string]string) *Catalog {
	entries := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		entries[k] = v
	}
	for k, v := range overrides {
		entries[k] = v
	}
	return &Catalog{entries: entries}
}

// Translate returns the text for key, or the key itself when it is unknown.
func (c *Catalog) Translate(key string) string {
	if c == nil {
		return key
	}
	if v, ok := c.entries[key]; ok {
		return v
	}
	return key
}
