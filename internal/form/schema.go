package form

import (
	"time"

	"wear-and-tear-backend/internal/parse"
	"wear-and-tear-backend/internal/wear"
)

// Input types understood by the form renderer.
const (
	TypeString    = "String"
	TypeNumber    = "Number"
	TypeDate      = "Date"
	TypeRawMetric = "RawMetric"
	TypeGroup     = "Group"
)

// Input is a declarative description of one form field or field group.
type Input struct {
	Key          string   `json:"key"`
	Type         string   `json:"type"`
	Label        string   `json:"label"`
	Description  string   `json:"description,omitempty"`
	Required     bool     `json:"required,omitempty"`
	Disabled     bool     `json:"disabled,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	DefaultValue any      `json:"defaultValue,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`
	Children     []Input  `json:"children,omitempty"`
}

// BuildInputs returns the item edit form. The starting point group is left
// out when hasStartingPoint is false and is read-only while editing.
func BuildInputs(tr wear.Translator, isEditing, hasStartingPoint bool, now time.Time, loc *time.Location) []Input {
	zero := 0.0

	inputs := []Input{
		{
			Key:      "name",
			Type:     TypeString,
			Label:    tr.Translate("NAME"),
			Required: true,
		},
		{
			Key:          "metric",
			Type:         TypeRawMetric,
			Label:        tr.Translate("METRIC"),
			AllowedTypes: []string{"int"},
			Required:     true,
		},
		{
			Key:   "threshold",
			Type:  TypeGroup,
			Label: tr.Translate("THRESHOLD"),
			Children: []Input{
				{
					Key:   "warningLimit",
					Type:  TypeNumber,
					Min:   &zero,
					Label: tr.Translate("WARNING_LIMIT"),
				},
				{
					Key:      "upperLimit",
					Type:     TypeNumber,
					Min:      &zero,
					Label:    tr.Translate("UPPER_LIMIT"),
					Required: true,
				},
			},
		},
	}

	if hasStartingPoint {
		inputs = append(inputs, Input{
			Key:         "startingPoint",
			Type:        TypeGroup,
			Label:       tr.Translate("STARTING_POINT"),
			Description: tr.Translate("__TEXT__.STARTING_POINT_INFO"),
			Children: []Input{
				{
					Key:          "cycleStartValue",
					Type:         TypeNumber,
					Min:          &zero,
					DefaultValue: 0,
					Label:        tr.Translate("CYCLE_START_VALUE"),
					Required:     true,
					Disabled:     isEditing,
				},
				{
					Key:          "cycleStartDate",
					Type:         TypeDate,
					DefaultValue: parse.StartOfDay(now, loc).Format(time.RFC3339),
					Label:        tr.Translate("CYCLE_START_DATE"),
					Required:     true,
					Disabled:     isEditing,
				},
			},
		})
	}

	return inputs
}
