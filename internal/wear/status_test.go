package wear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	item := Item{ID: "a", ConfigID: "cfg", Name: "Bearing", UpperLimit: 100, WarningLimit: ptr(80.0)}

	testCases := []struct {
		name      string
		current   float64
		level     Level
		remaining float64
	}{
		{name: "Fresh part", current: 10, level: LevelOK, remaining: 100},
		{name: "Warning threshold reached", current: 90, level: LevelWarning, remaining: 20},
		{name: "Upper limit reached", current: 110, level: LevelExceeded, remaining: 0},
		{name: "Past the upper limit", current: 150, level: LevelExceeded, remaining: -40},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := Progression{Previous: Point{Value: 10, Time: 1}, Current: Point{Value: tc.current, Time: 2}}
			st := Evaluate(item, p)
			assert.Equal(t, tc.level, st.Level)
			assert.Equal(t, tc.remaining, st.Remaining)
			assert.Equal(t, "a", st.ItemID)
			assert.Equal(t, "cfg", st.ConfigID)
			require.NotNil(t, st.Percentage)
		})
	}

	t.Run("zero upper limit has no percentage", func(t *testing.T) {
		st := Evaluate(Item{}, Progression{})
		assert.Nil(t, st.Percentage)
		assert.Equal(t, LevelExceeded, st.Level)
	})
}

func TestLevelSeverity(t *testing.T) {
	assert.Less(t, LevelUnknown.Severity(), LevelOK.Severity())
	assert.Less(t, LevelOK.Severity(), LevelWarning.Severity())
	assert.Less(t, LevelWarning.Severity(), LevelExceeded.Severity())
}
