package town

// Period is the coarse time of day derived from the world clock.
type Period string

const (
	Morning Period = "Morning"
	Evening Period = "Evening"
	Night   Period = "Night"
)

// PeriodAt maps an hour in [0,24) to its period.
// Morning is [6,12), Evening is [12,18), everything else is Night.
func PeriodAt(hour float64) Period {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 18:
		return Evening
	default:
		return Night
	}
}

// SpeedMultiplier scales NPC movement speed. Evenings are lazy, nights are a hurry home.
func (p Period) SpeedMultiplier() float64 {
	switch p {
	case Evening:
		return 0.6
	case Night:
		return 1.2
	default:
		return 1.0
	}
}
