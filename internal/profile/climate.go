// v0
// internal/profile/climate.go
package profile

// DayPeriod is the coarse partition of the day used by the environment.
type DayPeriod string

const (
	Night     DayPeriod = "night"
	Morning   DayPeriod = "morning"
	Afternoon DayPeriod = "afternoon"
	Evening   DayPeriod = "evening"
)

// DayPeriods lists the day periods in chronological order.
var DayPeriods = []DayPeriod{Night, Morning, Afternoon, Evening}

// Climate is the (temperature °C, relative humidity %) target of a period.
type Climate struct {
	Temperature float64
	Humidity    float64
}

var climate = map[DayPeriod]Climate{
	Night:     {Temperature: 26, Humidity: 47},
	Morning:   {Temperature: 27, Humidity: 44},
	Afternoon: {Temperature: 30.5, Humidity: 50},
	Evening:   {Temperature: 29, Humidity: 55},
}

// DayPeriodAt maps an hour of day to night [0,6), morning [6,12),
// afternoon [12,18) or evening [18,24).
func DayPeriodAt(hour int) DayPeriod {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 18:
		return Afternoon
	case hour >= 18 && hour < 24:
		return Evening
	default:
		return Night
	}
}

// ClimateAt returns the environmental target for the given hour.
func ClimateAt(hour int) Climate {
	return climate[DayPeriodAt(hour)]
}
