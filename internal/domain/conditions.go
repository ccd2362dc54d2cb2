package domain

// Bucket thresholds in millimetres of rain and degrees Celsius.
const (
	heavyRainThreshold = 10.0
	lightRainThreshold = 2.0
	hotThreshold       = 35.0
	warmThreshold      = 28.0
	pleasantThreshold  = 20.0
)

// DetermineWeatherConditions assigns a day to a weather bucket. Rainfall
// thresholds are checked before temperature; a nil temperature is unknown.
func DetermineWeatherConditions(maxTemp *float64, rainfall float64) Conditions {
	if maxTemp == nil {
		return ConditionsUnknown
	}
	switch {
	case rainfall > heavyRainThreshold:
		return ConditionsHeavyRain
	case rainfall > lightRainThreshold:
		return ConditionsLightRain
	case *maxTemp > hotThreshold:
		return ConditionsHot
	case *maxTemp > warmThreshold:
		return ConditionsWarm
	case *maxTemp > pleasantThreshold:
		return ConditionsPleasant
	default:
		return ConditionsCool
	}
}
