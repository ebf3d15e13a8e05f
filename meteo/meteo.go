// Package meteo provides Magnus-formula relations between temperature, dew
// point, relative humidity and vapor pressure. Pressures are in mbar,
// temperatures in degrees Celsius.
package meteo

import "math"

const (
	magnusA = 6.112
	magnusB = 17.67
	magnusC = 243.5
)

// VaporPressure returns the saturation vapor pressure in mbar at tempC.
func VaporPressure(tempC float64) float64 {
	return magnusA * math.Exp(magnusB*tempC/(tempC+magnusC))
}

// DewPoint returns the dew point temperature for a given air temperature and
// relative humidity in percent. Zero humidity falls back to absolute zero.
func DewPoint(tempC, rhPercent float64) float64 {
	if rhPercent == 0 {
		return -273.15
	}
	vp := VaporPressure(tempC) * rhPercent / 100
	ratio := math.Log(vp / magnusA)
	return magnusC * ratio / (magnusB - ratio)
}

// RelativeHumidity returns relative humidity in percent from temperature and
// dew point, clamped to [0, 100].
func RelativeHumidity(tempC, dewC float64) float64 {
	rh := VaporPressure(dewC) / VaporPressure(tempC) * 100
	return math.Min(100, math.Max(0, rh))
}

// AbsoluteHumidity returns the water vapor density in g/m^3.
func AbsoluteHumidity(tempC, rhPercent float64) float64 {
	vp := VaporPressure(tempC) * rhPercent / 100
	return vp * 100 / (461.5 * (tempC + 273.15)) * 1000
}
