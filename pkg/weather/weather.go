// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package weather

import (
	"context"

	"github.com/leseb/featuregw/pkg/provider"
)

// Providers is the registry of weather backends.
var Providers = provider.NewRegistry[Provider]("weather")

// Conditions is the current weather at one coordinate.
type Conditions struct {
	Latitude     float64
	Longitude    float64
	TemperatureC float64
	WeatherCode  int
}

// TemperatureF returns the temperature in degrees Fahrenheit.
func (c *Conditions) TemperatureF() float64 {
	return CelsiusToFahrenheit(c.TemperatureC)
}

// Description returns the human-readable weather code.
func (c *Conditions) Description() string {
	return Describe(c.WeatherCode)
}

// Provider looks up current conditions for a coordinate.
type Provider interface {
	Current(ctx context.Context, latitude, longitude float64) (*Conditions, error)
}

// WMO weather interpretation codes
var descriptions = map[int]string{
	0:  "Clear sky ☀️",
	1:  "Mainly clear 🌤️",
	2:  "Partly cloudy ⛅",
	3:  "Overcast ☁️",
	45: "Fog 🌫️",
	48: "Depositing rime fog 🌫️",
	51: "Light drizzle 🌦️",
	53: "Moderate drizzle 🌦️",
	55: "Dense drizzle 🌧️",
	61: "Slight rain 🌧️",
	63: "Moderate rain 🌧️",
	65: "Heavy rain 🌧️",
	71: "Slight snow fall 🌨️",
	73: "Moderate snow fall 🌨️",
	75: "Heavy snow fall ❄️",
	95: "Thunderstorm ⛈️",
	96: "Thunderstorm with slight hail ⛈️",
	99: "Thunderstorm with heavy hail ⛈️",
}

// Describe maps a weather code to its description, or "Unknown".
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "Unknown"
}

// CelsiusToFahrenheit converts degrees Celsius to Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}
