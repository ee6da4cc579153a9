// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leseb/featuregw/pkg/provider"
)

// DefaultOpenMeteoURL is the public Open-Meteo API host.
const DefaultOpenMeteoURL = "https://api.open-meteo.com"

func init() {
	Providers.Register("open-meteo", func(_ context.Context, params provider.Params) (Provider, error) {
		timeout, err := time.ParseDuration(params.Get("timeout", "15s"))
		if err != nil {
			return nil, fmt.Errorf("open-meteo: invalid timeout: %w", err)
		}
		return NewOpenMeteo(params.Get("base_url", DefaultOpenMeteoURL), &http.Client{Timeout: timeout}), nil
	})
}

// OpenMeteo reads current conditions from the unauthenticated Open-Meteo
// forecast API.
type OpenMeteo struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenMeteo creates an Open-Meteo provider. A nil client uses
// http.DefaultClient.
func NewOpenMeteo(baseURL string, client *http.Client) *OpenMeteo {
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenMeteo{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// Current implements Provider.
func (o *OpenMeteo) Current(ctx context.Context, latitude, longitude float64) (*Conditions, error) {
	u, err := url.Parse(o.baseURL + "/v1/forecast")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,weathercode")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo returned status %d: %s", resp.StatusCode, string(body))
	}

	var result openMeteoResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	cur := result.Current
	if cur.Temperature == nil {
		return nil, fmt.Errorf("open-meteo response missing current.temperature_2m")
	}
	code := cur.WeatherCode
	if code == nil {
		code = cur.WeatherCodeAlt
	}
	if code == nil {
		return nil, fmt.Errorf("open-meteo response missing current.weathercode")
	}

	return &Conditions{
		Latitude:     latitude,
		Longitude:    longitude,
		TemperatureC: *cur.Temperature,
		WeatherCode:  int(math.Round(*code)),
	}, nil
}

type openMeteoResponse struct {
	Current struct {
		Temperature    *float64 `json:"temperature_2m"`
		WeatherCode    *float64 `json:"weathercode"`
		WeatherCodeAlt *float64 `json:"weather_code"`
	} `json:"current"`
}
