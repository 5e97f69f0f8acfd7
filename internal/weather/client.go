// Package weather polls OpenWeatherMap and classifies the current conditions
// into a rain-likely flag the watering scheduler consults.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode"
	"unicode/utf8"
)

const defaultBaseURL = "http://api.openweathermap.org/data/2.5/weather"

// Report is the slice of the provider response the controller cares about.
type Report struct {
	ConditionID int
	Description string
}

// RainLikely reports whether the condition group indicates precipitation.
// OpenWeatherMap groups condition codes by leading digit: 2xx thunderstorm,
// 3xx drizzle, 5xx rain, 6xx snow.
func (r Report) RainLikely() bool {
	switch r.ConditionID / 100 {
	case 2, 3, 5, 6:
		return true
	}
	return false
}

// ParseError marks a response that came back 2xx but did not have the shape
// we expect. The poller treats it as permanent for the cycle: retrying the
// same request will not make the body parse.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("weather: parse response: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

type Client struct {
	baseURL string
	apiKey  string
	city    string
	http    *http.Client
}

func NewClient(apiKey, city string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		city:    city,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type owmResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches the current conditions for the configured city.
func (c *Client) Current(ctx context.Context) (Report, error) {
	q := url.Values{}
	q.Set("q", c.city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Report{}, fmt.Errorf("weather: status %d: %s", resp.StatusCode, string(b))
	}

	var out owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Report{}, &ParseError{Err: err}
	}
	if len(out.Weather) == 0 {
		return Report{}, &ParseError{Err: fmt.Errorf("no weather conditions in response")}
	}

	return Report{
		ConditionID: out.Weather[0].ID,
		Description: capitalize(out.Weather[0].Description),
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
