// Package weather is the OpenWeatherMap collaborator. Failures render
// as a degraded per-city string and never crash a command.
package weather

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.openweathermap.org"

type Report struct {
	City        string
	Temperature float64
	Description string
}

func (r Report) String() string {
	return fmt.Sprintf("%s: %s, %d°", r.City, r.Description, int(math.Round(r.Temperature)))
}

type Client struct {
	client *resty.Client
	apiKey string
}

// New returns a weather client; an empty baseURL picks the public API.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(8 * time.Second)
	return &Client{client: c, apiKey: apiKey}
}

func (c *Client) Configured() bool { return c.apiKey != "" }

type owmResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Message string `json:"message"`
}

// Current fetches the weather for one city in the given unit system.
func (c *Client) Current(ctx context.Context, city, units string) (Report, error) {
	if !c.Configured() {
		return Report{}, fmt.Errorf("weather: OWM_API_KEY is not set")
	}

	var out owmResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     city,
			"appid": c.apiKey,
			"units": units,
			"lang":  "ru",
		}).
		SetResult(&out).
		Get("/data/2.5/weather")
	if err != nil {
		return Report{}, fmt.Errorf("weather request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Report{}, fmt.Errorf("weather status %d: %s", resp.StatusCode(), out.Message)
	}

	r := Report{City: city, Temperature: out.Main.Temp}
	if len(out.Weather) > 0 {
		r.Description = out.Weather[0].Description
	}
	return r, nil
}

// CurrentLine is the user-facing variant: on any failure it degrades to
// an "unavailable" line instead of propagating the error.
func (c *Client) CurrentLine(ctx context.Context, city, units string) string {
	r, err := c.Current(ctx, city, units)
	if err != nil {
		return city + ": сейчас недоступно"
	}
	return r.String()
}
