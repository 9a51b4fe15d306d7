package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultPriceBaseURL = "https://api.energidataservice.dk"

// ErrMissingPrice is returned when the API publishes an hour without a DKK price.
var ErrMissingPrice = errors.New("hour without DKK spot price")

// PriceClient fetches day-ahead spot prices from Energi Data Service.
type PriceClient struct {
	BaseURL string
	Client  *http.Client
	Log     logrus.FieldLogger
}

// NewPriceClient creates a new price client.
// If baseURL is empty, defaults to "https://api.energidataservice.dk".
func NewPriceClient(baseURL string, logger logrus.FieldLogger) *PriceClient {
	if baseURL == "" {
		baseURL = defaultPriceBaseURL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PriceClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		Log: logger.WithField("component", "prices"),
	}
}

// PriceQuery selects one price area over a time range.
type PriceQuery struct {
	PriceArea string    // e.g. "DK1", "DK2"
	Start     time.Time // inclusive
	End       time.Time // exclusive
}

// PriceError represents a non-200 answer of the price API.
type PriceError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string
}

func (e *PriceError) Error() string {
	return e.Message
}

// SpotPrice is one hourly price converted to DKK/kWh.
type SpotPrice struct {
	HourUTC        time.Time
	PriceDKKPerKWh float64
}

type elspotResponse struct {
	Total   int `json:"total"`
	Records []struct {
		HourUTC      string   `json:"HourUTC"`
		PriceArea    string   `json:"PriceArea"`
		SpotPriceDKK *float64 `json:"SpotPriceDKK"`
		SpotPriceEUR *float64 `json:"SpotPriceEUR"`
	} `json:"records"`
}

const hourLayout = "2006-01-02T15:04:05"

// DayAhead fetches hourly spot prices for q, sorted by hour. Prices are
// published in DKK/MWh and returned in DKK/kWh. An hour without a DKK price
// fails the whole request with ErrMissingPrice.
func (c *PriceClient) DayAhead(ctx context.Context, q PriceQuery) ([]SpotPrice, error) {
	if q.PriceArea == "" {
		return nil, fmt.Errorf("price_area is required")
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return nil, fmt.Errorf("start and end are required")
	}
	if !q.Start.Before(q.End) {
		return nil, fmt.Errorf("start must be before end")
	}

	u, err := url.Parse(c.BaseURL + "/dataset/Elspotprices")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	filter, err := json.Marshal(map[string][]string{"PriceArea": {q.PriceArea}})
	if err != nil {
		return nil, err
	}
	v := u.Query()
	v.Set("start", q.Start.UTC().Format("2006-01-02T15:04"))
	v.Set("end", q.End.UTC().Format("2006-01-02T15:04"))
	v.Set("filter", string(filter))
	v.Set("sort", "HourUTC asc")
	v.Set("timezone", "utc")
	u.RawQuery = v.Encode()

	log := c.Log.WithFields(logrus.Fields{"area": q.PriceArea, "start": q.Start.Format("2006-01-02"), "end": q.End.Format("2006-01-02")})
	log.Infof("Request: GET %s", u.Path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		log.Warnf("Request failed: %v (duration: %v)", err, time.Since(started))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	log.Infof("Response: %d (duration: %v)", resp.StatusCode, time.Since(started))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, &PriceError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		return nil, &PriceError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var body elspotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]SpotPrice, 0, len(body.Records))
	for _, r := range body.Records {
		if r.SpotPriceDKK == nil {
			return nil, fmt.Errorf("area %s hour %s: %w", q.PriceArea, r.HourUTC, ErrMissingPrice)
		}
		t, err := time.Parse(hourLayout, r.HourUTC)
		if err != nil {
			return nil, fmt.Errorf("invalid HourUTC %q: %w", r.HourUTC, err)
		}
		out = append(out, SpotPrice{HourUTC: t, PriceDKKPerKWh: *r.SpotPriceDKK / 1000})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HourUTC.Before(out[j].HourUTC) })
	log.Infof("Received %d hourly prices", len(out))
	if len(out) == 0 {
		return nil, fmt.Errorf("area %s: %w", q.PriceArea, ErrNoData)
	}
	return out, nil
}

// PriceSeries extracts the DKK/kWh values.
func PriceSeries(prices []SpotPrice) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.PriceDKKPerKWh
	}
	return out
}
