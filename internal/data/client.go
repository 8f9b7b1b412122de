package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"meterflow/internal/model"
)

// Client talks to the metering data gateway. The gateway bounds every call
// to a maximum date span that depends on the data kind; Planner handles
// splitting wider requests.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient creates a gateway client. If baseURL is empty a zero client is
// still safe to construct; it will fail on first use.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// ProviderError is a non-2xx answer from the gateway.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // set on rate-limit answers
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider: status %d: %s", e.StatusCode, e.Message)
}

// FetchResult is one gateway answer: the decoded readings plus the
// reading-type metadata used as the structural template when merging.
type FetchResult struct {
	MeterID  string
	Kind     model.DataKind
	Unit     model.Unit
	Interval string
	Readings []model.Reading

	// Partial is set when the gateway answered with less than the
	// requested span, with PartialCode explaining why (history bound,
	// consent window, ...).
	Partial     bool
	PartialCode string
}

// endpointFor maps a data kind to its gateway route.
func endpointFor(kind model.DataKind) (string, error) {
	switch kind {
	case model.ConsumptionDaily:
		return "daily_consumption", nil
	case model.ConsumptionDetail:
		return "consumption_load_curve", nil
	case model.ProductionDaily:
		return "daily_production", nil
	case model.ProductionDetail:
		return "production_load_curve", nil
	case model.MaxPower:
		return "daily_consumption_max_power", nil
	}
	return "", fmt.Errorf("unknown data kind %q", kind)
}

// MaxSpanDays returns the widest date span the gateway accepts in one call
// for the given kind. 0 means unbounded: load-curve routes are batched
// server-side, so the client never chunks them.
func (c *Client) MaxSpanDays(kind model.DataKind) int {
	if kind.Detail() {
		return 0
	}
	return 365
}

// gateway wire shapes.
type meterReadingResponse struct {
	MeterReading struct {
		UsagePointID string `json:"usage_point_id"`
		ReadingType  struct {
			Unit           string `json:"unit"`
			IntervalLength string `json:"interval_length"`
		} `json:"reading_type"`
		IntervalReading []intervalReading `json:"interval_reading"`
	} `json:"meter_reading"`
	Partial     bool   `json:"partial,omitempty"`
	PartialCode string `json:"partial_code,omitempty"`
}

type intervalReading struct {
	Value          string `json:"value"`
	Date           string `json:"date"`
	IntervalLength string `json:"interval_length,omitempty"`
}

// Fetch retrieves one kind of readings for one meter over an inclusive
// date range. The range must already fit the gateway's max span; Planner
// enforces that.
func (c *Client) Fetch(ctx context.Context, meterID string, kind model.DataKind, r model.DateRange) (*FetchResult, error) {
	endpoint, err := endpointFor(kind)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s/%s/start/%s/end/%s",
		c.BaseURL, endpoint, meterID,
		r.Start.Format("2006-01-02"),
		// The gateway's end bound is exclusive; readings for the last
		// requested day sit before the following midnight.
		r.End.AddDate(0, 0, 1).Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp, body)
	}

	var wire meterReadingResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decoding gateway response: %w", err)
	}

	return c.toResult(meterID, kind, &wire), nil
}

// toResult converts a wire response, dropping rows that cannot be parsed.
// A single bad row must not invalidate the batch.
func (c *Client) toResult(meterID string, kind model.DataKind, wire *meterReadingResponse) *FetchResult {
	res := &FetchResult{
		MeterID:     meterID,
		Kind:        kind,
		Unit:        model.Unit(wire.MeterReading.ReadingType.Unit),
		Interval:    wire.MeterReading.ReadingType.IntervalLength,
		Partial:     wire.Partial,
		PartialCode: wire.PartialCode,
	}
	if res.Unit != model.UnitPower && res.Unit != model.UnitEnergy {
		// Daily routes answer in Wh, load curves in W; default by kind
		// when the gateway omits the unit.
		if kind.Detail() || kind == model.MaxPower {
			res.Unit = model.UnitPower
		} else {
			res.Unit = model.UnitEnergy
		}
	}

	for _, row := range wire.MeterReading.IntervalReading {
		ts, err := parseGatewayTime(row.Date)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(row.Value, 64)
		if err != nil {
			continue
		}
		interval := row.IntervalLength
		if interval == "" {
			interval = res.Interval
		}
		res.Readings = append(res.Readings, model.Reading{
			Timestamp: ts,
			Value:     v,
			Unit:      res.Unit,
			Interval:  interval,
		})
	}
	return res
}

func parseGatewayTime(s string) (time.Time, error) {
	// Daily rows carry a bare date, load-curve rows a full timestamp.
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func decodeError(resp *http.Response, body []byte) error {
	perr := &ProviderError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
	var wire struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error.Code != "" {
		perr.Code = wire.Error.Code
		perr.Message = wire.Error.Message
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if perr.Code == "" {
			perr.Code = "RATE_LIMITED"
		}
		perr.RetryAfter = resp.Header.Get("Retry-After")
	}
	return perr
}
