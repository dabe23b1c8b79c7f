package etimetrack

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// EmployeeFilterAll asks the vendor for every employee's records.
const EmployeeFilterAll = "ALL"

// vendorDateLayout is the vendor-mandated parameter format, DD/MM/YYYY_HH:mm.
const vendorDateLayout = "02/01/2006_15:04"

// PunchRecord is one raw terminal punch. Direction is unreliable: the
// terminal frequently reports it empty and the normalizer has to infer it
// from pairing order.
type PunchRecord struct {
	Empcode   string `json:"Empcode"`
	Name      string `json:"Name"`
	PunchTime string `json:"PunchTime"` // "DD/MM/YYYY HH:mm:ss", vendor-local wall clock
	INOUT     string `json:"INOUT"`     // "IN", "OUT" or ""
	SrNo      string `json:"SrNo"`      // record token, "MMYYYY$sequence"
}

// PairedRecord is one pre-paired in/out row from the vendor's day-summary
// endpoint. OUTTime is empty while the employee is still clocked in.
type PairedRecord struct {
	Empcode    string `json:"Empcode"`
	Name       string `json:"Name"`
	DateString string `json:"DateString"` // "DD/MM/YYYY"
	INTime     string `json:"INTime"`     // "HH:mm"
	OUTTime    string `json:"OUTTime"`    // "HH:mm" or ""
}

type punchPayload struct {
	PunchData []PunchRecord `json:"PunchData"`
}

type pairedPayload struct {
	InOutData []PairedRecord `json:"InOutData"`
}

// APIError is any non-2xx vendor response. Retry decisions belong to the
// sync orchestrator, not here.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("etimetrack API error [%d]: %s", e.Status, e.Body)
}

// IsTransient reports whether the failure is worth retrying (5xx).
func (e *APIError) IsTransient() bool {
	return e.Status >= 500
}

type Config struct {
	BaseURL  string
	CorpID   string
	Username string
	Password string
}

// Client issues credentialed requests against the eTimeTrack terminal API.
// It does parameter formatting and decoding only; no retries, no
// interpretation of the punch data.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	// Vendor scheme: Basic auth over "corpId:username:password:true".
	raw := fmt.Sprintf("%s:%s:%s:true", cfg.CorpID, cfg.Username, cfg.Password)
	return &Client{
		baseURL:    cfg.BaseURL,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// FetchSince returns every punch recorded after the given cursor token.
// An empty token asks for the full backlog.
func (c *Client) FetchSince(ctx context.Context, token string, employeeFilter string) ([]PunchRecord, error) {
	params := url.Values{}
	params.Set("LastRecord", token)
	params.Set("Empcode", normalizeFilter(employeeFilter))

	var payload punchPayload
	if err := c.get(ctx, "/api/v2/attendance/fetchlatestdata", params, &payload); err != nil {
		return nil, err
	}
	return payload.PunchData, nil
}

// FetchRange returns raw punches in [from, to].
func (c *Client) FetchRange(ctx context.Context, from, to time.Time, employeeFilter string) ([]PunchRecord, error) {
	params := url.Values{}
	params.Set("FromDate", from.Format(vendorDateLayout))
	params.Set("ToDate", to.Format(vendorDateLayout))
	params.Set("Empcode", normalizeFilter(employeeFilter))

	var payload punchPayload
	if err := c.get(ctx, "/api/v2/attendance/fetchdata", params, &payload); err != nil {
		return nil, err
	}
	return payload.PunchData, nil
}

// FetchPairedRange returns the vendor's pre-paired in/out rows in [from, to].
func (c *Client) FetchPairedRange(ctx context.Context, from, to time.Time, employeeFilter string) ([]PairedRecord, error) {
	params := url.Values{}
	params.Set("FromDate", from.Format(vendorDateLayout))
	params.Set("ToDate", to.Format(vendorDateLayout))
	params.Set("Empcode", normalizeFilter(employeeFilter))

	var payload pairedPayload
	if err := c.get(ctx, "/api/v2/attendance/fetchinoutdata", params, &payload); err != nil {
		return nil, err
	}
	return payload.InOutData, nil
}

// FetchLast returns today's most recent punch per employee.
func (c *Client) FetchLast(ctx context.Context, employeeFilter string) ([]PunchRecord, error) {
	params := url.Values{}
	params.Set("Empcode", normalizeFilter(employeeFilter))

	var payload punchPayload
	if err := c.get(ctx, "/api/v2/attendance/fetchlastrecord", params, &payload); err != nil {
		return nil, err
	}
	return payload.PunchData, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build vendor request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read vendor response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode vendor response: %w", err)
	}
	return nil
}

func normalizeFilter(filter string) string {
	if filter == "" {
		return EmployeeFilterAll
	}
	return filter
}
