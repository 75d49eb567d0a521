package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
)

// Client talks to the almanac REST backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
}

const (
	defaultBaseURL   = "127.0.0.1:8000"
	apiPrefix        = "/api/v1"
	defaultUserAgent = "almanac/0.1"
	requestTimeout   = 10 * time.Second
	dateLayout       = "2006-01-02"
)

// ErrTokenExpired is returned by Ping when the bearer token is past its exp claim.
var ErrTokenExpired = errors.New("token expired; log in again")

// NewClient builds a Client for baseURL (host:port or full URL) using token
// as the bearer credential. An empty token sends unauthenticated requests.
func NewClient(baseURL, token string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		token:     strings.TrimSpace(token),
	}, nil
}

// BaseURL reports the resolved API root.
func (c *Client) BaseURL() string {
	return c.baseURL.ResolveReference(&url.URL{Path: apiPrefix}).String()
}

// Ping checks the token locally and then asks the backend who we are.
func (c *Client) Ping(ctx context.Context) (*User, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if c.token != "" {
		claims, err := TokenClaims(c.token)
		if err != nil {
			return nil, err
		}
		if claims.Expired(time.Now()) {
			return nil, ErrTokenExpired
		}
	}
	var user User
	if err := c.getJSON(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DailyCheckins returns every enabled check-in item with its record for day.
func (c *Client) DailyCheckins(ctx context.Context, day time.Time) ([]DailyCheckin, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []DailyCheckin
	if err := c.getJSON(ctx, "/checkin/record/date/"+day.Format(dateLayout), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// SaveCheckinRecord creates or overwrites the record for (item, date).
func (c *Client) SaveCheckinRecord(ctx context.Context, rec CheckinRecord) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if rec.ItemID <= 0 {
		return fmt.Errorf("item id required")
	}
	return c.sendJSON(ctx, http.MethodPost, "/checkin/record/save", rec, nil)
}

// CheckinHistoryQuery configures /checkin/record/history requests.
type CheckinHistoryQuery struct {
	ItemID int64
	Start  time.Time
	End    time.Time
	Skip   int
	Limit  int
}

// CheckinHistory lists check-in records, newest first.
func (c *Client) CheckinHistory(ctx context.Context, query CheckinHistoryQuery) ([]CheckinRecord, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if query.ItemID > 0 {
		values.Set("item_id", strconv.FormatInt(query.ItemID, 10))
	}
	setDate(values, "start_date", query.Start)
	setDate(values, "end_date", query.End)
	if query.Skip > 0 {
		values.Set("skip", strconv.Itoa(query.Skip))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	var payload []CheckinRecord
	if err := c.getJSON(ctx, "/checkin/record/history", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WeightHistory returns weight records between start and end (zero means open).
func (c *Client) WeightHistory(ctx context.Context, start, end time.Time, limit int) ([]WeightRecord, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	setDate(values, "start_date", start)
	setDate(values, "end_date", end)
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var payload []WeightRecord
	if err := c.getJSON(ctx, "/weight/record/history", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WeeklyWeight fetches the records and aggregates for ISO week weekNum
// (YYYYWW). An empty weekNum means the current week.
func (c *Client) WeeklyWeight(ctx context.Context, weekNum string) (WeightPeriod, error) {
	if c == nil {
		return WeightPeriod{}, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if wk := strings.TrimSpace(weekNum); wk != "" {
		values.Set("week_num", wk)
	}
	var payload WeightPeriod
	if err := c.getJSON(ctx, "/weight/record/week", values, &payload); err != nil {
		return WeightPeriod{}, err
	}
	return payload, nil
}

// MonthlyWeight fetches the records and aggregates for a calendar month.
func (c *Client) MonthlyWeight(ctx context.Context, year int, month time.Month) (WeightPeriod, error) {
	if c == nil {
		return WeightPeriod{}, fmt.Errorf("client is nil")
	}
	if month < time.January || month > time.December {
		return WeightPeriod{}, fmt.Errorf("invalid month %d", month)
	}
	values := url.Values{}
	values.Set("year", strconv.Itoa(year))
	values.Set("month", strconv.Itoa(int(month)))
	var payload WeightPeriod
	if err := c.getJSON(ctx, "/weight/record/month", values, &payload); err != nil {
		return WeightPeriod{}, err
	}
	return payload, nil
}

// WeightTarget returns the active weight goal, or nil when none is set.
func (c *Client) WeightTarget(ctx context.Context) (*WeightTarget, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload *WeightTarget
	if err := c.getJSON(ctx, "/weight/target/get", nil, &payload); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

// SetWeightTarget replaces the active weight goal.
func (c *Client) SetWeightTarget(ctx context.Context, target WeightTarget) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if target.TargetWeight <= 0 {
		return fmt.Errorf("target weight must be positive")
	}
	return c.sendJSON(ctx, http.MethodPost, "/weight/target/set", target, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, dest any) error {
	rel := &url.URL{Path: apiPrefix + path}
	if len(values) > 0 {
		rel.RawQuery = values.Encode()
	}
	return c.doURL(ctx, http.MethodGet, rel, nil, dest)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: apiPrefix + path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := ulid.Make().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		glog.V(1).Infof("api %s %s id=%s failed: %v", method, rel.Path, requestID, err)
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	glog.V(2).Infof("api %s %s id=%s status=%d in %s", method, rel.String(), requestID, resp.StatusCode, time.Since(started).Round(time.Millisecond))

	if resp.StatusCode >= 400 {
		return newStatusError(rel.Path, resp)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func setDate(values url.Values, key string, t time.Time) {
	if !t.IsZero() {
		values.Set(key, t.Format(dateLayout))
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
