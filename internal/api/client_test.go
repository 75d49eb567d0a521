package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/oklog/ulid/v2"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultBaseURL {
		t.Fatalf("host = %q, want %q", u.Host, defaultBaseURL)
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL accepted a URL without host")
	}
}

func TestClient_SendsHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(User{ID: 7, Username: "ann"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.token = "abc"

	var user User
	if err := c.getJSON(context.Background(), "/users/me", nil, &user); err != nil {
		t.Fatalf("getJSON returned error: %v", err)
	}
	assert.Equal(t, user.ID, int64(7))
	assert.Equal(t, got.Get("Authorization"), "Bearer abc")
	assert.Equal(t, got.Get("Accept"), "application/json")
	if !strings.HasPrefix(got.Get("User-Agent"), "almanac/") {
		t.Fatalf("User-Agent = %q, want almanac/*", got.Get("User-Agent"))
	}
	if _, err := ulid.Parse(got.Get("X-Request-Id")); err != nil {
		t.Fatalf("X-Request-Id = %q is not a ULID: %v", got.Get("X-Request-Id"), err)
	}
}

func TestClient_PingRejectsExpiredToken(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(User{ID: 1})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, signToken(t, 1, time.Now().Add(-time.Hour)))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Ping(context.Background())
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Ping error = %v, want ErrTokenExpired", err)
	}
	assert.Equal(t, calls, 0)

	c.token = signToken(t, 1, time.Now().Add(time.Hour))
	user, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	assert.Equal(t, user.ID, int64(1))
	assert.Equal(t, calls, 1)
}

func TestClient_StatusErrorCarriesDetail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/weight/record/add":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"already recorded today"}`))
		case "/api/v1/weight/target/get":
			http.NotFound(w, r)
		case "/api/v1/users/me":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	err = c.sendJSON(context.Background(), http.MethodPost, "/weight/record/add", WeightRecord{Weight: 70}, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	assert.Equal(t, se.StatusCode(), http.StatusBadRequest)
	assert.Equal(t, se.Detail, "already recorded today")

	target, err := c.WeightTarget(context.Background())
	if err != nil || target != nil {
		t.Fatalf("WeightTarget = %v, %v; want nil, nil on 404", target, err)
	}

	_, err = c.Ping(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Ping error = %v, want decode response error", err)
	}

	_, err = c.WeeklyWeight(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "returned status 500: boom") {
		t.Fatalf("WeeklyWeight error = %v, want status 500 error", err)
	}
}

func TestClient_TypedEndpointsEncodeQueries(t *testing.T) {
	t.Parallel()

	seen := map[string]string{}
	var saved CheckinRecord
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.URL.Path] = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/checkin/record/date/2026-03-02":
			_, _ = w.Write([]byte(`[{"item":{"id":1,"item_name":"run","status":1},"record":{"item_id":1,"check_date":"2026-03-02","check_status":1}},{"item":{"id":2,"item_name":"read","status":1},"record":null}]`))
		case "/api/v1/checkin/record/save":
			_ = json.NewDecoder(r.Body).Decode(&saved)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/api/v1/weight/record/month":
			_, _ = w.Write([]byte(`{"records":[{"id":3,"weight":70.5,"record_date":"2026-03-01","week_num":"202609"}],"avg_weight":70.5,"max_weight":70.5,"min_weight":70.5}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.Local)

	daily, err := c.DailyCheckins(ctx, day)
	if err != nil {
		t.Fatalf("DailyCheckins returned error: %v", err)
	}
	if len(daily) != 2 || !daily[0].Checked() || daily[1].Checked() {
		t.Fatalf("DailyCheckins = %#v, want first checked, second open", daily)
	}

	if err := c.SaveCheckinRecord(ctx, CheckinRecord{ItemID: 2, CheckDate: "2026-03-02", CheckStatus: 1}); err != nil {
		t.Fatalf("SaveCheckinRecord returned error: %v", err)
	}
	assert.Equal(t, saved.ItemID, int64(2))
	if err := c.SaveCheckinRecord(ctx, CheckinRecord{}); err == nil {
		t.Fatalf("SaveCheckinRecord without item id returned nil error")
	}

	month, err := c.MonthlyWeight(ctx, 2026, time.March)
	if err != nil {
		t.Fatalf("MonthlyWeight returned error: %v", err)
	}
	assert.Equal(t, len(month.Records), 1)
	assert.Equal(t, month.AvgWeight, 70.5)
	assert.Equal(t, seen["/api/v1/weight/record/month"], "month=3&year=2026")

	if _, err := c.MonthlyWeight(ctx, 2026, 13); err == nil {
		t.Fatalf("MonthlyWeight accepted month 13")
	}
}
