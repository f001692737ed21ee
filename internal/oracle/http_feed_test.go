package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
)

func feedServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFeedParsesPrice(t *testing.T) {
	now := time.Now().Unix()
	srv := feedServer(t, `{"price":{"price":"123456789","expo":-8,"publish_time":`+itoa(now)+`}}`, http.StatusOK)

	feed := NewHTTPFeed(srv.URL, time.Second, time.Minute)
	p, err := feed.Price(context.Background())
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if p.Mantissa != 123456789 || p.Expo != -8 {
		t.Fatalf("unexpected price: %+v", p)
	}
	if got := p.Decimal().String(); got != "1.23456789" {
		t.Fatalf("decimal = %s, want 1.23456789", got)
	}
}

func TestHTTPFeedRejectsStale(t *testing.T) {
	old := time.Now().Add(-10 * time.Minute).Unix()
	srv := feedServer(t, `{"price":{"price":"1","expo":0,"publish_time":`+itoa(old)+`}}`, http.StatusOK)

	feed := NewHTTPFeed(srv.URL, time.Second, time.Minute)
	_, err := feed.Price(context.Background())
	if !apperrors.Is(err, apperrors.ErrBadOracle) {
		t.Fatalf("expected bad oracle, got %v", err)
	}
}

func TestHTTPFeedRejectsNon200(t *testing.T) {
	srv := feedServer(t, `upstream error`, http.StatusBadGateway)

	feed := NewHTTPFeed(srv.URL, time.Second, 0)
	_, err := feed.Price(context.Background())
	if !apperrors.Is(err, apperrors.ErrBadOracle) {
		t.Fatalf("expected bad oracle, got %v", err)
	}
}

func TestHTTPFeedRejectsGarbage(t *testing.T) {
	srv := feedServer(t, `{"price":{"price":"not-a-number","expo":0,"publish_time":1}}`, http.StatusOK)

	feed := NewHTTPFeed(srv.URL, time.Second, 0)
	_, err := feed.Price(context.Background())
	if !apperrors.Is(err, apperrors.ErrBadOracle) {
		t.Fatalf("expected bad oracle, got %v", err)
	}
}

func TestHTTPFeedUnreachable(t *testing.T) {
	feed := NewHTTPFeed("http://127.0.0.1:1", 200*time.Millisecond, 0)
	_, err := feed.Price(context.Background())
	if !apperrors.Is(err, apperrors.ErrBadOracle) {
		t.Fatalf("expected bad oracle, got %v", err)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
