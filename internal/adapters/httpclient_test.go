package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClientRetriesOnRetryableStatus(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(2*time.Second, 0, "test")
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := c.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestClientDoesNotRetryOn4xx(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(2*time.Second, 0, "test")
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := c.Do(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	ae, ok := err.(*Error)
	if !ok || ae.Kind != KindHTTPStatus || ae.StatusCode != 400 {
		t.Fatalf("expected HttpStatus(400), got %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected exactly 1 attempt (no retry on 4xx), got %d", hits)
	}
}

func TestClientGivesUpAfterThreeAttempts(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(2*time.Second, 0, "test")
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := c.Do(context.Background(), req)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", hits)
	}
}

func TestErrorRetryableClassification(t *testing.T) {
	cases := []struct {
		err  *Error
		want bool
	}{
		{&Error{Kind: KindTransport}, true},
		{&Error{Kind: KindHTTPStatus, StatusCode: 502}, true},
		{&Error{Kind: KindHTTPStatus, StatusCode: 503}, true},
		{&Error{Kind: KindHTTPStatus, StatusCode: 504}, true},
		{&Error{Kind: KindHTTPStatus, StatusCode: 400}, false},
		{&Error{Kind: KindDecode}, false},
		{&Error{Kind: KindTimeout}, false},
	}
	for _, c := range cases {
		if got := c.err.Retryable(); got != c.want {
			t.Errorf("Retryable(%+v) = %v, want %v", c.err, got, c.want)
		}
	}
}
