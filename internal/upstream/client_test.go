package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHUB2205/Aurora-technical-assessment/internal/model"
)

type item struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// fakeUpstream serves n items over the skip/limit API.
func fakeUpstream(t *testing.T, n int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, messagesPath, r.URL.Path)
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items := []item{}
		for i := skip; i < skip+limit && i < n; i++ {
			items = append(items, item{ID: fmt.Sprint(i), UserID: "u", UserName: "User", Timestamp: "2025-01-01T00:00:00Z", Message: fmt.Sprintf("msg %d", i)})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"total": n, "items": items})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(url string, limit, retries int) *Client {
	return New(Config{
		BaseURL:     url,
		Timeout:     2 * time.Second,
		PageLimit:   limit,
		MaxRetries:  retries,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}, zerolog.Nop())
}

func TestFetchAll_PagesUntilTotal(t *testing.T) {
	srv, calls := fakeUpstream(t, 25)
	c := newTestClient(srv.URL, 10, 0)

	msgs, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 25)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprint(i), m.ID)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchAll_EmptyUpstream(t *testing.T) {
	srv, _ := fakeUpstream(t, 0)
	c := newTestClient(srv.URL, 10, 0)

	msgs, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestFetchAll_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"total":1,"items":[{"id":"a","user_id":"u","user_name":"U","timestamp":"t","message":"hi"}]}`))
	}))
	defer srv.Close()

	msgs, err := newTestClient(srv.URL, 10, 3).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.Message{ID: "a", UserID: "u", UserName: "U", Timestamp: "t", Message: "hi"}, msgs[0])
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchAll_FailsWholeFetchOnPageError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"total":20,"items":[{"id":"a","user_id":"u","user_name":"U","timestamp":"t","message":"hi"}]}`))
	}))
	defer srv.Close()

	msgs, err := newTestClient(srv.URL, 1, 1).FetchAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, msgs)
	assert.True(t, model.IsFetchError(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchAll_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 10, 5).FetchAll(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsFetchError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchAll_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 10, 3).FetchAll(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsFetchError(err))
}

func TestFetchAll_IncompleteItemFailsWholeFetch(t *testing.T) {
	const good = `{"id":"a","user_id":"u","user_name":"U","timestamp":"t","message":"hi"}`
	tests := []struct {
		field string
		bad   string
	}{
		{"id", `{"user_id":"u","user_name":"U","timestamp":"t","message":"no id"}`},
		{"user_id", `{"id":"b","user_name":"U","timestamp":"t","message":"m"}`},
		{"user_name", `{"id":"b","user_id":"u","user_name":null,"timestamp":"t","message":"m"}`},
		{"timestamp", `{"id":"b","user_id":"u","user_name":"U","message":"m"}`},
		{"message", `{"id":"b","user_id":"u","user_name":"U","timestamp":"t"}`},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"total":2,"items":[` + good + `,` + tt.bad + `]}`))
			}))
			defer srv.Close()

			msgs, err := newTestClient(srv.URL, 10, 0).FetchAll(context.Background())
			require.Error(t, err)
			assert.Nil(t, msgs)
			assert.True(t, model.IsFetchError(err))
			var ve model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestFetchAll_ContextCanceled(t *testing.T) {
	srv, _ := fakeUpstream(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL, 10, 3).FetchAll(ctx)
	require.Error(t, err)
	assert.True(t, model.IsFetchError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealthChecker_TracksUpstream(t *testing.T) {
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"total":0,"items":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hc := NewHealthChecker(newTestClient(srv.URL, 10, 0), zerolog.Nop(), time.Second)
	assert.False(t, hc.IsHealthy())
	go hc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, hc.IsHealthy)
	down.Store(true)
	waitTrue(t, func() bool { return !hc.IsHealthy() })
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	// "é" is two bytes; cutting at 2 would split it.
	got := truncate("aébc", 2)
	assert.Equal(t, "a...", got)
	assert.True(t, utf8.ValidString(got))

	got = truncate(strings.Repeat("日本", 100), 200)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 203)
}
