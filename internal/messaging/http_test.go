package messaging

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProducer_Exchange(t *testing.T) {
	t.Parallel()
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/identity/Query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "corr-1", r.Header.Get("X-Correlation-ID"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"userId":"jdoe","authorizedAccountCreator":"true"}]}`))
	}))
	defer srv.Close()

	p := NewHTTPProducer(srv.URL+"/", WithHeader("Authorization", "Bearer t"), WithHTTPClient(srv.Client()))
	defer p.Close()

	req := personQuery
	req.CorrelationID = "corr-1"
	objs, err := p.Exchange(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "true", objs[0]["authorizedAccountCreator"])
	assert.Equal(t, "Person", got.Object)
	assert.Equal(t, ActionQuery, got.Action)
	assert.Equal(t, "jdoe", got.Fields["userId"])
}

func TestHTTPProducer_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, strings.Repeat("x", 2048), http.StatusInternalServerError)
			},
			want: "unexpected status 500",
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"results":`))
			},
			want: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPProducer(srv.URL).Exchange(context.Background(), personQuery)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Less(t, len(err.Error()), 700, "error body is truncated")
		})
	}
}

func TestHTTPProducer_ThroughPool(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	p, err := NewPool("identity", 1, HTTPFactory(srv.URL))
	require.NoError(t, err)
	defer p.Close()

	res := p.Query(context.Background(), personQuery, 20*time.Millisecond, ExactlyOne)
	assert.Equal(t, OutcomeTransportError, res.Outcome())
	assert.ErrorIs(t, res.Err(), context.DeadlineExceeded)

	_, err = HTTPFactory("")()
	assert.Error(t, err)
}
