package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient creates a Client backed by a test HTTP server speaking the S3 XML protocol.
func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		HTTPClient:   server.Client(),
	})
	return NewClientFromAPI(client)
}

func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func TestNewClient(t *testing.T) {
	t.Parallel()
	c, err := NewClient(context.Background(), Options{
		Region:      "us-east-1",
		AccessKeyID: "key",
		SecretKey:   "secret",
		Endpoint:    "https://objects.example.com",
	})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestPutObject(t *testing.T) {
	t.Parallel()
	var gotPath, gotType, gotBody string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.PutObject(context.Background(), "manifests", "runs/r-1.json", []byte(`{"runId":"r-1"}`), "application/json")

	require.NoError(t, err)
	assert.Equal(t, "/manifests/runs/r-1.json", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Contains(t, gotBody, `"runId":"r-1"`)
}

func TestPutObject_Error(t *testing.T) {
	t.Parallel()
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		xmlResponse(w, http.StatusForbidden, `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	}))

	err := c.PutObject(context.Background(), "manifests", "k", []byte("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put object k in bucket manifests")
}

func TestDeleteObject(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "deleted", status: http.StatusNoContent},
		{name: "already gone", status: http.StatusNotFound, body: `<Error><Code>NoSuchKey</Code><Message>gone</Message></Error>`},
		{name: "no bucket", status: http.StatusNotFound, body: `<Error><Code>NoSuchBucket</Code><Message>gone</Message></Error>`},
		{name: "denied", status: http.StatusForbidden, body: `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var method string
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				method = r.Method
				if tt.body == "" {
					w.WriteHeader(tt.status)
					return
				}
				xmlResponse(w, tt.status, tt.body)
			}))

			err := c.DeleteObject(context.Background(), "manifests", "runs/r-1.json")
			assert.Equal(t, http.MethodDelete, method)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBucketExists(t *testing.T) {
	t.Parallel()
	for status, want := range map[int]bool{http.StatusOK: true, http.StatusNotFound: false} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			t.Parallel()
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			got, err := c.BucketExists(context.Background(), "manifests")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	_, err := c.BucketExists(context.Background(), "manifests")
	assert.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "typed NoSuchKey", err: &s3types.NoSuchKey{}, want: true},
		{name: "typed NoSuchBucket wrapped", err: fmt.Errorf("wrap: %w", &s3types.NoSuchBucket{}), want: true},
		{name: "typed NotFound", err: &s3types.NotFound{}, want: true},
		{name: "generic code", err: &smithy.GenericAPIError{Code: "NoSuchKey"}, want: true},
		{name: "other code", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: false},
		{name: "plain error", err: errors.New(strings.Repeat("x", 3)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}
