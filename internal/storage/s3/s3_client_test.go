package s3_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvbatch/internal/config"
	"cvbatch/internal/domain"
	"cvbatch/internal/port"
	s3storage "cvbatch/internal/storage/s3"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"s3://resumes/batch.zip", "resumes", "batch.zip", false},
		{"s3://resumes/2026/10/batch.zip", "resumes", "2026/10/batch.zip", false},
		{"s3://resumes/", "", "", true},
		{"s3://resumes", "", "", true},
		{"s3:///batch.zip", "", "", true},
		{"https://resumes.s3.amazonaws.com/batch.zip", "", "", true},
		{"batch.zip", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := s3storage.ParseS3URI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, s3storage.ErrInvalidURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestIsS3URI(t *testing.T) {
	assert.True(t, s3storage.IsS3URI("s3://b/k"))
	assert.False(t, s3storage.IsS3URI("./resumes.zip"))
}

func newTestClient(t *testing.T, endpoint string) port.ObjectStorage {
	t.Helper()
	client, err := s3storage.NewS3Client(context.Background(), &config.ArchiveConfig{
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return client
}

func objectServer(t *testing.T, path, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != path {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestS3Client_Download(t *testing.T) {
	srv := objectServer(t, "/resumes/batch.zip", "PK archive")
	client := newTestClient(t, srv.URL)

	data, err := client.Download(context.Background(), "resumes", "batch.zip", 1024)

	require.NoError(t, err)
	assert.Equal(t, "PK archive", string(data))
}

func TestS3Client_Download_TooLarge(t *testing.T) {
	srv := objectServer(t, "/resumes/batch.zip", strings.Repeat("x", 64))
	client := newTestClient(t, srv.URL)

	_, err := client.Download(context.Background(), "resumes", "batch.zip", 16)

	assert.ErrorIs(t, err, domain.ErrSizeExceeded)
}

func TestS3Client_GetPresignedURL(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:9000")

	url, err := client.GetPresignedURL(context.Background(), "reports", "2026-10-16/abc.csv", 900)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/reports/2026-10-16/abc.csv?"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
}
