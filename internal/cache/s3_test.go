package cache

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket is a minimal path-style S3 endpoint backed by a map.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")

	b.mu.Lock()
	defer b.mu.Unlock()

	data, exists := b.objects[key]
	switch r.Method {
	case http.MethodHead:
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if !exists {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>%s</Key><RequestId>test</RequestId></Error>`, key)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.Write(data)
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		b.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *fakeBucket) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// staticAWSEnv pins credentials so the SDK never looks at shared files or
// instance metadata.
func staticAWSEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_MAX_ATTEMPTS", "1")
}

func newFakeS3(t *testing.T) (*S3, *fakeBucket) {
	t.Helper()
	staticAWSEnv(t)

	bucket := &fakeBucket{objects: map[string][]byte{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	s, err := NewS3(S3Config{
		Bucket:   "images",
		BasePath: "renditions",
		Region:   "us-east-1",
		Endpoint: srv.URL,
	})
	require.NoError(t, err)
	return s, bucket
}

func TestS3_MissingKey(t *testing.T) {
	s, _ := newFakeS3(t)

	ok, err := s.Contains("missing.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get("missing.jpg")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestS3_SetGetDelete(t *testing.T) {
	s, bucket := newFakeS3(t)

	require.NoError(t, s.Set("abc.jpg", []byte("jpeg bytes")))
	assert.True(t, bucket.has("images/renditions/abc.jpg"))

	ok, err := s.Contains("abc.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := s.Get("abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)

	require.NoError(t, s.Delete("abc.jpg"))
	ok, err = s.Contains("abc.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3_ServerErrorIsNotAMiss(t *testing.T) {
	staticAWSEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s, err := NewS3(S3Config{Bucket: "images", Region: "us-east-1", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = s.Contains("abc.jpg")
	assert.Error(t, err)

	_, err = s.Get("abc.jpg")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestS3_ObjectKey(t *testing.T) {
	assert.Equal(t, "renditions/abc.jpg", (&S3{basePath: "renditions"}).objectKey("abc.jpg"))
	assert.Equal(t, "renditions/abc.jpg", (&S3{basePath: "/renditions/"}).objectKey("abc.jpg"))
	assert.Equal(t, "abc.jpg", (&S3{}).objectKey("abc.jpg"))
}
