package gcs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

type uploadRecorder struct {
	mu     sync.Mutex
	path   string
	name   string
	body   string
	status int
}

func (u *uploadRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	u.mu.Lock()
	u.path = r.URL.Path
	u.name = r.URL.Query().Get("name")
	u.body = string(body)
	status := u.status
	u.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"name":"guides/46.json","bucket":"hdv-exports"}`)
}

func newTestStore(t *testing.T, rec *uploadRecorder) *BlobStore {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	client, err := storage.NewClient(context.Background(), option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	store, err := New(client, Config{Bucket: "hdv-exports"})
	require.NoError(t, err)
	return store
}

func TestPutObjectUploadsToBucket(t *testing.T) {
	t.Parallel()

	rec := &uploadRecorder{}
	store := newTestStore(t, rec)

	uri, err := store.PutObject(context.Background(), "guides/46.json", "application/json", []byte(`{"guides":[]}`))
	require.NoError(t, err)
	require.Equal(t, "gs://hdv-exports/guides/46.json", uri)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Contains(t, rec.path, "/upload/storage/v1/b/hdv-exports/o")
	require.Equal(t, "guides/46.json", rec.name)
	require.Contains(t, rec.body, `{"guides":[]}`)
}

func TestPutObjectSurfacesServerErrors(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &uploadRecorder{status: http.StatusForbidden})
	_, err := store.PutObject(context.Background(), "guides/46.json", "application/json", []byte("{}"))
	require.Error(t, err)
}

func TestPutObjectValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &uploadRecorder{})
	_, err := store.PutObject(context.Background(), "", "", nil)
	require.ErrorIs(t, err, directory.ErrBlobPathRequired)

	_, err = New(nil, Config{Bucket: "b"})
	require.Error(t, err)
}
