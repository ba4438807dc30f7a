package documents

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxiye-driver-server/models"
)

func pngFile(size int) File {
	return File{Name: "doc.png", MIME: "image/png", Size: int64(size), Data: make([]byte, size)}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		maxSize int64
		wantErr bool
	}{
		{"png ok", pngFile(1024), 0, false},
		{"pdf ok", File{Name: "d.pdf", MIME: "application/pdf", Size: 10, Data: make([]byte, 10)}, 0, false},
		{"gif rejected", File{Name: "d.gif", MIME: "image/gif", Size: 10, Data: make([]byte, 10)}, 0, true},
		{"over pipeline default", pngFile(11 << 20), 0, true},
		{"over caller ceiling", pngFile(6 << 20), KYCMaxSize, true},
		{"under caller ceiling", pngFile(4 << 20), KYCMaxSize, false},
		{"empty", File{Name: "d.png", MIME: "image/png"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.file, tt.maxSize)
			if tt.wantErr {
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUploadSuccess(t *testing.T) {
	objects := NewMemoryObjectStore()
	records := NewMemoryRecordStore()
	p := NewPipeline(objects, records)

	url, err := p.Upload(context.Background(), "user-1", "911234567", models.DocumentNationalID, pngFile(1024))
	require.NoError(t, err)
	assert.Contains(t, url, "user-1/national_id_")

	st, ok := p.State("911234567", models.DocumentNationalID)
	require.True(t, ok)
	assert.Equal(t, StatusUploaded, st.Status)
	assert.Equal(t, url, st.URL)

	docs, err := records.ListByPhone(context.Background(), "911234567")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, url, docs[0].FileURL)
	assert.Equal(t, "pending", docs[0].Status)
}

// Re-uploading the same type leaves exactly one record carrying the second
// file's URL.
func TestReUploadSupersedes(t *testing.T) {
	objects := NewMemoryObjectStore()
	records := NewMemoryRecordStore()
	p := NewPipeline(objects, records)
	ctx := context.Background()

	first, err := p.Upload(ctx, "user-1", "911234567", models.DocumentSelfie, pngFile(100))
	require.NoError(t, err)
	second, err := p.Upload(ctx, "user-1", "911234567", models.DocumentSelfie, pngFile(200))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	docs, err := records.ListByPhone(ctx, "911234567")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, second, docs[0].FileURL)

	st, _ := p.State("911234567", models.DocumentSelfie)
	assert.Equal(t, StatusUploaded, st.Status)
	assert.Equal(t, second, st.URL)
}

// A 12MB PNG is rejected before any network call: no object written, no
// state entry, not even pending.
func TestOversizedFileRejectedBeforeNetwork(t *testing.T) {
	objects := NewMemoryObjectStore()
	p := NewPipeline(objects, NewMemoryRecordStore())

	_, err := p.Upload(context.Background(), "user-1", "911234567", models.DocumentVehiclePhoto, pngFile(12<<20))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	assert.Equal(t, 0, objects.Len())
	_, ok := p.State("911234567", models.DocumentVehiclePhoto)
	assert.False(t, ok, "validation failure must not create a state entry")
}

func TestStorageFailureMarksFailedAndRetryRecovers(t *testing.T) {
	objects := NewMemoryObjectStore()
	records := NewMemoryRecordStore()
	p := NewPipeline(objects, records)
	ctx := context.Background()

	objects.FailNext = errors.New("storage unavailable")
	_, err := p.Upload(ctx, "user-1", "911234567", models.DocumentOwnership, pngFile(100))
	require.Error(t, err)

	st, ok := p.State("911234567", models.DocumentOwnership)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, st.Status)

	// failed is always recoverable by re-invoking upload for the same type
	url, err := p.Upload(ctx, "user-1", "911234567", models.DocumentOwnership, pngFile(100))
	require.NoError(t, err)
	st, _ = p.State("911234567", models.DocumentOwnership)
	assert.Equal(t, StatusUploaded, st.Status)
	assert.Equal(t, url, st.URL)
}

type failingRecordStore struct{}

func (failingRecordStore) Upsert(ctx context.Context, rec *models.DriverDocument) error {
	return errors.New("metadata store down")
}

func (failingRecordStore) ListByPhone(ctx context.Context, phone string) ([]models.DriverDocument, error) {
	return nil, nil
}

// The storage write is authoritative: a metadata-record failure is logged
// but the upload still reports uploaded.
func TestMetadataFailureDoesNotFailUpload(t *testing.T) {
	p := NewPipeline(NewMemoryObjectStore(), failingRecordStore{})

	url, err := p.Upload(context.Background(), "user-1", "911234567", models.DocumentDriverLicense, pngFile(100))
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	st, _ := p.State("911234567", models.DocumentDriverLicense)
	assert.Equal(t, StatusUploaded, st.Status)
}

type slowObjectStore struct {
	started chan struct{}
	release chan struct{}
}

func (s *slowObjectStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	close(s.started)
	<-s.release
	return "https://media.test/" + path, nil
}

func TestConcurrentSameTypeUploadRejected(t *testing.T) {
	objects := &slowObjectStore{started: make(chan struct{}), release: make(chan struct{})}
	p := NewPipeline(objects, NewMemoryRecordStore())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := p.Upload(ctx, "user-1", "911234567", models.DocumentSelfie, pngFile(10))
		done <- err
	}()
	<-objects.started

	_, err := p.Upload(ctx, "user-1", "911234567", models.DocumentSelfie, pngFile(10))
	assert.ErrorIs(t, err, ErrUploadInFlight)

	close(objects.release)
	require.NoError(t, <-done)
}

func TestCaptureFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	f, err := CaptureFrame(img)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", f.MIME)
	assert.Greater(t, f.Size, int64(0))
	assert.NoError(t, Validate(f, KYCMaxSize))

	_, err = CaptureFrame(nil)
	assert.Error(t, err)
}
