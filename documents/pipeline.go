package documents

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"taxiye-driver-server/models"
)

// Status is the client-side upload state per document type.
type Status string

const (
	StatusPending  Status = "pending"
	StatusUploaded Status = "uploaded"
	StatusFailed   Status = "failed"
)

// Size ceilings. The pipeline default is 10MB; the KYC screens impose the
// stricter 5MB.
const (
	DefaultMaxSize int64 = 10 << 20
	KYCMaxSize     int64 = 5 << 20
)

// File is the binary handle a screen hands to the pipeline.
type File struct {
	Name string
	MIME string
	Size int64
	Data []byte
}

var allowedTypes = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
}

// ValidationError is raised before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid file: " + e.Reason }

// ErrUploadInFlight enforces at most one in-flight upload per document type.
var ErrUploadInFlight = errors.New("an upload for this document is already in progress")

// Validate rejects unsupported MIME types and oversized files. maxSize ≤ 0
// falls back to the pipeline default.
func Validate(f File, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if _, ok := allowedTypes[f.MIME]; !ok {
		return &ValidationError{Reason: "only PDF, JPEG and PNG files are accepted"}
	}
	if f.Size > maxSize {
		return &ValidationError{Reason: fmt.Sprintf("file exceeds the %dMB limit", maxSize>>20)}
	}
	if f.Size <= 0 || len(f.Data) == 0 {
		return &ValidationError{Reason: "file is empty"}
	}
	return nil
}

// ObjectStore is what the pipeline needs from the hosted object storage:
// write a file under a path, get its public URL back.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (url string, err error)
}

// RecordStore persists the document metadata rows keyed by (phone, type).
type RecordStore interface {
	Upsert(ctx context.Context, rec *models.DriverDocument) error
	ListByPhone(ctx context.Context, phone string) ([]models.DriverDocument, error)
}

// Upload is the transient per-type state a screen renders.
type Upload struct {
	Type   models.DocumentType
	URL    string
	Status Status
}

// Pipeline drives the per-document-type upload state machine:
// pending → uploaded on success, pending → failed on any error, and a retry
// for the same type resets failed → pending.
type Pipeline struct {
	objects ObjectStore
	records RecordStore
	maxSize int64
	now     func() time.Time

	mu       sync.Mutex
	inflight map[string]bool
	states   map[string]*Upload
}

func NewPipeline(objects ObjectStore, records RecordStore) *Pipeline {
	return &Pipeline{
		objects:  objects,
		records:  records,
		maxSize:  DefaultMaxSize,
		now:      time.Now,
		inflight: map[string]bool{},
		states:   map[string]*Upload{},
	}
}

// WithMaxSize lets callers impose a stricter ceiling than the pipeline
// default (the KYC flow uses 5MB).
func (p *Pipeline) WithMaxSize(maxSize int64) *Pipeline {
	p.maxSize = maxSize
	return p
}

func stateKey(phone string, typ models.DocumentType) string {
	return phone + "/" + string(typ)
}

// Upload runs the full pipeline for one document: validate, write to object
// storage under <ownerID>/<type>_<timestamp>.<ext>, then upsert the metadata
// record. A metadata failure does not fail the upload: once the object store
// accepted the file the upload is authoritative, the record failure is only
// logged.
func (p *Pipeline) Upload(ctx context.Context, ownerID, phone string, typ models.DocumentType, f File) (string, error) {
	// Validation failures happen before any state is created: the screen
	// shows the document as absent, not failed.
	if err := Validate(f, p.maxSize); err != nil {
		return "", err
	}

	key := stateKey(phone, typ)
	p.mu.Lock()
	if p.inflight[key] {
		p.mu.Unlock()
		return "", ErrUploadInFlight
	}
	p.inflight[key] = true
	p.states[key] = &Upload{Type: typ, Status: StatusPending}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inflight, key)
		p.mu.Unlock()
	}()

	path := fmt.Sprintf("%s/%s_%d.%s", ownerID, typ, p.now().UnixMilli(), allowedTypes[f.MIME])

	url, err := p.objects.Upload(ctx, path, f.Data, f.MIME)
	if err != nil {
		p.setState(key, &Upload{Type: typ, Status: StatusFailed})
		return "", fmt.Errorf("document upload failed: %w", err)
	}

	// The storage write is the point of no return.
	p.setState(key, &Upload{Type: typ, URL: url, Status: StatusUploaded})

	rec := &models.DriverDocument{
		DriverPhoneRef: phone,
		Type:           typ,
		FileURL:        url,
		Status:         "pending",
		UploadedAt:     p.now(),
	}
	if err := p.records.Upsert(ctx, rec); err != nil {
		log.Printf("documents: metadata record write failed for %s/%s (file is uploaded at %s): %v", phone, typ, url, err)
	}

	return url, nil
}

// State reports the transient upload state for one document type.
func (p *Pipeline) State(phone string, typ models.DocumentType) (Upload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.states[stateKey(phone, typ)]; ok {
		return *st, true
	}
	return Upload{}, false
}

// Statuses snapshots all per-type states for a driver.
func (p *Pipeline) Statuses(phone string) map[models.DocumentType]Upload {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := map[models.DocumentType]Upload{}
	prefix := phone + "/"
	for key, st := range p.states {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out[st.Type] = *st
		}
	}
	return out
}

func (p *Pipeline) setState(key string, st *Upload) {
	p.mu.Lock()
	p.states[key] = st
	p.mu.Unlock()
}
