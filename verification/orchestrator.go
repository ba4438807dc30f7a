package verification

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"taxiye-driver-server/documents"
	"taxiye-driver-server/models"
)

// DocumentSpec names one required KYC document with its screen label.
type DocumentSpec struct {
	Type  models.DocumentType
	Label string
}

// RequiredKYC is the document set that gates driver activation, in the order
// the screens present it.
var RequiredKYC = []DocumentSpec{
	{models.DocumentNationalID, "National ID"},
	{models.DocumentDriverLicense, "Driver License"},
	{models.DocumentVehiclePhoto, "Vehicle Photo"},
	{models.DocumentOwnership, "Ownership Document"},
	{models.DocumentSelfie, "Selfie"},
}

// ComputeMissingDocuments returns the required documents without an uploaded
// file, preserving the order of the required list.
func ComputeMissingDocuments(required []DocumentSpec, uploaded map[models.DocumentType]bool) []DocumentSpec {
	var missing []DocumentSpec
	for _, spec := range required {
		if !uploaded[spec.Type] {
			missing = append(missing, spec)
		}
	}
	return missing
}

// MissingDocumentsError names the documents still outstanding; the screens
// render the labels directly.
type MissingDocumentsError struct {
	Missing []DocumentSpec
}

func (e *MissingDocumentsError) Error() string {
	labels := make([]string, len(e.Missing))
	for i, spec := range e.Missing {
		labels[i] = spec.Label
	}
	return "missing documents: " + strings.Join(labels, ", ")
}

// Labels returns the user-facing names of the missing documents.
func (e *MissingDocumentsError) Labels() []string {
	labels := make([]string, len(e.Missing))
	for i, spec := range e.Missing {
		labels[i] = spec.Label
	}
	return labels
}

// Outcome is the decision the analysis settles on.
type Outcome string

const (
	OutcomeApproved       Outcome = "approved"
	OutcomeRequiresReview Outcome = "requires_review"
)

// DecisionFunc maps a confidence score to an outcome. The default is a
// threshold rule; a real scoring model slots in behind the same signature
// without touching the orchestration.
type DecisionFunc func(confidence float64) Outcome

// autoApprovalThreshold: strictly above approves (at exactly the threshold
// the session goes to manual review).
const autoApprovalThreshold = 0.2

// ThresholdDecision is the default decision rule.
func ThresholdDecision(confidence float64) Outcome {
	if confidence > autoApprovalThreshold {
		return OutcomeApproved
	}
	return OutcomeRequiresReview
}

// reviewedByAI marks profile patches made by the automated pipeline.
const reviewedByAI = "AI_SYSTEM"

// Progress is reported after each analysis stage.
type Progress struct {
	Stage   string
	Percent int
}

var analysisStages = []Progress{
	{"document_quality", 20},
	{"data_extraction", 40},
	{"document_authenticity", 60},
	{"face_match", 80},
}

const livenessStage = "liveness_check"

// SessionStore persists verification attempts: insert at start, one update
// at completion.
type SessionStore interface {
	Create(ctx context.Context, sess *models.VerificationSession) error
	Complete(ctx context.Context, sess *models.VerificationSession) error
}

// Patcher applies partial driver updates keyed by phone.
type Patcher interface {
	Patch(ctx context.Context, phone string, fields map[string]any) (*models.Driver, error)
}

// Result is what the KYC screen consumes.
type Result struct {
	Success      bool    `json:"success"`
	AutoApproved bool    `json:"autoApproved"`
	SessionID    string  `json:"sessionID"`
	Confidence   float64 `json:"confidence"`
}

// Orchestrator drives the verification gate: document completeness check,
// staged analysis with progress reporting, decision, and the profile patch.
type Orchestrator struct {
	sessions   SessionStore
	records    documents.RecordStore
	drivers    Patcher
	decide     DecisionFunc
	confidence func() float64
	sleep      func(time.Duration)
	stepDelay  time.Duration
	onProgress func(Progress)
	now        func() time.Time
}

// Option tweaks orchestrator behavior; the zero configuration runs the
// simulated pipeline with a uniform random confidence draw.
type Option func(*Orchestrator)

// WithDecision swaps the decision rule.
func WithDecision(decide DecisionFunc) Option {
	return func(o *Orchestrator) { o.decide = decide }
}

// WithConfidenceSource injects the confidence draw (tests pin it).
func WithConfidenceSource(fn func() float64) Option {
	return func(o *Orchestrator) { o.confidence = fn }
}

// WithProgress registers a progress callback.
func WithProgress(fn func(Progress)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// WithStepDelay paces the simulated stages (0 in tests).
func WithStepDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.stepDelay = d }
}

func NewOrchestrator(sessions SessionStore, records documents.RecordStore, drivers Patcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions:   sessions,
		records:    records,
		drivers:    drivers,
		decide:     ThresholdDecision,
		confidence: rand.Float64,
		sleep:      time.Sleep,
		stepDelay:  800 * time.Millisecond,
		onProgress: func(Progress) {},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// MissingDocuments lists the outstanding required documents for a driver.
func (o *Orchestrator) MissingDocuments(ctx context.Context, phone string) ([]DocumentSpec, error) {
	docs, err := o.records.ListByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("verification: listing documents: %w", err)
	}
	uploaded := map[models.DocumentType]bool{}
	for _, doc := range docs {
		if doc.FileURL != "" {
			uploaded[doc.Type] = true
		}
	}
	return ComputeMissingDocuments(RequiredKYC, uploaded), nil
}

// RunAIVerification runs one verification attempt for the driver. All
// required documents must be uploaded first; otherwise it reports the
// missing set without creating a session. Any failure mid-pipeline resets
// progress to zero and nothing partial is persisted as completed.
func (o *Orchestrator) RunAIVerification(ctx context.Context, driver *models.Driver) (*Result, error) {
	missing, err := o.MissingDocuments(ctx, driver.Phone)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &MissingDocumentsError{Missing: missing}
	}

	sess := &models.VerificationSession{
		ID:             uuid.NewString(),
		DriverPhoneRef: driver.Phone,
		SessionStatus:  "in_progress",
	}
	if err := o.sessions.Create(ctx, sess); err != nil {
		o.reset()
		return nil, fmt.Errorf("verification: creating session: %w", err)
	}

	for _, stage := range analysisStages {
		if err := ctx.Err(); err != nil {
			o.reset()
			return nil, err
		}
		o.onProgress(stage)
		o.sleep(o.stepDelay)
	}

	o.onProgress(Progress{Stage: livenessStage, Percent: 90})
	o.sleep(o.stepDelay)

	// The confidence is settled exactly once per session.
	confidence := o.confidence()
	outcome := o.decide(confidence)

	completedAt := o.now()
	sess.SessionStatus = "completed"
	sess.LivenessCheckPassed = true
	sess.AIConfidenceScore = confidence
	sess.VerificationResult = models.VerificationResult(outcome)
	sess.CompletedAt = &completedAt
	if outcome == OutcomeRequiresReview {
		sess.FailureReason = "confidence below auto-approval threshold"
	}
	if err := o.sessions.Complete(ctx, sess); err != nil {
		o.reset()
		return nil, fmt.Errorf("verification: completing session: %w", err)
	}

	if outcome == OutcomeApproved {
		_, err = o.drivers.Patch(ctx, driver.Phone, map[string]any{
			"approved_status":  models.ApprovalApproved,
			"reviewed_by":      reviewedByAI,
			"last_reviewed_at": completedAt,
		})
	} else {
		_, err = o.drivers.Patch(ctx, driver.Phone, map[string]any{
			"approved_status": models.ApprovalPending,
			"admin_notes":     fmt.Sprintf("AI verification deferred to manual review (confidence %.2f)", confidence),
		})
	}
	if err != nil {
		o.reset()
		return nil, fmt.Errorf("verification: patching driver: %w", err)
	}

	o.onProgress(Progress{Stage: "done", Percent: 100})
	log.Printf("verification: session %s for %s settled: %s (confidence %.2f)", sess.ID, driver.Phone, outcome, confidence)

	return &Result{
		Success:      true,
		AutoApproved: outcome == OutcomeApproved,
		SessionID:    sess.ID,
		Confidence:   confidence,
	}, nil
}

// SubmitForManualReview files the driver into the manual queue regardless of
// document completeness checks the screens already enforce.
func (o *Orchestrator) SubmitForManualReview(ctx context.Context, driver *models.Driver) error {
	_, err := o.drivers.Patch(ctx, driver.Phone, map[string]any{
		"approved_status": models.ApprovalPending,
		"admin_notes":     "Driver requested manual review",
	})
	return err
}

func (o *Orchestrator) reset() {
	o.onProgress(Progress{Stage: "reset", Percent: 0})
}
