// Package manifest archives a record of what a provisioning run did.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/cloudprov/provisioner/internal/config"
	"github.com/cloudprov/provisioner/internal/provisioning"
	"github.com/cloudprov/provisioner/internal/util/retry"
)

// TypeArchiveManifest is the step type.
const TypeArchiveManifest = "ARCHIVE_PROVISIONING_MANIFEST"

// Result property names.
const (
	PropManifestBucket = "manifestBucket"
	PropManifestKey    = "manifestKey"
)

// Settings.
const (
	SettingBucket     = "bucket"
	SettingPrefix     = "prefix"
	SettingRetries    = "uploadRetries"
	SettingRetryDelay = "uploadRetryDelay"
)

const (
	defaultPrefix = "manifests"
	contentType   = "application/json"
)

// ObjectStore stores manifests. It is satisfied by the platform S3 client.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

// BucketChecker is implemented by stores that can confirm a bucket exists.
type BucketChecker interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// ErrBucketNotFound is returned by CheckBucket for a missing bucket.
var ErrBucketNotFound = errors.New("manifest bucket not found")

// CheckBucket confirms that bucket is reachable through store, so a live run
// fails before any step executes rather than at archive time. Stores that
// cannot check buckets pass.
func CheckBucket(ctx context.Context, store ObjectStore, bucket string) error {
	checker, ok := store.(BucketChecker)
	if !ok {
		return nil
	}
	if bucket == "" {
		return fmt.Errorf("%w: %s", provisioning.ErrMissingSetting, SettingBucket)
	}
	exists, err := checker.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	return nil
}

// Document is the archived manifest.
type Document struct {
	RunID       string                   `json:"runId"`
	CreatedAt   time.Time                `json:"createdAt"`
	Requisition provisioning.Requisition `json:"requisition"`
	Steps       []StepRecord             `json:"steps"`
}

// StepRecord is one completed step in a manifest.
type StepRecord struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Result     string          `json:"result"`
	Properties []PropertyEntry `json:"properties"`
}

// PropertyEntry keeps properties in the order the step produced them.
type PropertyEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Build collects the requisition and every completed step of rc.
func Build(rc *provisioning.RunContext, now time.Time) Document {
	doc := Document{
		RunID:       rc.RunID(),
		CreatedAt:   now.UTC(),
		Requisition: rc.Requisition(),
		Steps:       []StepRecord{},
	}
	for _, step := range rc.Completed() {
		rec := StepRecord{Type: step.Type(), ID: step.ID(), Result: step.Result().String()}
		for _, p := range step.Properties() {
			rec.Properties = append(rec.Properties, PropertyEntry{Name: p.Name(), Value: p.Value()})
		}
		doc.Steps = append(doc.Steps, rec)
	}
	return doc
}

// Key returns the object key of the manifest of runID.
func Key(prefix, runID string) string {
	return path.Join(prefix, runID+".json")
}

// ArchiveManifest uploads the run manifest to the object store. Rollback
// deletes the uploaded object.
type ArchiveManifest struct {
	provisioning.Base

	store  ObjectStore
	now    func() time.Time
	bucket string
	prefix string
	policy []retry.Option

	uploaded string
}

// NewArchiveManifest creates the step.
func NewArchiveManifest(id string, store ObjectStore) *ArchiveManifest {
	return &ArchiveManifest{
		Base:  provisioning.NewBase(TypeArchiveManifest, id),
		store: store,
		now:   time.Now,
	}
}

// Init implements provisioning.Step.
func (s *ArchiveManifest) Init(rc *provisioning.RunContext, settings provisioning.Settings) error {
	if err := s.Base.Init(rc, settings); err != nil {
		return err
	}
	if s.store == nil {
		return s.InitErr(fmt.Errorf("no object store configured"))
	}

	bucket, err := settings.Required(SettingBucket)
	if err != nil {
		return s.InitErr(err)
	}
	s.bucket = bucket
	s.prefix = settings.Optional(SettingPrefix, defaultPrefix)

	defaults := config.LoadTimeouts()
	attempts := defaults.ArchiveRetries
	if raw := settings.Optional(SettingRetries, ""); raw != "" {
		if attempts, err = strconv.Atoi(raw); err != nil || attempts < 1 {
			return s.InitErr(fmt.Errorf("setting %s must be a positive integer, got %q", SettingRetries, raw))
		}
	}
	delay, err := settings.Duration(SettingRetryDelay, defaults.ArchiveRetryDelay)
	if err != nil {
		return s.InitErr(err)
	}
	s.policy = []retry.Option{
		retry.WithAttempts(attempts),
		retry.WithInitialDelay(delay),
		retry.WithOnRetry(func(attempt int, err error, next time.Duration) {
			s.Logf("upload attempt %d failed, retrying in %v: %v", attempt, next, err)
		}),
	}
	return nil
}

// Execute implements provisioning.Step.
func (s *ArchiveManifest) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *ArchiveManifest) encode() ([]byte, string, error) {
	doc := Build(s.RunContext(), s.now())
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, Key(s.prefix, doc.RunID), nil
}

func (s *ArchiveManifest) run(ctx context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	data, key, err := s.encode()
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	err = retry.Do(ctx, func(ctx context.Context) error {
		return s.store.PutObject(ctx, s.bucket, key, data, contentType)
	}, s.policy...)
	if err != nil {
		return nil, provisioning.OutcomeFailure, fmt.Errorf("failed to archive manifest: %w", err)
	}
	s.uploaded = key
	s.Logf("archived manifest to s3://%s/%s (%d bytes)", s.bucket, key, len(data))
	return s.properties(key), provisioning.OutcomeSuccess, nil
}

// simulate encodes the manifest without uploading it.
func (s *ArchiveManifest) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	_, key, err := s.encode()
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	return s.properties(key), provisioning.OutcomeSuccess, nil
}

func (s *ArchiveManifest) properties(key string) []provisioning.Property {
	return []provisioning.Property{
		provisioning.NewProperty(PropManifestBucket, s.bucket),
		provisioning.NewProperty(PropManifestKey, key),
	}
}

// Rollback implements provisioning.Step.
func (s *ArchiveManifest) Rollback(ctx context.Context) error {
	return s.Compensate(ctx, func(ctx context.Context) error {
		if s.uploaded == "" {
			return nil
		}
		if err := s.store.DeleteObject(ctx, s.bucket, s.uploaded); err != nil {
			return err
		}
		s.Logf("deleted manifest s3://%s/%s", s.bucket, s.uploaded)
		return nil
	})
}
