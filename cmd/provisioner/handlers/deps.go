package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/cloudprov/provisioner/internal/config"
	"github.com/cloudprov/provisioner/internal/messaging"
	awsplatform "github.com/cloudprov/provisioner/internal/platform/aws"
	"github.com/cloudprov/provisioner/internal/platform/s3"
	"github.com/cloudprov/provisioner/internal/provisioning"
	"github.com/cloudprov/provisioner/internal/provisioning/manifest"
)

var _ manifest.BucketChecker = (*s3.Client)(nil)

// Factory function variables - can be replaced in tests.
var (
	// newAWSFactory creates the client factory used by the EC2 steps.
	newAWSFactory = func() awsplatform.ClientFactory {
		return awsplatform.NewSDKFactory()
	}

	// newObjectStore creates the store manifests are archived to.
	newObjectStore = defaultObjectStore

	// newPools creates the producer pools named in the pipeline file.
	newPools = buildPools

	// stdout receives reports and listings.
	stdout io.Writer = os.Stdout

	// interactive reports whether prompts and styled output may be used.
	interactive = isInteractiveTTY
)

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// buildPools creates one HTTP producer pool per configured pool.
func buildPools(cfg *config.Config, metrics *messaging.PoolMetrics) (messaging.Pools, error) {
	pools := make(messaging.Pools, len(cfg.Pools))
	for _, pc := range cfg.Pools {
		opts := []messaging.HTTPOption{messaging.WithHTTPClient(&http.Client{Timeout: pc.Timeout})}
		for k, v := range pc.Headers {
			opts = append(opts, messaging.WithHeader(k, v))
		}
		pool, err := messaging.NewPool(pc.Name, pc.Size, messaging.HTTPFactory(pc.Endpoint, opts...), messaging.WithPoolMetrics(metrics))
		if err != nil {
			_ = pools.Close()
			return nil, fmt.Errorf("failed to create pool %s: %w", pc.Name, err)
		}
		pools[pc.Name] = pool
	}
	return pools, nil
}

// defaultObjectStore connects to S3 when the file names a manifest bucket.
// Credentials come from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY, or the
// default chain when those are unset.
func defaultObjectStore(ctx context.Context, cfg *config.Config) (manifest.ObjectStore, error) {
	if !archives(cfg) {
		return nil, nil
	}
	region := cfg.AWS.Region
	if region == "" {
		region = cfg.Requisition.Region
	}
	endpoint := os.Getenv("PROVISIONER_S3_ENDPOINT")
	client, err := s3.NewClient(ctx, s3.Options{
		Region:      region,
		AccessKeyID: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Endpoint:    endpoint,
		// S3-compatible services usually need path-style addressing.
		UsePathStyle: endpoint != "",
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// archives reports whether the pipeline contains the manifest step.
func archives(cfg *config.Config) bool {
	for _, s := range cfg.Steps {
		if s.Type == manifest.TypeArchiveManifest {
			return true
		}
	}
	return false
}

// checkArchiveBucket fails a live run early when the manifest bucket is
// missing. Simulated or failing archive steps never reach the store.
func checkArchiveBucket(ctx context.Context, cfg *config.Config, store manifest.ObjectStore) error {
	if store == nil {
		return nil
	}
	modes, err := cfg.Modes()
	if err != nil {
		return err
	}
	for _, s := range cfg.Steps {
		if s.Type != manifest.TypeArchiveManifest || modes.ModeFor(s.Type, s.ID) != provisioning.ModeRun {
			continue
		}
		bucket := s.Settings[manifest.SettingBucket]
		if bucket == "" {
			bucket = cfg.AWS.Bucket
		}
		if err := manifest.CheckBucket(ctx, store, bucket); err != nil {
			return fmt.Errorf("%s: %w", s.Type, err)
		}
	}
	return nil
}
