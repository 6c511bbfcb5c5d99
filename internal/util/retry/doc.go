// Package retry provides bounded exponential backoff for transient transport
// failures inside a single step operation, such as uploading a run manifest.
//
// The pipeline itself never retries a step; this package only smooths over
// flaky calls within one Execute or Rollback.
package retry
