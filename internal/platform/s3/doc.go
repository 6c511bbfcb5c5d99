// Package s3 provides the object store the provisioner archives run manifests to.
//
// It targets AWS S3 by default and any S3-compatible service when an endpoint
// is configured. Deleting an object that is already gone counts as success so
// compensations stay idempotent.
package s3
