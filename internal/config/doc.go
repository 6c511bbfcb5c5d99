// Package config defines the pipeline file model used by the provisioner CLI.
//
// A pipeline file names the requisition of a run, the default execution mode,
// the producer pools steps borrow from and the static, ordered list of steps
// with their per-step settings. [LoadFile] reads, defaults, expands and
// validates it. Environment-tunable defaults live in [LoadTimeouts], and
// [CIDRSubnet] provides the subnet arithmetic used by network steps.
package config
