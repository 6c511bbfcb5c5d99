// Package provisioning provides the step orchestration engine for account and network provisioning.
//
// # Subpackages
//
//   - account: new-or-existing account decision, requestor authorization, financial validation, account generation
//   - network: VPC type, CIDR reservation, subnet computation, connection method, VPC/subnet/route table creation
//   - manifest: archival of the run manifest to object storage
//   - catalog: step type registry used to build a pipeline from configuration
//
// # Core Types
//
// Step is the unit of work with Init, Execute, Rollback and status accessors.
// Base is the helper every concrete step embeds for identity, status bookkeeping and
// dispatch to the run, simulate or fail variant.
// RunContext is the append-only record of executed steps and their result properties.
// Pipeline drives a static step sequence, stops at the first failure and rolls back
// completed steps in reverse order.
package provisioning
