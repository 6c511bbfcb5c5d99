// Package network implements the VPC steps of a provisioning run.
//
// The first four steps decide what network the requisition needs and reserve
// an address range for it. The remaining three create the VPC, its subnets and
// the private route table in the target account through an assumed role.
// Every step that reserves or creates something undoes it on rollback.
package network
