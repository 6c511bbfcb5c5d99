// Package handlers implements the business logic behind the provisioner CLI
// commands. Collaborator constructors are package variables so tests can
// replace them.
package handlers
