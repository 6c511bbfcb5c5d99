// Package testing provides fakes, mocks, builders and fixtures shared by the
// step, catalog and CLI tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - FakeProducer / NewFakePool: scripted producer pools for remote services
//   - Identity, Financial, Accounts, Networks: canned service handlers
//   - MockEC2, MockObjectStore, FakeClientFactory: AWS collaborators
//   - StubStep, RecordingStep, Run: pipeline scaffolding for step tests
//   - ConfigBuilder: fluent builder for pipeline files
//
// Usage:
//
//	pool, producer := testing.NewFakePool(t, "identity", testing.Identity(true))
//	rc, report, err := testing.Run(t, testing.NewRequisition(), nil,
//	    testing.Stage{Step: testing.StubStep("DETERMINE_NEW_OR_EXISTING_ACCOUNT",
//	        provisioning.BoolProperty("createNewAccount", true))},
//	    testing.Stage{Step: step, Settings: provisioning.Settings{"producerPool": "identity"}},
//	)
package testing
