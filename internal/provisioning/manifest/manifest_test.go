package manifest

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloudprov/provisioner/internal/provisioning"
	ptesting "github.com/cloudprov/provisioner/internal/testing"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func settings() provisioning.Settings {
	return provisioning.Settings{SettingBucket: "provisioning-archive", SettingRetryDelay: "1ms"}
}

func newStep(store ObjectStore) *ArchiveManifest {
	s := NewArchiveManifest("", store)
	s.now = func() time.Time { return fixedNow }
	return s
}

func upstream() ptesting.Stage {
	return ptesting.Stage{Step: ptesting.StubStep("GENERATE_NEW_ACCOUNT",
		provisioning.NewProperty("newAccountId", "210987654321"),
		provisioning.BoolProperty("allocatedNewAccount", true),
	)}
}

func TestKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "manifests/run-1.json", Key("manifests", "run-1"))
	assert.Equal(t, "run-1.json", Key("", "run-1"))
	assert.Equal(t, "a/b/run-1.json", Key("a/b/", "run-1"))
}

func TestArchiveManifest(t *testing.T) {
	t.Parallel()
	store := &ptesting.MockObjectStore{}
	store.On("PutObject", mock.Anything, "provisioning-archive", "manifests/test-run.json", mock.Anything, "application/json").Return(nil)

	rc, report, err := ptesting.Run(t, ptesting.NewRequisition(), nil,
		upstream(),
		ptesting.Stage{Step: newStep(store), Settings: settings()},
	)

	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	v, err := rc.Lookup(TypeArchiveManifest, PropManifestKey)
	require.NoError(t, err)
	assert.Equal(t, "manifests/test-run.json", v.String())

	data := store.Calls[0].Arguments.Get(3).([]byte)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "test-run", doc.RunID)
	assert.True(t, fixedNow.Equal(doc.CreatedAt))
	assert.Equal(t, "payments-prod", doc.Requisition.AccountName)
	require.Len(t, doc.Steps, 1)
	assert.Equal(t, "GENERATE_NEW_ACCOUNT", doc.Steps[0].Type)
	assert.Equal(t, "SUCCESS", doc.Steps[0].Result)
	assert.Equal(t, []PropertyEntry{
		{Name: provisioning.PropertyExecutionMethod, Value: "run"},
		{Name: "newAccountId", Value: "210987654321"},
		{Name: "allocatedNewAccount", Value: "true"},
	}, doc.Steps[0].Properties)
}

func TestArchiveManifest_RetriesUpload(t *testing.T) {
	t.Parallel()
	store := &ptesting.MockObjectStore{}
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("slow down")).Once()
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, report, err := ptesting.Run(t, ptesting.NewRequisition(), nil, ptesting.Stage{Step: newStep(store), Settings: settings()})

	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	store.AssertNumberOfCalls(t, "PutObject", 2)
}

func TestArchiveManifest_UploadFails(t *testing.T) {
	t.Parallel()
	store := &ptesting.MockObjectStore{}
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("access denied"))
	s := settings()
	s[SettingRetries] = "2"
	step := newStep(store)

	_, _, err := ptesting.Run(t, ptesting.NewRequisition(), nil, upstream(), ptesting.Stage{Step: step, Settings: s})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Equal(t, provisioning.StatusFailed, step.Status())
	store.AssertNumberOfCalls(t, "PutObject", 2)
	store.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything, mock.Anything)
}

func TestArchiveManifest_Rollback(t *testing.T) {
	t.Parallel()
	store := &ptesting.MockObjectStore{}
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("DeleteObject", mock.Anything, "provisioning-archive", "custom/test-run.json").Return(nil)
	s := settings()
	s[SettingPrefix] = "custom"
	step := newStep(store)
	after := ptesting.NewRecordingStep("AFTER", &ptesting.Journal{})
	after.RunErr = errors.New("boom")

	_, _, err := ptesting.Run(t, ptesting.NewRequisition(), nil,
		ptesting.Stage{Step: step, Settings: s},
		ptesting.Stage{Step: after},
	)

	require.Error(t, err)
	assert.Equal(t, provisioning.StatusRolledBack, step.Status())
	assert.Equal(t, provisioning.ResultSuccess, step.Result())
	store.AssertExpectations(t)
}

func TestArchiveManifest_Simulate(t *testing.T) {
	t.Parallel()
	store := &ptesting.MockObjectStore{}

	rc, _, err := ptesting.Run(t, ptesting.NewRequisition(), ptesting.Modes(provisioning.ModeSimulate),
		upstream(),
		ptesting.Stage{Step: newStep(store), Settings: settings()},
	)

	require.NoError(t, err)
	v, err := rc.Lookup(TypeArchiveManifest, PropManifestBucket)
	require.NoError(t, err)
	assert.Equal(t, "provisioning-archive", v.String())
	assert.Empty(t, store.Calls)
}

func TestArchiveManifest_Init(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		store    ObjectStore
		settings provisioning.Settings
	}{
		{name: "no store", settings: settings()},
		{name: "no bucket", store: &ptesting.MockObjectStore{}, settings: provisioning.Settings{}},
		{name: "bad retries", store: &ptesting.MockObjectStore{}, settings: provisioning.Settings{SettingBucket: "b", SettingRetries: "zero"}},
		{name: "bad delay", store: &ptesting.MockObjectStore{}, settings: provisioning.Settings{SettingBucket: "b", SettingRetryDelay: "-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := ptesting.Run(t, ptesting.NewRequisition(), nil,
				ptesting.Stage{Step: NewArchiveManifest("", tt.store), Settings: tt.settings})

			var ie *provisioning.InitError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, TypeArchiveManifest, ie.StepType)
		})
	}
}

// putOnlyStore cannot check buckets.
type putOnlyStore struct{ ObjectStore }

func TestCheckBucket(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		exists  bool
		err     error
		bucket  string
		wantErr error
	}{
		{name: "exists", exists: true, bucket: "provisioning-archive"},
		{name: "missing", bucket: "provisioning-archive", wantErr: ErrBucketNotFound},
		{name: "no bucket", bucket: "", wantErr: provisioning.ErrMissingSetting},
		{name: "access denied", err: errors.New("access denied"), bucket: "provisioning-archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &ptesting.MockObjectStore{}
			store.On("BucketExists", mock.Anything, tt.bucket).Return(tt.exists, tt.err)

			err := CheckBucket(ptesting.TestContext(t), store, tt.bucket)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.err != nil:
				assert.ErrorIs(t, err, tt.err)
			default:
				assert.NoError(t, err)
			}
		})
	}

	assert.NoError(t, CheckBucket(ptesting.TestContext(t), putOnlyStore{}, ""))
}
