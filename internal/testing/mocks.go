package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/stretchr/testify/mock"

	awsplatform "github.com/cloudprov/provisioner/internal/platform/aws"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// MockEC2 is a mock implementation of the EC2API interface.
type MockEC2 struct {
	mock.Mock
}

// CreateVpc creates a mock VPC.
func (m *MockEC2) CreateVpc(ctx context.Context, in *ec2.CreateVpcInput, _ ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ec2.CreateVpcOutput), args.Error(1)
}

// DeleteVpc deletes a mock VPC.
func (m *MockEC2) DeleteVpc(ctx context.Context, in *ec2.DeleteVpcInput, _ ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error) {
	args := m.Called(ctx, in)
	return &ec2.DeleteVpcOutput{}, args.Error(0)
}

// CreateSubnet creates a mock subnet.
func (m *MockEC2) CreateSubnet(ctx context.Context, in *ec2.CreateSubnetInput, _ ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ec2.CreateSubnetOutput), args.Error(1)
}

// DeleteSubnet deletes a mock subnet.
func (m *MockEC2) DeleteSubnet(ctx context.Context, in *ec2.DeleteSubnetInput, _ ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error) {
	args := m.Called(ctx, in)
	return &ec2.DeleteSubnetOutput{}, args.Error(0)
}

// CreateRouteTable creates a mock route table.
func (m *MockEC2) CreateRouteTable(ctx context.Context, in *ec2.CreateRouteTableInput, _ ...func(*ec2.Options)) (*ec2.CreateRouteTableOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ec2.CreateRouteTableOutput), args.Error(1)
}

// DeleteRouteTable deletes a mock route table.
func (m *MockEC2) DeleteRouteTable(ctx context.Context, in *ec2.DeleteRouteTableInput, _ ...func(*ec2.Options)) (*ec2.DeleteRouteTableOutput, error) {
	args := m.Called(ctx, in)
	return &ec2.DeleteRouteTableOutput{}, args.Error(0)
}

// AssociateRouteTable associates a mock route table.
func (m *MockEC2) AssociateRouteTable(ctx context.Context, in *ec2.AssociateRouteTableInput, _ ...func(*ec2.Options)) (*ec2.AssociateRouteTableOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ec2.AssociateRouteTableOutput), args.Error(1)
}

// DisassociateRouteTable removes a mock association.
func (m *MockEC2) DisassociateRouteTable(ctx context.Context, in *ec2.DisassociateRouteTableInput, _ ...func(*ec2.Options)) (*ec2.DisassociateRouteTableOutput, error) {
	args := m.Called(ctx, in)
	return &ec2.DisassociateRouteTableOutput{}, args.Error(0)
}

// MockObjectStore is a mock implementation of the manifest object store.
type MockObjectStore struct {
	mock.Mock
}

// PutObject records an upload.
func (m *MockObjectStore) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	args := m.Called(ctx, bucket, key, data, contentType)
	return args.Error(0)
}

// DeleteObject records a delete.
func (m *MockObjectStore) DeleteObject(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

// BucketExists records a bucket check.
func (m *MockObjectStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

// FakeClientFactory hands out a fixed EC2 client and records the roles it was asked to assume.
type FakeClientFactory struct {
	Client      awsplatform.EC2API
	Identity    string
	Err         error
	IdentityErr error

	mu       sync.Mutex
	roleARNs []string
	verified int
}

// EC2 implements aws.ClientFactory.
func (f *FakeClientFactory) EC2(_ context.Context, creds awsplatform.Credentials, roleARN string) (awsplatform.EC2API, error) {
	f.mu.Lock()
	f.roleARNs = append(f.roleARNs, roleARN)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if f.Client == nil {
		return nil, fmt.Errorf("fake factory has no EC2 client")
	}
	return f.Client, nil
}

// CallerIdentity implements aws.ClientFactory.
func (f *FakeClientFactory) CallerIdentity(_ context.Context, _ awsplatform.Credentials) (string, error) {
	f.mu.Lock()
	f.verified++
	f.mu.Unlock()
	if f.IdentityErr != nil {
		return "", f.IdentityErr
	}
	if f.Identity == "" {
		return "arn:aws:iam::000000000000:user/provisioner", nil
	}
	return f.Identity, nil
}

// RoleARNs returns the roles passed to EC2, in call order.
func (f *FakeClientFactory) RoleARNs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.roleARNs))
	copy(out, f.roleARNs)
	return out
}

// Verifications returns how many times CallerIdentity was called.
func (f *FakeClientFactory) Verifications() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verified
}

// MockObserver records everything reported to it. Observers derived with
// WithFields record into the same observer.
type MockObserver struct {
	mu       sync.Mutex
	root     *MockObserver
	events   []provisioning.Event
	messages []string
	fields   map[string]string
}

// NewMockObserver creates an empty recording observer.
func NewMockObserver() *MockObserver {
	return &MockObserver{fields: make(map[string]string)}
}

func (m *MockObserver) recorder() *MockObserver {
	if m.root != nil {
		return m.root
	}
	return m
}

// Printf implements provisioning.Observer.
func (m *MockObserver) Printf(format string, v ...interface{}) {
	r := m.recorder()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, fmt.Sprintf(format, v...))
}

// Event implements provisioning.Observer.
func (m *MockObserver) Event(event provisioning.Event) {
	r := m.recorder()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// WithFields implements provisioning.Observer.
func (m *MockObserver) WithFields(fields map[string]string) provisioning.Observer {
	child := NewMockObserver()
	child.root = m.recorder()
	for k, v := range m.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

// Events returns the recorded events.
func (m *MockObserver) Events() []provisioning.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]provisioning.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Messages returns the recorded Printf messages.
func (m *MockObserver) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	copy(out, m.messages)
	return out
}
