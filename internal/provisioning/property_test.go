package provisioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty(t *testing.T) {
	t.Parallel()
	p := NewProperty("vpcId", "vpc-1")
	assert.Equal(t, "vpcId", p.Name())
	assert.Equal(t, "vpc-1", p.Value())
	assert.False(t, p.IsNotApplicable())
	assert.Equal(t, "vpcId=vpc-1", p.String())

	na := NotApplicable("vpcId")
	assert.True(t, na.IsNotApplicable())
	assert.Equal(t, "not applicable", na.Value())

	assert.Equal(t, "true", BoolProperty("ok", true).Value())
}

func TestValue_Bool(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		prop    Property
		want    bool
		wantErr error
	}{
		{name: "true", prop: BoolProperty("x", true), want: true},
		{name: "false", prop: NewProperty("x", "false")},
		{name: "not applicable", prop: NotApplicable("x"), wantErr: ErrNotApplicable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := valueOf(tt.prop).Bool()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := valueOf(NewProperty("x", "maybe")).Bool()
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	t.Parallel()
	s := Settings{
		"pool":    " identity ",
		"blank":   "  ",
		"ms":      "1500",
		"dur":     "2s",
		"zero":    "0",
		"neg":     "-5s",
		"bad":     "later",
		"enabled": "true",
	}

	v, err := s.Required("pool")
	require.NoError(t, err)
	assert.Equal(t, "identity", v)

	_, err = s.Required("blank")
	assert.ErrorIs(t, err, ErrMissingSetting)
	_, err = s.Required("absent")
	assert.ErrorIs(t, err, ErrMissingSetting)

	assert.Equal(t, "def", s.Optional("absent", "def"))
	assert.Equal(t, "identity", s.Optional("pool", "def"))

	d, err := s.Duration("ms", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, err = s.Duration("dur", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	d, err = s.Duration("absent", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	for _, key := range []string{"zero", "neg", "bad"} {
		_, err = s.Duration(key, time.Second)
		assert.Error(t, err, key)
	}

	b, err := s.Bool("enabled", false)
	require.NoError(t, err)
	assert.True(t, b)
	b, err = s.Bool("absent", true)
	require.NoError(t, err)
	assert.True(t, b)
	_, err = s.Bool("bad", false)
	assert.Error(t, err)
}
