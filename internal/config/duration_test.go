package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", input: `timeout: "30s"`, want: 30 * time.Second},
		{name: "minutes", input: `timeout: "5m"`, want: 5 * time.Minute},
		{name: "compound", input: `timeout: "1h30m"`, want: 90 * time.Minute},
		{name: "milliseconds", input: `timeout: "300ms"`, want: 300 * time.Millisecond},
		{name: "empty string", input: `timeout: ""`, want: 0},
		{name: "unquoted", input: `timeout: 45s`, want: 45 * time.Second},
		{name: "garbage", input: `timeout: "fast"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out struct {
				Timeout Duration `yaml:"timeout"`
			}
			err := yaml.Unmarshal([]byte(tt.input), &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Timeout.Duration())
		})
	}
}

func TestDuration_MarshalYAML(t *testing.T) {
	t.Parallel()

	out, err := yaml.Marshal(struct {
		Timeout Duration `yaml:"timeout"`
	}{Timeout: Duration(90 * time.Second)})
	require.NoError(t, err)
	assert.Contains(t, string(out), "1m30s")
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var out struct {
		Timeout Duration `json:"timeout"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"timeout":"2m"}`), &out))
	assert.Equal(t, 2*time.Minute, out.Timeout.Duration())

	require.NoError(t, json.Unmarshal([]byte(`{"timeout":null}`), &out))
	assert.Equal(t, time.Duration(0), out.Timeout.Duration())

	assert.Error(t, json.Unmarshal([]byte(`{"timeout":"soon"}`), &out))
}

func TestDuration_MarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		Timeout Duration `json:"timeout"`
	}{Timeout: Duration(250 * time.Millisecond)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeout":"250ms"}`, string(data))
}

func TestDuration_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "5s", Duration(5*time.Second).String())
	assert.Equal(t, "0s", Duration(0).String())
}
