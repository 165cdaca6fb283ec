package flagx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	config := []string{"-c", "-config"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"separate value", []string{"-c", "client.yaml", "-a", "https://loyalty.example"}, config, []string{"-c", "client.yaml"}},
		{"equals form", []string{"-config=client.json", "-l", "debug"}, config, []string{"-config=client.json"}},
		{"nothing allowed present", []string{"-k", "anon-key", "home"}, config, []string{}},
		{"trailing flag without value", []string{"-d", "loyalty.db", "-c"}, config, []string{"-c"}},
		{"next flag is not a value", []string{"-c", "-l", "info"}, config, []string{"-c"}},
		{"several allowed, order kept", []string{"-l", "warn", "-x", "1", "-a", "http://localhost:54321"}, []string{"-a", "-l"}, []string{"-l", "warn", "-a", "http://localhost:54321"}},
		{"repeated flag", []string{"-c", "a.yaml", "-c", "b.yaml"}, config, []string{"-c", "a.yaml", "-c", "b.yaml"}},
		{"empty", nil, config, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("FilterArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.yaml", ConfigFileFlag([]string{"-c", "/path/short.yaml"}))
	})

	t.Run("long -config with value", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", ConfigFileFlag([]string{"-config", "/path/long.json"}))
	})

	t.Run("equals form among other flags", func(t *testing.T) {
		assert.Equal(t, "conf.yml", ConfigFileFlag([]string{"-a", "https://api.example", "-config=conf.yml", "-l", "debug"}))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		assert.Empty(t, ConfigFileFlag([]string{"-x", "1", "-y", "2"}))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		assert.Equal(t, "/path/2.json", ConfigFileFlag([]string{"-c", "/path/1.json", "-config", "/path/2.json"}))
	})
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatOf("client.yaml"))
	assert.Equal(t, FormatYAML, FormatOf("/etc/gophloyalty/Client.YML"))
	assert.Equal(t, FormatJSON, FormatOf("client.json"))
	assert.Equal(t, FormatJSON, FormatOf("client"))
}
