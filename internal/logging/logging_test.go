package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	type testCase struct {
		name      string
		config    Config
		expectErr bool
	}
	tests := []testCase{
		{name: "defaults", config: DefaultConfig()},
		{name: "empty", config: Config{}},
		{name: "json debug", config: Config{Level: "debug", Format: "json"}},
		{name: "bad level", config: Config{Level: "loud"}, expectErr: true},
		{name: "bad format", config: Config{Format: "xml"}, expectErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			logger, err := New(tc.config)
			assert.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
