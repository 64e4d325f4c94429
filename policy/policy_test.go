package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_ModeFor(t *testing.T) {
	testCases := []struct {
		description string
		policy      *Policy
		action      string
		expect      string
	}{
		{description: "nil policy asks", policy: nil, action: "submit_change_request", expect: ModeAsk},
		{description: "empty mode asks", policy: &Policy{}, action: "submit_change_request", expect: ModeAsk},
		{description: "auto", policy: &Policy{Mode: "AUTO"}, action: "submit_change_request", expect: ModeAuto},
		{description: "deny", policy: &Policy{Mode: ModeDeny}, action: "submit_change_request", expect: ModeDeny},
		{description: "unknown mode asks", policy: &Policy{Mode: "later"}, action: "submit_change_request", expect: ModeAsk},
		{description: "block list wins", policy: &Policy{Mode: ModeAuto, BlockList: []string{"Submit_Change_Request"}}, action: "submit_change_request", expect: ModeDeny},
		{description: "allow list miss", policy: &Policy{Mode: ModeAuto, AllowList: []string{"other"}}, action: "submit_change_request", expect: ModeDeny},
		{description: "allow list hit", policy: &Policy{Mode: ModeAuto, AllowList: []string{"submit_change_request"}}, action: "submit_change_request", expect: ModeAuto},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expect, testCase.policy.ModeFor(testCase.action))
		})
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" Deny ")
	assert.NoError(t, err)
	assert.Equal(t, ModeDeny, mode)

	mode, err = ParseMode("")
	assert.NoError(t, err)
	assert.Equal(t, ModeAsk, mode)

	_, err = ParseMode("sometimes")
	assert.Error(t, err)
	assert.Error(t, (&Config{Mode: "sometimes"}).Validate())
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := &Config{Mode: ModeAuto, AllowList: []string{"a"}, BlockList: []string{"b"}}
	assert.Equal(t, cfg, ToConfig(FromConfig(cfg)))
	assert.Nil(t, FromConfig(nil))
	assert.Nil(t, ToConfig(nil))
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	p := &Policy{Mode: ModeDeny}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
}
