package resiliency

import (
	"errors"
	"testing"

	"github.com/SolomonYakubu/dop-marketplace-sub000/common"
	"github.com/SolomonYakubu/dop-marketplace-sub000/config"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFailSafePolicies_FullRetryConfig(t *testing.T) {
	policies, err := CreateFailSafePolicies("fetcher", &config.FailsafeConfig{
		Retry: &config.RetryPolicyConfig{
			MaxAttempts:     3,
			Delay:           "100ms",
			BackoffMaxDelay: "2s",
			BackoffFactor:   1.5,
			Jitter:          "10ms",
		},
		Timeout: &config.TimeoutPolicyConfig{Duration: "5s"},
	})
	require.NoError(t, err)
	assert.Len(t, policies, 2)
}

func TestCreateFailSafePolicies_NilConfig(t *testing.T) {
	policies, err := CreateFailSafePolicies("fetcher", nil)
	require.NoError(t, err)
	assert.Empty(t, policies)
}

func TestCreateFailSafePolicies_InvalidDurations(t *testing.T) {
	_, err := CreateFailSafePolicies("fetcher", &config.FailsafeConfig{
		Retry: &config.RetryPolicyConfig{Delay: "not-a-duration"},
	})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, "ErrFailsafeConfiguration"))

	_, err = CreateFailSafePolicies("fetcher", &config.FailsafeConfig{
		Timeout: &config.TimeoutPolicyConfig{Duration: ""},
	})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, "ErrFailsafeConfiguration"))
}

func TestTranslateFailsafeError_RetryExceededKeepsLastError(t *testing.T) {
	boom := errors.New("gateway down")

	translated := TranslateFailsafeError(&retrypolicy.ExceededError{LastError: boom})
	assert.True(t, common.HasCode(translated, "ErrFailsafeRetryExceeded"))
	assert.ErrorIs(t, translated, boom)
}

func TestTranslateFailsafeError_Timeout(t *testing.T) {
	translated := TranslateFailsafeError(timeout.ErrExceeded)
	assert.True(t, common.HasCode(translated, "ErrFailsafeTimeoutExceeded"))
}

func TestTranslateFailsafeError_PassThrough(t *testing.T) {
	boom := errors.New("unrelated")
	assert.Equal(t, boom, TranslateFailsafeError(boom))
}
