package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	h, err := Hash("Secret1!")
	require.NoError(t, err)
	require.NotEqual(t, "Secret1!", h)

	require.True(t, Verify("Secret1!", h))
	require.False(t, Verify("secret1!", h))
}

func TestHash_IsSalted(t *testing.T) {
	t.Parallel()

	h1, err := Hash("Secret1!")
	require.NoError(t, err)
	h2, err := Hash("Secret1!")
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
	require.True(t, Verify("Secret1!", h1))
	require.True(t, Verify("Secret1!", h2))
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()

	require.False(t, Verify("whatever", "not-a-bcrypt-hash"))
	require.False(t, Verify("whatever", ""))
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pw      string
		wantErr error
		reason  string
	}{
		{name: "ok", pw: "Abcdef1!"},
		{name: "empty", pw: "", wantErr: ErrEmptyPassword},
		{name: "no_lower", pw: "ABCDEF1!", wantErr: ErrWeakPassword, reason: "lower"},
		{name: "no_upper", pw: "abcdef1!", wantErr: ErrWeakPassword, reason: "upper"},
		{name: "no_digit", pw: "Abcdefg!", wantErr: ErrWeakPassword, reason: "digit"},
		{name: "no_special", pw: "Abcdefg1", wantErr: ErrWeakPassword, reason: "special"},
		{name: "short", pw: "Ab1!", wantErr: ErrWeakPassword, reason: "8 characters"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidatePassword(tt.pw)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			require.Contains(t, err.Error(), tt.reason)
		})
	}
}
