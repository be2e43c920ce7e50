package reporting

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	t.Run("connection reset by peer", func(t *testing.T) {
		t.Parallel()

		err := `Server error: Get "https://api.example.com/v1/patients/deadbeef8315465d9d44cfc238c64f71": read tcp [dead:beef:feb1:d745::c001]:64079->[dead:beef::6811:112a]:443: read: connection reset by peer`
		want := `Server error: Get "https://api.example.com/v1/patients/<uuid>": read tcp <host>-><host>: read: connection reset by peer`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("context deadline", func(t *testing.T) {
		t.Parallel()

		err := `Server error: Get "https://api.example.com/v1/patients/deadbeef810845ca8424cf7ba5929a3e": context deadline exceeded (Client.Timeout exceeded while awaiting headers)`
		want := `Server error: Get "https://api.example.com/v1/patients/<uuid>": context deadline exceeded (Client.Timeout exceeded while awaiting headers)`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("clinic ids", func(t *testing.T) {
		t.Parallel()

		err := `failed to fetch settings for clinic-8f2k1`
		want := `failed to fetch settings for <clinic>`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("hosts", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, "<host>", sanitizeError("[1:2:3:4:5:6:7:8]:1234"))
		require.Equal(t, "<host>", sanitizeError("[::1]:443"))
	})
}
