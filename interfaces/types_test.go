package interfaces

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouteValidate(t *testing.T) {
	valid := []string{"127.0.0.1:4100", "cloud.example.com:443", "srv+enroll.example.com"}
	for _, s := range valid {
		r, err := NewRoute(s)
		require.NoError(t, err, s)
		require.Equal(t, s, r.String())
	}

	invalid := []string{"", "no-port", "srv+", ":4100"}
	for _, s := range invalid {
		_, err := NewRoute(s)
		require.Error(t, err, s)
	}
}

func TestRouteSRVName(t *testing.T) {
	r, err := NewRoute("srv+enroll.example.com")
	require.NoError(t, err)
	require.True(t, r.IsSRV())
	require.Equal(t, "enroll.example.com", r.SRVName())

	direct, err := NewRoute("127.0.0.1:4100")
	require.NoError(t, err)
	require.False(t, direct.IsSRV())
}
