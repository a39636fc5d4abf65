package httpx

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Timeouts(t *testing.T) {
	c := New(4 * time.Second)
	require.Equal(t, 4*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	require.Equal(t, 2*time.Second, tr.TLSHandshakeTimeout)

	require.Equal(t, DefaultTimeout, New(0).Timeout)
	require.Equal(t, 5*time.Second, New(time.Minute).Transport.(*http.Transport).TLSHandshakeTimeout)
}

func TestClient_Shared(t *testing.T) {
	require.Same(t, Client(), Client())
}
