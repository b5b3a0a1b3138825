package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRealIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "prefers X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.5", "X-Forwarded-For": "198.51.100.9"},
			remoteAddr: "10.0.0.1:5555",
			want:       "203.0.113.5",
		},
		{
			name:       "falls back to first X-Forwarded-For hop",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.2"},
			remoteAddr: "10.0.0.1:5555",
			want:       "198.51.100.9",
		},
		{
			name:       "falls back to remote addr",
			headers:    map[string]string{},
			remoteAddr: "10.0.0.1:5555",
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, RealIP(req))
		})
	}
}

func TestIsValidSubnets(t *testing.T) {
	require.NoError(t, IsValidSubnets("10.0.0.0/8,192.168.0.0/16"))
	require.Error(t, IsValidSubnets("not-a-subnet"))
}

func TestIsIpInSubnets(t *testing.T) {
	require.True(t, IsIpInSubnets(nil, "10.1.2.3", "10.0.0.0/8"))
	require.False(t, IsIpInSubnets(nil, "172.16.0.1", "10.0.0.0/8"))
}
