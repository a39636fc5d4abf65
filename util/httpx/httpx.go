package httpx

import (
	"net"
	"net/http"
	"time"
)

const DefaultTimeout = 10 * time.Second

var defaultClient = New(DefaultTimeout)

// New builds a pooled client for outbound calls such as the payment gateway.
// A non-positive timeout falls back to DefaultTimeout.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dial := timeout / 2
	if dial > 5*time.Second {
		dial = 5 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   dial,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: dial,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func Client() *http.Client { return defaultClient }
