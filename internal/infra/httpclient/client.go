package httpclient

import (
	"net"
	"net/http"
	"time"
)

// New returns a client for outbound calls (Telegram Bot API). Timeouts are
// bounded so a slow upstream cannot pin notification goroutines.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	return &http.Client{Timeout: timeout, Transport: transport}
}
