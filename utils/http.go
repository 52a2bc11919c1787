package utils

import (
	"crypto/tls"
	"log"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// UserAgent identifies the backend on outbound requests
const UserAgent = "JobPilot/1.0"

const maxRetries = 2

// NewHTTPClient returns the client used for calls to Google endpoints. GET
// requests are retried on connection errors, 429 and 5xx responses.
func NewHTTPClient(timeout time.Duration) *http.Client {
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	retrying := retryablehttp.NewClient()
	retrying.HTTPClient = &http.Client{Transport: base}
	retrying.RetryMax = maxRetries
	retrying.RetryWaitMin = 200 * time.Millisecond
	retrying.RetryWaitMax = 2 * time.Second
	retrying.Logger = nil
	// hand the last response back instead of an error once retries run out
	retrying.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retrying.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.Printf("[HTTP] Retrying %s %s (attempt %d)", req.Method, req.URL.Redacted(), attempt)
		}
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &outboundTransport{
			plain:    base,
			retrying: &retryablehttp.RoundTripper{Client: retrying},
		},
	}
}

// outboundTransport stamps the user agent and sends idempotent reads through
// the retrying client.
type outboundTransport struct {
	plain    http.RoundTripper
	retrying http.RoundTripper
}

func (t *outboundTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}
	if req.Method == http.MethodGet {
		return t.retrying.RoundTrip(req)
	}
	return t.plain.RoundTrip(req)
}
