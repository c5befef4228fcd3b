package fetch

import (
	"net/http"

	"github.com/cenkalti/backoff/v4"
)

// retryableStatus reports whether resp warrants a retry: a transient
// server-side failure, not a client error that would just repeat.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// doWithRetry runs a single GET up to 3 times with a short exponential
// backoff, retrying on a transport-level error or a retryable status
// code. The caller owns closing the final response's body.
func doWithRetry(client *http.Client, req *http.Request) (*http.Response, error) {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)

	var resp *http.Response
	op := func() error {
		r, err := client.Do(req)
		if err != nil {
			return err
		}
		if retryableStatus(r.StatusCode) {
			r.Body.Close()
			resp = nil
			return &retryableError{status: r.StatusCode}
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

type retryableError struct{ status int }

func (e *retryableError) Error() string { return http.StatusText(e.status) }
