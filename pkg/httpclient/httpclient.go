// Package httpclient builds the shared resty session. The session carries the
// timeout and connection policy for everything that borrows it: the API
// facade never configures its own.
package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewRestyHTTPClient returns a resty.Client with the specified timeout. The
// caller owns the session and is responsible for its lifetime.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}
