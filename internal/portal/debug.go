package portal

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

type debugTransport struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start)
	if err != nil {
		fmt.Fprintf(t.w, "debug: %s %s error=%v duration=%s\n", req.Method, redact(req), err, dur)
		return nil, err
	}
	fmt.Fprintf(t.w, "debug: %s %s status=%d duration=%s\n", req.Method, redact(req), resp.StatusCode, dur)
	return resp, nil
}

// redact strips the query string entirely; it carries the token.
func redact(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.Fragment = ""
	return u.Redacted()
}

// EnableDebug enables one-line HTTP request logging. It never logs request
// bodies, tokens, or passwords.
func (c *Client) EnableDebug(w io.Writer) {
	if c == nil || w == nil {
		return
	}
	base := c.HTTP.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.HTTP.Transport = &debugTransport{base: base, w: w}
}
