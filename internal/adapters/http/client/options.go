package client

import "net/http"

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.client.Transport = rt
		}
	}
}
