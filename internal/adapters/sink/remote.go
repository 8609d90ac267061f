package sink

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/okian/weris/internal/adapters/http/client"
	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/pkg/logger"
)

// EndpointName labels result requests in metrics.
const EndpointName = "result"

// maxLoggedBody caps how much of a response body ends up in logs and errors.
const maxLoggedBody = 512

// RemoteSink POSTs the result to a collection endpoint.
type RemoteSink struct {
	url    string
	client *client.Client
	opts   options
}

// NewRemoteSink creates a sink posting to url with c.
func NewRemoteSink(url string, c *client.Client, opts ...Option) *RemoteSink {
	if c == nil {
		c = client.New(client.DefaultTimeout)
	}
	return &RemoteSink{url: url, client: c, opts: newOptions(opts)}
}

// Payload is the request body sent to the result endpoint.
type Payload struct {
	StressLevel float64 `json:"stress_level"`
	Prediction  string  `json:"prediction"`
	Week        int     `json:"week"`
}

// NewPayload builds the wire form of res.
func NewPayload(res model.StressResult) Payload {
	return Payload{
		StressLevel: model.Round2(res.StressLevel),
		Prediction:  res.Prediction,
		Week:        int(res.Week),
	}
}

// Write sends res once. A non-2xx answer is a *model.RejectedError.
func (s *RemoteSink) Write(ctx context.Context, res model.StressResult) error {
	resp, err := s.client.Post(ctx, EndpointName, s.url, NewPayload(res))
	if err != nil {
		return fmt.Errorf("send result: %w", err)
	}

	body := truncate(string(resp.Body))
	if !resp.OK() {
		return &model.RejectedError{Status: resp.Status, Body: body}
	}
	s.opts.logger.Info(ctx, "result accepted",
		logger.Int("status", resp.Status),
		logger.String("body", body))
	return nil
}

// truncate cuts s to at most maxLoggedBody bytes on a rune boundary.
func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	cut := maxLoggedBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
