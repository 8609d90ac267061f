package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/weris/internal/adapters/http/client"
	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/internal/schema"
)

// EndpointName labels intake requests in metrics.
const EndpointName = "intake"

// RemoteSource fetches {"symptoms": {...}, "week": n} from a symptom service.
type RemoteSource struct {
	url    string
	client *client.Client
	opts   options
}

// NewRemoteSource creates a source that GETs url with c.
func NewRemoteSource(url string, c *client.Client, opts ...Option) *RemoteSource {
	if c == nil {
		c = client.New(client.DefaultTimeout)
	}
	return &RemoteSource{url: url, client: c, opts: newOptions(opts)}
}

type remotePayload struct {
	Symptoms map[string]*bool `json:"symptoms"`
	Week     json.Number      `json:"week"`
}

// Fetch performs a single GET. A response missing symptoms or week is
// model.ErrIncompleteResponse.
func (s *RemoteSource) Fetch(ctx context.Context) (model.Intake, error) {
	resp, err := s.client.Get(ctx, EndpointName, s.url)
	if err != nil {
		return model.Intake{}, fmt.Errorf("fetch symptoms: %w", err)
	}
	if !resp.OK() {
		return model.Intake{}, fmt.Errorf("fetch symptoms: status %d: %w", resp.Status, model.ErrRemoteUnavailable)
	}

	if err := schema.ValidateBytes(schema.RemoteIntake, resp.Body); err != nil {
		return model.Intake{}, fmt.Errorf("symptom response: %w: %v", model.ErrMalformedInput, err)
	}

	var payload remotePayload
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return model.Intake{}, fmt.Errorf("symptom response: %w: %v", model.ErrMalformedInput, err)
	}

	if len(payload.Symptoms) == 0 {
		return model.Intake{}, fmt.Errorf("symptom response has no symptoms: %w", model.ErrIncompleteResponse)
	}
	if payload.Week == "" {
		return model.Intake{}, fmt.Errorf("symptom response has no week: %w", model.ErrIncompleteResponse)
	}
	if f, err := payload.Week.Float64(); err == nil && f == 0 {
		return model.Intake{}, fmt.Errorf("symptom response has week 0: %w", model.ErrIncompleteResponse)
	}
	week, err := parseWeek(payload.Week)
	if err != nil {
		return model.Intake{}, fmt.Errorf("symptom response: %w", err)
	}

	flags := make(model.SymptomFlags, len(payload.Symptoms))
	for name, v := range payload.Symptoms {
		flags[name] = v != nil && *v
	}

	in := model.Intake{Symptoms: flags, Week: week}
	logIntake(ctx, s.opts.logger, "remote", in)
	return in, nil
}
