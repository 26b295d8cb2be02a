package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/sensors"
)

const httpRetryMax = 3

// HTTPStore fetches baseline and limits documents for a board model from
// the baseline service.
type HTTPStore struct {
	client     *http.Client
	endpoint   string
	boardModel string
}

func NewHTTPStore(endpoint, boardModel string) (*HTTPStore, error) {
	if _, err := url.Parse(endpoint); err != nil {
		return nil, errors.Wrap(ErrBaselineFetch, "invalid endpoint: "+err.Error())
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = httpRetryMax
	retryClient.Logger = nil
	retryClient.HTTPClient.Transport = otelhttp.NewTransport(retryClient.HTTPClient.Transport)

	return &HTTPStore{
		client:     retryClient.StandardClient(),
		endpoint:   endpoint,
		boardModel: boardModel,
	}, nil
}

func (s *HTTPStore) Baseline(ctx context.Context) (*model.Baseline, error) {
	baseline := &model.Baseline{}
	if err := s.get(ctx, "/api/v1/baselines/"+url.PathEscape(s.boardModel), baseline); err != nil {
		return nil, errors.Wrap(ErrBaselineFetch, err.Error())
	}

	if err := baseline.Validate(); err != nil {
		return nil, err
	}

	return baseline, nil
}

func (s *HTTPStore) Limits(ctx context.Context) (*sensors.Limits, error) {
	limits := &sensors.Limits{}
	if err := s.get(ctx, "/api/v1/sensor-limits/"+url.PathEscape(s.boardModel), limits); err != nil {
		return nil, errors.Wrap(ErrLimitsFetch, err.Error())
	}

	if err := limits.Validate(); err != nil {
		return nil, err
	}

	return limits, nil
}

func (s *HTTPStore) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+path, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
