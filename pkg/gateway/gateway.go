// Package gateway fetches the dashboard datasets from the readmission
// statistics API.
//
// The Client is stateless: no caching, no retries. Every call is a fresh
// request for the filter it is given, so calls for one refresh cycle can be
// issued concurrently without coordinating with each other. Failures are
// always returned as *FetchError; nothing panics on malformed payloads.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vanderheijden86/readmit/pkg/config"
	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/metrics"
	"github.com/vanderheijden86/readmit/pkg/model"

	"github.com/goccy/go-json"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; one dashboard never has more than a handful of
// requests in flight
const (
	defaultMaxIdleConnsPerHost = 8
	defaultIdleConnTimeout     = 60 * time.Second
	defaultTimeout             = 10 * time.Second
)

// Dataset names one API resource.
type Dataset string

const (
	DatasetKPIs          Dataset = "kpis"
	DatasetPerformance   Dataset = "performance"
	DatasetVolume        Dataset = "volume"
	DatasetTopHospitals  Dataset = "top-hospitals"
	DatasetWorstMeasures Dataset = "worst-measures"
	DatasetStateScores   Dataset = "state-scores"
	DatasetStateDetails  Dataset = "state-details"
)

// Path is the endpoint serving d.
func (d Dataset) Path() string {
	switch d {
	case DatasetKPIs:
		return "/api/kpis"
	case DatasetPerformance:
		return "/api/national-performance"
	case DatasetVolume:
		return "/api/performance-by-volume"
	case DatasetTopHospitals:
		return "/api/top-hospitals"
	case DatasetWorstMeasures:
		return "/api/worst-measures"
	case DatasetStateScores:
		return "/api/performance-by-state"
	case DatasetStateDetails:
		return "/api/state-details"
	}
	return ""
}

// FetchError reports a failed dataset fetch: transport error, non-2xx
// status or undecodable body.
type FetchError struct {
	Dataset    Dataset
	Region     model.Region
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (%s): status %d: %v", e.Dataset, e.Region.Label(), e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.Dataset, e.Region.Label(), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrStatus is wrapped by FetchError for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client talks to one API base URL.
type Client struct {
	base       *url.URL
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a Client from the API section of the config.
func New(cfg config.APIConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q: scheme must be http or https", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		base:    base,
		timeout: timeout,
		httpClient: &http.Client{
			// no client-wide timeout; each request gets its own context deadline
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Endpoint builds the request URL for d filtered by region.
func (c *Client) Endpoint(d Dataset, region model.Region) string {
	u := c.base.JoinPath(d.Path())
	if !region.IsNational() {
		q := url.Values{}
		q.Set("state", string(region))
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// FetchKPI returns the KPI tiles for region.
func (c *Client) FetchKPI(ctx context.Context, region model.Region) (model.MetricRecord, error) {
	return fetch[model.MetricRecord](ctx, c, DatasetKPIs, region)
}

// FetchPerformance returns the performance-category breakdown for region.
func (c *Client) FetchPerformance(ctx context.Context, region model.Region) ([]model.PerformanceCategoryRecord, error) {
	return fetch[[]model.PerformanceCategoryRecord](ctx, c, DatasetPerformance, region)
}

// FetchVolume returns the average score per volume tier for region.
func (c *Client) FetchVolume(ctx context.Context, region model.Region) ([]model.VolumeTierRecord, error) {
	return fetch[[]model.VolumeTierRecord](ctx, c, DatasetVolume, region)
}

// FetchTopHospitals returns the highest-scoring facilities for region.
func (c *Client) FetchTopHospitals(ctx context.Context, region model.Region) ([]model.HospitalRankRecord, error) {
	return fetch[[]model.HospitalRankRecord](ctx, c, DatasetTopHospitals, region)
}

// FetchWorstMeasures returns the measures with the highest average score
// for region.
func (c *Client) FetchWorstMeasures(ctx context.Context, region model.Region) ([]model.MeasureRecord, error) {
	return fetch[[]model.MeasureRecord](ctx, c, DatasetWorstMeasures, region)
}

type stateScore struct {
	State model.Region `json:"state"`
	Score model.Number `json:"average_state_score"`
}

// FetchStateScores returns the per-region average used to fill the map.
// It is always unfiltered. Only Region and AverageScore are set.
func (c *Client) FetchStateScores(ctx context.Context) ([]model.StateSummaryRecord, error) {
	scores, err := fetch[[]stateScore](ctx, c, DatasetStateScores, model.National)
	if err != nil {
		return nil, err
	}
	out := make([]model.StateSummaryRecord, 0, len(scores))
	for _, s := range scores {
		out = append(out, model.StateSummaryRecord{Region: s.State, AverageScore: s.Score})
	}
	return out, nil
}

// FetchStateDetails returns the per-region summary table. Always unfiltered.
func (c *Client) FetchStateDetails(ctx context.Context) ([]model.StateSummaryRecord, error) {
	return fetch[[]model.StateSummaryRecord](ctx, c, DatasetStateDetails, model.National)
}

func fetch[T any](ctx context.Context, c *Client, d Dataset, region model.Region) (T, error) {
	var out T
	var err error
	done := metrics.TimerWithCallback(metrics.Fetch, func(elapsed time.Duration) {
		metrics.ObserveFetch(string(d), elapsed, err)
		debug.Log("gateway: %s (%s) in %v err=%v", d, region.Label(), elapsed, err)
	})
	defer done()

	var body []byte
	body, err = c.get(ctx, d, region)
	if err != nil {
		return out, err
	}

	stopDecode := metrics.Timer(metrics.Decode)
	decodeErr := json.Unmarshal(body, &out)
	stopDecode()
	if decodeErr != nil {
		err = &FetchError{Dataset: d, Region: region, Err: fmt.Errorf("decoding response: %w", decodeErr)}
		return out, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, d Dataset, region model.Region) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(d, region), nil)
	if err != nil {
		return nil, &FetchError{Dataset: d, Region: region, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Dataset: d, Region: region, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, &FetchError{Dataset: d, Region: region, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Dataset: d, Region: region, StatusCode: resp.StatusCode, Err: ErrStatus}
	}
	return body, nil
}
