// Package vizier queries the CDS VizieR catalog service (ASU-TSV interface) and parses the
// tab-separated result tables. It also hosts the leveled logger shared by the other packages.
package vizier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iafilius/ClusterHR/src/logx"
)

// DefaultBaseURL is the public VizieR ASU-TSV endpoint.
const DefaultBaseURL = "https://vizier.cds.unistra.fr/viz-bin/asu-tsv"

// Query defaults: Gaia DR2, half a degree around the target, at most 10000 rows, all columns.
const (
	DefaultCatalog   = "I/345"
	DefaultRadiusDeg = 0.5
	DefaultRowLimit  = 10000
	DefaultTimeout   = 60 * time.Second
	AllColumns       = "**"
)

// ErrNoTables is returned when the service answers without any result table.
var ErrNoTables = errors.New("vizier returned no tables")

// HTTPStatusError reports a non-2xx answer from the service.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("vizier http status %s", e.Status)
	}
	return fmt.Sprintf("vizier http status %s: %s", e.Status, e.Body)
}

// Query describes one region query.
type Query struct {
	Target    string   // object name resolved by the service (e.g. "M53") or coordinates
	RadiusDeg float64  // cone radius in degrees
	Catalog   string   // VizieR catalog or table id
	Columns   []string // nil or ["**"] selects every column
	RowLimit  int
}

// Values encodes the query as ASU parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("-source", q.Catalog)
	v.Set("-c", q.Target)
	v.Set("-c.rd", strconv.FormatFloat(q.RadiusDeg, 'f', -1, 64))
	if len(q.Columns) == 0 || (len(q.Columns) == 1 && q.Columns[0] == AllColumns) {
		v.Set("-out.all", "")
	} else {
		v.Set("-out", strings.Join(q.Columns, ","))
	}
	if q.RowLimit > 0 {
		v.Set("-out.max", strconv.Itoa(q.RowLimit))
	}
	return v
}

// Client issues region queries. The zero value is not usable; use NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	Catalog   string
	RadiusDeg float64
	RowLimit  int

	// Timeout bounds each HTTP attempt including body transfer. 0 disables it.
	Timeout time.Duration
	// Retries is the number of additional attempts after a transient failure.
	Retries   int
	RetryBase time.Duration
}

// NewClient returns a client with the default catalog, radius, row limit and timeout.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Catalog:    DefaultCatalog,
		RadiusDeg:  DefaultRadiusDeg,
		RowLimit:   DefaultRowLimit,
		Timeout:    DefaultTimeout,
		RetryBase:  500 * time.Millisecond,
	}
}

// QueryRegion fetches the configured catalog around target and returns the first table.
// A blank target fails with ErrNoTables without contacting VizieR.
func (c *Client) QueryRegion(ctx context.Context, target string) (*Table, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("%w: empty target name", ErrNoTables)
	}
	q := Query{
		Target:    strings.TrimSpace(target),
		RadiusDeg: c.RadiusDeg,
		Catalog:   c.Catalog,
		Columns:   []string{AllColumns},
		RowLimit:  c.RowLimit,
	}
	resp, err := c.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(resp.Tables) == 0 {
		if len(resp.Messages) > 0 {
			return nil, fmt.Errorf("%w for %q: %s", ErrNoTables, q.Target, strings.Join(resp.Messages, "; "))
		}
		return nil, fmt.Errorf("%w for %q", ErrNoTables, q.Target)
	}
	first := resp.Tables[0]
	logx.Infof("Available columns: %v", first.Columns)
	logx.Debugf("table %s: %d rows (%d tables in response)", first.Name, first.Len(), len(resp.Tables))
	return first, nil
}

// Query runs q with the client's timeout and retry policy and parses the response.
func (c *Client) Query(ctx context.Context, q Query) (*Response, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse vizier url: %w", err)
	}
	u.RawQuery = q.Values().Encode()
	defer logx.TimeTrack(time.Now(), "vizier query "+q.Target)

	retries := c.Retries
	if retries < 0 {
		retries = 0
	}
	base := c.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(retries), retry.NewExponential(base))

	var resp *Response
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		r, err := c.fetch(ctx, u.String())
		if err != nil {
			if isTransientNetErr(err) && ctx.Err() == nil {
				logx.Warnf("vizier attempt %d for %q failed: %v", attempt, q.Target, err)
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query vizier: %w", err)
	}
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) (*Response, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "ClusterHR/1.0")
	logx.Debugf("GET %s", rawURL)
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, Status: res.Status, Body: strings.TrimSpace(string(snippet))}
	}
	return ParseTSV(res.Body)
}

// isTransientNetErr returns true for network errors and gateway statuses where another
// attempt may succeed. Context cancellation and deadlines are never transient.
func isTransientNetErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
			return true
		}
		return false
	}
	es := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case strings.Contains(es, "context deadline exceeded"):
		return false
	case strings.Contains(es, "connection reset by peer"):
		return true
	case strings.Contains(es, "connection refused"):
		return true
	case strings.Contains(es, "broken pipe"):
		return true
	case strings.Contains(es, "http2") && strings.Contains(es, "stream closed"):
		return true
	case strings.Contains(es, "temporary") || strings.Contains(es, "timeout"):
		return true
	default:
		return false
	}
}
