package seo

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/vango-dev/metalens/internal/errors"
)

const tracerName = "github.com/vango-dev/metalens/pkg/seo"

// DefaultUserAgent is sent with page fetches unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Result is a complete analysis of one page.
type Result struct {
	ID         string        `json:"id" yaml:"id"`
	URL        string        `json:"url" yaml:"url"`
	Domain     string        `json:"domain" yaml:"domain"`
	Meta       MetaData      `json:"meta_data" yaml:"meta_data"`
	Validation Validation    `json:"validation" yaml:"validation"`
	Previews   Previews      `json:"previews" yaml:"previews"`
	AnalyzedAt time.Time     `json:"analyzed_at" yaml:"analyzed_at"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Score returns the overall score.
func (r *Result) Score() int { return r.Validation.OverallScore }

// Analyzer fetches and scores pages. It is safe for concurrent use.
type Analyzer struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBody   int64
	limits    Limits
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithHTTPClient sets the client used for fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Analyzer) { a.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(a *Analyzer) {
		if ua != "" {
			a.userAgent = ua
		}
	}
}

// WithTimeout bounds each fetch, body included.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithMaxBodyBytes caps how much of a page is read.
func WithMaxBodyBytes(n int64) Option {
	return func(a *Analyzer) { a.maxBody = n }
}

// WithLimits sets the length limits used by validation.
func WithLimits(l Limits) Option {
	return func(a *Analyzer) { a.limits = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock sets the time source for AnalyzedAt and Elapsed.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an Analyzer with a 10s timeout and 5MB body cap.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		client:    http.DefaultClient,
		userAgent: DefaultUserAgent,
		timeout:   10 * time.Second,
		maxBody:   5 << 20,
		limits:    DefaultLimits(),
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "seo")
	return a
}

// Analyze normalizes rawURL, fetches it and returns the analysis.
// Failures are *errors.Error values carrying fetch codes M001-M006.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (res *Result, err error) {
	pageURL := Normalize(rawURL)
	if pageURL == "" {
		return nil, errors.New(errors.CodeEmptyURL)
	}

	ctx, span := a.tracer.Start(ctx, "seo.Analyze", trace.WithAttributes(
		attribute.String("url", pageURL),
		attribute.String("domain", Domain(pageURL)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("score", res.Score()))
		}
		span.End()
	}()

	if !IsValidURL(pageURL) {
		return nil, errors.New(errors.CodeInvalidURL).WithDetail("Rejected URL: " + pageURL)
	}

	start := a.now()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidURL).Wrap(err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(errors.CodeHTTPStatus).
			Args(resp.StatusCode, http.StatusText(resp.StatusCode)).
			WithDetail("GET " + pageURL + " returned " + strconv.Itoa(resp.StatusCode))
	}

	var body io.Reader = resp.Body
	if a.maxBody > 0 {
		body = io.LimitReader(resp.Body, a.maxBody)
	}
	res, err = a.AnalyzeReader(pageURL, body)
	if err != nil {
		return nil, classify(err)
	}
	res.Elapsed = a.now().Sub(start)

	a.logger.Debug("page analyzed",
		"url", pageURL,
		"status", resp.StatusCode,
		"score", res.Score(),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// AnalyzeReader parses an already fetched page served from pageURL.
func (a *Analyzer) AnalyzeReader(pageURL string, r io.Reader) (*Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	md := Extract(doc)
	return &Result{
		ID:         a.newID(),
		URL:        pageURL,
		Domain:     Domain(pageURL),
		Meta:       md,
		Validation: Validate(md, a.limits),
		Previews:   BuildPreviews(md, pageURL),
		AnalyzedAt: a.now().UTC(),
	}, nil
}

// classify maps a transport or read error to a registered fetch code.
func classify(err error) *errors.Error {
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.As(err, &netErr) && netErr.Timeout():
		return errors.New(errors.CodeTimeout).Wrap(err)
	case isConnectError(err):
		return errors.New(errors.CodeConnect).Wrap(err)
	default:
		return errors.New(errors.CodeUnexpected).Args(unwrapURLError(err)).Wrap(err)
	}
}

func isConnectError(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return stderrors.As(err, &opErr) || stderrors.As(err, &dnsErr)
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
