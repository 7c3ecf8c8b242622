package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/timmy/figureimg/internal/domain"
)

// DefaultUserAgent identifies requests as a regular desktop browser so that
// catalog hosts do not reject them outright.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxRedirects = 10

// ClientConfig holds configuration for the shared HTTP client.
type ClientConfig struct {
	UserAgent string
	// Timeout bounds every call; callers may pass a shorter one per call.
	Timeout time.Duration
	// RatePerSecond and Burst bound requests per remote host. Zero disables limiting.
	RatePerSecond float64
	Burst         int
}

// Client is the HTTP client shared by all adapters.
type Client struct {
	http      *resty.Client
	userAgent string
	timeout   time.Duration
	limits    *hostLimits
}

// hostLimits holds one token bucket per remote host.
type hostLimits struct {
	ratePerSecond float64
	burst         int
	mu            sync.Mutex
	byHost        map[string]*rate.Limiter
}

// NewClient creates a new HTTP client.
func NewClient(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		userAgent: userAgent,
		timeout:   timeout,
		limits: &hostLimits{
			ratePerSecond: cfg.RatePerSecond,
			burst:         burst,
			byHost:        make(map[string]*rate.Limiter),
		},
	}
	c.http = c.newResty()
	return c
}

// WithRedirectCheck returns a client that shares c's settings and host
// limiters but refuses any redirect whose target fails allow. The refused hop
// is never requested and the call fails with domain.ErrHostNotAllowed.
func (c *Client) WithRedirectCheck(allow func(*url.URL) bool) *Client {
	if c == nil {
		return nil
	}
	guarded := &Client{
		userAgent: c.userAgent,
		timeout:   c.timeout,
		limits:    c.limits,
	}
	guarded.http = guarded.newResty()
	guarded.http.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(maxRedirects),
		resty.RedirectPolicyFunc(func(req *http.Request, _ []*http.Request) error {
			if !allow(req.URL) {
				return fmt.Errorf("%w: redirect to %s", domain.ErrHostNotAllowed, req.URL.Redacted())
			}
			return nil
		}),
	)
	return guarded
}

func (c *Client) newResty() *resty.Client {
	client := resty.New()
	client.SetTimeout(c.timeout)
	client.SetHeader("User-Agent", c.userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		return c.limits.wait(r.Context(), r.URL)
	})
	return client
}

// Get fetches rawURL and returns the response body. timeout <= 0 uses the
// client timeout. Non-2xx responses are errors.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 || timeout > c.timeout {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("request to %s failed: status %d", rawURL, resp.StatusCode())
	}
	return resp.Body(), nil
}

// wait blocks until the limiter of rawURL's host admits a request.
func (l *hostLimits) wait(ctx context.Context, rawURL string) error {
	if l.ratePerSecond <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	host := strings.ToLower(u.Host)

	l.mu.Lock()
	limiter, ok := l.byHost[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.ratePerSecond), l.burst)
		l.byHost[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
