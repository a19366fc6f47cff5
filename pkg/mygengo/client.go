package mygengo

import (
	"strings"
	"time"

	"github.com/samvad-hq/gengo-go/pkg/httpclient"
)

// Environments and defaults.
const (
	ProductionURL     = "https://api.gengo.com/{{version}}"
	SandboxURL        = "https://api.sandbox.gengo.com/{{version}}"
	DefaultAPIVersion = "v2"
	DefaultTimeout    = 30 * time.Second
	DefaultUserAgent  = "gengo-go/1.0"

	versionPlaceholder = "{{version}}"
)

// Client dispatches signed calls to the Gengo API.
type Client struct {
	creds     Credentials
	baseURL   string
	debug     bool
	http      httpclient.Client
	log       Logger
	now       func() time.Time
	userAgent string
}

type options struct {
	sandbox   bool
	baseURL   string
	version   string
	debug     bool
	http      httpclient.Client
	timeout   time.Duration
	log       Logger
	now       func() time.Time
	userAgent string
}

// Option customizes a Client at construction.
type Option func(*options)

// WithSandbox targets the sandbox environment.
func WithSandbox(sandbox bool) Option {
	return func(o *options) { o.sandbox = sandbox }
}

// WithBaseURL overrides the environment URL. It may contain {{version}}.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithAPIVersion sets the value substituted for {{version}}.
func WithAPIVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithDebug attaches the raw exchange to every Response and logs it.
func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = debug }
}

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *options) { o.http = c }
}

// WithTimeout sets the timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock replaces time.Now when computing request timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// New builds a client. Credentials are validated on every call, not here.
func New(creds Credentials, opts ...Option) *Client {
	o := options{
		version:   DefaultAPIVersion,
		timeout:   DefaultTimeout,
		now:       time.Now,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	base := strings.TrimSpace(o.baseURL)
	if base == "" {
		base = ProductionURL
		if o.sandbox {
			base = SandboxURL
		}
	}
	version := strings.TrimSpace(o.version)
	if version == "" {
		version = DefaultAPIVersion
	}
	base = strings.TrimRight(strings.ReplaceAll(base, versionPlaceholder, version), "/")

	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.http == nil {
		o.http = httpclient.NewRestyClientWithOptions(httpclient.Options{
			Timeout:   o.timeout,
			UserAgent: o.userAgent,
		})
	}
	if o.now == nil {
		o.now = time.Now
	}

	return &Client{
		creds:     creds,
		baseURL:   base,
		debug:     o.debug,
		http:      o.http,
		log:       ensureLogger(o.log),
		now:       o.now,
		userAgent: o.userAgent,
	}
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Debug reports whether raw exchanges are surfaced.
func (c *Client) Debug() bool { return c.debug }

// PublicKey returns the public half of the credentials.
func (c *Client) PublicKey() string { return c.creds.PublicKey }
