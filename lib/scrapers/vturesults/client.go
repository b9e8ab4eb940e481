// Package vturesults scrapes exam results out of the VTU results
// portal, which gates its lookup form behind an image captcha.
package vturesults

import (
	"crypto/tls"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"
	"vturesults-backend/lib/recognize"
	"vturesults-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/vturesults")

const (
	defaultBaseUrl     = "https://results.vtu.ac.in"
	defaultMaxAttempts = 5
	defaultTimeout     = time.Second * 20
	userAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"
)

type ClientOptions struct {
	// BaseUrl defaults to the production portal.
	BaseUrl string
	// MaxAttempts bounds the number of full fetch/solve/submit
	// cycles per lookup, defaults to 5.
	MaxAttempts int
	// Timeout applies to every transport call, defaults to 20s.
	Timeout time.Duration
	// SkipTlsVerify disables certificate verification; the portal's
	// chain does not validate on stock cert stores.
	SkipTlsVerify bool
	Recognizer    recognize.Recognizer
}

type Client struct {
	baseUrl       *url.URL
	recognizer    recognize.Recognizer
	maxAttempts   int
	timeout       time.Duration
	skipTlsVerify bool
}

func NewClient(opts ClientOptions) (*Client, error) {
	rawBaseUrl := opts.BaseUrl
	if rawBaseUrl == "" {
		rawBaseUrl = defaultBaseUrl
	}
	baseUrl, err := url.Parse(rawBaseUrl)
	if err != nil {
		return nil, err
	}
	if opts.Recognizer == nil {
		return nil, fmt.Errorf("a recognizer is required")
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseUrl:       baseUrl,
		recognizer:    opts.Recognizer,
		maxAttempts:   maxAttempts,
		timeout:       timeout,
		skipTlsVerify: opts.SkipTlsVerify,
	}, nil
}

// newSession builds a fresh resty client with an empty cookie jar.
// Every attempt gets its own session so the submission token, the
// session cookies and the solved captcha always originate from the
// same index fetch.
func (c *Client) newSession() (*resty.Client, error) {
	session := resty.New()
	session.SetBaseURL(c.baseUrl.String())
	session.SetTimeout(c.timeout)
	session.SetHeader("user-agent", userAgent)
	session.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.baseUrl.Hostname()))

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	session.SetCookieJar(jar)

	if c.skipTlsVerify {
		session.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	session.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(session.GetClient().Transport)

	telemetry.InstrumentResty(session, "scrapers/vturesults/http")

	return session, nil
}
