package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
)

// Authorization schemes. GitHub expects the App assertion as a bearer token
// and installation tokens under the "token" scheme.
const (
	schemeBearer = "Bearer"
	schemeToken  = "token"
)

const machineManPreview = "application/vnd.github.machine-man-preview+json"

// maxErrorBody caps how much of an unparseable error body is kept.
const maxErrorBody = 64 << 10

// headerTransport overrides request headers after go-github has set its own.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// authTransport adds credential under scheme to every request.
func authTransport(base http.RoundTripper, scheme, credential string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential, TokenType: scheme}),
		Base:   base,
	}
}

// newAPIClient returns a go-github client sending requests through rt to the
// configured base URL. Callers build one per operation and discard it with
// the credential rt carries.
func newAPIClient(rt http.RoundTripper, cfg apiConfig) (*github.Client, error) {
	client := github.NewClient(&http.Client{Transport: rt})
	baseURL, err := url.Parse(cfg.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", cfg.baseURL, err)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}
	client.BaseURL = baseURL
	if cfg.userAgent != "" {
		client.UserAgent = cfg.userAgent
	}
	return client, nil
}

type apiConfig struct {
	baseURL   string
	userAgent string
}

// classify maps the result of a go-github call onto the error taxonomy.
func classify(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		return nil
	}
	if encodingFailed(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrSerialization, err)
	}
	// No response at all, including context cancellation, means the request
	// never completed.
	if resp == nil || resp.Response == nil {
		return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}
	if !successful(resp.StatusCode) {
		body := remoteMessage(err)
		if body == "" {
			body = rawBody(resp.Response)
		}
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: body}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrResponseParse, err)
}

func remoteMessage(err error) string {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		msg := errResp.Message
		for _, e := range errResp.Errors {
			msg += "; " + e.Error()
		}
		return msg
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return rateErr.Message
	}
	return err.Error()
}

// rawBody returns the error body go-github could not decode, such as an HTML
// page from a proxy in front of the API.
func rawBody(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// encodingFailed reports whether err comes from encoding the request body,
// in which case nothing was sent.
func encodingFailed(err error) bool {
	var (
		marshalerErr   *json.MarshalerError
		unsupportedTyp *json.UnsupportedTypeError
		unsupportedVal *json.UnsupportedValueError
	)
	return errors.As(err, &marshalerErr) ||
		errors.As(err, &unsupportedTyp) ||
		errors.As(err, &unsupportedVal)
}

func successful(status int) bool {
	return status >= 200 && status < 300
}
