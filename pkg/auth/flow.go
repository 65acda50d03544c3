// Package auth implements the browser-less VK sign-in flow: it walks the
// provider's form-based OAuth implicit flow with a cookie-carrying HTTP
// session, replays the credential and consent forms, and extracts the access
// token from the final redirect fragment.
package auth

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"vkstats/pkg/errors"
	"vkstats/pkg/htmlform"
	"vkstats/pkg/logger"
)

const (
	// landingPath is the fixed redirect target path whose presence in the
	// current URL signals sign-in completion.
	landingPath = "/blank.html"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// Credentials are the caller-supplied VK account credentials.
type Credentials struct {
	Login    string
	Password string
}

// Token is the result of a completed sign-in flow. The access token is all
// the API client needs; the user id identifies the signed-in subject.
type Token struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// FlowOptions configure the sign-in flow endpoints.
type FlowOptions struct {
	// AuthorizeURL is the provider's OAuth authorize endpoint.
	AuthorizeURL string
	// RedirectURI is the fixed redirect target; its path is the landing
	// path checked for flow completion.
	RedirectURI string
	// ClientID is the registered application id.
	ClientID int
	// Scope is the list of requested access scopes, comma-joined on the
	// wire.
	Scope []string
	// Timeout bounds each HTTP request of the flow.
	Timeout time.Duration
}

// Flow drives the two-step external web sign-in sequence. The embedded
// session (cookies) is owned exclusively by the flow and discarded with it.
type Flow struct {
	http    *resty.Client
	opts    FlowOptions
	landing string
	logger  logger.Logger
}

// NewFlow creates a sign-in flow with a fresh cookie-carrying session.
func NewFlow(opts FlowOptions, log logger.Logger) (*Flow, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	redirect, err := url.Parse(opts.RedirectURI)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeConfig, "invalid redirect URI: %v", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := resty.New().
		SetCookieJar(jar).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", userAgent)

	return &Flow{
		http:    client,
		opts:    opts,
		landing: redirect.Path,
		logger:  log,
	}, nil
}

// Login performs the full sign-in sequence and returns the extracted token.
// Every failure is fatal for the flow: a markup or protocol mismatch means
// the provider changed incompatibly and retrying would not help.
func (f *Flow) Login(ctx context.Context, creds Credentials) (*Token, error) {
	doc, _, err := f.requestAuthorizePage(ctx)
	if err != nil {
		return nil, err
	}

	doc, finalURL, err := f.submitCredentials(ctx, doc, creds)
	if err != nil {
		return nil, err
	}

	if finalURL.Path != f.landing {
		// Need to grant access to the requested scope
		finalURL, err = f.submitConsent(ctx, doc)
		if err != nil {
			return nil, err
		}
		if finalURL.Path != f.landing {
			return nil, errors.New(errors.ErrorTypeAuth, "consent was not granted by the provider")
		}
	}

	return tokenFromFragment(finalURL.Fragment)
}

// requestAuthorizePage fetches the provider's authorize endpoint, following
// redirects, and returns the credential form document.
func (f *Flow) requestAuthorizePage(ctx context.Context) (string, *url.URL, error) {
	f.logger.DebugWithFields("requesting authorize page", map[string]interface{}{
		"url":       f.opts.AuthorizeURL,
		"client_id": f.opts.ClientID,
	})

	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"redirect_uri":  f.opts.RedirectURI,
			"response_type": "token",
			"client_id":     fmt.Sprintf("%d", f.opts.ClientID),
			"scope":         strings.Join(f.opts.Scope, ","),
			"display":       "wap",
		}).
		Get(f.opts.AuthorizeURL)
	if err != nil {
		return "", nil, errors.Newf(errors.ErrorTypeNetwork, "authorize request failed: %v", err)
	}

	return string(resp.Body()), resp.RawResponse.Request.URL, nil
}

// submitCredentials fills the login form with the caller's credentials and
// submits it, returning the resulting document and final URL.
func (f *Flow) submitCredentials(ctx context.Context, doc string, creds Credentials) (string, *url.URL, error) {
	form, err := htmlform.Extract(doc)
	if err != nil {
		return "", nil, err
	}
	if form.Action == "" || !form.Fields.Has("email") || !form.Fields.Has("pass") {
		return "", nil, errors.New(errors.ErrorTypeAuth, "authorize page does not contain a credential form")
	}

	form.Fields.Set("email", creds.Login)
	form.Fields.Set("pass", creds.Password)

	f.logger.Debug("submitting credentials")
	return f.submitForm(ctx, form)
}

// submitConsent replays the scope-grant form unchanged and returns the final
// URL after redirects.
func (f *Flow) submitConsent(ctx context.Context, doc string) (*url.URL, error) {
	form, err := htmlform.Extract(doc)
	if err != nil {
		return nil, err
	}
	if form.Action == "" {
		return nil, errors.New(errors.ErrorTypeAuth, "consent page does not contain a form")
	}

	f.logger.Debug("granting access to requested scope")
	_, finalURL, err := f.submitForm(ctx, form)
	return finalURL, err
}

// submitForm posts the form's fields to its action URL. Only POST forms are
// supported; the provider's flow has never used anything else.
func (f *Flow) submitForm(ctx context.Context, form *htmlform.Form) (string, *url.URL, error) {
	if form.Method != "POST" {
		return "", nil, errors.Newf(errors.ErrorTypeUnsupported, "form method %q is not supported", form.Method)
	}

	resp, err := f.http.R().
		SetContext(ctx).
		SetFormData(form.Fields.Map()).
		Post(form.Action)
	if err != nil {
		return "", nil, errors.Newf(errors.ErrorTypeNetwork, "form submission failed: %v", err)
	}

	return string(resp.Body()), resp.RawResponse.Request.URL, nil
}

// tokenFromFragment parses the redirect fragment as &-separated key=value
// pairs and requires both token fields to be present.
func tokenFromFragment(fragment string) (*Token, error) {
	values := make(map[string]string)
	for _, pair := range strings.Split(fragment, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		values[key] = value
	}

	accessToken, hasToken := values["access_token"]
	userID, hasUserID := values["user_id"]
	if !hasToken || !hasUserID {
		return nil, errors.New(errors.ErrorTypeAuth, "redirect fragment is missing token fields")
	}

	return &Token{AccessToken: accessToken, UserID: userID}, nil
}
