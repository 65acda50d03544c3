// Package vk implements a rate-limited client for the VK JSON API. Every
// call carries the access token and API version; transport faults are waited
// out indefinitely, while a decoded API error aborts the run.
package vk

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"vkstats/pkg/errors"
	"vkstats/pkg/logger"
	"vkstats/pkg/retry"
)

// APIError is the provider's decoded error envelope.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// envelope is the provider's response wrapper: exactly one of Response and
// Error is set on a decodable payload.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

// Options configure the API client.
type Options struct {
	// BaseURL is the API host, e.g. https://api.vk.com.
	BaseURL string
	// Version is the API version string appended to every call.
	Version string
	// CallInterval is the unconditional pause after every successful
	// call, keeping the client under the provider's call-rate ceiling.
	CallInterval time.Duration
	// RetryDelay is the fixed pause between transport retries.
	RetryDelay time.Duration
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// Client issues JSON calls against the VK API. It must be used strictly
// sequentially: the rate limiter is not reentrant and the whole pipeline is
// synchronous by design.
type Client struct {
	http     *resty.Client
	token    string
	version  string
	limiter  *rate.Limiter
	retryCfg *retry.Config
	logger   logger.Logger
}

// NewClient creates a VK API client for the given access token.
func NewClient(token string, opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.vk.com"
	}
	if opts.CallInterval == 0 {
		opts.CallInterval = 330 * time.Millisecond
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 10 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout)

	limiter := rate.NewLimiter(rate.Every(opts.CallInterval), 1)
	// Drain the initial token so the spacing applies from the first call.
	limiter.Allow()

	return &Client{
		http:     httpClient,
		token:    token,
		version:  opts.Version,
		limiter:  limiter,
		retryCfg: retry.TransportConfig(opts.RetryDelay, log),
		logger:   log,
	}
}

// SetRetryConfig replaces the transport retry policy. Tests inject a
// zero-delay policy here.
func (c *Client) SetRetryConfig(cfg *retry.Config) {
	c.retryCfg = cfg
}

// Call invokes an API method with the given parameters, implicitly adding
// the access token and API version. Transport failures are retried forever
// with a fixed delay; a decoded error envelope is fatal and propagated with
// the provider's code and message.
func (c *Client) Call(ctx context.Context, method string, params map[string]string) (json.RawMessage, error) {
	form := make(map[string]string, len(params)+2)
	for k, v := range params {
		form[k] = v
	}
	form["access_token"] = c.token
	form["v"] = c.version

	c.logger.DebugWithFields("calling API method", map[string]interface{}{
		"method": method,
	})

	cfg := *c.retryCfg
	cfg.Context = ctx

	body, err := retry.DoWithResult(func() ([]byte, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetFormData(form).
			Post("/method/" + method)
		if err != nil {
			return nil, errors.Newf(errors.ErrorTypeNetwork, "calling %s: %v", method, err)
		}
		if resp.StatusCode() != 200 {
			return nil, errors.NewWithCode(errors.ErrorTypeNetwork, resp.StatusCode(),
				"unexpected HTTP status from "+method)
		}
		return resp.Body(), nil
	}, &cfg)
	if err != nil {
		return nil, err
	}

	var result envelope
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Newf(errors.ErrorTypeParsing, "decoding %s response: %v", method, err)
	}

	if result.Error != nil {
		c.logger.ErrorWithFields("API returned an error", map[string]interface{}{
			"method":     method,
			"error_code": result.Error.Code,
			"error_msg":  result.Error.Message,
		})
		return nil, errors.NewWithCode(errors.ErrorTypeAPI, result.Error.Code, result.Error.Message)
	}

	// Unconditional spacing after every successful call.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return result.Response, nil
}

// CallInto invokes an API method and decodes the response payload into out.
func (c *Client) CallInto(ctx context.Context, method string, params map[string]string, out interface{}) error {
	response, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(response, out); err != nil {
		return errors.Newf(errors.ErrorTypeParsing, "decoding %s payload: %v", method, err)
	}
	return nil
}
