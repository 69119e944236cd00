// Package longport is a client for the Longport OpenAPI trade endpoints and
// the normalization of its trade and cash flow histories into replayable
// events.
package longport

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://openapi.longportapp.com"

// rateLimitedCode is the OpenAPI error code returned when requests come in
// faster than the account's quota.
const rateLimitedCode = 429002

// Environment variables read by ConfigFromEnv, same names as the official
// SDKs so existing credentials keep working.
const (
	EnvAppKey      = "LONGPORT_APP_KEY"
	EnvAppSecret   = "LONGPORT_APP_SECRET"
	EnvAccessToken = "LONGPORT_ACCESS_TOKEN"
)

// Config holds the OpenAPI credentials.
type Config struct {
	AppKey      string
	AppSecret   string
	AccessToken string
	BaseURL     string // DefaultBaseURL when empty
}

// ConfigFromEnv reads the credentials from the environment.
func ConfigFromEnv() Config {
	return Config{
		AppKey:      os.Getenv(EnvAppKey),
		AppSecret:   os.Getenv(EnvAppSecret),
		AccessToken: os.Getenv(EnvAccessToken),
	}
}

func (c Config) validate() error {
	if c.AppKey == "" || c.AppSecret == "" || c.AccessToken == "" {
		return fmt.Errorf("missing Longport credentials: set %s, %s and %s", EnvAppKey, EnvAppSecret, EnvAccessToken)
	}
	return nil
}

// Client calls the Longport OpenAPI. Responses are cached on disk for a day
// and requests are paced by a local limiter so history downloads do not trip
// the broker's quota.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient returns a client for the given credentials.
func NewClient(config Config) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	return &Client{
		config:  config,
		client:  newDailyCachingClient(),
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}, nil
}

// apiError is the non-zero code of an OpenAPI response envelope.
type apiError struct {
	Code    int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("longport api error %d: %s", e.Code, e.Message)
}

// get performs an authenticated GET on path and returns the decoded "data"
// member of the response envelope. It waits on the limiter first and retries
// with a pause whenever the API answers the rate-limit code.
func (c *Client) get(ctx context.Context, path string, query url.Values) (any, error) {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		data, err := c.getOnce(ctx, path, query)
		var aerr *apiError
		if isAPIError(err, &aerr) && aerr.Code == rateLimitedCode {
			log.Printf("longport: rate limited on %s, pausing", path)
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return data, err
	}
}

func isAPIError(err error, target **apiError) bool {
	aerr, ok := err.(*apiError)
	if ok {
		*target = aerr
	}
	return ok
}

func (c *Client) getOnce(ctx context.Context, path string, query url.Values) (any, error) {
	addr := c.config.BaseURL + path
	if len(query) > 0 {
		addr += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	c.sign(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("cannot decode %v/%v response: %w", resp.Request.URL.Host, resp.Request.URL.Path, err)
	}
	if envelope.Code != 0 {
		return nil, &apiError{Code: envelope.Code, Message: envelope.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	var data any
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("cannot decode %v/%v data: %w", resp.Request.URL.Host, resp.Request.URL.Path, err)
	}
	return data, nil
}

// sign adds the OpenAPI authentication headers: app key, access token,
// timestamp and an HMAC-SHA256 signature of the request line keyed with the
// app secret.
func (c *Client) sign(req *http.Request) {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Api-Key", c.config.AppKey)
	req.Header.Set("Authorization", c.config.AccessToken)
	req.Header.Set("X-Timestamp", ts)

	payload := fmt.Sprintf("%s|%s|%s|authorization:%s;x-api-key:%s;x-timestamp:%s",
		req.Method, req.URL.Path, req.URL.RawQuery, c.config.AccessToken, c.config.AppKey, ts)
	mac := hmac.New(sha256.New, []byte(c.config.AppSecret))
	mac.Write([]byte(payload))
	req.Header.Set("X-Api-Signature", "HMAC-SHA256 Signature="+hex.EncodeToString(mac.Sum(nil)))
}

// dig extracts a jsonpath from a decoded response, tolerating both a single
// value and a one-element list answer.
func dig(data any, path string) (any, error) {
	jval, err := jsonpath.Get(path, data)
	if err != nil {
		return nil, fmt.Errorf("cannot dig %q: %w", path, err)
	}
	return jval, nil
}

// jstring reads a string member of a decoded JSON object, "" when absent.
func jstring(obj any, key string) string {
	m, ok := obj.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
