// Package api is the HTTP client for the remote trigger-registry API. It is
// pure request/response plumbing: no retries, no local state beyond the
// connection pool.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moogar0880/problems"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relaykit/relaykit-go/pkg/otelhelper"
)

const (
	defaultTimeout = 30 * time.Second

	// Upstream error bodies are bounded before decoding.
	maxErrorBodySize = 64 * 1024
)

var ErrEmptyClientIdentity = errors.New("registry returned an empty client identity")

// TriggerType describes one trigger type offered by the registry. Config
// holds the JSON schema for the trigger's configuration payload, when the
// integration publishes one.
type TriggerType struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Description string         `json:"description"`
	AppName     string         `json:"appName"`
	Enabled     bool           `json:"enabled"`
	Config      map[string]any `json:"config,omitempty"`
}

// SetupResult is the registry's acknowledgement of a newly enabled trigger.
type SetupResult struct {
	Status    string `json:"status"`
	TriggerID string `json:"triggerId"`
}

// ListTriggersQuery holds the optional filters of the list operation.
// Multi-valued filters are sent comma-joined; empty filters impose no
// constraint.
type ListTriggersQuery struct {
	AppNames            []string
	TriggerIDs          []string
	ConnectedAccountIDs []string
	IntegrationIDs      []string
	ShowEnabledOnly     bool
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With("module", "registry-api"),
	}
}

// ListTriggers returns the trigger type descriptors matching query, in the
// order the registry returns them.
func (c *Client) ListTriggers(ctx context.Context, query ListTriggersQuery) ([]TriggerType, error) {
	params := url.Values{}
	setJoined(params, "appNames", query.AppNames)
	setJoined(params, "triggerIds", query.TriggerIDs)
	setJoined(params, "connectedAccountIds", query.ConnectedAccountIDs)
	setJoined(params, "integrationIds", query.IntegrationIDs)

	if query.ShowEnabledOnly {
		params.Set("showEnabledOnly", strconv.FormatBool(true))
	}

	var descriptors []TriggerType
	if err := c.do(ctx, "api.list_triggers", http.MethodGet, "/triggers", params, nil, &descriptors); err != nil {
		return nil, err
	}

	return descriptors, nil
}

// GetTrigger fetches a single trigger type descriptor by name.
func (c *Client) GetTrigger(ctx context.Context, triggerName string) (*TriggerType, error) {
	var descriptor TriggerType

	path := "/triggers/" + url.PathEscape(triggerName)
	if err := c.do(ctx, "api.get_trigger", http.MethodGet, path, nil, nil, &descriptor); err != nil {
		return nil, err
	}

	return &descriptor, nil
}

// EnableTrigger enables triggerName for a connected account with the given
// configuration payload.
func (c *Client) EnableTrigger(ctx context.Context, connectedAccountID, triggerName string, triggerConfig map[string]any) (*SetupResult, error) {
	body := map[string]any{"triggerConfig": triggerConfig}
	path := "/trigger/" + url.PathEscape(connectedAccountID) + "/" + url.PathEscape(triggerName) + "/enable"

	var result SetupResult
	if err := c.do(ctx, "api.enable_trigger", http.MethodPost, path, nil, body, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// SetInstanceEnabled toggles the enabled flag on an existing trigger
// instance.
func (c *Client) SetInstanceEnabled(ctx context.Context, triggerInstanceID string, enabled bool) (bool, error) {
	body := map[string]any{"enabled": enabled}
	path := "/trigger-instance/" + url.PathEscape(triggerInstanceID)

	if err := c.do(ctx, "api.update_trigger_instance", http.MethodPatch, path, nil, body, nil); err != nil {
		return false, err
	}

	return true, nil
}

// DeleteInstance removes a trigger instance and returns the registry's
// status marker.
func (c *Client) DeleteInstance(ctx context.Context, triggerInstanceID string) (string, error) {
	path := "/trigger-instance/" + url.PathEscape(triggerInstanceID)

	var result struct {
		Status string `json:"status"`
	}

	if err := c.do(ctx, "api.delete_trigger_instance", http.MethodDelete, path, nil, nil, &result); err != nil {
		return "", err
	}

	return result.Status, nil
}

// ClientIdentity resolves the client identity that scopes this API key's
// realtime channel.
func (c *Client) ClientIdentity(ctx context.Context) (string, error) {
	var info struct {
		ClientID string `json:"clientId"`
	}

	if err := c.do(ctx, "api.client_identity", http.MethodGet, "/client/info", nil, nil, &info); err != nil {
		return "", err
	}

	if info.ClientID == "" {
		return "", ErrEmptyClientIdentity
	}

	return info.ClientID, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var bodyReader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request body: %w", op, err)
		}

		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	requestID := uuid.NewString()

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("Accept", "application/json")

	// Correlate the outbound request with the caller's span, if any.
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(otelhelper.RequestIDKey, requestID))

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Calling trigger registry", "op", op, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.remoteError(op, resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	return nil
}

func (c *Client) remoteError(op string, resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		raw = nil
	}

	remote := &RemoteError{Op: op, Status: resp.StatusCode}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/problem+json") {
		var problem problems.Problem
		if err := json.Unmarshal(raw, &problem); err == nil {
			remote.Kind = problem.Type
			remote.Detail = problem.Detail

			return remote
		}
	}

	remote.Detail = strings.TrimSpace(string(raw))

	return remote
}

func setJoined(params url.Values, key string, values []string) {
	if len(values) == 0 {
		return
	}

	params.Set(key, strings.Join(values, ","))
}
