// Package triggers is the core of the SDK: the subscription and filtering
// layer that binds one realtime channel per client identity, plus the
// lifecycle facade over the remote trigger registry.
package triggers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relaykit/relaykit-go/pkg/api"
	"github.com/relaykit/relaykit-go/pkg/otelhelper"
	"github.com/relaykit/relaykit-go/pkg/schema"
	"github.com/relaykit/relaykit-go/pkg/transport"
)

// ListRequest holds the optional filters of List. Empty filters impose no
// constraint.
type ListRequest struct {
	AppNames            []string
	TriggerIDs          []string
	ConnectedAccountIDs []string
	IntegrationIDs      []string
	ShowEnabledOnly     bool
}

// SetupRequest enables a named trigger type for a connected account.
type SetupRequest struct {
	ConnectedAccountID string         `validate:"required"`
	TriggerName        string         `validate:"required"`
	Config             map[string]any `validate:"-"`
}

// Client is the subscriber-facing surface of the SDK. It owns the
// subscription registry and channel binder explicitly; there is no ambient
// process-global state. A Client is safe for concurrent use.
type Client struct {
	api       *api.Client
	registry  *Registry
	binder    *Binder
	transport transport.Transport
	validate  *validator.Validate
	tracer    trace.Tracer
	logger    *slog.Logger

	identityMu     sync.Mutex
	clientIdentity string
}

func NewClient(apiClient *api.Client, tr transport.Transport, logger *slog.Logger) *Client {
	registry := NewRegistry(logger)

	return &Client{
		api:       apiClient,
		registry:  registry,
		binder:    NewBinder(tr, registry, logger),
		transport: tr,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		tracer:    otel.Tracer("relaykit.triggers"),
		logger:    logger.With("module", "triggers"),
	}
}

// List returns the trigger type descriptors matching req, preserving the
// registry's order. ShowEnabledOnly is both passed upstream and enforced
// locally, so a registry that ignores the flag still yields a correct
// result.
func (c *Client) List(ctx context.Context, req ListRequest) ([]api.TriggerType, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "triggers.list")
	defer span.End()

	descriptors, err := c.api.ListTriggers(ctx, api.ListTriggersQuery{
		AppNames:            req.AppNames,
		TriggerIDs:          req.TriggerIDs,
		ConnectedAccountIDs: req.ConnectedAccountIDs,
		IntegrationIDs:      req.IntegrationIDs,
		ShowEnabledOnly:     req.ShowEnabledOnly,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if !req.ShowEnabledOnly {
		return descriptors, nil
	}

	enabled := make([]api.TriggerType, 0, len(descriptors))

	for _, descriptor := range descriptors {
		if descriptor.Enabled {
			enabled = append(enabled, descriptor)
		}
	}

	return enabled, nil
}

// Setup enables a trigger type for a connected account. When the trigger's
// descriptor advertises a config schema, the payload is validated against it
// before the remote call.
func (c *Client) Setup(ctx context.Context, req SetupRequest) (*api.SetupResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "triggers.setup",
		attribute.String(otelhelper.TriggerNameKey, req.TriggerName),
		attribute.String(otelhelper.ConnectedAccountKey, req.ConnectedAccountID),
	)
	defer span.End()

	if err := c.validate.Struct(req); err != nil {
		return nil, NewValidationError("triggers.setup", err)
	}

	descriptor, err := c.api.GetTrigger(ctx, req.TriggerName)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := schema.ValidateConfig(descriptor.Config, req.Config); err != nil {
		return nil, &ValidationError{Op: "triggers.setup", Fields: []string{"Config"}, Err: err}
	}

	result, err := c.api.EnableTrigger(ctx, req.ConnectedAccountID, req.TriggerName, req.Config)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	c.logger.Info("Trigger enabled",
		"trigger_name", req.TriggerName,
		"connected_account_id", req.ConnectedAccountID,
		"trigger_id", result.TriggerID)

	return result, nil
}

// Enable turns an existing trigger instance on.
func (c *Client) Enable(ctx context.Context, triggerInstanceID string) (bool, error) {
	return c.setInstanceEnabled(ctx, "triggers.enable", triggerInstanceID, true)
}

// Disable turns an existing trigger instance off.
func (c *Client) Disable(ctx context.Context, triggerInstanceID string) (bool, error) {
	return c.setInstanceEnabled(ctx, "triggers.disable", triggerInstanceID, false)
}

func (c *Client) setInstanceEnabled(ctx context.Context, op, triggerInstanceID string, enabled bool) (bool, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, op,
		attribute.String(otelhelper.TriggerInstanceIDKey, triggerInstanceID),
	)
	defer span.End()

	if triggerInstanceID == "" {
		return false, &ValidationError{Op: op, Fields: []string{"TriggerInstanceID"}, Err: ErrMissingInstanceID}
	}

	ok, err := c.api.SetInstanceEnabled(ctx, triggerInstanceID, enabled)
	if err != nil {
		otelhelper.SetError(span, err)

		return false, err
	}

	return ok, nil
}

// Delete removes a trigger instance and returns the registry's status
// marker.
func (c *Client) Delete(ctx context.Context, triggerInstanceID string) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "triggers.delete",
		attribute.String(otelhelper.TriggerInstanceIDKey, triggerInstanceID),
	)
	defer span.End()

	if triggerInstanceID == "" {
		return "", &ValidationError{Op: "triggers.delete", Fields: []string{"TriggerInstanceID"}, Err: ErrMissingInstanceID}
	}

	status, err := c.api.DeleteInstance(ctx, triggerInstanceID)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	return status, nil
}

// Subscribe registers callback for this client's trigger events, binding the
// realtime channel on first use. At most one subscription is live per client
// identity: a second call replaces the first (last-writer-wins). An optional
// single filter narrows the delivered events; omitted, every event matches.
// Subscribe blocks until identity resolution and channel establishment
// complete; events arriving earlier are missed, not buffered.
func (c *Client) Subscribe(ctx context.Context, callback Callback, filters ...Criteria) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "triggers.subscribe")
	defer span.End()

	if callback == nil {
		return ErrMissingCallback
	}

	var filter Criteria
	if len(filters) > 0 {
		filter = filters[0]
	}

	clientIdentity, err := c.resolveIdentity(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to resolve client identity: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.ClientIdentityKey, clientIdentity))

	if err := c.binder.EnsureChannel(ctx, clientIdentity); err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	c.registry.Register(clientIdentity, filter, callback)
	c.logger.Info("Subscribed to trigger events", "client_identity", clientIdentity)

	return nil
}

// Unsubscribe drops the live subscription and releases the channel binding.
// Idempotent: calling it without a live subscription is a no-op.
func (c *Client) Unsubscribe(ctx context.Context) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "triggers.unsubscribe")
	defer span.End()

	clientIdentity, err := c.resolveIdentity(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to resolve client identity: %w", err)
	}

	c.registry.Clear(clientIdentity)

	if err := c.binder.ReleaseChannel(clientIdentity); err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	c.logger.Info("Unsubscribed from trigger events", "client_identity", clientIdentity)

	return nil
}

// Close releases every channel binding and closes the realtime transport.
// The Client is unusable afterwards.
func (c *Client) Close() error {
	if err := c.binder.ReleaseAll(); err != nil {
		c.logger.Warn("Failed to release channel bindings", "error", err)
	}

	return c.transport.Close()
}

// resolveIdentity fetches the client identity on first use and caches it;
// the identity is stable for the lifetime of an API key.
func (c *Client) resolveIdentity(ctx context.Context) (string, error) {
	c.identityMu.Lock()
	defer c.identityMu.Unlock()

	if c.clientIdentity != "" {
		return c.clientIdentity, nil
	}

	clientIdentity, err := c.api.ClientIdentity(ctx)
	if err != nil {
		return "", err
	}

	c.clientIdentity = clientIdentity

	return clientIdentity, nil
}
