/*
Package projector – Client type.

A Client ties a Registry of compiled operations to one Transport: it
projects the inputs, sends the request once and selects from the response.
*/
package projector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"
	"github.com/gofrs/uuid/v5"
)

// Transport sends one assembled request and returns the service's response.
// Retries, throttling and authentication are the transport's business.
type Transport interface {
	Invoke(ctx context.Context, operation string, req Request) (any, error)
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, operation string, req Request) (any, error)

func (f TransportFunc) Invoke(ctx context.Context, operation string, req Request) (any, error) {
	return f(ctx, operation, req)
}

// MonitorFunc is an optional hook called after each invocation, failed or not.
type MonitorFunc func(result *Result, err error)

// ClientParams configures a Client.
type ClientParams struct {
	Registry  *Registry
	Transport Transport
	Logger    Logger // nil → hclog-backed default
	Verbose   bool   // default logger only: also log trace/data
	Mode      Mode   // Strict (default) or Lenient
	Monitor   MonitorFunc
}

// Client invokes operations from a Registry through a Transport.
type Client struct {
	registry  *Registry
	transport Transport
	log       Logger
	mode      Mode
	monitor   MonitorFunc
}

// Result describes one completed invocation.
type Result struct {
	ID        string
	Operation string
	Request   Request
	Response  any
	Output    any // Response after selection
	Duration  time.Duration
}

// NewClient validates params and builds a Client.
func NewClient(params ClientParams) (*Client, error) {
	if params.Registry == nil {
		return nil, argError(`missing "Registry"`)
	}
	if params.Transport == nil {
		return nil, argError(`missing "Transport"`)
	}
	c := &Client{
		registry:  params.Registry,
		transport: params.Transport,
		mode:      params.Mode,
		monitor:   params.Monitor,
	}
	if params.Logger != nil {
		c.log = params.Logger
	} else {
		c.log = NewLogger(LogOptions{Verbose: params.Verbose})
	}
	return c, nil
}

// Registry returns the client's registry.
func (c *Client) Registry() *Registry { return c.registry }

// Project assembles the request for operation without sending it.
func (c *Client) Project(operation string, inputs Inputs) (Request, error) {
	schema, err := c.registry.Operation(operation)
	if err != nil {
		return nil, err
	}
	return c.project(schema, inputs)
}

func (c *Client) project(schema *Schema, inputs Inputs) (Request, error) {
	if c.mode == Lenient {
		if unknown := UnknownInputs(schema, inputs); len(unknown) > 0 {
			c.log.Trace("Ignoring unknown inputs", map[string]any{"operation": schema.Name(), "inputs": unknown})
		}
	}
	return Project(schema, inputs, WithMode(c.mode))
}

// Invoke projects inputs into a request for operation, sends it through the
// transport exactly once and applies sel to the response. Nothing is sent
// when projection fails, an echoed input is missing or ctx is already done.
func (c *Client) Invoke(ctx context.Context, operation string, inputs Inputs, sel Selection) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	res := &Result{ID: invocationID(), Operation: operation}
	logCtx := map[string]any{"id": res.ID, "operation": operation}

	err := c.invoke(ctx, res, inputs, sel, logCtx)
	res.Duration = time.Since(start)
	if err != nil {
		c.log.Error(fmt.Sprintf("Invocation of %q failed", operation), withErr(logCtx, err))
	} else {
		c.log.Trace(fmt.Sprintf("Invocation of %q done", operation),
			merge(logCtx, map[string]any{"duration": res.Duration.String()}))
	}
	if c.monitor != nil {
		c.monitor(res, err)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) invoke(ctx context.Context, res *Result, inputs Inputs, sel Selection, logCtx map[string]any) error {
	schema, err := c.registry.Operation(res.Operation)
	if err != nil {
		return err
	}
	req, err := c.project(schema, inputs)
	if err != nil {
		return err
	}
	res.Request = req
	c.log.Data("Assembled request", merge(logCtx, map[string]any{"request": schema.Redact(req)}))

	// an echo never needs the response, so a missing input fails before sending
	if sel.Kind == SelectInput {
		if _, err := Select(sel, nil, inputs); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.log.Info(fmt.Sprintf("Invoking %q", res.Operation), logCtx)
	resp, err := c.transport.Invoke(ctx, res.Operation, req)
	if err != nil {
		return transportError(res.Operation, err)
	}
	res.Response = resp
	c.log.Data("Response", merge(logCtx, map[string]any{"response": schema.Redact(resp)}))

	out, err := Select(sel, resp, inputs)
	if err != nil {
		return err
	}
	res.Output = out
	return nil
}

// transportError keeps the transport's error as-is, tagged for reporting.
func transportError(operation string, err error) error {
	ctx := map[string]any{"operation": operation}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ctx["code"] = apiErr.ErrorCode()
		ctx["fault"] = apiErr.ErrorFault().String()
	}
	return NewError(err.Error(), WithCode(ErrTransport), WithCause(err), WithContext(ctx))
}

func invocationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}

func merge(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func withErr(ctx map[string]any, err error) map[string]any {
	out := merge(ctx, map[string]any{"error": err.Error()})
	if code := CodeOf(err); code != "" {
		out["code"] = string(code)
	}
	return out
}
