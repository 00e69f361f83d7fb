/*
Package projector – JSON over HTTP transport.

Requests are POSTed as AWS JSON 1.1 style calls: the operation goes in the
X-Amz-Target header and the projected tree is the body.
*/
package projector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/hashicorp/go-cleanhttp"
)

const amzJSONContentType = "application/x-amz-json-1.1"

// HTTPTransport sends requests to a single endpoint. It never retries.
type HTTPTransport struct {
	Endpoint     string
	TargetPrefix string       // X-Amz-Target is "<TargetPrefix>.<operation>"
	Header       http.Header  // extra headers, e.g. authorization
	Client       *http.Client // nil → cleanhttp default client
}

// ServiceError is a non-2xx answer from the endpoint.
type ServiceError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ServiceError satisfies smithy.APIError so it is reported like SDK errors.
func (e *ServiceError) ErrorCode() string    { return e.Type }
func (e *ServiceError) ErrorMessage() string { return e.Message }

func (e *ServiceError) ErrorFault() smithy.ErrorFault {
	switch {
	case e.StatusCode >= 500:
		return smithy.FaultServer
	case e.StatusCode >= 400:
		return smithy.FaultClient
	}
	return smithy.FaultUnknown
}

func (t HTTPTransport) Invoke(ctx context.Context, operation string, req Request) (any, error) {
	if t.Endpoint == "" {
		return nil, argError("HTTPTransport has no endpoint configured")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, NewError("cannot encode request", WithCode(ErrArgument), WithCause(err))
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range t.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("Content-Type", amzJSONContentType)
	target := operation
	if t.TargetPrefix != "" {
		target = t.TargetPrefix + "." + operation
	}
	hreq.Header.Set("X-Amz-Target", target)

	client := t.Client
	if client == nil {
		client = cleanhttp.DefaultClient()
	}
	resp, err := client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeServiceError(resp.StatusCode, data)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot decode response: %w", err)
	}
	return out, nil
}

// decodeServiceError reads the {"__type": ..., "message": ...} error body.
// The type may carry a namespace prefix ("ns#Type"), which is dropped.
func decodeServiceError(status int, data []byte) *ServiceError {
	se := &ServiceError{StatusCode: status}
	var body struct {
		Type       string `json:"__type"`
		Message    string `json:"message"`
		MessageAlt string `json:"Message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		se.Message = strings.TrimSpace(string(data))
		return se
	}
	se.Type = body.Type
	if i := strings.LastIndexByte(se.Type, '#'); i >= 0 {
		se.Type = se.Type[i+1:]
	}
	se.Message = body.Message
	if se.Message == "" {
		se.Message = body.MessageAlt
	}
	return se
}
