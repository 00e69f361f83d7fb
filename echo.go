package projector

import "context"

// EchoTransport answers every request with the request itself. It backs
// dry runs: the "response" is exactly what would have been sent.
type EchoTransport struct{}

func (EchoTransport) Invoke(ctx context.Context, _ string, req Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return req, nil
}
