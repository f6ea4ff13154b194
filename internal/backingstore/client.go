package backingstore

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/rzbill/fluxstate/internal/statereader"
)

// getDataMethod is the fully-qualified RPC method name invoked directly via
// conn.Invoke, bypassing a generated client stub.
const getDataMethod = "/fluxstate.backingstore.v1.BackingStore/GetData"

// Client implements statereader.BackingStore over a gRPC connection to a
// remote backing-store process, encoding requests/responses with the JSON
// codec registered in jsoncodec.go.
type Client struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewClient constructs a Client using the provided dialer. Construction
// never blocks on the network: every GetData call dials its own connection
// and closes it when the call returns.
func NewClient(dial func(ctx context.Context) (*grpc.ClientConn, error)) *Client {
	return &Client{dial: dial}
}

// DialTarget returns a dialer that creates a grpc.ClientConn for target
// with opts; transport credentials must be supplied in opts. The dialer's
// ctx argument is not used, since grpc.NewClient connects lazily.
func DialTarget(target string, opts ...grpc.DialOption) func(ctx context.Context) (*grpc.ClientConn, error) {
	return func(ctx context.Context) (*grpc.ClientConn, error) {
		return grpc.NewClient(target, opts...)
	}
}

// GetData implements statereader.BackingStore.
func (c *Client) GetData(ctx context.Context, req statereader.Request) (*statereader.Response, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("backingstore: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var resp statereader.Response
	if err := conn.Invoke(ctx, getDataMethod, &req, &resp, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, fmt.Errorf("backingstore: GetData: %w", err)
	}
	return &resp, nil
}
