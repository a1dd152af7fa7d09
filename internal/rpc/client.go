package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region types
// Result holds the response from a Respond RPC call.
type Result struct {
	ASL      string            `json:"asl"`
	Sentence string            `json:"sentence"`
	Intent   string            `json:"intent"`
	Slots    map[string]string `json:"slots"`
	Template string            `json:"template"`
}

// #endregion types

// #region client-struct
// Client wraps the gRPC connection to an Interpreter service.
type Client struct {
	conn grpc.ClientConnInterface
	own  *grpc.ClientConn
}

// #endregion client-struct

// #region constructor
// NewClient connects to the Interpreter gRPC server at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, own: conn}, nil
}

// NewClientWithConn creates a Client over an existing connection, which the
// caller keeps ownership of.
func NewClientWithConn(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// #endregion constructor

// #region close
// Close shuts down a connection created by NewClient.
func (c *Client) Close() error {
	if c.own == nil {
		return nil
	}
	return c.own.Close()
}

// #endregion close

// #region respond
// Respond asks the service for a sentence for segmented words.
func (c *Client) Respond(ctx context.Context, words []string) (Result, error) {
	list := make([]interface{}, len(words))
	for i, w := range words {
		list[i] = w
	}
	req, err := structpb.NewStruct(map[string]interface{}{"aslWords": list})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}
	return c.invoke(ctx, req)
}

// RespondGloss asks the service for a sentence for free-text gloss.
func (c *Client) RespondGloss(ctx context.Context, gloss string) (Result, error) {
	req, err := structpb.NewStruct(map[string]interface{}{"gloss": gloss})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}
	return c.invoke(ctx, req)
}

func (c *Client) invoke(ctx context.Context, req *structpb.Struct) (Result, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, respondMethod, req, resp); err != nil {
		return Result{}, fmt.Errorf("respond rpc: %w", err)
	}
	f := resp.GetFields()
	res := Result{
		ASL:      f["asl"].GetStringValue(),
		Sentence: f["sentence"].GetStringValue(),
		Intent:   f["intent"].GetStringValue(),
		Template: f["template"].GetStringValue(),
		Slots:    map[string]string{},
	}
	for k, v := range f["slots"].GetStructValue().GetFields() {
		res.Slots[k] = v.GetStringValue()
	}
	return res, nil
}

// #endregion respond
