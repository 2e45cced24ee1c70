package lightnode

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/warpgate-labs/xcs-portal/entities"
	"github.com/warpgate-labs/xcs-portal/utils"
)

// Client is a point-to-point JSON-RPC client for one lightnode. It carries
// no retry policy; retries belong to the group and the coordinator.
type Client struct {
	multiAddress string
	identity     string
	rpcClient    *utils.HttpClient
}

// IdentityFromMultiAddress extracts the node identity suffix from a
// multi-address descriptor, e.g.
// "/ip4/3.88.22.140/tcp/18514/ren/8MHnA2HRUsfBCwPCzyC2a1tGkWUvhR" or a plain
// URL. The last path segment is the identity.
func IdentityFromMultiAddress(multiAddress string) string {
	trimmed := strings.TrimRight(multiAddress, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}

// NewClient builds a client for one lightnode endpoint. url is the HTTP
// endpoint to POST to; multiAddress names the node and supplies its
// identity.
func NewClient(multiAddress string, url string, timeout time.Duration) *Client {
	if url == "" {
		url = multiAddress
	}
	return &Client{
		multiAddress: multiAddress,
		identity:     IdentityFromMultiAddress(multiAddress),
		rpcClient:    utils.NewHttpClient(url, timeout),
	}
}

func (c *Client) Identity() string {
	return c.identity
}

func (c *Client) MultiAddress() string {
	return c.multiAddress
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body, err := c.rpcClient.CallRaw(ctx, method, params)
	if err != nil {
		return &TransportError{Node: c.identity, Err: err}
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &DecodeError{Node: c.identity, Err: err}
	}
	return nil
}

// SendMessage submits one request to the node and returns the node's
// assigned messageID.
func (c *Client) SendMessage(ctx context.Context, request *entities.SendMessageRequest) (*entities.SendMessageResult, error) {
	var res entities.SendMessageRes
	if err := c.call(ctx, "ren_sendMessage", request, &res); err != nil {
		return nil, err
	}
	if res.RPCError != nil {
		return nil, &ProtocolError{Node: c.identity, RPCError: *res.RPCError}
	}
	if res.Result == nil {
		return nil, &DecodeError{Node: c.identity, Err: errMissingResult}
	}
	return res.Result, nil
}

// ReceiveMessage polls for the asynchronously-produced result keyed by
// messageID. A pending result surfaces as ErrNotReady, not a hard failure.
func (c *Client) ReceiveMessage(ctx context.Context, messageID string) (*entities.ReceiveMessageResult, error) {
	request := entities.ReceiveMessageRequest{MessageID: messageID}
	var res entities.ReceiveMessageRes
	if err := c.call(ctx, "ren_receiveMessage", request, &res); err != nil {
		return nil, err
	}
	if res.RPCError != nil {
		return nil, &ProtocolError{Node: c.identity, RPCError: *res.RPCError}
	}
	if res.Result == nil {
		return nil, &DecodeError{Node: c.identity, Err: errMissingResult}
	}
	return res.Result, nil
}

// QueryHealth probes the node's liveness and metadata. Diagnostics only.
func (c *Client) QueryHealth(ctx context.Context) (*entities.HealthResult, error) {
	var res entities.HealthRes
	if err := c.call(ctx, "ren_queryHealth", nil, &res); err != nil {
		return nil, err
	}
	if res.RPCError != nil {
		return nil, &ProtocolError{Node: c.identity, RPCError: *res.RPCError}
	}
	if res.Result == nil {
		return nil, &DecodeError{Node: c.identity, Err: errMissingResult}
	}
	return res.Result, nil
}

// QueryPeers asks the node for the multi-addresses of its peers, used by
// group bootstrap.
func (c *Client) QueryPeers(ctx context.Context) (*entities.PeersResult, error) {
	var res entities.PeersRes
	if err := c.call(ctx, "ren_queryPeers", nil, &res); err != nil {
		return nil, err
	}
	if res.RPCError != nil {
		return nil, &ProtocolError{Node: c.identity, RPCError: *res.RPCError}
	}
	if res.Result == nil {
		return nil, &DecodeError{Node: c.identity, Err: errMissingResult}
	}
	return res.Result, nil
}
