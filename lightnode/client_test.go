package lightnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warpgate-labs/xcs-portal/entities"
)

func fakeLightnodeServer(t *testing.T, handler func(method string, params json.RawMessage) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprint(w, handler(req.Method, req.Params))
	}))
}

func TestIdentityFromMultiAddress(t *testing.T) {
	cases := []struct {
		multiAddress string
		expected     string
	}{
		{"/ip4/3.88.22.140/tcp/18514/ren/8MHnA2HRUsfBCwPCzyC2a1tGkWUvhR", "8MHnA2HRUsfBCwPCzyC2a1tGkWUvhR"},
		{"https://lightnode.example.com/8MJpA1rXYMPTeJoYjsFBHJcuYBe7zP", "8MJpA1rXYMPTeJoYjsFBHJcuYBe7zP"},
		{"8MHnA2HRUsfBCwPCzyC2a1tGkWUvhR", "8MHnA2HRUsfBCwPCzyC2a1tGkWUvhR"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, IdentityFromMultiAddress(c.multiAddress))
	}
}

func TestClientSendMessage(t *testing.T) {
	server := fakeLightnodeServer(t, func(method string, params json.RawMessage) string {
		require.Equal(t, "ren_sendMessage", method)
		var req entities.SendMessageRequest
		require.NoError(t, json.Unmarshal(params, &req))
		require.Equal(t, "WarpGate", req.To)
		require.Equal(t, "MintZBTC", req.Payload.Method)
		return `{"jsonrpc":"2.0","id":1,"result":{"messageID":"m1","ok":true}}`
	})
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	result, err := client.SendMessage(context.Background(), &entities.SendMessageRequest{
		Nonce:     7,
		To:        "WarpGate",
		Signature: "",
		Payload: entities.Payload{
			Method: "MintZBTC",
			Args:   []entities.Arg{{Name: "uid", Type: "public", Value: "abc"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "m1", result.MessageID)
	require.True(t, result.Ok)
}

func TestClientReceiveMessageNotReady(t *testing.T) {
	server := fakeLightnodeServer(t, func(method string, params json.RawMessage) string {
		require.Equal(t, "ren_receiveMessage", method)
		return `{"jsonrpc":"2.0","version":"0.1","error":{"code":-32603,"message":"result not available"},"id":1}`
	})
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.ReceiveMessage(context.Background(), "m1")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotReady))

	var protocolErr *ProtocolError
	require.True(t, errors.As(err, &protocolErr))
}

func TestClientReceiveMessageProtocolError(t *testing.T) {
	server := fakeLightnodeServer(t, func(method string, params json.RawMessage) string {
		return `{"jsonrpc":"2.0","error":{"code":-32000,"message":"unknown messageID"},"id":1}`
	})
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.ReceiveMessage(context.Background(), "m1")
	require.Error(t, err)

	// A generic protocol error is not a wait state.
	require.False(t, errors.Is(err, ErrNotReady))
	var protocolErr *ProtocolError
	require.True(t, errors.As(err, &protocolErr))
	require.Equal(t, -32000, protocolErr.RPCError.Code)
}

func TestClientReceiveMessageSignature(t *testing.T) {
	server := fakeLightnodeServer(t, func(method string, params json.RawMessage) string {
		return `{"jsonrpc":"2.0","id":1,"result":{"values":[{"value":"0xsig"}]}}`
	})
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	result, err := client.ReceiveMessage(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, result.Values, 1)
	require.Equal(t, "0xsig", result.Values[0].Value)
}

func TestClientDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.SendMessage(context.Background(), &entities.SendMessageRequest{})
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := NewClient(server.URL, "", time.Second)
	_, err := client.SendMessage(context.Background(), &entities.SendMessageRequest{})
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
}

func TestClientQueryHealth(t *testing.T) {
	server := fakeLightnodeServer(t, func(method string, params json.RawMessage) string {
		require.Equal(t, "ren_queryHealth", method)
		return `{"jsonrpc":"2.0","id":1,"result":{"version":"0.1.0","address":"8MHn","ram":"16GB","disk":"100GB","location":"us-east-1","cpus":{"cores":4,"clockRate":2400,"cacheSize":8192,"modelName":"test"}}}`
	})
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	result, err := client.QueryHealth(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0.1.0", result.Version)
	require.Equal(t, 4, result.CPUs.Cores)
}
