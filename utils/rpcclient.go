package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"
)

const DefaultRPCTimeout = 30 * time.Second

type HttpClient struct {
	*http.Client
	url string
}

// NewHttpClient to get http client instance
func NewHttpClient(url string, timeout time.Duration) *HttpClient {
	if timeout == 0 {
		timeout = DefaultRPCTimeout
	}
	httpClient := &http.Client{
		Timeout: timeout,
	}
	return &HttpClient{
		Client: httpClient,
		url:    url,
	}
}

// CallRaw posts a JSON-RPC request and returns the raw response body. The
// caller owns decoding, so transport failures and decode failures stay
// distinguishable.
func (client *HttpClient) CallRaw(ctx context.Context, method string, params interface{}) ([]byte, error) {
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}
	payloadInBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.url, bytes.NewBuffer(payloadInBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("rpc endpoint returned status %v", resp.StatusCode)
	}
	return body, nil
}
