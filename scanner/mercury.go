package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	resty "github.com/go-resty/resty/v2"

	"github.com/warpgate-labs/xcs-portal/ledger"
)

// Chain routes on the mercury API.
const (
	mercuryBTCMainnet = "btc"
	mercuryBTCTestnet = "btc-testnet3"
	mercuryZECMainnet = "zec"
	mercuryZECTestnet = "zec-testnet"
)

// Mercury queries a mercury-style REST explorer for UTXOs:
//
//	GET {base}/{chain}/utxo/{address}?limit=N&confirmations=M
type Mercury struct {
	client  *resty.Client
	baseURL string
	routes  map[ledger.Currency]string
}

func NewMercury(baseURL string, mainnet bool) *Mercury {
	routes := map[ledger.Currency]string{
		ledger.BTC: mercuryBTCTestnet,
		ledger.ZEC: mercuryZECTestnet,
	}
	if mainnet {
		routes[ledger.BTC] = mercuryBTCMainnet
		routes[ledger.ZEC] = mercuryZECMainnet
	}
	return &Mercury{
		client:  resty.New(),
		baseURL: baseURL,
		routes:  routes,
	}
}

type mercuryUTXO struct {
	TxHash       string `json:"txHash"`
	Amount       int64  `json:"amount"`
	ScriptPubKey string `json:"scriptPubKey"`
	Vout         int    `json:"vout"`
}

func (m *Mercury) Scan(ctx context.Context, address string, currency ledger.Currency, limit int, minConfirmations int) ([]ledger.UTXO, error) {
	route, ok := m.routes[currency]
	if !ok {
		return nil, fmt.Errorf("scanner: mercury does not serve %v", currency)
	}

	url := fmt.Sprintf("%s/%s/utxo/%s", m.baseURL, route, address)
	response, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":         strconv.Itoa(limit),
			"confirmations": strconv.Itoa(minConfirmations),
		}).
		Get(url)
	if err != nil {
		return nil, err
	}
	if response.StatusCode() != 200 {
		return nil, fmt.Errorf("scanner: mercury returned status %v", response.StatusCode())
	}

	var raw []mercuryUTXO
	if err := json.Unmarshal(response.Body(), &raw); err != nil {
		return nil, fmt.Errorf("scanner: could not parse mercury response: %v", err)
	}

	utxos := make([]ledger.UTXO, 0, len(raw))
	for _, u := range raw {
		utxos = append(utxos, ledger.UTXO{
			Currency:     currency,
			TxHash:       u.TxHash,
			Amount:       u.Amount,
			ScriptPubKey: u.ScriptPubKey,
			Vout:         u.Vout,
		})
	}
	return utxos, nil
}
