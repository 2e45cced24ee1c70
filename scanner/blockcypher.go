package scanner

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blockcypher/gobcy"

	"github.com/warpgate-labs/xcs-portal/ledger"
)

// BlockCypher scans BTC deposit addresses through the BlockCypher API.
// BlockCypher has no Zcash endpoint, so only BTC is served.
type BlockCypher struct {
	api gobcy.API
}

// NewBlockCypher builds a BTC scanner. chain is the BlockCypher chain name,
// e.g. "main" or "test3".
func NewBlockCypher(token string, chain string) *BlockCypher {
	return &BlockCypher{
		api: gobcy.API{Token: token, Coin: "btc", Chain: chain},
	}
}

func (b *BlockCypher) Scan(ctx context.Context, address string, currency ledger.Currency, limit int, minConfirmations int) ([]ledger.UTXO, error) {
	if currency != ledger.BTC {
		return nil, fmt.Errorf("scanner: blockcypher does not serve %v", currency)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addrInfo, err := b.api.GetAddr(address, map[string]string{
		"unspentOnly":   "true",
		"includeScript": "true",
		"limit":         strconv.Itoa(limit),
		"confirmations": strconv.Itoa(minConfirmations),
	})
	if err != nil {
		return nil, err
	}

	utxos := []ledger.UTXO{}
	for _, ref := range addrInfo.TXRefs {
		if ref.TXOutputN < 0 { // an input spending from this address
			continue
		}
		utxos = append(utxos, ledger.UTXO{
			Currency:     currency,
			TxHash:       ref.TXHash,
			Amount:       int64(ref.Value),
			ScriptPubKey: ref.Script,
			Vout:         ref.TXOutputN,
		})
	}
	return utxos, nil
}
