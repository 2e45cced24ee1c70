package ledger

// UTXO is an unspent output observed at a gateway deposit address. Immutable
// once observed; (Currency, TxHash, Vout) identifies it, and TxHash alone is
// used as the practical dedup key within one currency.
type UTXO struct {
	Currency     Currency `json:"currency"`
	TxHash       string   `json:"txHash"` // hex, no 0x prefix
	Amount       int64    `json:"amount"` // smallest unit
	ScriptPubKey string   `json:"scriptPubKey"`
	Vout         int      `json:"vout"`
}
