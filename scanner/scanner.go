package scanner

import (
	"context"

	"github.com/warpgate-labs/xcs-portal/ledger"
)

// Scanner discovers unspent outputs at a deposit address. Implementations
// may fail transiently; callers treat a failed scan as "no new deposits this
// round".
type Scanner interface {
	Scan(ctx context.Context, address string, currency ledger.Currency, limit int, minConfirmations int) ([]ledger.UTXO, error)
}
