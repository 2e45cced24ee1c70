package ledger

// Currency is the closed set of assets the portal knows about.
type Currency string

const (
	BTC Currency = "btc"
	ZEC Currency = "zec"
	ETH Currency = "eth"
)

// Decimals returns the decimal shift used for display amounts.
func (c Currency) Decimals() int {
	switch c {
	case BTC, ZEC:
		return 8
	case ETH:
		return 18
	}
	return 0
}

func (c Currency) Valid() bool {
	switch c {
	case BTC, ZEC, ETH:
		return true
	}
	return false
}
