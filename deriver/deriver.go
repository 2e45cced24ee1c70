package deriver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/btcutil/base58"

	"github.com/warpgate-labs/xcs-portal/ledger"
)

// Zcash transparent P2SH address version bytes (t3.../t2... prefixes).
var (
	zecMainnetP2SHPrefix = [2]byte{0x1C, 0xBD}
	zecTestnetP2SHPrefix = [2]byte{0x1C, 0xBA}
)

var ErrInvalidReceiveAddress = errors.New("deriver: receive address must be a 42-character 0x-prefixed hex string")

// Deriver maps a receiving address to deterministic per-currency deposit
// addresses. Pure, no I/O.
//
// The gateway script commits to the receiver and pays to the master key:
//
//	<receive addr bytes> OP_DROP OP_DUP OP_HASH160 <masterPKH>
//	OP_EQUALVERIFY OP_CHECKSIG
//
// and the deposit address is the P2SH wrapping of that script on each chain.
type Deriver struct {
	masterPKH []byte
	mainnet   bool
}

func New(masterPKH []byte, mainnet bool) *Deriver {
	return &Deriver{masterPKH: masterPKH, mainnet: mainnet}
}

// Derive returns the deposit address for each supported currency. The ETH
// entry is the receive address itself.
func (d *Deriver) Derive(receiveAddress string) (map[ledger.Currency]string, error) {
	addrBytes, err := parseReceiveAddress(receiveAddress)
	if err != nil {
		return nil, err
	}

	script, err := d.gatewayScript(addrBytes)
	if err != nil {
		return nil, err
	}

	btcAddress, err := d.btcAddress(script)
	if err != nil {
		return nil, err
	}

	return map[ledger.Currency]string{
		ledger.BTC: btcAddress,
		ledger.ZEC: d.zecAddress(script),
		ledger.ETH: receiveAddress,
	}, nil
}

func parseReceiveAddress(receiveAddress string) ([]byte, error) {
	if len(receiveAddress) != 42 || !strings.HasPrefix(receiveAddress, "0x") {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidReceiveAddress, receiveAddress)
	}
	addrBytes, err := hex.DecodeString(receiveAddress[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceiveAddress, err)
	}
	return addrBytes, nil
}

func (d *Deriver) gatewayScript(addrBytes []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(addrBytes).
		AddOp(txscript.OP_DROP).
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(d.masterPKH).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

func (d *Deriver) btcAddress(script []byte) (string, error) {
	params := &chaincfg.TestNet3Params
	if d.mainnet {
		params = &chaincfg.MainNetParams
	}
	address, err := btcutil.NewAddressScriptHash(script, params)
	if err != nil {
		return "", err
	}
	return address.String(), nil
}

// zecAddress base58check-encodes the script hash with Zcash's two-byte
// version prefix, which btcutil's one-byte CheckEncode cannot express.
func (d *Deriver) zecAddress(script []byte) string {
	prefix := zecTestnetP2SHPrefix
	if d.mainnet {
		prefix = zecMainnetP2SHPrefix
	}
	scriptHash := btcutil.Hash160(script)

	payload := make([]byte, 0, 2+len(scriptHash)+4)
	payload = append(payload, prefix[:]...)
	payload = append(payload, scriptHash...)
	checksum := chainhash.DoubleHashB(payload)[:4]
	payload = append(payload, checksum...)
	return base58.Encode(payload)
}
