package coordinator

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warpgate-labs/xcs-portal/deriver"
	"github.com/warpgate-labs/xcs-portal/entities"
	"github.com/warpgate-labs/xcs-portal/ledger"
	"github.com/warpgate-labs/xcs-portal/lightnode"
	"github.com/warpgate-labs/xcs-portal/scanner"
	"github.com/warpgate-labs/xcs-portal/utils"
)

// ServiceName is the destination service on the lightnodes.
const ServiceName = "WarpGate"

const (
	defaultScanLimit        = 10
	defaultMinConfirmations = 0
)

var (
	ErrUnsupportedCurrency = errors.New("coordinator: minting is not supported for this currency")
	ErrInvalidAmount       = errors.New("coordinator: burn amount must be a positive decimal")
	ErrNoReceiveAddress    = errors.New("coordinator: no receive address set")
)

// NodeGroup is the slice of the lightnode group the coordinator needs.
// *lightnode.Group satisfies it.
type NodeGroup interface {
	Broadcast(ctx context.Context, request *entities.SendMessageRequest) ([]lightnode.BroadcastResult, error)
	PollFirstAvailable(ctx context.Context, messageIDs []string) (string, error)
}

// BurnSubmitter submits a burn of a wrapped balance and returns the
// correlation id and transaction reference. Supplied by the caller; burns
// are never speculative.
type BurnSubmitter interface {
	SubmitBurn(ctx context.Context, currency ledger.Currency, amount string, to string) (messageID string, burnTransaction string, err error)
}

// Coordinator owns the user-visible mint/burn lifecycle. It is the single
// writer of the event ledger; the node group is an injected dependency and
// never part of persisted state.
type Coordinator struct {
	group    NodeGroup
	deriver  *deriver.Deriver
	scanners map[ledger.Currency]scanner.Scanner
	burner   BurnSubmitter
	ledger   *ledger.Ledger
	session  *Session
	logger   *logrus.Entry

	receiveAddress   string
	depositAddresses map[ledger.Currency]string
}

func New(
	group NodeGroup,
	addressDeriver *deriver.Deriver,
	scanners map[ledger.Currency]scanner.Scanner,
	burner BurnSubmitter,
	eventLedger *ledger.Ledger,
	logger *logrus.Entry,
) *Coordinator {
	return &Coordinator{
		group:    group,
		deriver:  addressDeriver,
		scanners: scanners,
		burner:   burner,
		ledger:   eventLedger,
		session:  NewSession(),
		logger:   logger,
	}
}

// SetBurner installs the burn submitter. Split from New because the default
// submitter needs the coordinator's own receive address.
func (c *Coordinator) SetBurner(burner BurnSubmitter) {
	c.burner = burner
}

func (c *Coordinator) Ledger() *ledger.Ledger {
	return c.ledger
}

func (c *Coordinator) Session() *Session {
	return c.session
}

func (c *Coordinator) ReceiveAddress() string {
	return c.receiveAddress
}

// GenerateAddresses derives the per-currency deposit addresses for
// receiveAddress. Re-deriving for the same address returns the cached set.
func (c *Coordinator) GenerateAddresses(receiveAddress string) (map[ledger.Currency]string, error) {
	if c.receiveAddress == receiveAddress && c.depositAddresses != nil {
		return c.depositAddresses, nil
	}
	addresses, err := c.deriver.Derive(receiveAddress)
	if err != nil {
		return nil, err
	}
	c.receiveAddress = receiveAddress
	c.depositAddresses = addresses
	return addresses, nil
}

// RefreshDeposits scans every derived UTXO-chain address and appends a
// Deposit event for each previously-unseen UTXO. A failed scan means no new
// deposits this round, never a hard failure. Returns the number of new
// deposits.
func (c *Coordinator) RefreshDeposits(ctx context.Context) (int, error) {
	if c.depositAddresses == nil {
		return 0, ErrNoReceiveAddress
	}

	added := 0
	for currency, scan := range c.scanners {
		address, ok := c.depositAddresses[currency]
		if !ok {
			continue
		}
		utxos, err := scan.Scan(ctx, address, currency, defaultScanLimit, defaultMinConfirmations)
		if err != nil {
			c.logger.Warnf("scan of %v address %v failed: %v", currency, address, err)
			continue
		}
		for _, utxo := range utxos {
			if c.ledger.Has(utxo.TxHash) {
				continue
			}
			if _, ok := c.ledger.MintForUTXO(utxo.TxHash); ok {
				continue
			}
			deposit := &ledger.Deposit{
				ID:       utxo.TxHash,
				UTXOs:    []ledger.UTXO{utxo},
				Currency: currency,
			}
			if err := c.ledger.Append(deposit); err != nil {
				c.logger.Warnf("could not append deposit %v: %v", utxo.TxHash, err)
				continue
			}
			added++
		}
	}
	return added, nil
}

func mintMethod(currency ledger.Currency) (string, error) {
	switch currency {
	case ledger.BTC:
		return "MintZBTC", nil
	case ledger.ZEC:
		return "MintZZEC", nil
	}
	return "", fmt.Errorf("%w: %v", ErrUnsupportedCurrency, currency)
}

func burnMethod(currency ledger.Currency) (string, error) {
	switch currency {
	case ledger.BTC:
		return "BurnZBTC", nil
	case ledger.ZEC:
		return "BurnZZEC", nil
	}
	return "", fmt.Errorf("%w: %v", ErrUnsupportedCurrency, currency)
}

// SubmitMint broadcasts a mint request for the deposit to the node group.
// At least one responding node promotes the deposit to a Mint event carrying
// every responder's messageID. Safe to call twice: an existing mint for the
// deposit's UTXOs makes the second call a no-op.
func (c *Coordinator) SubmitMint(ctx context.Context, depositID string) error {
	event, ok := c.ledger.Get(depositID)
	if !ok {
		return fmt.Errorf("%w: %v", ledger.ErrNotFound, depositID)
	}
	if _, ok := event.(*ledger.Mint); ok {
		return nil // already submitted
	}
	deposit, ok := event.(*ledger.Deposit)
	if !ok {
		return fmt.Errorf("%w: %v is a %v event", ledger.ErrDuplicateID, depositID, event.Type())
	}
	for _, utxo := range deposit.UTXOs {
		if _, ok := c.ledger.MintForUTXO(utxo.TxHash); ok {
			return nil
		}
	}
	if c.receiveAddress == "" {
		return ErrNoReceiveAddress
	}

	// Fail fast before any network call.
	method, err := mintMethod(deposit.Currency)
	if err != nil {
		return err
	}

	if !c.session.BeginResubmitting(depositID) {
		return nil // submission already in flight
	}
	defer c.session.EndResubmitting(depositID)

	request := &entities.SendMessageRequest{
		Nonce:     randomNonce(),
		To:        ServiceName,
		Signature: "",
		Payload: entities.Payload{
			Method: method,
			Args: []entities.Arg{
				{Name: "uid", Type: "public", Value: strip0x(c.receiveAddress)},
			},
		},
	}

	results, err := c.group.Broadcast(ctx, request)
	if err != nil {
		utils.SendSlackNotification(
			fmt.Sprintf("Could not submit mint for deposit %v: %v", depositID, err),
			utils.AlertNotification,
		)
		return err
	}

	// Nodes assign their own correlation ids for the same logical request;
	// keep all of them so any can be polled. Ordered by membership order.
	messageIDs := []string{}
	for _, result := range results {
		if result.Err != nil || result.Result == nil {
			continue
		}
		if result.Result.MessageID != "" {
			messageIDs = append(messageIDs, result.Result.MessageID)
		}
	}

	// A mint without a messageID could never be polled or resubmitted; the
	// deposit stays as-is so a retry is possible.
	if len(messageIDs) == 0 {
		return fmt.Errorf("coordinator: no node returned a messageID for deposit %v", depositID)
	}

	mint := &ledger.Mint{
		ID:         deposit.ID,
		UTXOs:      deposit.UTXOs,
		MessageID:  messageIDs[0],
		MessageIDs: messageIDs,
	}
	return c.ledger.Promote(deposit.ID, mint)
}

// CheckForResponse polls the node group for the mint's signature. No
// signature yet is a wait state, not an error: the call returns nil and the
// mint stays pending. Once confirmed, later calls are no-ops and the
// recorded transaction never changes.
func (c *Coordinator) CheckForResponse(ctx context.Context, mintID string) error {
	event, ok := c.ledger.Get(mintID)
	if !ok {
		return fmt.Errorf("%w: %v", ledger.ErrNotFound, mintID)
	}
	mint, ok := event.(*ledger.Mint)
	if !ok {
		return fmt.Errorf("%w: %v is a %v event", ledger.ErrDuplicateID, mintID, event.Type())
	}
	if mint.Confirmed() {
		return nil
	}

	messageIDs := mint.MessageIDs
	if len(messageIDs) == 0 && mint.MessageID != "" {
		messageIDs = []string{mint.MessageID}
	}
	if len(messageIDs) == 0 {
		return nil
	}

	if !c.session.BeginChecking(mintID) {
		return nil // poll already in flight
	}
	defer c.session.EndChecking(mintID)

	signature, err := c.group.PollFirstAvailable(ctx, messageIDs)
	if err != nil {
		if errors.Is(err, lightnode.ErrNotReady) {
			return nil // still pending
		}
		if errors.Is(err, lightnode.ErrQuorumUnavailable) {
			utils.SendSlackNotification(
				fmt.Sprintf("All lightnodes unreachable while polling mint %v", mintID),
				utils.AlertNotification,
			)
			return err
		}
		c.logger.Warnf("polling mint %v: %v", mintID, err)
		return nil
	}

	c.session.SetSignature(mintID, signature)
	return c.ledger.ConfirmMint(mintID, signature)
}

// CheckPendingMints polls every unconfirmed mint once. Individual poll
// errors are logged; the last group-level failure is returned.
func (c *Coordinator) CheckPendingMints(ctx context.Context) error {
	var lastErr error
	for _, mint := range c.ledger.PendingMints() {
		if err := c.CheckForResponse(ctx, mint.ID); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Burn submits a burn of the wrapped balance and appends a Burn event on
// success. Validation happens before any network call; submitter errors are
// surfaced verbatim and no event is recorded. An identical burn already in
// flight makes the call a no-op; a completed burn can be repeated, each
// submission is its own instruction.
func (c *Coordinator) Burn(ctx context.Context, currency ledger.Currency, amount string, to string) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if !currency.Valid() {
		return fmt.Errorf("%w: %v", ErrUnsupportedCurrency, currency)
	}

	key := burnKey(currency, amount, to)
	if !c.session.BeginRedeeming(key) {
		return nil // identical burn already in flight
	}
	defer c.session.EndRedeeming(key)

	messageID, burnTransaction, err := c.burner.SubmitBurn(ctx, currency, amount, to)
	if err != nil {
		return err
	}

	burn := &ledger.Burn{
		// Timestamp-derived id: burns are instructions, not observations, so
		// repeating one records a new event rather than replacing the last.
		ID:              fmt.Sprintf("burn-%d", time.Now().UnixNano()),
		Currency:        currency,
		Amount:          amount,
		To:              to,
		MessageID:       messageID,
		BurnTransaction: burnTransaction,
	}
	return c.ledger.Append(burn)
}

func burnKey(currency ledger.Currency, amount string, to string) string {
	return fmt.Sprintf("%v|%v|%v", currency, amount, to)
}

func validateAmount(amount string) error {
	if amount == "" || amount == "0" {
		return fmt.Errorf("%w: got %q", ErrInvalidAmount, amount)
	}
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Errorf("%w: got %q", ErrInvalidAmount, amount)
	}
	if value <= 0 {
		return fmt.Errorf("%w: got %q", ErrInvalidAmount, amount)
	}
	return nil
}

func strip0x(address string) string {
	return strings.TrimPrefix(address, "0x")
}

// randomNonce is non-repeating per call in expectation; nodes use it to
// distinguish retried submissions.
func randomNonce() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint32(time.Now().UnixNano())
	}
	return binary.BigEndian.Uint32(buf[:])
}
