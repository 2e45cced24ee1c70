package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/warpgate-labs/xcs-portal/coordinator"
	"github.com/warpgate-labs/xcs-portal/ledger"
)

const pollDeadline = 120 * time.Second

// MintResponseChecker polls the node group for signatures of every pending
// mint. Pending mints survive restarts: any persisted mint without a
// mintTransaction is picked up again here.
type MintResponseChecker struct {
	WorkerAbs
	coordinator *coordinator.Coordinator
}

func (m *MintResponseChecker) Init(id int, name string, freq int, network string, c *coordinator.Coordinator) error {
	if err := m.WorkerAbs.Init(id, name, freq, network); err != nil {
		return err
	}
	m.coordinator = c
	return nil
}

func (m *MintResponseChecker) Execute() {
	pending := m.coordinator.Ledger().PendingMints()
	if len(pending) == 0 {
		return
	}
	m.Logger.Infof("MintResponseChecker worker is executing, %v mint(s) pending...", len(pending))

	ctx, cancel := context.WithTimeout(context.Background(), pollDeadline)
	defer cancel()

	for _, mint := range pending {
		if err := m.coordinator.CheckForResponse(ctx, mint.ID); err != nil {
			m.ExportErrorLog(fmt.Sprintf("Could not poll response for mint %v - with err: %v", mint.ID, err))
			continue
		}
		if event, ok := m.coordinator.Ledger().Get(mint.ID); ok {
			if confirmed, ok := event.(*ledger.Mint); ok && confirmed.Confirmed() {
				m.ExportInfoLog(fmt.Sprintf("Mint %v confirmed with signature %v", mint.ID, confirmed.MintTransaction))
			}
		}
	}
}
