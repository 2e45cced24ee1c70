package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/warpgate-labs/xcs-portal/coordinator"
)

const scanTimeout = 60 * time.Second

// DepositMonitor periodically rescans the derived deposit addresses and
// records newly-seen UTXOs as Deposit events. Redemption stays
// user-initiated; this worker only observes.
type DepositMonitor struct {
	WorkerAbs
	coordinator *coordinator.Coordinator
}

func (m *DepositMonitor) Init(id int, name string, freq int, network string, c *coordinator.Coordinator) error {
	if err := m.WorkerAbs.Init(id, name, freq, network); err != nil {
		return err
	}
	m.coordinator = c
	return nil
}

func (m *DepositMonitor) Execute() {
	m.Logger.Info("DepositMonitor worker is executing...")

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	added, err := m.coordinator.RefreshDeposits(ctx)
	if err != nil {
		m.ExportErrorLog(fmt.Sprintf("Could not refresh deposits - with err: %v", err))
		return
	}
	if added > 0 {
		m.ExportInfoLog(fmt.Sprintf("Observed %v new deposit(s)", added))
	}
}
