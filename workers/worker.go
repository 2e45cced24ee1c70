package workers

import (
	"github.com/sirupsen/logrus"

	"github.com/warpgate-labs/xcs-portal/utils"
)

// Worker is a background task driven by the server loop: Execute runs once
// per Frequency seconds until the quit channel fires.
type Worker interface {
	Execute()
	GetName() string
	GetFrequency() int
	GetQuitChan() chan bool
}

// WorkerAbs carries the identity, schedule, and logging shared by every
// worker. Concrete workers embed it and implement Execute.
type WorkerAbs struct {
	ID        int
	Name      string
	Frequency int // in sec
	Quit      chan bool
	Network   string // mainnet, testnet, ...
	Logger    *logrus.Entry
}

func (a *WorkerAbs) Init(id int, name string, freq int, network string) error {
	a.ID = id
	a.Name = name
	a.Frequency = freq
	a.Quit = make(chan bool)
	a.Network = network

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	a.Logger = logger.WithFields(logrus.Fields{
		"worker": name,
		"id":     id,
	})
	return nil
}

func (a *WorkerAbs) GetName() string {
	return a.Name
}

func (a *WorkerAbs) GetFrequency() int {
	return a.Frequency
}

func (a *WorkerAbs) GetQuitChan() chan bool {
	return a.Quit
}

// ExportErrorLog both logs and forwards the message to the alert webhook.
func (a *WorkerAbs) ExportErrorLog(msg string) {
	a.Logger.Error(msg)
	utils.SendSlackNotification(msg, utils.AlertNotification)
}

func (a *WorkerAbs) ExportInfoLog(msg string) {
	a.Logger.Info(msg)
	utils.SendSlackNotification(msg, utils.InfoNotification)
}
