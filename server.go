package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warpgate-labs/xcs-portal/coordinator"
	"github.com/warpgate-labs/xcs-portal/deriver"
	"github.com/warpgate-labs/xcs-portal/ledger"
	"github.com/warpgate-labs/xcs-portal/lightnode"
	"github.com/warpgate-labs/xcs-portal/scanner"
	"github.com/warpgate-labs/xcs-portal/store"
	"github.com/warpgate-labs/xcs-portal/workers"
)

type Server struct {
	quit        chan os.Signal
	finish      chan bool
	workers     []workers.Worker
	coordinator *coordinator.Coordinator
	store       *store.Store
}

func NewServer() (*Server, error) {
	network := os.Getenv("XCS_NETWORK")
	mainnet := network == "mainnet"

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := logger.WithField("component", "server")

	masterPKH, err := hex.DecodeString(os.Getenv("MASTER_PKH"))
	if err != nil || len(masterPKH) != 20 {
		return nil, fmt.Errorf("MASTER_PKH must be 20 hex-encoded bytes: %v", err)
	}

	multiAddresses := strings.Split(os.Getenv("LIGHTNODE_URLS"), ",")
	group := lightnode.NewGroupFromMultiAddresses(multiAddresses, lightnode.DefaultCallTimeout, entry.WithField("component", "lightnode"))

	// optional peer discovery; the configured nodes stay members either way
	if os.Getenv("BOOTSTRAP") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), lightnode.DefaultCallTimeout)
		if err := group.Bootstrap(ctx); err != nil {
			entry.Warnf("lightnode bootstrap failed: %v", err)
		}
		cancel()
		entry.Infof("lightnode group size after bootstrap: %v", group.Size())
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "db/xcs"
	}
	sessionStore, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open leveldb storage file: %v", err)
	}

	state, err := sessionStore.Load()
	if err != nil {
		return nil, fmt.Errorf("could not restore session state: %v", err)
	}
	eventLedger := state.Events

	scanners := map[ledger.Currency]scanner.Scanner{}
	if mercuryURL := os.Getenv("MERCURY_URL"); mercuryURL != "" {
		mercury := scanner.NewMercury(mercuryURL, mainnet)
		scanners[ledger.BTC] = mercury
		scanners[ledger.ZEC] = mercury
	}
	if token := os.Getenv("BLOCKCYPHER_TOKEN"); token != "" {
		chain := "test3"
		if mainnet {
			chain = "main"
		}
		scanners[ledger.BTC] = scanner.NewBlockCypher(token, chain)
	}

	c := coordinator.New(
		group,
		deriver.New(masterPKH, mainnet),
		scanners,
		nil,
		eventLedger,
		entry.WithField("component", "coordinator"),
	)
	c.SetBurner(coordinator.NewGroupBurner(group, c.ReceiveAddress))

	if receiveAddress := os.Getenv("RECEIVE_ADDRESS"); receiveAddress != "" {
		if _, err := c.GenerateAddresses(receiveAddress); err != nil {
			return nil, err
		}
	} else if state.EthereumAddress != "" {
		if _, err := c.GenerateAddresses(state.EthereumAddress); err != nil {
			return nil, err
		}
	}

	// persist the timeline on every mutation
	eventLedger.Subscribe(func([]ledger.Event) {
		if err := sessionStore.Save(&ledger.SessionState{
			EthereumAddress: c.ReceiveAddress(),
			QuoteCurrency:   os.Getenv("QUOTE_CURRENCY"),
			Events:          eventLedger,
		}); err != nil {
			entry.Errorf("could not persist session state: %v", err)
		}
	})

	listWorkers := []workers.Worker{}

	depositMonitor := &workers.DepositMonitor{}
	if err := depositMonitor.Init(1, "Deposit Monitor", 60, network, c); err != nil {
		return nil, fmt.Errorf("can't init Deposit Monitor: %v", err)
	}
	listWorkers = append(listWorkers, depositMonitor)

	mintResponseChecker := &workers.MintResponseChecker{}
	if err := mintResponseChecker.Init(2, "Mint Response Checker", 30, network, c); err != nil {
		return nil, fmt.Errorf("can't init Mint Response Checker: %v", err)
	}
	listWorkers = append(listWorkers, mintResponseChecker)

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	return &Server{
		quit:        quitChan,
		finish:      make(chan bool, len(listWorkers)),
		workers:     listWorkers,
		coordinator: c,
		store:       sessionStore,
	}, nil
}

func (s *Server) NotifyQuitSignal(workers []workers.Worker) {
	sig := <-s.quit
	fmt.Printf("Caught sig: %+v \n", sig)
	// notify all workers about quit signal
	for _, a := range workers {
		a.GetQuitChan() <- true
	}
}

func (s *Server) Run() {
	workers := s.workers
	go s.NotifyQuitSignal(workers)
	for _, a := range workers {
		go executeWorker(s.finish, a)
	}
}

func executeWorker(finish chan bool, worker workers.Worker) {
	worker.Execute() // execute as soon as starting up
	for {
		select {
		case <-worker.GetQuitChan():
			fmt.Printf("Finishing task for %s ...\n", worker.GetName())
			time.Sleep(time.Second * 1)
			fmt.Printf("Task for %s done! \n", worker.GetName())
			finish <- true
			return
		case <-time.After(time.Duration(worker.GetFrequency()) * time.Second):
			worker.Execute()
		}
	}
}
