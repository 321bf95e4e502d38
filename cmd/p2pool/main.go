// Command p2pool runs the coordinator: it bootstraps against a monerod
// daemon, assembles block templates from the mempool, and would hand them
// to a stratum server and gossip side chain if those collaborators were
// wired in. Those pieces — the RandomX hasher, the side-chain replica, its
// P2P gossip layer, and the stratum server — are external collaborators
// this repository specifies only the contracts for (see p2pool/contracts);
// running a full pool additionally requires an implementation of each.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Cm157cc/p2pool/monero/address"
	"github.com/Cm157cc/p2pool/monero/client"
	"github.com/Cm157cc/p2pool/p2pool/blocktemplate"
	"github.com/Cm157cc/p2pool/p2pool/coordinator"
	"github.com/Cm157cc/p2pool/p2pool/ledger"
	"github.com/Cm157cc/p2pool/p2pool/mempool"
	"github.com/Cm157cc/p2pool/p2pool/telemetry"
	"github.com/Cm157cc/p2pool/utils"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	moneroHost := flag.String("host", "127.0.0.1", "IP address of your Monero node")
	moneroRpcPort := flag.Uint("rpc-port", 18081, "monerod RPC API port number")
	moneroZmqPort := flag.Uint("zmq-port", 18083, "monerod ZMQ pub port number")
	wallet := flag.String("wallet", "", "Pool payout wallet address (base58)")
	blocksFile := flag.String("blocks-file", "p2pool.blocks", "Path to the found-blocks ledger")
	stratumPort := flag.Int("stratum-port", 3333, "Stratum port reported in published telemetry")
	apiDir := flag.String("api-dir", "", "If set, publish network/pool telemetry snapshots under this directory")
	logFile := flag.String("log-file", "", "If set, write logs to this file instead of stderr (reopened on SIGUSR1)")
	debugLog := flag.Bool("debug", false, "Log more details")
	flag.Parse()

	if *debugLog {
		log.SetFlags(log.Flags() | log.Lshortfile)
		utils.GlobalLogLevel |= utils.LogLevelNotice | utils.LogLevelDebug
	}

	if *logFile != "" {
		if err := utils.SetLogFile(*logFile); err != nil {
			log.Fatalf("p2pool: %s", err)
		}
	}

	if *wallet == "" {
		log.Fatal("p2pool: -wallet is required")
	}
	if address.FromBase58(*wallet) == nil {
		log.Fatalf("p2pool: invalid wallet address %q", *wallet)
	}

	l, err := ledger.New(*blocksFile)
	if err != nil {
		log.Fatalf("p2pool: opening found-blocks ledger: %s", err)
	}

	rpcClient := client.New(fmt.Sprintf("http://%s:%d", *moneroHost, *moneroRpcPort))
	mempoolStore := mempool.NewStore()

	coord, err := coordinator.New(coordinator.Config{
		Rpc:         rpcClient,
		Mempool:     mempoolStore,
		Ledger:      l,
		Telemetry:   telemetry.New(*apiDir),
		Wallet:      *wallet,
		ZMQEndpoint: fmt.Sprintf("tcp://%s:%d", *moneroHost, *moneroZmqPort),
		StratumPort: *stratumPort,
	})
	if err != nil {
		log.Fatalf("p2pool: %s", err)
	}
	// The block-template builder shares the coordinator's key derivation
	// cache so onBlockFound's cache invalidation applies to templates too.
	coord.SetTemplate(blocktemplate.NewBuilder(coord.KeyCache()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	rotateCh := make(chan os.Signal, 1)
	signal.Notify(rotateCh, syscall.SIGUSR1)

	go func() {
		for range rotateCh {
			if err := utils.ReopenLogFile(); err != nil {
				utils.Errorf("[main] SIGUSR1: reopening log file failed: %s", err)
			} else {
				utils.Logf("[main] SIGUSR1 received, log file reopened")
			}
		}
	}()
	go func() {
		<-sigCh
		utils.Logf("[main] stop signal received")
		coord.Stop()
	}()

	if err := coord.Run(ctx); err != nil {
		log.Fatalf("p2pool: %s", err)
	}
}
