package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Luismorlan/utxo_ledger/commands"
	"github.com/Luismorlan/utxo_ledger/config"
	"github.com/Luismorlan/utxo_ledger/full_node"
	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/visualize"
	"github.com/Luismorlan/utxo_ledger/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var replCmd = &cli.Command{
	Name:  "repl",
	Usage: "read transfer/mine/balance/status/show commands from stdin",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "wallets",
			Usage: "names of the wallets to create",
			Value: cli.NewStringSlice("alice", "bob"),
		},
		&cli.Uint64Flag{
			Name:  "mint",
			Usage: "amount minted for every wallet in the genesis ledger",
			Value: 100,
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve prometheus metrics on this address, disabled when empty",
		},
	},
	Action: replAction,
}

type session struct {
	node    *full_node.FullNode
	wallets map[string]*wallet.Wallet
	out     io.Writer
}

func replAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	s := &session{wallets: make(map[string]*wallet.Wallet), out: c.App.Writer}
	for _, name := range c.StringSlice("wallets") {
		w, err := wallet.NewWallet()
		if err != nil {
			return err
		}
		if amount := c.Uint64("mint"); amount > 0 {
			utxo := w.Mint(amount)
			cfg.Genesis = append(cfg.Genesis, config.Allocation{Address: utxo.Owner.String(), Amount: amount})
		}
		s.wallets[name] = w
		fmt.Fprintf(s.out, "%s: %s\n", name, w.Address())
	}

	reg := prometheus.NewRegistry()
	if s.node, err = full_node.NewFullNode(cfg, nil, reg); err != nil {
		return err
	}
	if addr := c.String("metrics-addr"); addr != "" {
		go func() {
			err := http.ListenAndServe(addr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.WithError(err).Warn("metrics server stopped")
		}()
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	go s.node.Watch(ctx, cfg.WatchInterval, func(height int, b model.Block) {
		log.WithField("height", height).Debugf("watcher saw block with %d transactions", len(b.Txs))
	})

	scanner := bufio.NewScanner(c.App.Reader)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		cmd, err := commands.CreateCommand(scanner.Text())
		if err != nil {
			fmt.Fprintln(s.out, err)
			fmt.Fprint(s.out, "> ")
			continue
		}
		if cmd.Op == commands.QUIT {
			return nil
		}
		if err := s.handleCommand(cmd); err != nil {
			fmt.Fprintln(s.out, err)
		}
		fmt.Fprint(s.out, "> ")
	}
	return scanner.Err()
}

func (s *session) wallet(name string) (*wallet.Wallet, error) {
	w, ok := s.wallets[name]
	if !ok {
		return nil, errors.New("unknown wallet " + name)
	}
	return w, nil
}

func (s *session) handleCommand(c commands.Command) error {
	switch c.Op {
	case commands.TRANSFER:
		from, err := s.wallet(c.Args[0])
		if err != nil {
			return err
		}
		to, err := s.wallet(c.Args[1])
		if err != nil {
			return err
		}
		value, _ := strconv.ParseUint(c.Args[2], 10, 64)
		if from.GetBalance() < value {
			return fmt.Errorf("%w: %s has %d", model.ErrInsufficientBalance, c.Args[0], from.GetBalance())
		}
		tx, err := from.CreateTransaction(to.GetPublicKey(), value)
		if err != nil {
			return err
		}
		if err := s.node.SubmitTransaction(tx); err != nil {
			from.ReleaseNonce(tx)
			return err
		}
		fmt.Fprintf(s.out, "staged %s, pool size %d\n", tx.ID, s.node.PoolSize())
	case commands.MINE:
		b, err := s.node.MineBlock()
		if err != nil {
			return err
		}
		for _, w := range s.wallets {
			w.ApplyBlock(b)
		}
		fmt.Fprintf(s.out, "block %d added with %d transactions\n", s.node.GetHeight(), len(b.Txs))
	case commands.BALANCE:
		w, err := s.wallet(c.Args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "wallet %d, ledger %d\n", w.GetBalance(), s.node.GetBalance(w.GetPublicKey()))
	case commands.STATUS:
		fmt.Fprintf(s.out, "height %d, tail %s, pool %d\n", s.node.GetHeight(), s.node.GetTailHash(), s.node.PoolSize())
	case commands.SHOW:
		depth, _ := strconv.Atoi(c.Args[0])
		if err := visualize.RenderToFile(c.Args[1], s.node.GetBlocksSnapshot(0), depth); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "chain written to", c.Args[1])
	default:
		return fmt.Errorf("unimplemented command: %d", c.Op)
	}
	return nil
}
