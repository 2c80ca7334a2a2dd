package main

import (
	"fmt"

	"github.com/Luismorlan/utxo_ledger/config"
	"github.com/Luismorlan/utxo_ledger/full_node"
	"github.com/Luismorlan/utxo_ledger/wallet"
	"github.com/urfave/cli/v2"
)

var simulateCmd = &cli.Command{
	Name:   "simulate",
	Usage:  "mint funds for a wallet, transfer twice to another one and mine after each transfer",
	Action: simulateAction,
}

func simulateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	out := c.App.Writer

	walletA, err := wallet.NewWallet()
	if err != nil {
		return err
	}
	walletB, err := wallet.NewWallet()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Wallet A address:", walletA.Address())
	fmt.Fprintln(out, "Wallet B address:", walletB.Address())

	minted := walletA.Mint(100 * coin)
	cfg.Genesis = append(cfg.Genesis, config.Allocation{Address: minted.Owner.String(), Amount: 100 * coin})
	node, err := full_node.NewFullNode(cfg, nil, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Minted %d units on %s\n", uint64(100*coin), minted)

	wallets := []*wallet.Wallet{walletA, walletB}
	for i, amount := range []uint64{50, 30 * coin} {
		tx, err := walletA.CreateTransaction(walletB.GetPublicKey(), amount)
		if err != nil {
			return err
		}
		if err := node.SubmitTransaction(tx); err != nil {
			walletA.ReleaseNonce(tx)
			fmt.Fprintf(out, "Transaction %d refused: %v\n", i+1, err)
			continue
		}
		fmt.Fprintf(out, "Transaction %d added to mempool. Mempool size: %d\n", i+1, node.PoolSize())

		b, err := node.MineBlock()
		if err != nil {
			fmt.Fprintf(out, "Failed to add new block: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Block at height %d added with %d transactions\n", node.GetHeight(), len(b.Txs))
		for _, w := range wallets {
			w.ApplyBlock(b)
		}
	}

	fmt.Fprintln(out, "Final state:")
	fmt.Fprintln(out, "  Number of blocks in blockchain:", node.GetHeight()+1)
	fmt.Fprintln(out, "  Mempool size:", node.PoolSize())
	fmt.Fprintf(out, "  Wallet A balance: %d units (ledger %d)\n", walletA.GetBalance(), node.GetBalance(walletA.GetPublicKey()))
	fmt.Fprintf(out, "  Wallet B balance: %d units (ledger %d)\n", walletB.GetBalance(), node.GetBalance(walletB.GetPublicKey()))
	return nil
}
