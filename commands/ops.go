package commands

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

type Operation int

const WALLET_NAME_REGEX = "^[a-zA-Z][a-zA-Z0-9_]*$"

var walletNameRegex = regexp.MustCompile(WALLET_NAME_REGEX)

const (
	// do nothing operation
	NOOP Operation = iota
	// Transfer value between two wallets: transfer <from> <to> <amount>
	TRANSFER
	// Drain the pool into a block and add it: mine
	MINE
	// Print wallet and ledger balance: balance <wallet>
	BALANCE
	// Print pool size and chain height: status
	STATUS
	// Write the last blocks as a dot graph: show <depth> <path>
	SHOW
	// Leave the repl: quit
	QUIT
)

// A command contains a operation and many arguments.
type Command struct {
	Op   Operation
	Args []string
}

func isWalletName(s string) bool {
	return walletNameRegex.MatchString(s)
}

func (c Command) IsValid() bool {
	switch c.Op {
	case TRANSFER:
		if len(c.Args) != 3 {
			return false
		}
		if !isWalletName(c.Args[0]) || !isWalletName(c.Args[1]) {
			return false
		}
		v, err := strconv.ParseUint(c.Args[2], 10, 64)
		return err == nil && v > 0
	case MINE, STATUS, QUIT:
		return len(c.Args) == 0
	case BALANCE:
		return len(c.Args) == 1 && isWalletName(c.Args[0])
	case SHOW:
		if len(c.Args) != 2 {
			return false
		}
		// depth must be a number.
		if _, err := strconv.Atoi(c.Args[0]); err != nil {
			return false
		}
		return c.Args[1] != ""
	default:
		return false
	}
}

// From string, create a validated command.
func CreateCommand(s string) (Command, error) {
	// split command by space.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return Command{}, errors.New("command is empty")
	}
	cmd := Command{}
	switch ss[0] {
	case "transfer":
		cmd.Op = TRANSFER
	case "mine":
		cmd.Op = MINE
	case "balance":
		cmd.Op = BALANCE
	case "status":
		cmd.Op = STATUS
	case "show":
		cmd.Op = SHOW
	case "quit", "exit":
		cmd.Op = QUIT
	default:
		cmd.Op = NOOP
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return Command{}, errors.New("invalid command: " + s)
	}
	return cmd, nil
}
