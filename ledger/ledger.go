// Package ledger defines the contracts through which the engine talks to the
// external chain. Everything here is an interface or a plain value: the engine
// never owns a connection, it is handed one (see ledger/ethbind for the
// go-ethereum backed implementation).
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event is one entry of a confirmed transaction's log. Entries emitted by a
// contract whose ABI the adapter knows arrive decoded with Name and Args set;
// entries from foreign contracts keep Name empty and expose only the raw
// Topics and Data, left for the reconciliation engine to probe.
type Event struct {
	Address common.Address
	Name    string
	Args    map[string]interface{}
	Topics  []common.Hash
	Data    []byte
}

// Arg returns a decoded argument by name, nil when absent or undecoded.
func (e *Event) Arg(name string) interface{} {
	if e == nil || e.Args == nil {
		return nil
	}
	return e.Args[name]
}

// BigArg returns a decoded *big.Int argument, nil when absent or mistyped.
func (e *Event) BigArg(name string) *big.Int {
	v, _ := e.Arg(name).(*big.Int)
	return v
}

// AddressArg returns a decoded address argument; the zero address when absent.
func (e *Event) AddressArg(name string) common.Address {
	v, _ := e.Arg(name).(common.Address)
	return v
}

// Receipt is the observable outcome of a confirmed transaction. The ledger
// does not return a transaction's value to the caller; the log is the only
// proof of what actually happened.
type Receipt struct {
	TxHash common.Hash
	Events []Event
}

// PendingTx is a broadcast transaction that has not yet been confirmed.
type PendingTx interface {
	Hash() common.Hash
	// Wait blocks until the ledger includes the transaction and returns its
	// receipt. It is bounded only by ctx and the ledger's liveness.
	Wait(ctx context.Context) (*Receipt, error)
}

// TxOpts carries per-transaction parameters for state-changing sends.
type TxOpts struct {
	// Value is the native currency attached to the transaction, nil for none.
	Value *big.Int
	// GasPrice overrides the backend's suggestion when non-nil.
	GasPrice *big.Int
}

// Caller issues read-only contract queries. Outputs land in results in the
// contract method's declared order.
type Caller interface {
	Call(ctx context.Context, method string, results *[]interface{}, args ...interface{}) error
}

// Sender broadcasts state-changing contract transactions.
type Sender interface {
	Send(ctx context.Context, method string, opts TxOpts, args ...interface{}) (PendingTx, error)
}

// Contract is a bound contract handle: read and write against one address.
type Contract interface {
	Caller
	Sender
	Address() common.Address
}

// Wallet reads the caller's identity and native balance. Key management and
// signing live behind the backend, out of this engine's sight.
type Wallet interface {
	Address(ctx context.Context) (common.Address, error)
	NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Balance is an account's escrow position in credit units.
type Balance struct {
	Stake  *big.Int
	Locked *big.Int
}

// AccountReader reads escrow balances from the marketplace's account
// subsystem.
type AccountReader interface {
	CheckBalance(ctx context.Context, addr common.Address) (Balance, error)
}
