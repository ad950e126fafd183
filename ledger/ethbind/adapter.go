// Package ethbind implements the ledger facade over a go-ethereum contract
// backend. Signing stays behind the supplied transact options; this package
// only packs calls, broadcasts transactions, waits for inclusion, and decodes
// receipt logs into the engine's event model.
package ethbind

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"dealmarket/ledger"
)

// ErrReverted indicates the ledger included the transaction but its execution
// reverted. There is no log to reconcile in that case.
var ErrReverted = errors.New("ethbind: transaction reverted")

// Backend is the slice of an Ethereum client this adapter needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Contract binds one deployed contract for reads and writes and decodes
// confirmed logs against a set of known ABIs. Log entries matching none of
// them are surfaced raw so callers can probe foreign formats themselves.
type Contract struct {
	address common.Address
	backend Backend
	bound   *bind.BoundContract
	signer  *bind.TransactOpts
	known   []abi.ABI
}

// NewContract binds the contract at address. signer carries the caller
// identity and signing callback for state-changing sends; known lists
// additional ABIs (beyond the contract's own) used to decode receipt logs.
func NewContract(address common.Address, contractABI abi.ABI, backend Backend, signer *bind.TransactOpts, known ...abi.ABI) *Contract {
	return &Contract{
		address: address,
		backend: backend,
		bound:   bind.NewBoundContract(address, contractABI, backend, backend, backend),
		signer:  signer,
		known:   append([]abi.ABI{contractABI}, known...),
	}
}

// Address returns the bound contract address.
func (c *Contract) Address() common.Address { return c.address }

// Call issues a read-only query.
func (c *Contract) Call(ctx context.Context, method string, results *[]interface{}, args ...interface{}) error {
	return c.bound.Call(&bind.CallOpts{Context: ctx}, results, method, args...)
}

// Send broadcasts a state-changing transaction and returns a handle to wait
// on. It never retries: a rejected broadcast surfaces as an error, and a
// broadcast transaction is final whether or not the caller keeps waiting.
func (c *Contract) Send(ctx context.Context, method string, opts ledger.TxOpts, args ...interface{}) (ledger.PendingTx, error) {
	if c.signer == nil {
		return nil, errors.New("ethbind: no transact options configured")
	}
	txOpts := *c.signer
	txOpts.Context = ctx
	txOpts.Value = opts.Value
	if opts.GasPrice != nil {
		txOpts.GasPrice = opts.GasPrice
	}
	tx, err := c.bound.Transact(&txOpts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("ethbind: %s: %w", method, err)
	}
	return &pendingTx{tx: tx, contract: c}, nil
}

type pendingTx struct {
	tx       *ethtypes.Transaction
	contract *Contract
}

func (p *pendingTx) Hash() common.Hash { return p.tx.Hash() }

// Wait blocks until the ledger includes the transaction, then decodes its
// log. Bounded only by ctx and the ledger's liveness.
func (p *pendingTx) Wait(ctx context.Context) (*ledger.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, p.contract.backend, p.tx)
	if err != nil {
		return nil, fmt.Errorf("ethbind: waiting for %s: %w", p.tx.Hash(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s", ErrReverted, p.tx.Hash())
	}
	events := make([]ledger.Event, 0, len(receipt.Logs))
	for _, lg := range receipt.Logs {
		events = append(events, p.contract.decodeLog(lg))
	}
	return &ledger.Receipt{TxHash: receipt.TxHash, Events: events}, nil
}

// decodeLog maps one raw log entry to the engine's event model, decoding name
// and arguments when any known ABI claims the entry's signature.
func (c *Contract) decodeLog(lg *ethtypes.Log) ledger.Event {
	out := ledger.Event{
		Address: lg.Address,
		Topics:  append([]common.Hash(nil), lg.Topics...),
		Data:    append([]byte(nil), lg.Data...),
	}
	if len(lg.Topics) == 0 {
		return out
	}
	for _, known := range c.known {
		event, err := known.EventByID(lg.Topics[0])
		if err != nil {
			continue
		}
		fields, err := unpackEvent(event, lg)
		if err != nil {
			continue
		}
		out.Name = event.Name
		out.Args = fields
		return out
	}
	return out
}

func unpackEvent(event *abi.Event, lg *ethtypes.Log) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if err := event.Inputs.UnpackIntoMap(fields, lg.Data); err != nil {
		return nil, err
	}
	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) != len(lg.Topics)-1 {
		return nil, fmt.Errorf("ethbind: event %s: %d indexed args, %d topics", event.Name, len(indexed), len(lg.Topics)-1)
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(fields, indexed, lg.Topics[1:]); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

// Wallet reads the signer's identity and native balance from the backend.
type Wallet struct {
	backend Backend
	from    common.Address
}

// NewWallet builds a wallet reader for the given account.
func NewWallet(backend Backend, from common.Address) *Wallet {
	return &Wallet{backend: backend, from: from}
}

// Address returns the caller account.
func (w *Wallet) Address(ctx context.Context) (common.Address, error) {
	return w.from, nil
}

// NativeBalance reads the current native balance of addr.
func (w *Wallet) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	balance, err := w.backend.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("ethbind: balance of %s: %w", addr, err)
	}
	return balance, nil
}
