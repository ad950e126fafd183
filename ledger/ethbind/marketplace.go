package ethbind

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"dealmarket/ledger"
	"dealmarket/market"
)

// Marketplace adapts the bound marketplace contract to the read interfaces
// the engine consumes: order state for the evaluator, escrow balances for the
// collateral guard, asset ownership for the executor.
type Marketplace struct {
	contract *Contract
}

// NewMarketplace binds the marketplace contract at address.
func NewMarketplace(address common.Address, backend Backend, signer *bind.TransactOpts) *Marketplace {
	return &Marketplace{
		contract: NewContract(address, marketplaceABI, backend, signer, erc20ABI),
	}
}

// Contract exposes the underlying bound contract for the settlement executor.
func (m *Marketplace) Contract() *Contract { return m.contract }

func (m *Marketplace) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := m.contract.Call(ctx, method, &out, args...); err != nil {
		return nil, fmt.Errorf("ethbind: %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("ethbind: %s returned %d values, want 1", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("ethbind: %s returned %T, want *big.Int", method, out[0])
	}
	return v, nil
}

// ConsumedVolume reports the executed volume of the order with the given
// struct hash.
func (m *Marketplace) ConsumedVolume(ctx context.Context, order common.Hash) (uint64, error) {
	consumed, err := m.callBig(ctx, "viewConsumed", order)
	if err != nil {
		return 0, err
	}
	if !consumed.IsUint64() {
		return 0, fmt.Errorf("ethbind: consumed volume of %s out of range: %s", order, consumed)
	}
	return consumed.Uint64(), nil
}

// Compatible forwards the candidate to the marketplace's own compatibility
// predicate. The predicate's logic is the contract's business, not ours.
func (m *Marketplace) Compatible(ctx context.Context, c *market.Candidate) (bool, error) {
	var out []interface{}
	err := m.contract.Call(ctx, "viewCompatibility", &out,
		c.App.LedgerTuple(), c.Dataset.LedgerTuple(), c.Workerpool.LedgerTuple(), c.Request.LedgerTuple())
	if err != nil {
		return false, fmt.Errorf("ethbind: viewCompatibility: %w", err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("ethbind: viewCompatibility returned %d values, want 1", len(out))
	}
	ok, isBool := out[0].(bool)
	if !isBool {
		return false, fmt.Errorf("ethbind: viewCompatibility returned %T, want bool", out[0])
	}
	return ok, nil
}

// Owner resolves the owner account of a registered asset.
func (m *Marketplace) Owner(ctx context.Context, asset common.Address) (common.Address, error) {
	var out []interface{}
	if err := m.contract.Call(ctx, "viewOwner", &out, asset); err != nil {
		return common.Address{}, fmt.Errorf("ethbind: viewOwner: %w", err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("ethbind: viewOwner returned %d values, want 1", len(out))
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("ethbind: viewOwner returned %T, want address", out[0])
	}
	return owner, nil
}

// CheckBalance reads an account's escrow position in credit units.
func (m *Marketplace) CheckBalance(ctx context.Context, addr common.Address) (ledger.Balance, error) {
	var out []interface{}
	if err := m.contract.Call(ctx, "viewAccount", &out, addr); err != nil {
		return ledger.Balance{}, fmt.Errorf("ethbind: viewAccount: %w", err)
	}
	if len(out) != 2 {
		return ledger.Balance{}, fmt.Errorf("ethbind: viewAccount returned %d values, want 2", len(out))
	}
	stake, okStake := out[0].(*big.Int)
	locked, okLocked := out[1].(*big.Int)
	if !okStake || !okLocked {
		return ledger.Balance{}, fmt.Errorf("ethbind: viewAccount returned %T/%T, want *big.Int", out[0], out[1])
	}
	return ledger.Balance{Stake: stake, Locked: locked}, nil
}
