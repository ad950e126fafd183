package market

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"dealmarket/amount"
	"dealmarket/ledger"
)

// ErrInsufficientStake indicates the owner's posted collateral does not cover
// the stake required for a prospective volume. Use errors.Is against this and
// errors.As against StakeShortfallError for the figures.
var ErrInsufficientStake = errors.New("market: insufficient stake")

// Stake the workerpool owner must keep posted, as a percentage of the traded
// value. Governance-defined; the ledger enforces the same ratio atomically.
const stakeRatioPercent = 30

// StakeShortfallError carries the required and actual stake for diagnostics.
type StakeShortfallError struct {
	Owner    common.Address
	Required amount.Amount
	Actual   amount.Amount
}

func (e *StakeShortfallError) Error() string {
	return fmt.Sprintf("market: insufficient stake for %s: required %s, posted %s",
		e.Owner, e.Required, e.Actual)
}

// Is folds the typed error under the package sentinel.
func (e *StakeShortfallError) Is(target error) bool { return target == ErrInsufficientStake }

// RequiredStake computes the collateral a workerpool owner must have posted
// to execute volume units at unitPrice: 30% of volume × price, credit units,
// truncating division performed last so no precision is lost before it.
func RequiredStake(volume uint64, unitPrice amount.Amount) (amount.Amount, error) {
	if unitPrice.Unit() != amount.Credit {
		return amount.Amount{}, fmt.Errorf("%w: stake is computed in credit units", amount.ErrUnitMismatch)
	}
	total := new(big.Int).Mul(unitPrice.ToLedger(), new(big.Int).SetUint64(volume))
	total.Mul(total, big.NewInt(stakeRatioPercent))
	total.Quo(total, big.NewInt(100))
	return amount.FromLedger(total, amount.Credit)
}

// Guard validates counterparty collateral before settlement. The check is
// advisory: the ledger re-enforces it atomically during execution, so losing
// the race between this read and the transaction is expected, not a bug.
type Guard struct {
	accounts ledger.AccountReader
}

// NewGuard builds a guard over the marketplace's account subsystem.
func NewGuard(accounts ledger.AccountReader) *Guard {
	return &Guard{accounts: accounts}
}

// Balance reads the raw escrow position of an account.
func (g *Guard) Balance(ctx context.Context, addr common.Address) (ledger.Balance, error) {
	if g == nil || g.accounts == nil {
		return ledger.Balance{}, errors.New("market: account reader not configured")
	}
	balance, err := g.accounts.CheckBalance(ctx, addr)
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("market: balance of %s: %w", addr, err)
	}
	return balance, nil
}

// CheckStakeSufficiency reads the owner's posted stake and compares it to the
// required credit amount. A stake exactly equal to the requirement passes.
func (g *Guard) CheckStakeSufficiency(ctx context.Context, owner common.Address, required amount.Amount) error {
	if g == nil || g.accounts == nil {
		return errors.New("market: account reader not configured")
	}
	if required.Unit() != amount.Credit {
		return fmt.Errorf("%w: stake requirement must be credit units", amount.ErrUnitMismatch)
	}
	balance, err := g.accounts.CheckBalance(ctx, owner)
	if err != nil {
		return fmt.Errorf("market: stake of %s: %w", owner, err)
	}
	actual, err := amount.FromLedger(balance.Stake, amount.Credit)
	if err != nil {
		return fmt.Errorf("market: stake of %s: %w", owner, err)
	}
	if cmp, _ := actual.Cmp(required); cmp < 0 {
		return &StakeShortfallError{Owner: owner, Required: required, Actual: actual}
	}
	return nil
}
