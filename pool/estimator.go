// Package pool prices conversions between the native currency and the credit
// token against the marketplace's automated-market-maker pool. All operations
// are read only; the pool rate can move between any two calls, so results are
// quotes, never guarantees.
package pool

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"dealmarket/amount"
	"dealmarket/ledger"
	"dealmarket/market"
)

// ErrSwapDisabled indicates the active ledger configuration has no swap pool
// (native-asset-only deployments). Advisory callers check Enabled first or
// fold this error into a "disabled" answer; strict callers propagate it.
var ErrSwapDisabled = errors.New("pool: swap disabled on this ledger")

// Contract view methods answering the four conversion directions.
const (
	methodDepositCreditOut  = "estimateDepositTokenWanted"
	methodDepositNativeIn   = "estimateDepositEthSent"
	methodWithdrawCreditIn  = "estimateWithdrawTokenSent"
	methodWithdrawNativeOut = "estimateWithdrawEthWanted"
)

// Estimator issues read-only conversion queries against the pool.
type Estimator struct {
	caller  ledger.Caller
	enabled bool
}

// NewEstimator builds an estimator. enabled reflects the ledger
// configuration; when false every estimate fails with ErrSwapDisabled.
func NewEstimator(caller ledger.Caller, enabled bool) *Estimator {
	return &Estimator{caller: caller, enabled: enabled}
}

// Enabled reports whether the active ledger configuration supports swaps.
func (e *Estimator) Enabled() bool { return e != nil && e.enabled }

func (e *Estimator) query(ctx context.Context, method string, in amount.Amount, inUnit, outUnit amount.Unit) (amount.Amount, error) {
	if err := in.RequirePositive(inUnit); err != nil {
		return amount.Amount{}, err
	}
	if !e.Enabled() {
		return amount.Amount{}, ErrSwapDisabled
	}
	var out []interface{}
	if err := e.caller.Call(ctx, method, &out, in.ToLedger()); err != nil {
		return amount.Amount{}, fmt.Errorf("pool: %s: %w", method, err)
	}
	if len(out) != 1 {
		return amount.Amount{}, fmt.Errorf("pool: %s returned %d values, want 1", method, len(out))
	}
	raw, ok := out[0].(*big.Int)
	if !ok {
		return amount.Amount{}, fmt.Errorf("pool: %s returned %T, want *big.Int", method, out[0])
	}
	converted, err := amount.FromLedger(raw, outUnit)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("pool: %s returned %v: %w", method, raw, err)
	}
	return converted, nil
}

// EstimateDepositCreditOut quotes the credit received for spending the given
// native amount on the deposit side.
func (e *Estimator) EstimateDepositCreditOut(ctx context.Context, nativeSpent amount.Amount) (amount.Amount, error) {
	return e.query(ctx, methodDepositCreditOut, nativeSpent, amount.Native, amount.Credit)
}

// EstimateDepositNativeIn quotes the native amount to spend for the desired
// credit amount on the deposit side.
func (e *Estimator) EstimateDepositNativeIn(ctx context.Context, creditWanted amount.Amount) (amount.Amount, error) {
	return e.query(ctx, methodDepositNativeIn, creditWanted, amount.Credit, amount.Native)
}

// EstimateWithdrawCreditIn quotes the credit amount to spend for the desired
// native amount on the withdraw side.
func (e *Estimator) EstimateWithdrawCreditIn(ctx context.Context, nativeWanted amount.Amount) (amount.Amount, error) {
	return e.query(ctx, methodWithdrawCreditIn, nativeWanted, amount.Native, amount.Credit)
}

// EstimateWithdrawNativeOut quotes the native amount received for spending
// the given credit amount on the withdraw side.
func (e *Estimator) EstimateWithdrawNativeOut(ctx context.Context, creditSpent amount.Amount) (amount.Amount, error) {
	return e.query(ctx, methodWithdrawNativeOut, creditSpent, amount.Credit, amount.Native)
}

// EstimateMatchCost prices an entire order match in native currency: the
// matched volume times the summed per-unit prices of the sell-side orders,
// converted on the deposit side. A zero credit total short-circuits to zero
// native without touching the pool.
func (e *Estimator) EstimateMatchCost(ctx context.Context, c *market.Candidate, volume uint64) (amount.Amount, error) {
	unitPrice, err := c.UnitPriceSum()
	if err != nil {
		return amount.Amount{}, fmt.Errorf("pool: match price: %w", err)
	}
	total := unitPrice.MulScalar(volume)
	if total.IsZero() {
		return amount.FromLedger(new(big.Int), amount.Native)
	}
	return e.EstimateDepositNativeIn(ctx, total)
}
