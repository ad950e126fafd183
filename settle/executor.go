package settle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"dealmarket/amount"
	"dealmarket/ledger"
	"dealmarket/market"
	"dealmarket/observability/metrics"
)

var (
	// ErrInsufficientBalance indicates the caller's native balance cannot
	// cover the requested spend. Local pre-flight check, never retried.
	ErrInsufficientBalance = errors.New("settle: insufficient native balance")
	// ErrInsufficientVolume indicates the candidate cannot execute the
	// requested minimum volume. Local pre-flight check, never retried.
	ErrInsufficientVolume = errors.New("settle: insufficient matchable volume")
	// ErrDepositFailed indicates a confirmed deposit whose log holds no mint
	// transfer to the caller. The transaction is final; resubmission would be
	// a new financial action, so nothing here retries it.
	ErrDepositFailed = errors.New("settle: deposit not confirmed by log")
	// ErrWithdrawFailed indicates a confirmed withdrawal whose log lacks the
	// credit transfer or a decodable swap event with non-zero output.
	ErrWithdrawFailed = errors.New("settle: withdrawal not confirmed by log")
	// ErrMatchNotConfirmed indicates a confirmed match transaction whose log
	// holds no orders-matched event from the marketplace.
	ErrMatchNotConfirmed = errors.New("settle: match not confirmed by log")
)

// Operation labels for logs and metrics.
const (
	opDeposit  = "deposit_eth"
	opWithdraw = "withdraw_eth"
	opMatch    = "match_orders"
)

// OwnerReader resolves the owner account behind a registered marketplace
// asset (the account whose stake backs a workerpool's orders).
type OwnerReader interface {
	Owner(ctx context.Context, asset common.Address) (common.Address, error)
}

// Result is the reconciled outcome of a deposit or withdrawal. Received is
// always re-derived from event data; Spent is the transaction value for a
// deposit and the logged credit transfer's value for a withdrawal, never
// assumed equal to the requested amount.
type Result struct {
	TxHash   common.Hash
	Spent    amount.Amount
	Received amount.Amount
}

// MatchResult is the reconciled outcome of an order match. ExecutedVolume
// can legitimately be below RequestedVolume when other participants consumed
// order volume between the pre-check and ledger-side execution; that is not
// an error, only a missing orders-matched event is.
type MatchResult struct {
	TxHash          common.Hash
	DealID          common.Hash
	RequestedVolume uint64
	ExecutedVolume  uint64
	Spent           amount.Amount
}

// Executor drives settlement transactions through
// Validated → Submitted → Confirmed → Reconciled. It holds no mutable state
// across calls; every invocation reads fresh ledger state and the ledger
// itself is the only serialization point.
type Executor struct {
	marketplace ledger.Contract
	token       common.Address
	wallet      ledger.Wallet
	evaluator   *market.Evaluator
	guard       *market.Guard
	owners      OwnerReader

	logger  *slog.Logger
	metrics *metrics.SettlementMetrics
	nowFn   func() time.Time
}

// NewExecutor wires an executor over the marketplace contract handle, the
// credit token address, and the caller's wallet.
func NewExecutor(marketplace ledger.Contract, token common.Address, wallet ledger.Wallet, evaluator *market.Evaluator, guard *market.Guard, owners OwnerReader) *Executor {
	return &Executor{
		marketplace: marketplace,
		token:       token,
		wallet:      wallet,
		evaluator:   evaluator,
		guard:       guard,
		owners:      owners,
		logger:      slog.Default(),
		nowFn:       time.Now,
	}
}

// SetLogger overrides the executor's logger. Passing nil restores the
// default.
func (x *Executor) SetLogger(logger *slog.Logger) {
	if logger == nil {
		x.logger = slog.Default()
		return
	}
	x.logger = logger
}

// SetMetrics enables settlement metrics emission. A nil receiver disables it.
func (x *Executor) SetMetrics(m *metrics.SettlementMetrics) { x.metrics = m }

// SetNowFunc overrides the executor clock, primarily for deterministic tests.
func (x *Executor) SetNowFunc(now func() time.Time) {
	if now == nil {
		x.nowFn = time.Now
		return
	}
	x.nowFn = now
}

func (x *Executor) submitAndWait(ctx context.Context, op, method string, opts ledger.TxOpts, args ...interface{}) (*ledger.Receipt, error) {
	tx, err := x.marketplace.Send(ctx, method, opts, args...)
	if err != nil {
		x.metrics.Failed(op, "submit")
		return nil, fmt.Errorf("settle: broadcast %s: %w", method, err)
	}
	x.metrics.Submitted(op)
	x.logger.Info("transaction submitted", "op", op, "tx", tx.Hash())

	start := x.nowFn()
	receipt, err := tx.Wait(ctx)
	if err != nil {
		x.metrics.Failed(op, "confirm")
		return nil, fmt.Errorf("settle: confirmation of %s: %w", tx.Hash(), err)
	}
	x.metrics.Confirmed(op, x.nowFn().Sub(start).Seconds())
	x.logger.Info("transaction confirmed", "op", op, "tx", receipt.TxHash, "events", len(receipt.Events))
	return receipt, nil
}

// DepositEth spends the given native amount on the deposit side of the pool,
// requesting at least creditWanted in return. Success is proven by a mint
// transfer (from the zero address to the caller) in the confirmed log; its
// value is the credit actually received.
func (x *Executor) DepositEth(ctx context.Context, nativeSpend, creditWanted amount.Amount) (*Result, error) {
	if err := nativeSpend.RequirePositive(amount.Native); err != nil {
		return nil, err
	}
	if err := creditWanted.RequirePositive(amount.Credit); err != nil {
		return nil, err
	}
	caller, err := x.wallet.Address(ctx)
	if err != nil {
		return nil, fmt.Errorf("settle: wallet address: %w", err)
	}
	balance, err := x.wallet.NativeBalance(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("settle: native balance of %s: %w", caller, err)
	}
	if balance == nil || balance.Cmp(nativeSpend.ToLedger()) < 0 {
		return nil, fmt.Errorf("%w: have %v, need %s", ErrInsufficientBalance, balance, nativeSpend)
	}

	receipt, err := x.submitAndWait(ctx, opDeposit, "depositEth",
		ledger.TxOpts{Value: nativeSpend.ToLedger()}, creditWanted.ToLedger())
	if err != nil {
		return nil, err
	}

	mint := FindTransfer(receipt.Events, x.token, common.Address{}, caller)
	if mint == nil {
		x.metrics.ReconcileMissing(opDeposit)
		return nil, fmt.Errorf("%w: no mint transfer to %s in tx %s", ErrDepositFailed, caller, receipt.TxHash)
	}
	received, err := amount.FromLedger(mint.BigArg("value"), amount.Credit)
	if err != nil {
		x.metrics.ReconcileMissing(opDeposit)
		return nil, fmt.Errorf("%w: mint transfer in tx %s: %v", ErrDepositFailed, receipt.TxHash, err)
	}
	x.logger.Info("deposit reconciled", "tx", receipt.TxHash, "spent", nativeSpend.String(), "received", received.String())
	return &Result{TxHash: receipt.TxHash, Spent: nativeSpend, Received: received}, nil
}

// WithdrawEth spends the given credit amount on the withdraw side of the
// pool, requesting at least nativeWanted in return. The log must show the
// credit transfer from the marketplace to the pool (whose address is only
// knowable from that transfer) and a decodable Swap event emitted by that
// pool with a non-zero output; the output is the native amount actually
// received.
func (x *Executor) WithdrawEth(ctx context.Context, creditSpend, nativeWanted amount.Amount) (*Result, error) {
	if err := creditSpend.RequirePositive(amount.Credit); err != nil {
		return nil, err
	}
	if err := nativeWanted.RequirePositive(amount.Native); err != nil {
		return nil, err
	}
	caller, err := x.wallet.Address(ctx)
	if err != nil {
		return nil, fmt.Errorf("settle: wallet address: %w", err)
	}
	if err := x.guard.CheckStakeSufficiency(ctx, caller, creditSpend); err != nil {
		return nil, err
	}

	receipt, err := x.submitAndWait(ctx, opWithdraw, "withdrawEth",
		ledger.TxOpts{}, creditSpend.ToLedger(), nativeWanted.ToLedger())
	if err != nil {
		return nil, err
	}

	transfer := FindTransferFrom(receipt.Events, x.token, x.marketplace.Address())
	if transfer == nil {
		x.metrics.ReconcileMissing(opWithdraw)
		return nil, fmt.Errorf("%w: no credit transfer from marketplace in tx %s", ErrWithdrawFailed, receipt.TxHash)
	}
	poolAddr := transfer.AddressArg("to")

	// The transfer's value is what actually left the account; the requested
	// spend is only what was asked for.
	spentBig := transfer.BigArg("value")
	if spentBig == nil {
		x.metrics.ReconcileMissing(opWithdraw)
		return nil, fmt.Errorf("%w: credit transfer in tx %s carries no value", ErrWithdrawFailed, receipt.TxHash)
	}
	spent, err := amount.FromLedger(spentBig, amount.Credit)
	if err != nil {
		x.metrics.ReconcileMissing(opWithdraw)
		return nil, fmt.Errorf("%w: credit transfer in tx %s: %v", ErrWithdrawFailed, receipt.TxHash, err)
	}

	var nativeOut *big.Int
	for i := range receipt.Events {
		entry := &receipt.Events[i]
		if entry.Address != poolAddr {
			continue
		}
		fields := DecodeForeignEvent(swapABI, "Swap", entry)
		if fields == nil {
			continue
		}
		nativeOut = swapOutput(fields)
		break
	}
	if nativeOut == nil || nativeOut.Sign() == 0 {
		x.metrics.ReconcileMissing(opWithdraw)
		return nil, fmt.Errorf("%w: no swap output from pool %s in tx %s", ErrWithdrawFailed, poolAddr, receipt.TxHash)
	}
	received, err := amount.FromLedger(nativeOut, amount.Native)
	if err != nil {
		x.metrics.ReconcileMissing(opWithdraw)
		return nil, fmt.Errorf("%w: swap output in tx %s: %v", ErrWithdrawFailed, receipt.TxHash, err)
	}
	x.logger.Info("withdrawal reconciled", "tx", receipt.TxHash, "pool", poolAddr, "spent", spent.String(), "received", received.String())
	return &Result{TxHash: receipt.TxHash, Spent: spent, Received: received}, nil
}

// swapOutput picks the non-zero output side of a decoded Swap event. The
// credit token funds the input side, so whichever output is non-zero is the
// native proceeds.
func swapOutput(fields map[string]interface{}) *big.Int {
	out0, _ := fields["amount0Out"].(*big.Int)
	out1, _ := fields["amount1Out"].(*big.Int)
	if out0 != nil && out0.Sign() > 0 {
		return out0
	}
	return out1
}

// MatchOrdersWithEth settles a candidate, attaching the given native amount
// as transaction value to fund the requester's side. The matchable volume is
// recomputed and the workerpool owner's stake re-checked immediately before
// broadcast; both checks are advisory, the ledger re-enforces them
// atomically. Success is proven by the marketplace's orders-matched event,
// which carries the issued deal identifier and the volume actually executed.
func (x *Executor) MatchOrdersWithEth(ctx context.Context, c *market.Candidate, nativeSpend amount.Amount, minVolume uint64) (*MatchResult, error) {
	// Zero value is legitimate here: a fully zero-priced match carries no
	// native currency.
	if err := nativeSpend.RequireUnit(amount.Native); err != nil {
		return nil, err
	}
	if minVolume == 0 {
		return nil, fmt.Errorf("%w: requested minimum volume must be strictly positive", ErrInsufficientVolume)
	}

	volume, err := x.evaluator.ComputeMatchableVolume(ctx, c)
	if err != nil {
		return nil, err
	}
	if volume < minVolume {
		return nil, fmt.Errorf("%w: matchable %d, requested minimum %d", ErrInsufficientVolume, volume, minVolume)
	}

	owner, err := x.owners.Owner(ctx, c.Workerpool.Workerpool)
	if err != nil {
		return nil, fmt.Errorf("settle: owner of workerpool %s: %w", c.Workerpool.Workerpool, err)
	}
	required, err := market.RequiredStake(volume, c.Workerpool.WorkerpoolPrice)
	if err != nil {
		return nil, err
	}
	if err := x.guard.CheckStakeSufficiency(ctx, owner, required); err != nil {
		return nil, err
	}

	receipt, err := x.submitAndWait(ctx, opMatch, "matchOrders",
		ledger.TxOpts{Value: nativeSpend.ToLedger()},
		c.App.LedgerTuple(), c.Dataset.LedgerTuple(), c.Workerpool.LedgerTuple(), c.Request.LedgerTuple())
	if err != nil {
		return nil, err
	}

	var matched *ledger.Event
	for i := range receipt.Events {
		entry := &receipt.Events[i]
		if entry.Name == "OrdersMatched" && entry.Address == x.marketplace.Address() {
			matched = entry
			break
		}
	}
	if matched == nil {
		x.metrics.ReconcileMissing(opMatch)
		return nil, fmt.Errorf("%w: no orders-matched event in tx %s", ErrMatchNotConfirmed, receipt.TxHash)
	}

	executedBig := matched.BigArg("volume")
	if executedBig == nil || !executedBig.IsUint64() {
		x.metrics.ReconcileMissing(opMatch)
		return nil, fmt.Errorf("%w: orders-matched event in tx %s carries no usable volume", ErrMatchNotConfirmed, receipt.TxHash)
	}
	executed := executedBig.Uint64()
	result := &MatchResult{
		TxHash:          receipt.TxHash,
		DealID:          hashArg(matched.Arg("dealid")),
		RequestedVolume: volume,
		ExecutedVolume:  executed,
		Spent:           nativeSpend,
	}
	if executed < volume {
		x.logger.Info("match under-executed", "tx", receipt.TxHash, "deal", result.DealID, "requested", volume, "executed", executed)
	} else {
		x.logger.Info("match reconciled", "tx", receipt.TxHash, "deal", result.DealID, "volume", executed)
	}
	return result, nil
}

func hashArg(v interface{}) common.Hash {
	switch h := v.(type) {
	case common.Hash:
		return h
	case [32]byte:
		return common.Hash(h)
	default:
		return common.Hash{}
	}
}

// AccountStake reads the given account's posted escrow stake in credit units.
func (x *Executor) AccountStake(ctx context.Context, addr common.Address) (amount.Amount, error) {
	balance, err := x.guard.Balance(ctx, addr)
	if err != nil {
		return amount.Amount{}, err
	}
	return amount.FromLedger(balance.Stake, amount.Credit)
}

// WalletBalance reads the caller's native balance.
func (x *Executor) WalletBalance(ctx context.Context) (amount.Amount, error) {
	caller, err := x.wallet.Address(ctx)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("settle: wallet address: %w", err)
	}
	balance, err := x.wallet.NativeBalance(ctx, caller)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("settle: native balance of %s: %w", caller, err)
	}
	return amount.FromLedger(balance, amount.Native)
}
