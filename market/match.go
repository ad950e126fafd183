package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrIncompatibleOrders indicates the candidate's tag/trust requirements
	// are not jointly satisfiable according to the marketplace.
	ErrIncompatibleOrders = errors.New("market: incompatible orders")
	// ErrNilMarketplace indicates the evaluator was not configured.
	ErrNilMarketplace = errors.New("market: marketplace not configured")
)

// Marketplace exposes the authoritative order state this engine reads but
// never re-derives: how much of an order is still unconsumed, and whether a
// candidate's requirements are jointly satisfiable. Both answers can change
// between the read and a later settlement; the ledger re-checks atomically
// at execution time.
type Marketplace interface {
	// ConsumedVolume reports how much of the order identified by its struct
	// hash has already been executed.
	ConsumedVolume(ctx context.Context, order common.Hash) (uint64, error)
	// Compatible applies the marketplace's own cross-order compatibility
	// predicate to the candidate. The predicate is opaque to this engine.
	Compatible(ctx context.Context, c *Candidate) (bool, error)
}

// Evaluator computes how much volume a candidate can jointly execute. Each
// call reads fresh state; results are best effort and must be recomputed
// immediately before submission.
type Evaluator struct {
	marketplace Marketplace
}

// NewEvaluator builds an evaluator over the supplied marketplace state.
func NewEvaluator(m Marketplace) *Evaluator {
	return &Evaluator{marketplace: m}
}

// ComputeMatchableVolume returns the maximum volume all orders of the
// candidate can execute together: the minimum of their remaining volumes. A
// nil dataset order contributes no constraint. Fails with
// ErrIncompatibleOrders when the marketplace rejects the combination.
func (e *Evaluator) ComputeMatchableVolume(ctx context.Context, c *Candidate) (uint64, error) {
	if e == nil || e.marketplace == nil {
		return 0, ErrNilMarketplace
	}
	ok, err := e.marketplace.Compatible(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("market: compatibility query: %w", err)
	}
	if !ok {
		return 0, ErrIncompatibleOrders
	}

	type side struct {
		hash   common.Hash
		volume uint64
	}
	sides := []side{
		{c.App.Hash(), c.App.Volume},
		{c.Workerpool.Hash(), c.Workerpool.Volume},
		{c.Request.Hash(), c.Request.Volume},
	}
	if c.Dataset != nil {
		sides = append(sides, side{c.Dataset.Hash(), c.Dataset.Volume})
	}

	min := uint64(0)
	for i, s := range sides {
		consumed, err := e.marketplace.ConsumedVolume(ctx, s.hash)
		if err != nil {
			return 0, fmt.Errorf("market: consumed volume of %s: %w", s.hash, err)
		}
		remaining := uint64(0)
		if consumed < s.volume {
			remaining = s.volume - consumed
		}
		if i == 0 || remaining < min {
			min = remaining
		}
	}
	return min, nil
}
