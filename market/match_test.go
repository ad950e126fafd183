package market

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"dealmarket/amount"
)

type mockMarketplace struct {
	consumed     map[common.Hash]uint64
	compatible   bool
	compatErr    error
	volumeErr    error
	volumeReads  int
	compatChecks int
}

func (m *mockMarketplace) ConsumedVolume(ctx context.Context, order common.Hash) (uint64, error) {
	m.volumeReads++
	if m.volumeErr != nil {
		return 0, m.volumeErr
	}
	return m.consumed[order], nil
}

func (m *mockMarketplace) Compatible(ctx context.Context, c *Candidate) (bool, error) {
	m.compatChecks++
	if m.compatErr != nil {
		return false, m.compatErr
	}
	return m.compatible, nil
}

func testCandidate(withDataset bool) *Candidate {
	c := &Candidate{
		App: AppOrder{
			App:      common.HexToAddress("0x01"),
			AppPrice: amount.MustNew(1, amount.Credit),
			Volume:   10,
			Salt:     [32]byte{1},
		},
		Workerpool: WorkerpoolOrder{
			Workerpool:      common.HexToAddress("0x02"),
			WorkerpoolPrice: amount.MustNew(5, amount.Credit),
			Volume:          7,
			Salt:            [32]byte{2},
		},
		Request: RequestOrder{
			Requester:          common.HexToAddress("0x03"),
			Volume:             8,
			Salt:               [32]byte{3},
			AppMaxPrice:        amount.MustNew(1, amount.Credit),
			DatasetMaxPrice:    amount.MustNew(0, amount.Credit),
			WorkerpoolMaxPrice: amount.MustNew(5, amount.Credit),
		},
	}
	if withDataset {
		c.Dataset = &DatasetOrder{
			Dataset:      common.HexToAddress("0x04"),
			DatasetPrice: amount.MustNew(2, amount.Credit),
			Volume:       9,
			Salt:         [32]byte{4},
		}
	}
	return c
}

func TestComputeMatchableVolumeMinimum(t *testing.T) {
	c := testCandidate(true)
	m := &mockMarketplace{compatible: true, consumed: map[common.Hash]uint64{
		c.App.Hash():        4, // remaining 6
		c.Workerpool.Hash(): 2, // remaining 5
		c.Request.Hash():    0, // remaining 8
		c.Dataset.Hash():    1, // remaining 8
	}}
	got, err := NewEvaluator(m).ComputeMatchableVolume(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
	if m.volumeReads != 4 {
		t.Fatalf("volume reads: got %d, want 4", m.volumeReads)
	}
}

func TestNilDatasetContributesNoConstraint(t *testing.T) {
	withDataset := testCandidate(true)
	withDataset.Dataset.Volume = 1 // tightest constraint when present
	without := testCandidate(false)

	m := &mockMarketplace{compatible: true, consumed: map[common.Hash]uint64{}}
	constrained, err := NewEvaluator(m).ComputeMatchableVolume(context.Background(), withDataset)
	if err != nil {
		t.Fatal(err)
	}
	free, err := NewEvaluator(m).ComputeMatchableVolume(context.Background(), without)
	if err != nil {
		t.Fatal(err)
	}
	if constrained != 1 {
		t.Fatalf("dataset constraint ignored: got %d", constrained)
	}
	if free < constrained {
		t.Fatalf("nil dataset decreased result: %d < %d", free, constrained)
	}
	if free != 7 {
		t.Fatalf("without dataset: got %d, want 7", free)
	}
}

func TestOverconsumedOrderClampsToZero(t *testing.T) {
	c := testCandidate(false)
	m := &mockMarketplace{compatible: true, consumed: map[common.Hash]uint64{
		c.App.Hash(): 100,
	}}
	got, err := NewEvaluator(m).ComputeMatchableVolume(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestIncompatibleOrders(t *testing.T) {
	m := &mockMarketplace{compatible: false}
	_, err := NewEvaluator(m).ComputeMatchableVolume(context.Background(), testCandidate(false))
	if !errors.Is(err, ErrIncompatibleOrders) {
		t.Fatalf("got %v", err)
	}
	if m.volumeReads != 0 {
		t.Fatalf("volume read despite incompatibility: %d", m.volumeReads)
	}
}
