package amount

import (
	"errors"
	"math/big"
	"testing"
)

func TestLedgerRoundTrip(t *testing.T) {
	cases := []string{"1", "42", "1000000000000000000", "340282366920938463463374607431768211456"}
	for _, raw := range cases {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			t.Fatalf("bad literal %q", raw)
		}
		a, err := FromLedger(v, Credit)
		if err != nil {
			t.Fatalf("FromLedger(%s): %v", raw, err)
		}
		if got := a.ToLedger(); got.Cmp(v) != 0 {
			t.Fatalf("round trip %s: got %s", raw, got)
		}
	}
}

func TestNewRejectsNegativeAndNil(t *testing.T) {
	if _, err := New(big.NewInt(-1), Native); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative: got %v", err)
	}
	if _, err := New(nil, Native); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil: got %v", err)
	}
}

func TestToLedgerReturnsCopy(t *testing.T) {
	a := MustNew(7, Native)
	a.ToLedger().SetInt64(99)
	if got := a.ToLedger(); got.Int64() != 7 {
		t.Fatalf("amount mutated through ToLedger: %s", got)
	}
}

func TestRequirePositive(t *testing.T) {
	zero, err := New(big.NewInt(0), Credit)
	if err != nil {
		t.Fatal(err)
	}
	if err := zero.RequirePositive(Credit); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero: got %v", err)
	}
	if err := MustNew(1, Native).RequirePositive(Credit); !errors.Is(err, ErrUnitMismatch) {
		t.Fatalf("wrong unit: got %v", err)
	}
	if err := MustNew(1, Credit).RequirePositive(Credit); err != nil {
		t.Fatalf("positive credit: got %v", err)
	}
}

func TestCrossUnitArithmeticRejected(t *testing.T) {
	if _, err := MustNew(1, Native).Add(MustNew(1, Credit)); !errors.Is(err, ErrUnitMismatch) {
		t.Fatalf("add: got %v", err)
	}
	if _, err := MustNew(1, Native).Cmp(MustNew(1, Credit)); !errors.Is(err, ErrUnitMismatch) {
		t.Fatalf("cmp: got %v", err)
	}
}

func TestMulScalar(t *testing.T) {
	a := MustNew(30, Credit).MulScalar(4)
	if a.Unit() != Credit || a.ToLedger().Int64() != 120 {
		t.Fatalf("got %s", a)
	}
}
