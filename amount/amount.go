package amount

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInvalidAmount indicates an amount that is nil, negative, or zero where
	// the calling operation requires a strictly positive value.
	ErrInvalidAmount = errors.New("amount: invalid amount")
	// ErrUnitMismatch indicates arithmetic was attempted between amounts of
	// different units. Unit conversion only happens through pool queries.
	ErrUnitMismatch = errors.New("amount: unit mismatch")
)

// Unit tags an Amount with the currency it is denominated in.
type Unit uint8

const (
	// Native is the underlying ledger's base currency.
	Native Unit = iota
	// Credit is the marketplace's internal accounting token.
	Credit
)

// String returns the lowercase unit name.
func (u Unit) String() string {
	switch u {
	case Native:
		return "native"
	case Credit:
		return "credit"
	default:
		return fmt.Sprintf("unit(%d)", uint8(u))
	}
}

// Amount is an immutable non-negative integer value tagged with a unit. The
// zero value is zero native units.
type Amount struct {
	unit Unit
	val  *big.Int
}

// NewNative builds a native-unit amount from a non-negative literal.
func NewNative(v *big.Int) (Amount, error) { return New(v, Native) }

// NewCredit builds a credit-unit amount from a non-negative literal.
func NewCredit(v *big.Int) (Amount, error) { return New(v, Credit) }

// New builds an Amount from a non-negative big integer. The input is copied so
// later mutation of v cannot reach the Amount.
func New(v *big.Int, unit Unit) (Amount, error) {
	if v == nil || v.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	return Amount{unit: unit, val: new(big.Int).Set(v)}, nil
}

// MustNew is New for trusted literals, panicking on invalid input. Intended
// for constants and tests.
func MustNew(v int64, unit Unit) Amount {
	a, err := New(big.NewInt(v), unit)
	if err != nil {
		panic(err)
	}
	return a
}

// FromLedger converts the ledger's native big-integer representation into a
// unit-tagged Amount.
func FromLedger(v *big.Int, unit Unit) (Amount, error) {
	return New(v, unit)
}

// ToLedger returns the ledger representation of the amount. The returned
// integer is a copy.
func (a Amount) ToLedger() *big.Int {
	if a.val == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.val)
}

// Unit reports the unit the amount is denominated in.
func (a Amount) Unit() Unit { return a.unit }

// Sign reports -1, 0 or +1 like big.Int.Sign. Amounts are never negative so
// the result is 0 or 1.
func (a Amount) Sign() int {
	if a.val == nil {
		return 0
	}
	return a.val.Sign()
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a.Sign() == 0 }

// RequireUnit enforces the expected unit without constraining the value.
func (a Amount) RequireUnit(unit Unit) error {
	if a.unit != unit {
		return fmt.Errorf("%w: have %s, want %s", ErrUnitMismatch, a.unit, unit)
	}
	return nil
}

// RequirePositive enforces the strictly-positive precondition shared by the
// estimator entry points, also checking the expected unit.
func (a Amount) RequirePositive(unit Unit) error {
	if a.unit != unit {
		return fmt.Errorf("%w: have %s, want %s", ErrUnitMismatch, a.unit, unit)
	}
	if a.Sign() <= 0 {
		return fmt.Errorf("%w: %s amount must be strictly positive", ErrInvalidAmount, unit)
	}
	return nil
}

// Add returns a+b. Both operands must share a unit.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.unit != b.unit {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrUnitMismatch, a.unit, b.unit)
	}
	return Amount{unit: a.unit, val: new(big.Int).Add(a.ToLedger(), b.ToLedger())}, nil
}

// MulScalar returns a scaled by the non-negative integer k, keeping the unit.
func (a Amount) MulScalar(k uint64) Amount {
	return Amount{unit: a.unit, val: new(big.Int).Mul(a.ToLedger(), new(big.Int).SetUint64(k))}
}

// Cmp compares two amounts of the same unit like big.Int.Cmp.
func (a Amount) Cmp(b Amount) (int, error) {
	if a.unit != b.unit {
		return 0, fmt.Errorf("%w: %s vs %s", ErrUnitMismatch, a.unit, b.unit)
	}
	return a.ToLedger().Cmp(b.ToLedger()), nil
}

// String renders the amount with its unit suffix for logs and diagnostics.
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.ToLedger().String(), a.unit)
}
