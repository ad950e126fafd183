package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger tuples are the canonical on-ledger struct encodings of the four
// order variants, shaped for ABI packing. Field order must match the
// marketplace contract's tuple components exactly.

// AppOrderTuple is the ABI encoding of an AppOrder.
type AppOrderTuple struct {
	App                common.Address
	AppPrice           *big.Int
	Volume             *big.Int
	Tag                [32]byte
	DatasetRestrict    common.Address
	WorkerpoolRestrict common.Address
	RequesterRestrict  common.Address
	Salt               [32]byte
	Sign               []byte
}

// DatasetOrderTuple is the ABI encoding of a DatasetOrder.
type DatasetOrderTuple struct {
	Dataset            common.Address
	DatasetPrice       *big.Int
	Volume             *big.Int
	Tag                [32]byte
	AppRestrict        common.Address
	WorkerpoolRestrict common.Address
	RequesterRestrict  common.Address
	Salt               [32]byte
	Sign               []byte
}

// WorkerpoolOrderTuple is the ABI encoding of a WorkerpoolOrder.
type WorkerpoolOrderTuple struct {
	Workerpool        common.Address
	WorkerpoolPrice   *big.Int
	Volume            *big.Int
	Tag               [32]byte
	Category          *big.Int
	Trust             *big.Int
	AppRestrict       common.Address
	DatasetRestrict   common.Address
	RequesterRestrict common.Address
	Salt              [32]byte
	Sign              []byte
}

// RequestOrderTuple is the ABI encoding of a RequestOrder.
type RequestOrderTuple struct {
	Requester          common.Address
	App                common.Address
	AppMaxPrice        *big.Int
	Dataset            common.Address
	DatasetMaxPrice    *big.Int
	Workerpool         common.Address
	WorkerpoolMaxPrice *big.Int
	Volume             *big.Int
	Tag                [32]byte
	Category           *big.Int
	Trust              *big.Int
	Beneficiary        common.Address
	Callback           common.Address
	Params             string
	Salt               [32]byte
	Sign               []byte
}

func u64(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

// LedgerTuple converts the order to its on-ledger encoding.
func (o *AppOrder) LedgerTuple() AppOrderTuple {
	return AppOrderTuple{
		App:                o.App,
		AppPrice:           o.AppPrice.ToLedger(),
		Volume:             u64(o.Volume),
		Tag:                o.Tag,
		DatasetRestrict:    o.DatasetRestrict,
		WorkerpoolRestrict: o.WorkerpoolRestrict,
		RequesterRestrict:  o.RequesterRestrict,
		Salt:               o.Salt,
		Sign:               o.Sign,
	}
}

// LedgerTuple converts the order to its on-ledger encoding. A nil dataset
// order encodes as the all-zero tuple the marketplace recognises as "no
// dataset".
func (o *DatasetOrder) LedgerTuple() DatasetOrderTuple {
	if o == nil {
		return DatasetOrderTuple{
			DatasetPrice: new(big.Int),
			Volume:       new(big.Int),
			Sign:         []byte{},
		}
	}
	return DatasetOrderTuple{
		Dataset:            o.Dataset,
		DatasetPrice:       o.DatasetPrice.ToLedger(),
		Volume:             u64(o.Volume),
		Tag:                o.Tag,
		AppRestrict:        o.AppRestrict,
		WorkerpoolRestrict: o.WorkerpoolRestrict,
		RequesterRestrict:  o.RequesterRestrict,
		Salt:               o.Salt,
		Sign:               o.Sign,
	}
}

// LedgerTuple converts the order to its on-ledger encoding.
func (o *WorkerpoolOrder) LedgerTuple() WorkerpoolOrderTuple {
	return WorkerpoolOrderTuple{
		Workerpool:        o.Workerpool,
		WorkerpoolPrice:   o.WorkerpoolPrice.ToLedger(),
		Volume:            u64(o.Volume),
		Tag:               o.Tag,
		Category:          u64(o.Category),
		Trust:             u64(o.Trust),
		AppRestrict:       o.AppRestrict,
		DatasetRestrict:   o.DatasetRestrict,
		RequesterRestrict: o.RequesterRestrict,
		Salt:              o.Salt,
		Sign:              o.Sign,
	}
}

// LedgerTuple converts the order to its on-ledger encoding.
func (o *RequestOrder) LedgerTuple() RequestOrderTuple {
	return RequestOrderTuple{
		Requester:          o.Requester,
		App:                o.App,
		AppMaxPrice:        o.AppMaxPrice.ToLedger(),
		Dataset:            o.Dataset,
		DatasetMaxPrice:    o.DatasetMaxPrice.ToLedger(),
		Workerpool:         o.Workerpool,
		WorkerpoolMaxPrice: o.WorkerpoolMaxPrice.ToLedger(),
		Volume:             u64(o.Volume),
		Tag:                o.Tag,
		Category:           u64(o.Category),
		Trust:              u64(o.Trust),
		Beneficiary:        o.Beneficiary,
		Callback:           o.Callback,
		Params:             o.Params,
		Salt:               o.Salt,
		Sign:               o.Sign,
	}
}
