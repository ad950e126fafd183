package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"dealmarket/amount"
)

// Orders are created and signed outside this engine and arrive as immutable,
// already-validated inputs. The struct hash is the order's identity across
// the marketplace; only the remaining volume is mutable, and that lives in
// ledger state, never here.

// AppOrder offers an application at a per-unit price.
type AppOrder struct {
	App                common.Address
	AppPrice           amount.Amount
	Volume             uint64
	Tag                [32]byte
	DatasetRestrict    common.Address
	WorkerpoolRestrict common.Address
	RequesterRestrict  common.Address
	Salt               [32]byte
	Sign               []byte
}

// DatasetOrder offers a dataset at a per-unit price.
type DatasetOrder struct {
	Dataset            common.Address
	DatasetPrice       amount.Amount
	Volume             uint64
	Tag                [32]byte
	AppRestrict        common.Address
	WorkerpoolRestrict common.Address
	RequesterRestrict  common.Address
	Salt               [32]byte
	Sign               []byte
}

// WorkerpoolOrder offers compute capacity at a per-unit price. The pool owner
// must keep 30% of the traded value staked; see Guard.
type WorkerpoolOrder struct {
	Workerpool        common.Address
	WorkerpoolPrice   amount.Amount
	Volume            uint64
	Tag               [32]byte
	Category          uint64
	Trust             uint64
	AppRestrict       common.Address
	DatasetRestrict   common.Address
	RequesterRestrict common.Address
	Salt              [32]byte
	Sign              []byte
}

// RequestOrder is the buy side: a requester's constraints and price caps.
type RequestOrder struct {
	Requester          common.Address
	App                common.Address
	AppMaxPrice        amount.Amount
	Dataset            common.Address
	DatasetMaxPrice    amount.Amount
	Workerpool         common.Address
	WorkerpoolMaxPrice amount.Amount
	Volume             uint64
	Tag                [32]byte
	Category           uint64
	Trust              uint64
	Beneficiary        common.Address
	Callback           common.Address
	Params             string
	Salt               [32]byte
	Sign               []byte
}

// Candidate is the tuple of orders evaluated for a joint match. Dataset is
// nil when the request needs no dataset; that sentinel removes the dataset
// constraint entirely and is not a zero-volume order.
type Candidate struct {
	App        AppOrder
	Dataset    *DatasetOrder
	Workerpool WorkerpoolOrder
	Request    RequestOrder
}

var (
	appOrderType        = crypto.Keccak256([]byte("AppOrder(address app,uint256 appPrice,uint256 volume,bytes32 tag,address datasetRestrict,address workerpoolRestrict,address requesterRestrict,bytes32 salt)"))
	datasetOrderType    = crypto.Keccak256([]byte("DatasetOrder(address dataset,uint256 datasetPrice,uint256 volume,bytes32 tag,address appRestrict,address workerpoolRestrict,address requesterRestrict,bytes32 salt)"))
	workerpoolOrderType = crypto.Keccak256([]byte("WorkerpoolOrder(address workerpool,uint256 workerpoolPrice,uint256 volume,bytes32 tag,uint256 category,uint256 trust,address appRestrict,address datasetRestrict,address requesterRestrict,bytes32 salt)"))
	requestOrderType    = crypto.Keccak256([]byte("RequestOrder(address requester,address app,uint256 appMaxPrice,address dataset,uint256 datasetMaxPrice,address workerpool,uint256 workerpoolMaxPrice,uint256 volume,bytes32 tag,uint256 category,uint256 trust,address beneficiary,address callback,string params,bytes32 salt)"))
)

func hashFields(typeHash []byte, fields ...[]byte) common.Hash {
	buf := make([]byte, 0, 32*(len(fields)+1))
	buf = append(buf, typeHash...)
	for _, f := range fields {
		buf = append(buf, f...)
	}
	return common.BytesToHash(crypto.Keccak256(buf))
}

func uintWord(v uint64) []byte {
	return common.BigToHash(new(big.Int).SetUint64(v)).Bytes()
}

func amountWord(a amount.Amount) []byte {
	return common.BigToHash(a.ToLedger()).Bytes()
}

func addressWord(a common.Address) []byte {
	return common.BytesToHash(a.Bytes()).Bytes()
}

// Hash returns the canonical struct hash identifying the order.
func (o *AppOrder) Hash() common.Hash {
	return hashFields(appOrderType,
		addressWord(o.App), amountWord(o.AppPrice), uintWord(o.Volume), o.Tag[:],
		addressWord(o.DatasetRestrict), addressWord(o.WorkerpoolRestrict),
		addressWord(o.RequesterRestrict), o.Salt[:])
}

// Hash returns the canonical struct hash identifying the order.
func (o *DatasetOrder) Hash() common.Hash {
	return hashFields(datasetOrderType,
		addressWord(o.Dataset), amountWord(o.DatasetPrice), uintWord(o.Volume), o.Tag[:],
		addressWord(o.AppRestrict), addressWord(o.WorkerpoolRestrict),
		addressWord(o.RequesterRestrict), o.Salt[:])
}

// Hash returns the canonical struct hash identifying the order.
func (o *WorkerpoolOrder) Hash() common.Hash {
	return hashFields(workerpoolOrderType,
		addressWord(o.Workerpool), amountWord(o.WorkerpoolPrice), uintWord(o.Volume), o.Tag[:],
		uintWord(o.Category), uintWord(o.Trust),
		addressWord(o.AppRestrict), addressWord(o.DatasetRestrict),
		addressWord(o.RequesterRestrict), o.Salt[:])
}

// Hash returns the canonical struct hash identifying the order.
func (o *RequestOrder) Hash() common.Hash {
	return hashFields(requestOrderType,
		addressWord(o.Requester),
		addressWord(o.App), amountWord(o.AppMaxPrice),
		addressWord(o.Dataset), amountWord(o.DatasetMaxPrice),
		addressWord(o.Workerpool), amountWord(o.WorkerpoolMaxPrice),
		uintWord(o.Volume), o.Tag[:], uintWord(o.Category), uintWord(o.Trust),
		addressWord(o.Beneficiary), addressWord(o.Callback),
		crypto.Keccak256([]byte(o.Params)), o.Salt[:])
}

// UnitPriceSum is the total credit price of one unit of work across the sell
// side of the candidate: app + dataset (when present) + workerpool.
func (c *Candidate) UnitPriceSum() (amount.Amount, error) {
	total, err := c.App.AppPrice.Add(c.Workerpool.WorkerpoolPrice)
	if err != nil {
		return amount.Amount{}, err
	}
	if c.Dataset != nil {
		total, err = total.Add(c.Dataset.DatasetPrice)
		if err != nil {
			return amount.Amount{}, err
		}
	}
	return total, nil
}
