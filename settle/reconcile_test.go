package settle

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"dealmarket/ledger"
)

func packWords(values ...*big.Int) []byte {
	out := make([]byte, 0, 32*len(values))
	for _, v := range values {
		out = append(out, common.BigToHash(v).Bytes()...)
	}
	return out
}

func rawSwapEvent(pool, sender, to common.Address, in0, in1, out0, out1 int64) ledger.Event {
	return ledger.Event{
		Address: pool,
		Topics: []common.Hash{
			swapABI.Events["Swap"].ID,
			common.BytesToHash(sender.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: packWords(big.NewInt(in0), big.NewInt(in1), big.NewInt(out0), big.NewInt(out1)),
	}
}

func TestDecodeForeignEventSwap(t *testing.T) {
	pool := common.HexToAddress("0xbe9")
	to := common.HexToAddress("0x7ab")
	entry := rawSwapEvent(pool, common.HexToAddress("0x5e4"), to, 100, 0, 0, 42)

	fields := DecodeForeignEvent(swapABI, "Swap", &entry)
	require.NotNil(t, fields)
	require.Equal(t, big.NewInt(100), fields["amount0In"])
	require.Equal(t, big.NewInt(42), fields["amount1Out"])
	require.Equal(t, to, fields["to"])
}

func TestDecodeForeignEventMismatchIsNilNotError(t *testing.T) {
	pool := common.HexToAddress("0xbe9")
	entry := rawSwapEvent(pool, common.Address{}, common.Address{}, 1, 0, 0, 1)

	// Unknown event name.
	require.Nil(t, DecodeForeignEvent(swapABI, "Sync", &entry))

	// Wrong signature topic.
	wrongSig := entry
	wrongSig.Topics = append([]common.Hash{{0x01}}, entry.Topics[1:]...)
	require.Nil(t, DecodeForeignEvent(swapABI, "Swap", &wrongSig))

	// Indexed arity mismatch.
	short := entry
	short.Topics = entry.Topics[:2]
	require.Nil(t, DecodeForeignEvent(swapABI, "Swap", &short))

	// Truncated payload.
	truncated := entry
	truncated.Data = entry.Data[:16]
	require.Nil(t, DecodeForeignEvent(swapABI, "Swap", &truncated))

	require.Nil(t, DecodeForeignEvent(swapABI, "Swap", nil))
}

func transferEvent(token, from, to common.Address, value int64) ledger.Event {
	return ledger.Event{
		Address: token,
		Name:    "Transfer",
		Args: map[string]interface{}{
			"from":  from,
			"to":    to,
			"value": big.NewInt(value),
		},
	}
}

func TestFindTransferRequiresAddressAndArguments(t *testing.T) {
	token := common.HexToAddress("0x70cc")
	other := common.HexToAddress("0x07e2")
	from := common.HexToAddress("0xf0")
	to := common.HexToAddress("0x10")

	events := []ledger.Event{
		// Structurally identical transfer from an unrelated contract.
		transferEvent(other, from, to, 1),
		// Right contract, wrong recipient.
		transferEvent(token, from, other, 2),
		transferEvent(token, from, to, 3),
	}

	got := FindTransfer(events, token, from, to)
	require.NotNil(t, got)
	require.Equal(t, big.NewInt(3), got.BigArg("value"))

	require.Nil(t, FindTransfer(events, token, to, from))

	byFrom := FindTransferFrom(events, token, from)
	require.NotNil(t, byFrom)
	require.Equal(t, other, byFrom.AddressArg("to"))
}

func TestFindEvent(t *testing.T) {
	events := []ledger.Event{
		{Name: "Transfer"},
		{Name: "OrdersMatched", Args: map[string]interface{}{"volume": big.NewInt(3)}},
	}
	require.NotNil(t, FindEvent("OrdersMatched", events))
	require.Nil(t, FindEvent("Withdraw", events))
}
