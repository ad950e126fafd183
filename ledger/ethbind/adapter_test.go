package ethbind

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

func word(v *big.Int) []byte { return common.BigToHash(v).Bytes() }

func testContract() *Contract {
	return NewContract(common.HexToAddress("0x3eca1B216A7DF1C7689aEb259fFB83ADFB894E7f"),
		marketplaceABI, nil, nil, erc20ABI)
}

func TestDecodeLogKnownTransfer(t *testing.T) {
	c := testContract()
	token := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	from := common.Address{}
	to := common.HexToAddress("0xca11e00000000000000000000000000000000001")

	lg := &ethtypes.Log{
		Address: token,
		Topics: []common.Hash{
			erc20ABI.Events["Transfer"].ID,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: word(big.NewInt(77)),
	}

	ev := c.decodeLog(lg)
	if ev.Name != "Transfer" {
		t.Fatalf("name: %q", ev.Name)
	}
	if ev.Address != token {
		t.Fatalf("address: %s", ev.Address)
	}
	if ev.AddressArg("to") != to || ev.AddressArg("from") != from {
		t.Fatalf("args: %+v", ev.Args)
	}
	if ev.BigArg("value").Int64() != 77 {
		t.Fatalf("value: %v", ev.BigArg("value"))
	}
}

func TestDecodeLogKnownOrdersMatched(t *testing.T) {
	c := testContract()
	deal := common.HexToHash("0xdea1")

	data := make([]byte, 0, 32*6)
	data = append(data, deal.Bytes()...)
	for i := 0; i < 4; i++ {
		data = append(data, word(big.NewInt(int64(i)))...)
	}
	data = append(data, word(big.NewInt(6))...)

	lg := &ethtypes.Log{
		Address: c.Address(),
		Topics:  []common.Hash{marketplaceABI.Events["OrdersMatched"].ID},
		Data:    data,
	}

	ev := c.decodeLog(lg)
	if ev.Name != "OrdersMatched" {
		t.Fatalf("name: %q", ev.Name)
	}
	if got, ok := ev.Arg("dealid").([32]byte); !ok || got != [32]byte(deal) {
		t.Fatalf("dealid: %v", ev.Arg("dealid"))
	}
	if ev.BigArg("volume").Int64() != 6 {
		t.Fatalf("volume: %v", ev.BigArg("volume"))
	}
}

func TestDecodeLogForeignStaysRaw(t *testing.T) {
	c := testContract()
	lg := &ethtypes.Log{
		Address: common.HexToAddress("0xF00100000000000000000000000000000000000a"),
		Topics:  []common.Hash{{0xde, 0xad, 0xbe, 0xef}},
		Data:    []byte{1, 2, 3},
	}

	ev := c.decodeLog(lg)
	if ev.Name != "" || ev.Args != nil {
		t.Fatalf("foreign log decoded: %+v", ev)
	}
	if len(ev.Topics) != 1 || len(ev.Data) != 3 {
		t.Fatalf("raw payload not preserved: %+v", ev)
	}
}
