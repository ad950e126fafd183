// Package settle submits state-changing marketplace transactions and proves
// their outcome. A confirmed transaction's return value is not observable by
// the caller, so the only evidence of what happened is the emitted log; the
// reconciliation half of this package locates the entries that prove the
// intended effect and extracts the amounts that actually moved.
package settle

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"dealmarket/ledger"
)

// swapEventABI describes the pool contract's Swap event. The pool is a
// foreign contract: its entries arrive undecoded and are probed with
// DecodeForeignEvent.
const swapEventABI = `[{"anonymous":false,"inputs":[
{"indexed":true,"internalType":"address","name":"sender","type":"address"},
{"indexed":false,"internalType":"uint256","name":"amount0In","type":"uint256"},
{"indexed":false,"internalType":"uint256","name":"amount1In","type":"uint256"},
{"indexed":false,"internalType":"uint256","name":"amount0Out","type":"uint256"},
{"indexed":false,"internalType":"uint256","name":"amount1Out","type":"uint256"},
{"indexed":true,"internalType":"address","name":"to","type":"address"}],
"name":"Swap","type":"event"}]`

var swapABI = mustABI(swapEventABI)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// FindEvent returns the first decoded event with the given name, nil when the
// log holds none. Name alone is rarely proof enough; combine with argument
// predicates below.
func FindEvent(name string, events []ledger.Event) *ledger.Event {
	for i := range events {
		if events[i].Name == name {
			return &events[i]
		}
	}
	return nil
}

// FindTransfer returns the first Transfer event emitted by the given token
// contract whose from/to arguments both match. Emitter address and argument
// equality are both required: a log can contain structurally identical
// transfers from unrelated contracts within the same transaction.
func FindTransfer(events []ledger.Event, token, from, to common.Address) *ledger.Event {
	for i := range events {
		ev := &events[i]
		if ev.Name != "Transfer" || ev.Address != token {
			continue
		}
		if ev.AddressArg("from") != from || ev.AddressArg("to") != to {
			continue
		}
		return ev
	}
	return nil
}

// FindTransferFrom returns the first Transfer from the given sender on the
// given token, regardless of recipient. Used when the recipient is not known
// in advance and must be read from the log itself.
func FindTransferFrom(events []ledger.Event, token, from common.Address) *ledger.Event {
	for i := range events {
		ev := &events[i]
		if ev.Name != "Transfer" || ev.Address != token {
			continue
		}
		if ev.AddressArg("from") != from {
			continue
		}
		return ev
	}
	return nil
}

// DecodeForeignEvent probes a single log entry against one event of a foreign
// contract's ABI. It returns the decoded fields, or nil when the entry does
// not match the signature — a mismatch is an expected miss, not an error, so
// heterogeneous logs can be scanned entry by entry.
func DecodeForeignEvent(contractABI abi.ABI, eventName string, entry *ledger.Event) map[string]interface{} {
	if entry == nil || len(entry.Topics) == 0 {
		return nil
	}
	event, ok := contractABI.Events[eventName]
	if !ok || entry.Topics[0] != event.ID {
		return nil
	}
	fields := make(map[string]interface{})
	if err := event.Inputs.UnpackIntoMap(fields, entry.Data); err != nil {
		return nil
	}
	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) != len(entry.Topics)-1 {
		return nil
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(fields, indexed, entry.Topics[1:]); err != nil {
			return nil
		}
	}
	return fields
}
