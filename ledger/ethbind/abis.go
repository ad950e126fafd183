package ethbind

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI fragments of the externally given contracts. The marketplace contract
// owns order matching, the escrow accounts, and the pool-facing estimator
// views; the credit token is a standard ERC-20 surface of which only the
// Transfer event matters here.

const appOrderComponents = `[
{"internalType":"address","name":"app","type":"address"},
{"internalType":"uint256","name":"appPrice","type":"uint256"},
{"internalType":"uint256","name":"volume","type":"uint256"},
{"internalType":"bytes32","name":"tag","type":"bytes32"},
{"internalType":"address","name":"datasetRestrict","type":"address"},
{"internalType":"address","name":"workerpoolRestrict","type":"address"},
{"internalType":"address","name":"requesterRestrict","type":"address"},
{"internalType":"bytes32","name":"salt","type":"bytes32"},
{"internalType":"bytes","name":"sign","type":"bytes"}]`

const datasetOrderComponents = `[
{"internalType":"address","name":"dataset","type":"address"},
{"internalType":"uint256","name":"datasetPrice","type":"uint256"},
{"internalType":"uint256","name":"volume","type":"uint256"},
{"internalType":"bytes32","name":"tag","type":"bytes32"},
{"internalType":"address","name":"appRestrict","type":"address"},
{"internalType":"address","name":"workerpoolRestrict","type":"address"},
{"internalType":"address","name":"requesterRestrict","type":"address"},
{"internalType":"bytes32","name":"salt","type":"bytes32"},
{"internalType":"bytes","name":"sign","type":"bytes"}]`

const workerpoolOrderComponents = `[
{"internalType":"address","name":"workerpool","type":"address"},
{"internalType":"uint256","name":"workerpoolPrice","type":"uint256"},
{"internalType":"uint256","name":"volume","type":"uint256"},
{"internalType":"bytes32","name":"tag","type":"bytes32"},
{"internalType":"uint256","name":"category","type":"uint256"},
{"internalType":"uint256","name":"trust","type":"uint256"},
{"internalType":"address","name":"appRestrict","type":"address"},
{"internalType":"address","name":"datasetRestrict","type":"address"},
{"internalType":"address","name":"requesterRestrict","type":"address"},
{"internalType":"bytes32","name":"salt","type":"bytes32"},
{"internalType":"bytes","name":"sign","type":"bytes"}]`

const requestOrderComponents = `[
{"internalType":"address","name":"requester","type":"address"},
{"internalType":"address","name":"app","type":"address"},
{"internalType":"uint256","name":"appMaxPrice","type":"uint256"},
{"internalType":"address","name":"dataset","type":"address"},
{"internalType":"uint256","name":"datasetMaxPrice","type":"uint256"},
{"internalType":"address","name":"workerpool","type":"address"},
{"internalType":"uint256","name":"workerpoolMaxPrice","type":"uint256"},
{"internalType":"uint256","name":"volume","type":"uint256"},
{"internalType":"bytes32","name":"tag","type":"bytes32"},
{"internalType":"uint256","name":"category","type":"uint256"},
{"internalType":"uint256","name":"trust","type":"uint256"},
{"internalType":"address","name":"beneficiary","type":"address"},
{"internalType":"address","name":"callback","type":"address"},
{"internalType":"string","name":"params","type":"string"},
{"internalType":"bytes32","name":"salt","type":"bytes32"},
{"internalType":"bytes","name":"sign","type":"bytes"}]`

func orderTuples() string {
	return `{"internalType":"struct AppOrder","name":"apporder","type":"tuple","components":` + appOrderComponents + `},
{"internalType":"struct DatasetOrder","name":"datasetorder","type":"tuple","components":` + datasetOrderComponents + `},
{"internalType":"struct WorkerpoolOrder","name":"workerpoolorder","type":"tuple","components":` + workerpoolOrderComponents + `},
{"internalType":"struct RequestOrder","name":"requestorder","type":"tuple","components":` + requestOrderComponents + `}`
}

func marketplaceABIJSON() string {
	return `[
{"inputs":[{"internalType":"uint256","name":"tokenWanted","type":"uint256"}],"name":"depositEth","outputs":[],"stateMutability":"payable","type":"function"},
{"inputs":[{"internalType":"uint256","name":"tokenSent","type":"uint256"},{"internalType":"uint256","name":"ethWanted","type":"uint256"}],"name":"withdrawEth","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[` + orderTuples() + `],"name":"matchOrders","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"payable","type":"function"},
{"inputs":[{"internalType":"bytes32","name":"orderHash","type":"bytes32"}],"name":"viewConsumed","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[` + orderTuples() + `],"name":"viewCompatibility","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"asset","type":"address"}],"name":"viewOwner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"viewAccount","outputs":[{"internalType":"uint256","name":"stake","type":"uint256"},{"internalType":"uint256","name":"locked","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"ethSent","type":"uint256"}],"name":"estimateDepositTokenWanted","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"tokenWanted","type":"uint256"}],"name":"estimateDepositEthSent","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"ethWanted","type":"uint256"}],"name":"estimateWithdrawTokenSent","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"tokenSent","type":"uint256"}],"name":"estimateWithdrawEthWanted","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"anonymous":false,"inputs":[
{"indexed":false,"internalType":"bytes32","name":"dealid","type":"bytes32"},
{"indexed":false,"internalType":"bytes32","name":"appHash","type":"bytes32"},
{"indexed":false,"internalType":"bytes32","name":"datasetHash","type":"bytes32"},
{"indexed":false,"internalType":"bytes32","name":"workerpoolHash","type":"bytes32"},
{"indexed":false,"internalType":"bytes32","name":"requestHash","type":"bytes32"},
{"indexed":false,"internalType":"uint256","name":"volume","type":"uint256"}],
"name":"OrdersMatched","type":"event"}]`
}

const erc20ABIJSON = `[
{"anonymous":false,"inputs":[
{"indexed":true,"internalType":"address","name":"from","type":"address"},
{"indexed":true,"internalType":"address","name":"to","type":"address"},
{"indexed":false,"internalType":"uint256","name":"value","type":"uint256"}],
"name":"Transfer","type":"event"}]`

var (
	marketplaceABI = mustABI(marketplaceABIJSON())
	erc20ABI       = mustABI(erc20ABIJSON)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// MarketplaceABI returns the marketplace contract's ABI fragment.
func MarketplaceABI() abi.ABI { return marketplaceABI }

// ERC20ABI returns the credit token's ABI fragment.
func ERC20ABI() abi.ABI { return erc20ABI }
