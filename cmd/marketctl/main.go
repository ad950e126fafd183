package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"dealmarket/amount"
	"dealmarket/config"
	"dealmarket/ledger/ethbind"
	"dealmarket/market"
	"dealmarket/observability/logging"
	"dealmarket/pool"
)

const (
	quoteCommand   = "quote"
	previewCommand = "preview-match"
	defaultConfig  = "./engine.toml"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case quoteCommand:
		runQuote(os.Args[2:])
	case previewCommand:
		runPreview(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: marketctl <command> [flags]

Commands:
  %s          Quote a currency conversion against the pool
  %s  Preview matchable volume, stake check, and cost for an order set
`, quoteCommand, previewCommand)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func dial(configPath string) (*config.Config, *ethbind.Marketplace, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(cfg.Service, cfg.Env)
	client, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", cfg.RPCEndpoint, err)
	}
	// Read-only wiring: no transact options, so sends are rejected.
	return cfg, ethbind.NewMarketplace(cfg.Marketplace(), client, nil), nil
}

func runQuote(args []string) {
	fs := flag.NewFlagSet(quoteCommand, flag.ExitOnError)
	configPath := fs.String("config", defaultConfig, "Path to the engine config file")
	direction := fs.String("direction", "deposit-credit-out",
		"One of deposit-credit-out, deposit-native-in, withdraw-credit-in, withdraw-native-out")
	rawAmount := fs.String("amount", "", "Input amount in base units")
	fs.Parse(args)

	value, ok := new(big.Int).SetString(*rawAmount, 10)
	if !ok {
		fatal(fmt.Errorf("amount %q is not a base-10 integer", *rawAmount))
	}

	cfg, mkt, err := dial(*configPath)
	if err != nil {
		fatal(err)
	}
	estimator := pool.NewEstimator(mkt.Contract(), cfg.SwapEnabled)

	ctx := context.Background()
	var out amount.Amount
	switch *direction {
	case "deposit-credit-out":
		in, aerr := amount.New(value, amount.Native)
		if aerr == nil {
			out, err = estimator.EstimateDepositCreditOut(ctx, in)
		} else {
			err = aerr
		}
	case "deposit-native-in":
		in, aerr := amount.New(value, amount.Credit)
		if aerr == nil {
			out, err = estimator.EstimateDepositNativeIn(ctx, in)
		} else {
			err = aerr
		}
	case "withdraw-credit-in":
		in, aerr := amount.New(value, amount.Native)
		if aerr == nil {
			out, err = estimator.EstimateWithdrawCreditIn(ctx, in)
		} else {
			err = aerr
		}
	case "withdraw-native-out":
		in, aerr := amount.New(value, amount.Credit)
		if aerr == nil {
			out, err = estimator.EstimateWithdrawNativeOut(ctx, in)
		} else {
			err = aerr
		}
	default:
		err = fmt.Errorf("unknown direction %q", *direction)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Println(out)
}

// Order documents are plain JSON renderings of the four signed order kinds,
// amounts in base credit units.
type orderFile struct {
	App struct {
		App                string `json:"app"`
		AppPrice           int64  `json:"appPrice"`
		Volume             uint64 `json:"volume"`
		DatasetRestrict    string `json:"datasetRestrict"`
		WorkerpoolRestrict string `json:"workerpoolRestrict"`
		RequesterRestrict  string `json:"requesterRestrict"`
		Salt               string `json:"salt"`
		Sign               string `json:"sign"`
	} `json:"app"`
	Dataset *struct {
		Dataset            string `json:"dataset"`
		DatasetPrice       int64  `json:"datasetPrice"`
		Volume             uint64 `json:"volume"`
		AppRestrict        string `json:"appRestrict"`
		WorkerpoolRestrict string `json:"workerpoolRestrict"`
		RequesterRestrict  string `json:"requesterRestrict"`
		Salt               string `json:"salt"`
		Sign               string `json:"sign"`
	} `json:"dataset"`
	Workerpool struct {
		Workerpool        string `json:"workerpool"`
		WorkerpoolPrice   int64  `json:"workerpoolPrice"`
		Volume            uint64 `json:"volume"`
		Category          uint64 `json:"category"`
		Trust             uint64 `json:"trust"`
		AppRestrict       string `json:"appRestrict"`
		DatasetRestrict   string `json:"datasetRestrict"`
		RequesterRestrict string `json:"requesterRestrict"`
		Salt              string `json:"salt"`
		Sign              string `json:"sign"`
	} `json:"workerpool"`
	Request struct {
		Requester          string `json:"requester"`
		App                string `json:"app"`
		AppMaxPrice        int64  `json:"appMaxPrice"`
		Dataset            string `json:"dataset"`
		DatasetMaxPrice    int64  `json:"datasetMaxPrice"`
		Workerpool         string `json:"workerpool"`
		WorkerpoolMaxPrice int64  `json:"workerpoolMaxPrice"`
		Volume             uint64 `json:"volume"`
		Category           uint64 `json:"category"`
		Trust              uint64 `json:"trust"`
		Beneficiary        string `json:"beneficiary"`
		Callback           string `json:"callback"`
		Params             string `json:"params"`
		Salt               string `json:"salt"`
		Sign               string `json:"sign"`
	} `json:"request"`
}

func creditAmount(v int64) amount.Amount {
	return amount.MustNew(v, amount.Credit)
}

func salt(raw string) [32]byte {
	return common.HexToHash(raw)
}

func loadCandidate(path string) (*market.Candidate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc orderFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	c := &market.Candidate{
		App: market.AppOrder{
			App:                common.HexToAddress(doc.App.App),
			AppPrice:           creditAmount(doc.App.AppPrice),
			Volume:             doc.App.Volume,
			DatasetRestrict:    common.HexToAddress(doc.App.DatasetRestrict),
			WorkerpoolRestrict: common.HexToAddress(doc.App.WorkerpoolRestrict),
			RequesterRestrict:  common.HexToAddress(doc.App.RequesterRestrict),
			Salt:               salt(doc.App.Salt),
			Sign:               common.FromHex(doc.App.Sign),
		},
		Workerpool: market.WorkerpoolOrder{
			Workerpool:        common.HexToAddress(doc.Workerpool.Workerpool),
			WorkerpoolPrice:   creditAmount(doc.Workerpool.WorkerpoolPrice),
			Volume:            doc.Workerpool.Volume,
			Category:          doc.Workerpool.Category,
			Trust:             doc.Workerpool.Trust,
			AppRestrict:       common.HexToAddress(doc.Workerpool.AppRestrict),
			DatasetRestrict:   common.HexToAddress(doc.Workerpool.DatasetRestrict),
			RequesterRestrict: common.HexToAddress(doc.Workerpool.RequesterRestrict),
			Salt:              salt(doc.Workerpool.Salt),
			Sign:              common.FromHex(doc.Workerpool.Sign),
		},
		Request: market.RequestOrder{
			Requester:          common.HexToAddress(doc.Request.Requester),
			App:                common.HexToAddress(doc.Request.App),
			AppMaxPrice:        creditAmount(doc.Request.AppMaxPrice),
			Dataset:            common.HexToAddress(doc.Request.Dataset),
			DatasetMaxPrice:    creditAmount(doc.Request.DatasetMaxPrice),
			Workerpool:         common.HexToAddress(doc.Request.Workerpool),
			WorkerpoolMaxPrice: creditAmount(doc.Request.WorkerpoolMaxPrice),
			Volume:             doc.Request.Volume,
			Category:           doc.Request.Category,
			Trust:              doc.Request.Trust,
			Beneficiary:        common.HexToAddress(doc.Request.Beneficiary),
			Callback:           common.HexToAddress(doc.Request.Callback),
			Params:             doc.Request.Params,
			Salt:               salt(doc.Request.Salt),
			Sign:               common.FromHex(doc.Request.Sign),
		},
	}
	if doc.Dataset != nil {
		c.Dataset = &market.DatasetOrder{
			Dataset:            common.HexToAddress(doc.Dataset.Dataset),
			DatasetPrice:       creditAmount(doc.Dataset.DatasetPrice),
			Volume:             doc.Dataset.Volume,
			AppRestrict:        common.HexToAddress(doc.Dataset.AppRestrict),
			WorkerpoolRestrict: common.HexToAddress(doc.Dataset.WorkerpoolRestrict),
			RequesterRestrict:  common.HexToAddress(doc.Dataset.RequesterRestrict),
			Salt:               salt(doc.Dataset.Salt),
			Sign:               common.FromHex(doc.Dataset.Sign),
		}
	}
	return c, nil
}

func runPreview(args []string) {
	fs := flag.NewFlagSet(previewCommand, flag.ExitOnError)
	configPath := fs.String("config", defaultConfig, "Path to the engine config file")
	ordersPath := fs.String("orders", "", "Path to the JSON order document")
	fs.Parse(args)

	if *ordersPath == "" {
		fatal(fmt.Errorf("-orders is required"))
	}
	candidate, err := loadCandidate(*ordersPath)
	if err != nil {
		fatal(err)
	}

	cfg, mkt, err := dial(*configPath)
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()
	volume, err := market.NewEvaluator(mkt).ComputeMatchableVolume(ctx, candidate)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("matchable volume: %d\n", volume)

	owner, err := mkt.Owner(ctx, candidate.Workerpool.Workerpool)
	if err != nil {
		fatal(err)
	}
	required, err := market.RequiredStake(volume, candidate.Workerpool.WorkerpoolPrice)
	if err != nil {
		fatal(err)
	}
	if err := market.NewGuard(mkt).CheckStakeSufficiency(ctx, owner, required); err != nil {
		fmt.Printf("stake check: %v\n", err)
	} else {
		fmt.Printf("stake check: ok (%s required of %s)\n", required, owner)
	}

	estimator := pool.NewEstimator(mkt.Contract(), cfg.SwapEnabled)
	if !estimator.Enabled() {
		fmt.Println("cost: swap disabled on this ledger")
		return
	}
	cost, err := estimator.EstimateMatchCost(ctx, candidate, volume)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("cost: %s\n", cost)
}
