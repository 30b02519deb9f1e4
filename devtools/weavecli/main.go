package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/contract"
	"github.com/warp-contracts/weave-engine/instrumentation/log"
	"github.com/warp-contracts/weave-engine/services/definition"
	definitiongateway "github.com/warp-contracts/weave-engine/services/definition/adapter/gateway"
	"github.com/warp-contracts/weave-engine/services/evaluator"
	"github.com/warp-contracts/weave-engine/services/executor"
	"github.com/warp-contracts/weave-engine/services/loader"
	loadergateway "github.com/warp-contracts/weave-engine/services/loader/adapter/gateway"
	"github.com/warp-contracts/weave-engine/services/loader/adapter/gql"
	"github.com/warp-contracts/weave-engine/services/sandbox"
	"github.com/warp-contracts/weave-engine/services/statestorage"
	"github.com/warp-contracts/weave-engine/services/statestorage/adapter/leveldb"
	"github.com/warp-contracts/weave-engine/services/statestorage/adapter/memory"
)

// weave-cli read-state <contractId> [-gateway=...] [-sort-key=...]
// weave-cli view-state <contractId> <input.json> [-caller=...]
// weave-cli dry-write <contractId> <input.json> [-caller=...]
//
// No sandbox plugin ships with this CLI (spec.md places concrete JS/wasm
// engines out of scope), so every run resolves the contract definition and
// then fails with "no sandbox plugin registered" when the executor factory
// is asked for a handler, before any interaction is loaded or folded. The
// CLI is useful for exercising the flag and definition-loading wiring.
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(0)
	}

	var exitCode int
	switch os.Args[1] {
	case "read-state":
		exitCode = handleReadState(os.Args[2:])
	case "view-state":
		exitCode = handleViewState(os.Args[2:])
	case "dry-write":
		exitCode = handleDryWrite(os.Args[2:])
	default:
		usage()
		exitCode = 1
	}
	os.Exit(exitCode)
}

func usage() {
	fmt.Println("Welcome to weave-cli")
	fmt.Println("")
	fmt.Println("$ weave-cli read-state <contractId> [-sort-key=<key>]")
	fmt.Println("  Fold a contract's interaction stream and print the resulting state")
	fmt.Println("")
	fmt.Println("$ weave-cli view-state <contractId> <input.json> [-caller=<address>]")
	fmt.Println("  Run input against the latest state without writing anything")
	fmt.Println("")
	fmt.Println("$ weave-cli dry-write <contractId> <input.json> [-caller=<address>]")
	fmt.Println("  Run input as a confirmed interaction would, without persisting it")
	fmt.Println("")
	fmt.Println("Every command also accepts -log-output=stdout|file|http, -log-file=,")
	fmt.Println("-log-rotate, -log-http-url=, -log-bulk-size=, -log-errors-only,")
	fmt.Println("-log-ignore-errors-matching=, -log-allow-errors= and -log-fail-on-errors=")
}

func commonFlags(fs *flag.FlagSet) (gatewayURL, gqlEndpoint, cacheDir *string, testnet *bool) {
	gatewayURL = fs.String("gateway", "", "base URL of the interactions gateway")
	gqlEndpoint = fs.String("gql", "", "GraphQL endpoint, used instead of -gateway")
	cacheDir = fs.String("cache-dir", "", "leveldb directory for the sort-key cache; defaults to an in-memory cache")
	testnet = fs.Bool("testnet", false, "evaluate against testnet-tagged contracts")
	return gatewayURL, gqlEndpoint, cacheDir, testnet
}

// logFlags is a slight generalization of commonFlags for the subset of
// flags that select where interaction-evaluation logs go: stdout (the
// default), a local file, or a bulk HTTP sink, same three-way choice the
// loader/cache flags above make for their own adapters.
type logFlags struct {
	output          *string
	file            *string
	rotate          *bool
	httpURL         *string
	bulkSize        *int
	errorsOnly      *bool
	ignoreErrorsRE  *string
	allowError      *string
	recordedErrorsN *int
}

func addLogFlags(fs *flag.FlagSet) logFlags {
	return logFlags{
		output:          fs.String("log-output", "stdout", "where to send logs: stdout, file, or http"),
		file:            fs.String("log-file", "", "path to the log file, required when -log-output=file"),
		rotate:          fs.Bool("log-rotate", false, "use the rotating file writer instead of the truncating one (neither truncates the file during a run)"),
		httpURL:         fs.String("log-http-url", "", "bulk log sink URL, required when -log-output=http"),
		bulkSize:        fs.Int("log-bulk-size", 100, "rows buffered before an http log flush"),
		errorsOnly:      fs.Bool("log-errors-only", false, "drop everything below error level"),
		ignoreErrorsRE:  fs.String("log-ignore-errors-matching", "", "regexp of error messages to silently drop"),
		allowError:      fs.String("log-allow-errors", "", "comma-separated exact error messages that should not count toward -log-fail-on-errors"),
		recordedErrorsN: fs.Int("log-fail-on-errors", 0, "exit non-zero if more than this many unexpected errors were logged (-1 disables)"),
	}
}

// buildLogger turns logFlags into a log.BasicLogger plus a finish func that
// reports whether the run should be considered failed because it logged
// unexpected errors. The caller must call finish after the run completes.
func buildLogger(lf logFlags) (logger log.BasicLogger, finish func() bool, err error) {
	formatter := log.NewHumanReadableFormatter()

	var output log.Output
	switch *lf.output {
	case "stdout", "":
		output = log.NewFormattingOutput(os.Stdout, formatter)
	case "file":
		if *lf.file == "" {
			return nil, nil, fmt.Errorf("-log-file is required when -log-output=file")
		}
		f, openErr := os.OpenFile(*lf.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if openErr != nil {
			return nil, nil, openErr
		}
		var writer io.Writer
		if *lf.rotate {
			writer = log.NewRotatingFileWriter(f)
		} else {
			writer = log.NewTruncatingFileWriter(f)
		}
		output = log.NewFormattingOutput(writer, formatter)
	case "http":
		if *lf.httpURL == "" {
			return nil, nil, fmt.Errorf("-log-http-url is required when -log-output=http")
		}
		output = log.NewBulkOutput(log.NewHttpWriter(*lf.httpURL), formatter, *lf.bulkSize)
	default:
		return nil, nil, fmt.Errorf("unknown -log-output %q", *lf.output)
	}

	recorder := log.NewErrorRecordingOutput(nil, nil)
	base := log.GetLogger().WithOutput(output, recorder)

	var filters []log.Filter
	if *lf.errorsOnly {
		filters = append(filters, log.OnlyErrors())
	}
	if *lf.ignoreErrorsRE != "" {
		filters = append(filters, log.IgnoreErrorsMatching(*lf.ignoreErrorsRE))
	}
	if len(filters) > 0 {
		base = base.WithFilters(filters...)
	}

	var allowedErrors []string
	if *lf.allowError != "" {
		allowedErrors = strings.Split(*lf.allowError, ",")
	}
	recordingLogger := log.NewErrorRecordingLogger(base, allowedErrors)

	threshold := *lf.recordedErrorsN
	finish = func() bool {
		if threshold < 0 {
			return false
		}
		return len(recordingLogger.GetUnexpectedErrors()) > threshold
	}
	return recordingLogger, finish, nil
}

func buildEngine(gatewayURL, gqlEndpoint, cacheDir string, testnet bool, logger log.BasicLogger) (*evaluator.Evaluator, func(), error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	defs := definition.New(definitiongateway.New(gatewayURL, httpClient), testnet)

	var interactionLoader loader.Loader
	if gqlEndpoint != "" {
		interactionLoader = gql.New(gqlEndpoint, httpClient)
	} else {
		interactionLoader = loadergateway.New(gatewayURL, httpClient)
	}

	var cacheAdapter statestorage.Adapter
	closer := func() {}
	if cacheDir != "" {
		db, err := leveldb.Open(cacheDir)
		if err != nil {
			return nil, nil, err
		}
		cacheAdapter = db
		closer = func() { _ = db.Close() }
	} else {
		cacheAdapter = memory.New()
	}
	cache := statestorage.NewEvalStateResultCache[json.RawMessage](cacheAdapter)

	engine := &evaluator.Evaluator{
		Definitions: defs,
		Loader:      interactionLoader,
		Executor:    executor.NewFactory[json.RawMessage](executor.NoBlacklist),
		Cache:       cache,
		Modifiers:   []evaluator.Modifier{evaluator.EvolveModifier{Definitions: defs}},
		Logger:      logger,
	}
	return engine, closer, nil
}

func handleReadState(args []string) int {
	fs := flag.NewFlagSet("read-state", flag.ExitOnError)
	gatewayURL, gqlEndpoint, cacheDir, testnet := commonFlags(fs)
	lf := addLogFlags(fs)
	sortKey := fs.String("sort-key", "", "fold only up to this sort-key")
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		fmt.Println(usageErr("read-state <contractId>"))
		return 1
	}
	contractId := fs.Arg(0)

	logger, finish, err := buildLogger(lf)
	if err != nil {
		fmt.Println(err)
		return 1
	}

	engine, closer, err := buildEngine(*gatewayURL, *gqlEndpoint, *cacheDir, *testnet, logger)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	defer closer()

	c := contract.New(engine, contractId, config.Defaults().Build())
	key, result, err := c.ReadState(context.Background(), *sortKey)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	if code := printResult(key, result); code != 0 {
		return code
	}
	if finish() {
		return 1
	}
	return 0
}

func handleViewState(args []string) int {
	return handleDryCommand("view-state", args, func(c *contract.Contract, ctx context.Context, input json.RawMessage, caller string) (contract.InteractionResult, error) {
		return c.ViewState(ctx, input, caller)
	})
}

func handleDryWrite(args []string) int {
	return handleDryCommand("dry-write", args, func(c *contract.Contract, ctx context.Context, input json.RawMessage, caller string) (contract.InteractionResult, error) {
		return c.DryWrite(ctx, input, caller)
	})
}

func handleDryCommand(name string, args []string, run func(*contract.Contract, context.Context, json.RawMessage, string) (contract.InteractionResult, error)) int {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	gatewayURL, gqlEndpoint, cacheDir, testnet := commonFlags(fs)
	lf := addLogFlags(fs)
	caller := fs.String("caller", "", "address to attribute the call to")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		fmt.Println(usageErr(name + " <contractId> <input.json>"))
		return 1
	}
	contractId := fs.Arg(0)
	inputPath := fs.Arg(1)

	inputBytes, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Println(err)
		return 1
	}

	logger, finish, err := buildLogger(lf)
	if err != nil {
		fmt.Println(err)
		return 1
	}

	engine, closer, err := buildEngine(*gatewayURL, *gqlEndpoint, *cacheDir, *testnet, logger)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	defer closer()

	c := contract.New(engine, contractId, config.Defaults().Build())
	result, err := run(c, context.Background(), json.RawMessage(inputBytes), *caller)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	if code := printInteractionResult(result); code != 0 {
		return code
	}
	if finish() {
		return 1
	}
	return 0
}

func printResult(sortKey string, result interface{}) int {
	out, err := json.MarshalIndent(struct {
		SortKey string      `json:"sortKey"`
		Result  interface{} `json:"result"`
	}{SortKey: sortKey, Result: result}, "", "  ")
	if err != nil {
		fmt.Println(err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func printInteractionResult(result contract.InteractionResult) int {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Println(err)
		return 1
	}
	fmt.Println(string(out))
	if result.Kind != sandbox.ResultOk {
		return 1
	}
	return 0
}

func usageErr(usage string) string {
	return fmt.Sprintf("usage: weave-cli %s", usage)
}
