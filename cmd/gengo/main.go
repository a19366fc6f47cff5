package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/gengo-go/internal/app"
	"github.com/samvad-hq/gengo-go/internal/config"
	"github.com/samvad-hq/gengo-go/internal/logger"
	"github.com/samvad-hq/gengo-go/internal/storage"
	"github.com/spf13/pflag"
)

const usage = `usage: gengo [--sandbox] [--debug] <method> [key=value ...] [--data JSON] [--file field=path ...] [--out path] [--dry-run]
       gengo methods
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// flagAliases maps short flag names to their config keys.
var flagAliases = map[string]string{
	"sandbox":     "gengo_sandbox",
	"debug":       "gengo_debug",
	"base-url":    "gengo_base_url",
	"api-version": "gengo_api_version",
	"log-level":   "log_level",
}

type cliFlags struct {
	data   string
	files  []string
	out    string
	dryRun bool
}

func newFlagSet(stderr io.Writer) (*pflag.FlagSet, *cliFlags) {
	var cf cliFlags
	fs := pflag.NewFlagSet("gengo", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if key, ok := flagAliases[name]; ok {
			name = key
		}
		return pflag.NormalizedName(name)
	})

	fs.Bool("gengo_sandbox", false, "target the sandbox environment")
	fs.Bool("gengo_debug", false, "log raw request/response exchanges")
	fs.String("gengo_base_url", "", "override the API base URL")
	fs.String("gengo_api_version", "v2", "API version substituted into the base URL")
	fs.String("log_level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&cf.data, "data", "", "JSON object merged into the call parameters")
	fs.StringArrayVar(&cf.files, "file", nil, "multipart attachment as field=path (repeatable)")
	fs.StringVar(&cf.out, "out", "", "write the response to this file")
	fs.BoolVar(&cf.dryRun, "dry-run", false, "print the resolved request URL without calling the API")
	return fs, &cf
}

func run(args []string, stdout, stderr io.Writer) int {
	fs, cf := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	if rest[0] == "methods" {
		if err := app.ListMethods(stdout); err != nil {
			fmt.Fprintf(stderr, "gengo: %v\n", err)
			return 1
		}
		return 0
	}

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		fmt.Fprintf(stderr, "gengo: load config: %v\n", err)
		return 2
	}

	sugar, err := logger.Init(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "gengo: init logger: %v\n", err)
		return 1
	}
	defer logger.Close()
	log := logger.New(sugar)

	inv, err := app.ParseInvocation(rest[0], rest[1:], cf.data, cf.files)
	if err != nil {
		fmt.Fprintf(stderr, "gengo: %v\n", err)
		return app.ExitCode(err)
	}
	inv.OutPath = cf.out
	inv.DryRun = cf.dryRun

	var store storage.Store
	if app.UpdatesLedger(inv.Method) && !inv.DryRun {
		// The watcher may hold the ledger open; the call itself does not depend on it.
		if store, err = app.OpenStore(cfg, log); err != nil {
			log.WarnObj("job ledger unavailable", "error", err.Error())
			store = nil
		} else {
			defer store.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := app.NewClient(cfg, sugar, log)
	log.DebugObj("calling api", "call", map[string]any{
		"method":      inv.Method,
		"environment": cfg.Environment(),
		"base_url":    client.BaseURL(),
	})

	if err := app.NewInvoker(client, store, stdout, log).Run(ctx, inv); err != nil {
		fmt.Fprintf(stderr, "gengo: %v\n", err)
		return app.ExitCode(err)
	}
	return 0
}
