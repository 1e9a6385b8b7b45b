// Command extract runs the invoice pipeline over local files and prints the
// reconciled invoices as JSON, one object per file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"invoiceflow/internal/app"
	"invoiceflow/internal/config"
	"invoiceflow/internal/domain"
	"invoiceflow/internal/parser"
	"invoiceflow/internal/pipeline"
	"invoiceflow/internal/validator"
)

type fileResult struct {
	File     string                 `json:"file"`
	Invoices []domain.Invoice       `json:"invoices"`
	Outcomes map[parser.Outcome]int `json:"outcomes,omitempty"`
	Issues   []validator.Issue      `json:"issues,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func main() {
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: extract [-pretty] file...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewPipelineOnly(cfg)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}
	defer func() { _ = a.Close() }()

	failed := run(ctx, a.Pipeline, flag.Args(), os.Stdout, *pretty)
	if failed == flag.NArg() {
		stop()
		_ = a.Close()
		os.Exit(1)
	}
}

// run processes every file and writes one JSON result per file to out. It
// returns how many files produced no invoices.
func run(ctx context.Context, runner pipeline.Runner, files []string, out io.Writer, pretty bool) int {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}

	failed := 0
	for _, file := range files {
		res := fileResult{File: file, Invoices: []domain.Invoice{}}
		result, err := runner.Process(ctx, file)
		if result != nil {
			if result.Invoices != nil {
				res.Invoices = result.Invoices
			}
			res.Outcomes = result.Outcomes
			res.Issues = result.Issues
		}
		if err != nil {
			failed++
			res.Error = err.Error()
			if !errors.Is(err, domain.ErrNoInvoicesFound) {
				log.Printf("extract: %s: %v", file, err)
			}
		}
		if err := enc.Encode(res); err != nil {
			log.Printf("extract: writing result for %s: %v", file, err)
		}
	}
	return failed
}
