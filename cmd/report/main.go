// Command report runs one overtake estimate and prints the headline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/config"
	"github.com/irfndi/powerlaw-overtake/internal/datasource"
	"github.com/irfndi/powerlaw-overtake/internal/logging"
	"github.com/irfndi/powerlaw-overtake/internal/logscale"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/irfndi/powerlaw-overtake/internal/series"
	"github.com/irfndi/powerlaw-overtake/internal/services"
	"github.com/spf13/pflag"
)

type options struct {
	mode     string
	base     string
	asset    string
	dataDir  string
	baseURL  string
	now      string
	horizon  int
	asJSON   bool
	logLevel string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("report", pflag.ContinueOnError)
	fs.StringVarP(&opts.mode, "mode", "m", string(models.ModeHashrate), "metric to compare: hashrate or prices")
	fs.StringVarP(&opts.base, "base", "b", "2", "logarithm base: 2, 10 or e")
	fs.StringVarP(&opts.asset, "asset", "a", "btc", "comparison asset")
	fs.StringVarP(&opts.dataDir, "data-dir", "d", "./data", "directory holding the CSV series")
	fs.StringVar(&opts.baseURL, "base-url", "", "fetch CSV series over HTTP instead of from data-dir")
	fs.StringVar(&opts.now, "now", "", "reference date (YYYY-MM-DD); defaults to today")
	fs.IntVar(&opts.horizon, "horizon", 12, "projection horizon in years")
	fs.BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.horizon <= 0 {
		return options{}, fmt.Errorf("horizon must be positive, got %d", opts.horizon)
	}
	return opts, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	mode, err := models.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	base, err := logscale.Parse(opts.base)
	if err != nil {
		return err
	}
	params := models.Params{Mode: mode, Base: base, Asset: opts.asset}
	if opts.now != "" {
		now, err := series.ParseDate(opts.now)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		params.Now = now
	}

	logger := logging.NewLogger(opts.logLevel, "development")
	logger.SetOutput(os.Stderr)

	var source datasource.Source = datasource.NewFileSource(opts.dataDir)
	if opts.baseURL != "" {
		source = datasource.NewHTTPSource(opts.baseURL, 30*time.Second, logger)
	}

	service := services.NewOvertakeService(source, services.DefaultAssets(), services.OvertakeConfig{
		HorizonYears: opts.horizon,
		Files:        defaultFiles(),
	}, logger, nil, nil)

	result, err := service.Run(context.Background(), params)
	if err != nil {
		return err
	}
	return printResult(out, result, opts.asJSON)
}

// defaultFiles mirrors the server's default file name templates.
func defaultFiles() config.DataConfig {
	return config.DataConfig{
		PricesHistorical:   "kaspa_prices_%s_historical.csv",
		PricesLive:         "kaspa_prices_%s_api.csv",
		HashrateHistorical: "%s_hashrate_historical.csv",
		HashrateLive:       "%s_hashrate_api.csv",
	}
}

func printResult(out io.Writer, result *models.OvertakeResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	h := result.Headline
	fmt.Fprintln(out, h.Template)
	fmt.Fprintln(out, h.Text)
	fmt.Fprintln(out, h.R2)
	if h.Warning != "" {
		fmt.Fprintln(out, h.Warning)
	}
	fmt.Fprintf(out, "Last updated: %s\n", result.LastUpdated)
	return nil
}
