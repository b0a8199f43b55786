package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"propscan/cache"
	"propscan/config"
	"propscan/metrics"
	"propscan/models"
	"propscan/services"
	"propscan/storage"
	"propscan/utils"
)

type resolveOptions struct {
	mode           string
	minGrade       string
	minScore       float64
	minUnits       int
	maxUnits       int
	minPrice       float64
	maxPrice       float64
	maxResults     int
	lookups        []string
	jsonOut        bool
	csv            bool
	postgres       bool
	metricsOut     string
	clearOnFailure bool
}

func resolveCmd() *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Run a resolution pass over the source chain and report the ranked catalog",
		Long: `Fetch from the configured sources in order, resolve identities, estimate
missing financials and score every property. The full scored set is held in
the session cache; the printed list is ranked and post-filtered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.mode, "mode", "m", string(services.ModeSingle), "Pass mode: single or merged")
	f.StringVar(&opts.minGrade, "min-grade", "", "Only show properties graded at least this (A-D)")
	f.Float64Var(&opts.minScore, "min-score", 0, "Minimum score (default $MIN_SCORE)")
	f.IntVar(&opts.minUnits, "min-units", 0, "Minimum estimated units (default $MIN_UNITS)")
	f.IntVar(&opts.maxUnits, "max-units", 0, "Maximum estimated units")
	f.Float64Var(&opts.minPrice, "min-price", 0, "Minimum price")
	f.Float64Var(&opts.maxPrice, "max-price", 0, "Maximum price (default $MAX_PRICE)")
	f.IntVarP(&opts.maxResults, "limit", "n", 0, "Maximum results (default $MAX_RESULTS)")
	f.StringSliceVar(&opts.lookups, "lookup", nil, "Look up resolved IDs in the session cache after the pass")
	f.BoolVarP(&opts.jsonOut, "json", "j", false, "Print the ranked list as JSON instead of the report")
	f.BoolVar(&opts.csv, "csv", false, "Export the scored set to $CSV_OUTPUT_PATH")
	f.BoolVar(&opts.postgres, "postgres", false, "Upsert the scored set into PostgreSQL")
	f.StringVar(&opts.metricsOut, "metrics-out", "", "Write pass metrics in Prometheus text format to this file")
	f.BoolVar(&opts.clearOnFailure, "clear-on-failure", false, "Empty the cache when every source fails")

	return cmd
}

func runResolve(cmd *cobra.Command, opts *resolveOptions) error {
	cfg := config.Load()
	logger := newLogger(cmd, cfg)

	mode := services.Mode(strings.ToLower(opts.mode))
	if mode != services.ModeSingle && mode != services.ModeMerged {
		return fmt.Errorf("unknown mode %q (want single or merged)", opts.mode)
	}
	criteria, err := criteriaFor(cmd, cfg, opts)
	if err != nil {
		return err
	}

	sources, err := config.LoadSources(sourcesPath(cmd, cfg))
	if err != nil {
		return err
	}
	chain, err := buildChain(cfg, sources, logger)
	if err != nil {
		return err
	}

	scorer := services.NewScorer()
	if len(cfg.StrongMarkets) > 0 {
		scorer = services.NewScorerWithMarkets(cfg.StrongMarkets)
	}

	reg := prometheus.NewRegistry()
	session := cache.NewSession()
	orch := services.NewOrchestrator(services.OrchestratorConfig{
		Sources:           chain,
		DefaultTimeout:    cfg.DefaultTimeout,
		DefaultMinResults: cfg.DefaultMinResults,
		Concurrency:       cfg.MaxConcurrency,
		Criteria:          criteria,
	}, services.NewPipeline(nil, nil, scorer), session, logger, metrics.New(reg))

	logger.Info("=== propscan resolve: %d sources, mode=%s ===", len(chain), mode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := orch.Resolve(ctx, services.Request{Mode: mode, ClearOnTotalFailure: opts.clearOnFailure})
	if opts.metricsOut != "" {
		if werr := prometheus.WriteToTextfile(opts.metricsOut, reg); werr != nil {
			logger.Warn("Failed to write metrics to %s: %v", opts.metricsOut, werr)
		}
	}
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	if res.AllSourcesFailed {
		printAttempts(os.Stderr, res.Attempts)
		return fmt.Errorf("resolve: %w", models.ErrAllSourcesFailed)
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Properties); err != nil {
			return fmt.Errorf("resolve: encode json: %w", err)
		}
	} else {
		insights := services.NewInsightService(logger)
		insights.Print(out, insights.Generate(session.All()))
		printRanked(out, res)
	}

	if err := export(ctx, cfg, opts, session.All(), logger); err != nil {
		return err
	}

	for _, id := range opts.lookups {
		printLookup(out, session, id)
	}
	return nil
}

// criteriaFor layers command-line bounds over the environment defaults.
func criteriaFor(cmd *cobra.Command, cfg *config.Config, opts *resolveOptions) (services.Criteria, error) {
	c := services.DefaultCriteria()
	c.MinScore = cfg.MinScore
	c.MinUnits = cfg.MinUnits
	c.MaxPrice = cfg.MaxPrice
	if cfg.MaxResults > 0 {
		c.MaxResults = cfg.MaxResults
	}

	f := cmd.Flags()
	if f.Changed("min-score") {
		c.MinScore = opts.minScore
	}
	if f.Changed("min-units") {
		c.MinUnits = opts.minUnits
	}
	if f.Changed("max-units") {
		c.MaxUnits = opts.maxUnits
	}
	if f.Changed("min-price") {
		c.MinPrice = opts.minPrice
	}
	if f.Changed("max-price") {
		c.MaxPrice = opts.maxPrice
	}
	if f.Changed("limit") {
		c.MaxResults = opts.maxResults
	}
	if opts.minGrade != "" {
		g := models.Grade(strings.ToUpper(opts.minGrade))
		if g.Rank() == 0 {
			return c, fmt.Errorf("unknown grade %q (want A, B, C or D)", opts.minGrade)
		}
		c.MinGrade = g
	}
	return c, nil
}

func export(ctx context.Context, cfg *config.Config, opts *resolveOptions, props []*models.CanonicalProperty, logger *utils.Logger) error {
	if opts.csv {
		w, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			return err
		}
		werr := w.Write(props)
		if cerr := w.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return werr
		}
		logger.Info("Scored set (%d properties) saved to %s", len(props), cfg.CSVOutputPath)
	}

	if opts.postgres {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Error("Make sure PostgreSQL is running and POSTGRES_* is set")
			return err
		}
		defer pg.Close()

		if err := pg.Write(props); err != nil {
			return err
		}
		stored, err := pg.FetchAll()
		if err != nil {
			return err
		}
		logger.Info("Scored set upserted into PostgreSQL (table: scored_properties, %d rows)", len(stored))
	}
	return nil
}

func printRanked(w io.Writer, res *services.Result) {
	fmt.Fprintf(w, "  %d of %d scored properties match (%d duplicates merged, %d records rejected)\n\n",
		len(res.Properties), res.Total, res.Duplicates, res.Rejected)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tID\tSCORE\tGRADE\tUNITS\tPRICE\tCASH FLOW\tADDRESS")
	for i, p := range res.Properties {
		fmt.Fprintf(tw, "  %d\t%s\t%.1f\t%s\t%d\t%.0f\t%.0f\t%s\n",
			i+1, p.ResolvedID, p.Score.Value, p.Score.Grade, p.Score.EstimatedUnits,
			p.Price, models.Value(p.Financials.CashFlow), p.Address)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printAttempts(w io.Writer, attempts []services.SourceAttempt) {
	for _, a := range attempts {
		fmt.Fprintf(w, "  source %d (%s): %v\n", a.Index, a.Source, a.Err)
	}
}

func printLookup(w io.Writer, store cache.Store, id string) {
	p, err := store.Lookup(id)
	if errors.Is(err, models.ErrNotFound) {
		fmt.Fprintf(w, "  lookup %s: not found\n", id)
		return
	}
	fmt.Fprintf(w, "  lookup %s: %s, %s %s  score %.1f (%s)  rent $%.0f/mo\n",
		id, p.Address, p.City, p.State, p.Score.Value, p.Score.Grade, models.Value(p.Financials.MonthlyRent))
}

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured source chain in priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			path := sourcesPath(cmd, cfg)
			sources, err := config.LoadSources(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source chain (%s)\n", path)
			fmt.Fprintln(out, strings.Repeat("=", 40))
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tKIND\tTYPE\tTIMEOUT\tMIN\tTARGET")
			for i, sc := range sources {
				timeout := sc.Timeout
				if timeout == "" {
					timeout = cfg.DefaultTimeout.String()
				}
				minResults := sc.MinResults
				if minResults <= 0 {
					minResults = cfg.DefaultMinResults
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n", i, sc.Name, sc.Kind, sc.Type, timeout, minResults, describeSource(sc))
			}
			return tw.Flush()
		},
	}
}

func sourcesPath(cmd *cobra.Command, cfg *config.Config) string {
	if p, _ := cmd.Flags().GetString("sources"); p != "" {
		return p
	}
	return cfg.SourcesFile
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *utils.Logger {
	logger := utils.NewLogger()
	debug, _ := cmd.Flags().GetBool("debug")
	logger.SetDebug(debug || cfg.Debug)
	return logger
}
