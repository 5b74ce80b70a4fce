package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stock-analytics/config"
	"stock-analytics/internal/analytics"
	"stock-analytics/internal/strategy"
)

// inputFlags are shared by commands that take a symbol or inline prices.
type inputFlags struct {
	prices string
	bars   int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.prices, "prices", "", "Comma-separated closes instead of a symbol's history")
	cmd.Flags().IntVar(&f.bars, "bars", 0, "History window when loading by symbol (0 = configured default)")
}

func (f *inputFlags) input(args []string) (analytics.PriceInput, error) {
	in := analytics.PriceInput{Bars: f.bars}
	if len(args) > 0 {
		in.Symbol = args[0]
	}
	if f.prices != "" {
		prices, err := parseFloats(f.prices)
		if err != nil {
			return in, err
		}
		in.Prices = prices
	}
	if in.Symbol == "" && len(in.Prices) == 0 {
		return in, fmt.Errorf("a symbol or --prices is required")
	}
	return in, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseParams turns ["short=5","long=20"] into strategy params.
func parseParams(kv []string) (strategy.Params, error) {
	if len(kv) == 0 {
		return nil, nil
	}
	out := strategy.Params{}
	for _, p := range kv {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("param %q: want key=value", p)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", p, err)
		}
		out[strings.TrimSpace(k)] = f
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withApp runs fn against a freshly wired app without Redis.
func withApp(cfg *config.Config, fn func(ctx context.Context, a *app) (any, error)) error {
	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()
	out, err := fn(context.Background(), a)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, out)
}

func newBacktestCmd(cfg *config.Config) *cobra.Command {
	var (
		in      inputFlags
		name    string
		capital float64
		params  []string
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "backtest [SYMBOL]",
		Short: "Replay a strategy over a price history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := in.input(args)
			if err != nil {
				return err
			}
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			return withApp(cfg, func(ctx context.Context, a *app) (any, error) {
				run, err := a.svc.Backtest(ctx, analytics.BacktestRequest{
					PriceInput:     pin,
					Strategy:       name,
					Params:         p,
					InitialCapital: capital,
				})
				if err != nil {
					return nil, err
				}
				if summary {
					run.Result.PortfolioValue = nil
					run.Result.Transactions = nil
				}
				return run, nil
			})
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&name, "strategy", string(strategy.KindSMACrossover), "Strategy or preset name")
	cmd.Flags().Float64Var(&capital, "capital", 0, "Initial capital (0 = configured default)")
	cmd.Flags().StringSliceVar(&params, "param", nil, "Strategy parameter override key=value (repeatable)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Omit transactions and the value trajectory")
	return cmd
}

func newPredictCmd(cfg *config.Config) *cobra.Command {
	var (
		in       inputFlags
		method   string
		lookback int
		forecast int
	)
	cmd := &cobra.Command{
		Use:   "predict [SYMBOL]",
		Short: "Forecast future closes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := in.input(args)
			if err != nil {
				return err
			}
			return withApp(cfg, func(ctx context.Context, a *app) (any, error) {
				return a.svc.Predict(ctx, analytics.PredictRequest{
					PriceInput: pin,
					Method:     method,
					Lookback:   lookback,
					Forecast:   forecast,
				})
			})
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&method, "method", "linear", "linear, moving_average or exponential")
	cmd.Flags().IntVar(&lookback, "lookback", 0, "Bars considered (0 = default)")
	cmd.Flags().IntVar(&forecast, "forecast", 0, "Days to forecast (0 = default)")
	return cmd
}

func newSentimentCmd(cfg *config.Config) *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "sentiment [SYMBOL]",
		Short: "Classify the short-term trend",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := in.input(args)
			if err != nil {
				return err
			}
			return withApp(cfg, func(ctx context.Context, a *app) (any, error) {
				return a.svc.Sentiment(ctx, pin)
			})
		},
	}
	in.register(cmd)
	return cmd
}

func newIndicatorsCmd(cfg *config.Config) *cobra.Command {
	var (
		in    inputFlags
		specs string
	)
	cmd := &cobra.Command{
		Use:   "indicators [SYMBOL]",
		Short: "Compute indicator series",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := in.input(args)
			if err != nil {
				return err
			}
			return withApp(cfg, func(ctx context.Context, a *app) (any, error) {
				return a.svc.Indicators(ctx, analytics.IndicatorsRequest{PriceInput: pin, Specs: specs})
			})
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&specs, "specs", "", "Indicator specs TYPE:PERIOD,... (default: configured)")
	return cmd
}

func newSignalCmd(cfg *config.Config) *cobra.Command {
	var (
		in     inputFlags
		name   string
		params []string
	)
	cmd := &cobra.Command{
		Use:   "signal [SYMBOL]",
		Short: "Report a strategy's condition on the latest bar",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := in.input(args)
			if err != nil {
				return err
			}
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			return withApp(cfg, func(ctx context.Context, a *app) (any, error) {
				return a.svc.Signal(ctx, pin, name, p)
			})
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&name, "strategy", string(strategy.KindSMACrossover), "Strategy or preset name")
	cmd.Flags().StringSliceVar(&params, "param", nil, "Strategy parameter override key=value (repeatable)")
	return cmd
}

func newPortfolioCmd(cfg *config.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Analyse holdings read as JSON ({\"holdings\":[...],\"beta\":1.1})",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var req analytics.PortfolioRequest
			if err := json.NewDecoder(r).Decode(&req); err != nil {
				return fmt.Errorf("decode holdings: %w", err)
			}
			// Analysis is pure; no stores needed.
			svc := analytics.New(analytics.Deps{}, analytics.Options{})
			res, err := svc.Portfolio(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Holdings JSON file (- for stdin)")
	return cmd
}

func newRunsCmd(cfg *config.Config) *cobra.Command {
	var (
		symbol string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "runs [ID]",
		Short: "List journaled backtest runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) (any, error) {
				if len(args) == 1 {
					return a.svc.Run(ctx, args[0])
				}
				runs, err := a.svc.Runs(ctx, symbol, limit)
				if err != nil {
					return nil, err
				}
				for i := range runs {
					runs[i].Result.PortfolioValue = nil
					runs[i].Result.Transactions = nil
				}
				return runs, nil
			})
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "Only runs for this symbol")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs listed")
	return cmd
}
