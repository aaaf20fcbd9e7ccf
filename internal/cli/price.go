package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/logging"
	"optpricer/internal/models"
	"optpricer/internal/numeric"
	"optpricer/internal/pricing"
)

// addPricingCommands adds the price, delta and barrier commands.
func addPricingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newDeltaCmd(app))
	rootCmd.AddCommand(newBarrierCmd(app))
}

// addContractFlags registers the flags describing a contract and marks the
// named ones as required.
func addContractFlags(cmd *cobra.Command, required ...string) {
	cmd.Flags().String("type", "call", "option type (call, put)")
	cmd.Flags().Float64("spot", 0, "spot price of the underlying")
	cmd.Flags().Float64("strike", 0, "strike price")
	cmd.Flags().Float64("rate", 0, "continuously compounded risk-free rate")
	cmd.Flags().Float64("expiry", 0, "time to expiry in years")
	cmd.Flags().Float64("vol", 0, "annualised volatility")
	cmd.Flags().Float64("dividend", 0, "dividend yield, or the foreign rate for currency options")
	cmd.Flags().Float64("coc", 0, "cost of carry (default: the product's carry, else the rate)")
	cmd.Flags().String("product", "", "product category ("+productNames()+")")
	cmd.Flags().Int("precision", 0, "decimal places (default from config)")

	for _, name := range required {
		_ = cmd.MarkFlagRequired(name)
	}
}

func productNames() string {
	names := make([]string, len(models.ProductCategories))
	for i, p := range models.ProductCategories {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

var contractRequired = []string{"spot", "strike", "expiry", "vol"}

// contractFromFlags reads the contract flags. An explicit --coc wins over
// --product. With neither, the cost of carry is the rate.
func contractFromFlags(cmd *cobra.Command) (models.Contract, error) {
	f := cmd.Flags()
	spot, _ := f.GetFloat64("spot")
	strike, _ := f.GetFloat64("strike")
	rate, _ := f.GetFloat64("rate")
	expiry, _ := f.GetFloat64("expiry")
	vol, _ := f.GetFloat64("vol")
	dividend, _ := f.GetFloat64("dividend")
	productName, _ := f.GetString("product")

	product, err := models.ParseProductCategory(productName)
	if err != nil {
		return models.Contract{}, err
	}

	c := models.Contract{
		Spot:       spot,
		Strike:     strike,
		Rate:       rate,
		Expiry:     expiry,
		Volatility: vol,
		Dividend:   dividend,
		Product:    product,
	}
	switch {
	case f.Changed("coc"):
		coc, _ := f.GetFloat64("coc")
		c.CostOfCarry = &coc
	case product == "":
		c.CostOfCarry = &rate
	}
	return c, c.Validate()
}

// instrumentFromFlags reads --type and the contract flags.
func instrumentFromFlags(cmd *cobra.Command) (models.Instrument, error) {
	kindName, _ := cmd.Flags().GetString("type")
	kind, err := models.ParseOptionKind(kindName)
	if err != nil {
		return models.Instrument{}, err
	}
	c, err := contractFromFlags(cmd)
	if err != nil {
		return models.Instrument{}, err
	}
	return models.Instrument{Kind: kind, Contract: c}, nil
}

// precisionFromFlags returns --precision when given, else the configured
// precision.
func (a *App) precisionFromFlags(cmd *cobra.Command) (int, error) {
	if !cmd.Flags().Changed("precision") {
		return a.Config.Pricing.Precision, nil
	}
	p, _ := cmd.Flags().GetInt("precision")
	if p < 0 || p > numeric.MaxPrecision {
		return 0, apperrors.NewValidationError("precision", p, fmt.Sprintf("must be between 0 and %d", numeric.MaxPrecision))
	}
	return p, nil
}

// intFlag returns the flag value when given, else fallback.
func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

// ParseMethod parses a vanilla pricing method name.
func ParseMethod(s string) (models.PricingMethod, error) {
	switch m := models.PricingMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case models.MethodFormula, models.MethodBinomial, models.MethodSimulation:
		return m, nil
	default:
		return "", apperrors.NewValidationError("method", s, "must be formula, bitree or simulation")
	}
}

// newQuote fills the contract part of a quote.
func newQuote(method models.PricingMethod, kind models.OptionKind, c models.Contract, precision int) (models.Quote, error) {
	carry, err := c.ResolveCostOfCarry()
	if err != nil {
		return models.Quote{}, err
	}
	return models.Quote{
		Method:      method,
		Kind:        kind,
		Spot:        c.Spot,
		Strike:      c.Strike,
		Rate:        c.Rate,
		Expiry:      c.Expiry,
		Volatility:  c.Volatility,
		Dividend:    c.Dividend,
		CostOfCarry: carry,
		Product:     c.Product,
		Precision:   precision,
	}, nil
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a European option",
		Long: `Price a European option in closed form (formula), on a binomial
lattice (bitree) or by Monte Carlo simulation.`,
		Example: `  optpricer price --type call --spot 60 --strike 65 --rate 0.08 --expiry 0.25 --vol 0.3
  optpricer price --type put --method bitree --steps 500 --spot 50 --strike 52 --rate 0.05 --expiry 2 --vol 0.3
  optpricer price --method simulation --paths 300000 --workers 4 --seed 7 --spot 50 --strike 52 --rate 0.05 --expiry 2 --vol 0.3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			methodName, _ := cmd.Flags().GetString("method")
			if !cmd.Flags().Changed("method") {
				methodName = app.Config.Pricing.DefaultMethod
			}
			method, err := ParseMethod(methodName)
			if err != nil {
				return err
			}

			inst, err := instrumentFromFlags(cmd)
			if err != nil {
				return err
			}
			precision, err := app.precisionFromFlags(cmd)
			if err != nil {
				return err
			}
			q, err := newQuote(method, inst.Kind, inst.Contract, precision)
			if err != nil {
				return err
			}

			start := time.Now()
			switch method {
			case models.MethodFormula:
				q.Value, err = pricing.NewBlackScholesPricer(pricing.WithPrecision(precision)).Price(inst)

			case models.MethodBinomial:
				q.Steps = intFlag(cmd, "steps", app.Config.Binomial.Steps)
				var tree *pricing.BinomialTreePricer
				if tree, err = pricing.NewBinomialTreePricer(q.Steps, pricing.WithPrecision(precision)); err == nil {
					q.Value, err = tree.Price(inst)
				}

			case models.MethodSimulation:
				q.Paths = intFlag(cmd, "paths", app.Config.MonteCarlo.Paths)
				q.Workers = intFlag(cmd, "workers", app.Config.MonteCarlo.Workers)
				seed := app.Config.MonteCarlo.Seed
				if cmd.Flags().Changed("seed") {
					seed, _ = cmd.Flags().GetUint64("seed")
				}
				opts := []pricing.Option{pricing.WithPrecision(precision)}
				if seed != 0 {
					opts = append(opts, pricing.WithSeed(seed))
				}
				var mc *pricing.MonteCarloPricer
				if mc, err = pricing.NewMonteCarloPricer(q.Paths, q.Workers, opts...); err == nil {
					q.Seed = mc.Seed()
					q.Value, err = mc.PriceContext(cmd.Context(), inst)
				}
			}
			q.Elapsed = time.Since(start)
			if err != nil {
				return apperrors.NewPricingError(string(method), err)
			}

			return app.report(cmd, output, &q)
		},
	}

	addContractFlags(cmd, contractRequired...)
	cmd.Flags().String("method", string(models.MethodFormula), "pricing method (formula, bitree, simulation; default from config)")
	cmd.Flags().Int("steps", 0, "lattice steps for bitree (default from config)")
	cmd.Flags().Int("paths", 0, "simulated paths (default from config)")
	cmd.Flags().Int("workers", 0, "simulation workers, 0 runs inline (default from config)")
	cmd.Flags().Uint64("seed", 0, "simulation seed, 0 seeds from the clock (default from config)")

	return cmd
}

func newDeltaCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delta",
		Short:   "Compute the delta of a European option",
		Example: `  optpricer delta --type put --spot 105 --strike 100 --rate 0.1 --expiry 0.5 --vol 0.36 --coc 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			inst, err := instrumentFromFlags(cmd)
			if err != nil {
				return err
			}
			precision, err := app.precisionFromFlags(cmd)
			if err != nil {
				return err
			}
			q, err := newQuote(models.MethodDelta, inst.Kind, inst.Contract, precision)
			if err != nil {
				return err
			}

			start := time.Now()
			q.Value, err = pricing.NewGreeks(pricing.WithPrecision(precision)).Delta(inst)
			q.Elapsed = time.Since(start)
			if err != nil {
				return apperrors.NewPricingError(string(models.MethodDelta), err)
			}

			return app.report(cmd, output, &q)
		},
	}

	addContractFlags(cmd, contractRequired...)
	return cmd
}

func newBarrierCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "barrier",
		Short: "Price a single-barrier option with rebate",
		Long: `Price a knock-in or knock-out option. Whether the barrier is a down or
up barrier follows from the spot: a spot above the barrier gives a down
barrier, anything else an up barrier.`,
		Example: `  optpricer barrier --type call --barrier-type in --spot 100 --strike 90 --barrier 95 --rebate 3 --rate 0.08 --expiry 0.5 --vol 0.25 --coc 0.04`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			kindName, _ := cmd.Flags().GetString("type")
			kind, err := models.ParseOptionKind(kindName)
			if err != nil {
				return err
			}
			barrierName, _ := cmd.Flags().GetString("barrier-type")
			barrierKind, err := models.ParseBarrierKind(barrierName)
			if err != nil {
				return err
			}
			c, err := contractFromFlags(cmd)
			if err != nil {
				return err
			}

			precision, err := app.precisionFromFlags(cmd)
			if err != nil {
				return err
			}
			q, err := newQuote(models.MethodBarrier, kind, c, precision)
			if err != nil {
				return err
			}
			q.BarrierKind = barrierKind
			q.Barrier, _ = cmd.Flags().GetFloat64("barrier")
			q.Rebate, _ = cmd.Flags().GetFloat64("rebate")

			bi := models.NewBarrierInstrument(c.Spot, c.Strike, c.Rate, c.Expiry, c.Volatility,
				q.CostOfCarry, q.Rebate, q.Barrier)
			bi.Dividend = c.Dividend
			bi.Product = c.Product

			start := time.Now()
			var pricer *pricing.BarrierPricer
			if pricer, err = pricing.NewBarrierPricer(bi, pricing.WithPrecision(precision)); err == nil {
				q.Value, err = pricer.Payoff(kind, barrierKind)
			}
			q.Elapsed = time.Since(start)
			if err != nil {
				return apperrors.NewPricingError(string(models.MethodBarrier), err)
			}

			return app.report(cmd, output, &q)
		},
	}

	addContractFlags(cmd, contractRequired...)
	cmd.Flags().Float64("barrier", 0, "barrier level")
	cmd.Flags().Float64("rebate", 0, "cash rebate")
	cmd.Flags().String("barrier-type", "", "barrier type (in, out)")
	_ = cmd.MarkFlagRequired("barrier")
	_ = cmd.MarkFlagRequired("barrier-type")

	return cmd
}

// report stores, logs and prints a computed quote. A store failure only
// warns.
func (a *App) report(cmd *cobra.Command, output *Output, q *models.Quote) error {
	logger := logging.WithOperation(logging.FromContext(cmd.Context()), cmd.Name())
	if a.Store != nil {
		if err := a.Store.SaveQuote(cmd.Context(), q); err != nil {
			logger.Warn().Err(err).Msg("Failed to save quote")
			if !output.IsJSON() {
				output.Warning("Quote not saved: %v", err)
			}
		}
	}
	logging.LogQuote(logger, *q)

	if output.IsJSON() {
		return output.JSON(q)
	}
	printQuote(output, q)
	return nil
}

func printQuote(output *Output, q *models.Quote) {
	title := fmt.Sprintf("%s %s", strings.ToLower(string(q.Kind)), q.Method)
	if q.Method == models.MethodBarrier {
		title = fmt.Sprintf("%s-%s %s", strings.ToLower(string(q.BarrierKind)), strings.ToLower(string(q.Kind)), q.Method)
	}
	output.Bold("%s", title)

	label := "Price"
	if q.Method == models.MethodDelta {
		label = "Delta"
	}
	output.Field(label, "%s", FormatValue(q.Value, q.Precision))
	output.Field("Spot/Strike", "%s / %s", FormatValue(q.Spot, -1), FormatValue(q.Strike, -1))
	output.Field("Rate", "%s", FormatPercent(q.Rate))
	output.Field("Cost of carry", "%s", FormatPercent(q.CostOfCarry))
	output.Field("Volatility", "%s", FormatPercent(q.Volatility))
	output.Field("Expiry", "%sy", FormatValue(q.Expiry, -1))

	switch q.Method {
	case models.MethodBinomial:
		output.Field("Steps", "%d", q.Steps)
	case models.MethodSimulation:
		output.Field("Paths", "%d", q.Paths)
		output.Field("Workers", "%d", q.Workers)
		output.Field("Seed", "%d", q.Seed)
	case models.MethodBarrier:
		output.Field("Barrier", "%s", FormatValue(q.Barrier, -1))
		output.Field("Rebate", "%s", FormatValue(q.Rebate, -1))
	}
	output.Dim("Computed in %s", FormatElapsed(q.Elapsed))
}
