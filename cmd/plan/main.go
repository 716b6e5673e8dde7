// cmd/plan/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/sellerkit/replan/internal/domain"
	"github.com/sellerkit/replan/internal/planning/inbound"
	"github.com/sellerkit/replan/internal/planning/monthkey"
	"github.com/sellerkit/replan/internal/planning/projection"
	"github.com/sellerkit/replan/internal/planning/robustness"
	"github.com/sellerkit/replan/internal/planning/suggest"
	"github.com/sellerkit/replan/internal/statefile"
)

func newStateFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "state",
		Usage:    "Path to the plan state JSON snapshot",
		Required: true,
		EnvVars:  []string{"APP_STATE_FILE"},
	}
}

func horizonFlags() []cli.Flag {
	return []cli.Flag{
		newStateFlag(),
		&cli.StringFlag{
			Name:  "from",
			Usage: "First projected month (YYYY-MM), defaults to the current month",
		},
		&cli.IntFlag{
			Name:  "horizon",
			Usage: "Number of months to project",
			Value: 12,
		},
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Coverage mode: units or days",
			Value: "units",
		},
		&cli.StringFlag{
			Name:  "anchor",
			Usage: "Snapshot anchor month (YYYY-MM), defaults to the month before the horizon",
		},
	}
}

func loadState(c *cli.Context) (*domain.PlanState, error) {
	return statefile.Load(c.String("state"))
}

func parseHorizon(c *cli.Context) ([]string, projection.Mode, string, error) {
	from := monthkey.FromTime(time.Now())
	if raw := strings.TrimSpace(c.String("from")); raw != "" {
		parsed, err := monthkey.Parse(raw)
		if err != nil {
			return nil, "", "", fmt.Errorf("invalid --from month %q: %w", raw, err)
		}
		from = parsed
	}

	horizon := c.Int("horizon")
	if horizon <= 0 {
		return nil, "", "", fmt.Errorf("--horizon must be positive, got %d", horizon)
	}

	var mode projection.Mode
	switch strings.ToLower(c.String("mode")) {
	case "", string(projection.ModeUnits):
		mode = projection.ModeUnits
	case string(projection.ModeDays):
		mode = projection.ModeDays
	default:
		return nil, "", "", fmt.Errorf("invalid --mode %q", c.String("mode"))
	}

	anchor := ""
	if raw := strings.TrimSpace(c.String("anchor")); raw != "" {
		parsed, err := monthkey.Parse(raw)
		if err != nil {
			return nil, "", "", fmt.Errorf("invalid --anchor month %q: %w", raw, err)
		}
		anchor = parsed
	}

	return monthkey.Range(from, horizon), mode, anchor, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runProject(c *cli.Context) error {
	state, err := loadState(c)
	if err != nil {
		return err
	}
	months, mode, anchor, err := parseHorizon(c)
	if err != nil {
		return err
	}

	result := projection.Project(state, projection.Params{
		Months:      months,
		SKUs:        c.StringSlice("sku"),
		AnchorMonth: anchor,
		Mode:        mode,
	})
	return printJSON(result)
}

func runSuggest(c *cli.Context) error {
	state, err := loadState(c)
	if err != nil {
		return err
	}
	months, mode, anchor, err := parseHorizon(c)
	if err != nil {
		return err
	}

	params := suggest.Params{
		Months:         months,
		Mode:           mode,
		AnchorMonth:    anchor,
		Now:            time.Now(),
		MaxSuggestions: c.Int("limit"),
	}
	if raw := strings.TrimSpace(c.String("target-month")); raw != "" {
		target, err := monthkey.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid --target-month %q: %w", raw, err)
		}
		params.TargetMonth = target
	}

	return printJSON(suggest.Generate(state, params))
}

func runRobustness(c *cli.Context) error {
	state, err := loadState(c)
	if err != nil {
		return err
	}
	months, mode, anchor, err := parseHorizon(c)
	if err != nil {
		return err
	}

	report := robustness.Evaluate(state, robustness.Params{
		Months:      months,
		Mode:        mode,
		AnchorMonth: anchor,
	})
	return printJSON(report)
}

func runInbound(c *cli.Context) error {
	state, err := loadState(c)
	if err != nil {
		return err
	}
	return printJSON(inbound.Aggregate(state))
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "plan",
		Usage: "Run the replenishment planning engine against a state snapshot",
		Commands: []*cli.Command{
			{
				Name:  "project",
				Usage: "Project inventory availability over the horizon",
				Flags: append(horizonFlags(),
					&cli.StringSliceFlag{
						Name:  "sku",
						Usage: "Restrict the projection to the given SKUs",
					},
				),
				Action: runProject,
			},
			{
				Name:  "suggest",
				Usage: "Generate phantom order suggestions",
				Flags: append(horizonFlags(),
					&cli.StringFlag{
						Name:  "target-month",
						Usage: "Only keep suggestions ordered at or before this month",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of suggestions to print (0 = all)",
					},
				),
				Action: runSuggest,
			},
			{
				Name:   "robustness",
				Usage:  "Evaluate the plan robustness check matrix",
				Flags:  horizonFlags(),
				Action: runRobustness,
			},
			{
				Name:   "inbound",
				Usage:  "Aggregate confirmed inbound quantities per SKU and month",
				Flags:  []cli.Flag{newStateFlag()},
				Action: runInbound,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
