package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"insurisk/app"
	"insurisk/internal/config"
	apperrors "insurisk/internal/errors"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	var configPath string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "insurisk",
		Short: "Insurance portfolio analytics: EDA, hypothesis tests and risk models",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "pipeline configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newEDACmd(&configPath),
		newHypotestCmd(&configPath),
		newModelCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Str("code", apperrors.GetCode(err)).Msg(err.Error())
		os.Exit(1)
	}
}

func newEDACmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "eda",
		Short: "Descriptive statistics and correlation over the policy book",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			_, err = app.NewInsightService(cfg).RunEDA(cmd.Context())
			return err
		},
	}
}

func newHypotestCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "hypotest",
		Short: "Run the configured A/B hypothesis tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			results, err := app.NewInsightService(cfg).RunHypothesisTests(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range results {
				decision := "fail to reject"
				if r.Reject {
					decision = "reject"
				}
				fmt.Printf("%s %s (%s vs %s) on %s: p=%.4g -> %s\n",
					r.Kind, r.Feature, r.GroupA, r.GroupB, r.KPI, r.PValue, decision)
			}
			return nil
		},
	}
}

func newModelCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Train, evaluate and explain the claim and premium models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			summary, err := app.NewModelingService(cfg).Run(cmd.Context())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
