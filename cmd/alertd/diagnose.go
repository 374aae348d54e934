package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jobmate/alertpipeline/internal/clock"
	"github.com/jobmate/alertpipeline/internal/config"
	"github.com/jobmate/alertpipeline/internal/logger"
	"github.com/jobmate/alertpipeline/internal/store"
)

var (
	diagnoseUser  string
	diagnoseJob   string
	diagnoseCmd   = &cobra.Command{
		Use:   "diagnose",
		Short: "Explain why a user would or would not receive an alert for a job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return diagnose(cmd.Context())
		},
	}
)

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().StringVar(&diagnoseUser, "user", "", "user ID to trace")
	diagnoseCmd.Flags().StringVar(&diagnoseJob, "job", "", "canonical posting ID to trace")
	_ = diagnoseCmd.MarkFlagRequired("user")
	_ = diagnoseCmd.MarkFlagRequired("job")
}

func diagnose(ctx context.Context) error {
	log, err := logger.New(v.GetBool("json"), v.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer st.Close()

	userID, err := uuid.Parse(diagnoseUser)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}
	jobID, err := uuid.Parse(diagnoseJob)
	if err != nil {
		return fmt.Errorf("invalid --job: %w", err)
	}

	trace, err := st.Trace(ctx, userID, jobID, clock.Real{}.Now(), cfg.DailyCap)
	if err != nil {
		return fmt.Errorf("tracing eligibility: %w", err)
	}

	pretty, _ := json.MarshalIndent(trace, "", "  ")
	fmt.Println(string(pretty))
	return nil
}
