package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wolfman30/postop-assistant/internal/app/bootstrap"
	"github.com/wolfman30/postop-assistant/internal/assistant"
	"github.com/wolfman30/postop-assistant/internal/clinical"
	appconfig "github.com/wolfman30/postop-assistant/internal/config"
	"github.com/wolfman30/postop-assistant/internal/demo"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	rootCmd := newRootCmd(appconfig.Load, os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(loadConfig func() *appconfig.Config, out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "clinicctl",
		Short:        "Query the post-operative assistant from a terminal",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.PersistentFlags().String("log-level", "error", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(askCmd(loadConfig))
	rootCmd.AddCommand(seedCmd(loadConfig))
	return rootCmd
}

func askCmd(loadConfig func() *appconfig.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the assistant one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patient, _ := cmd.Flags().GetString("patient")
			useDemo, _ := cmd.Flags().GetBool("demo")
			logger := commandLogger(cmd)
			cfg := loadConfig()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AssistantTimeout+10*time.Second)
			defer cancel()

			store, chatLog, cleanup, err := openStores(ctx, cfg, logger, useDemo)
			if err != nil {
				return err
			}
			defer cleanup()

			if useDemo {
				ward, err := demo.SeedWard(ctx, store, time.Now().UTC())
				if err != nil {
					return err
				}
				if id := ward.PatientID(patient); id != "" {
					patient = id
				}
			}

			llm, err := bootstrap.BuildLLMClient(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if closer, ok := llm.(interface{ Close() error }); ok {
				defer closer.Close()
			}

			service := bootstrap.BuildAssistantService(bootstrap.AssistantDeps{
				Clinical: store,
				LLM:      llm,
				ChatLog:  chatLog,
				Timeout:  cfg.AssistantTimeout,
				Logger:   logger,
			})
			resp := service.Ask(ctx, assistant.AskRequest{
				Message:   strings.Join(args, " "),
				PatientID: patient,
			})

			fmt.Fprintln(cmd.OutOrStdout(), resp.Response)
			fmt.Fprintf(cmd.OutOrStdout(), "\n[intent=%s source=%s]\n", resp.Intent, resp.Source)
			return nil
		},
	}
	cmd.Flags().String("patient", "", "Patient id to scope the question to (a full name with --demo)")
	cmd.Flags().Bool("demo", false, "Answer from an in-memory demo ward instead of DATABASE_URL")
	return cmd
}

func seedCmd(loadConfig func() *appconfig.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the demo ward into the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commandLogger(cmd)
			cfg := loadConfig()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			store, _, cleanup, err := openStores(ctx, cfg, logger, false)
			if err != nil {
				return err
			}
			defer cleanup()

			ward, err := demo.SeedWard(ctx, store, time.Now().UTC())
			if err != nil {
				return err
			}
			for name, id := range ward.Patients {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, name)
			}
			return nil
		},
	}
}

// openStores returns the clinical store and chat log for a command. With
// useDemo set, or no DATABASE_URL, everything is in memory.
func openStores(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, useDemo bool) (clinical.Store, assistant.ChatLog, func(), error) {
	if useDemo || cfg.DatabaseURL == "" {
		return clinical.NewMemoryStore(), assistant.NewMemoryChatLog(), func() {}, nil
	}

	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		return nil, nil, nil, errors.New("could not connect to DATABASE_URL")
	}
	sqlDB, err := bootstrap.OpenSQLDB(cfg.DatabaseURL)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	stores := bootstrap.BuildStores(pool, sqlDB, logger)
	cleanup := func() {
		_ = sqlDB.Close()
		pool.Close()
	}
	return stores.Clinical, stores.ChatLog, cleanup, nil
}

func commandLogger(cmd *cobra.Command) *logging.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.NewWithOptions(logging.Options{Level: level, Format: "text", Output: cmd.ErrOrStderr()})
}
