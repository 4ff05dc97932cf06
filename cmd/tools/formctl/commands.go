package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/intrigue/searchforms/internal/config"
	"github.com/intrigue/searchforms/internal/executor"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/intrigue/searchforms/internal/graphql"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/search"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// errInvalid is returned by validate when any form fails; the details were
// already printed.
var errInvalid = errors.New("one or more forms are invalid")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "formctl",
		Short:         "Inspect, validate and run saved search forms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newTranslateCmd(),
		newValidateCmd(),
		newSchemaCmd(),
		newSearchCmd(),
	)
	return root
}

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate [file|-]",
		Short: "Print the query request a form produces",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := readForm(cmd, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), search.Translate(form))
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate file...",
		Short: "Check forms against the form JSON Schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			validator, err := forms.NewValidator()
			if err != nil {
				return err
			}

			failed := false
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				violations := validator.Validate(data)
				if len(violations) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
					continue
				}
				failed = true
				for _, v := range violations {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, v)
				}
			}
			if failed {
				return errInvalid
			}
			return nil
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema graphql|form",
		Short:     "Print the catalog GraphQL schema or the form JSON Schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"graphql", "form"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "graphql":
				_, err := io.WriteString(cmd.OutOrStdout(), graphql.SDL())
				return err
			case "form":
				return writeJSON(cmd.OutOrStdout(), forms.JSONSchema())
			default:
				return fmt.Errorf("unknown schema %q (want graphql or form)", args[0])
			}
		},
	}
}

func newSearchCmd() *cobra.Command {
	cfg := config.DefaultConfig().Executor
	cfg.Mode = executor.ModeOffline

	cmd := &cobra.Command{
		Use:   "search [file|-]",
		Short: "Run a form against a catalog, or the offline generator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := readForm(cmd, args)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout+cfg.ProbeTimeout)
			defer cancel()

			logger := logging.NewWithWriter(cmd.ErrOrStderr(), zerolog.WarnLevel)
			exec, err := executor.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			resp, err := exec.Execute(ctx, search.Translate(form))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Mode, "mode", cfg.Mode, "executor mode: catalog, offline or auto")
	flags.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "catalog GraphQL endpoint")
	flags.StringVar(&cfg.AuthHeader, "auth", cfg.AuthHeader, "Authorization header sent to the catalog")
	flags.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "catalog request timeout")
	flags.IntVar(&cfg.PageSize, "count", cfg.PageSize, "results per page")
	flags.IntVar(&cfg.OfflineResultCount, "offline-count", cfg.OfflineResultCount, "results generated offline")
	return cmd
}

// readForm reads a form from the named file, or stdin for "-" or no argument.
func readForm(cmd *cobra.Command, args []string) (forms.Form, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return forms.Form{}, fmt.Errorf("reading form: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return forms.Form{}, errors.New("reading form: empty input")
	}

	var form forms.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return forms.Form{}, fmt.Errorf("decoding form: %w", err)
	}
	return form, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
