package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/difflens/internal/diffparse"
	"github.com/dshills/difflens/internal/repoctx"
	"github.com/dshills/difflens/internal/review"
)

var parseCmd = &cobra.Command{
	Use:   "parse [path|-]",
	Short: "Parse a unified diff and print the file changes as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args)
		if err != nil {
			fail(err)
			return nil
		}
		res, err := diffparse.Parse(text)
		if err != nil {
			fail(err)
			return nil
		}
		return writeJSON(res)
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path|-]",
	Short: "Parse a diff, run the rules and print the analysis as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		text, err := readInput(args)
		if err != nil {
			fail(err)
			return nil
		}
		a, err := review.Analyze(text, engine)
		if err != nil {
			fail(err)
			return nil
		}
		return writeJSON(a)
	},
}

var contextCmd = &cobra.Command{
	Use:   "context [dir]",
	Short: "Detect project type, languages and frameworks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := flagDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			dir = "."
		}
		ctx, err := repoctx.Detect(dir)
		if err != nil {
			if errors.Is(err, repoctx.ErrRootNotFound) {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				exitCode = ExitUsageError
				return nil
			}
			fail(err)
			return nil
		}
		return writeJSON(ctx)
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active rule IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		for _, id := range engine.RuleIDs() {
			fmt.Fprintln(stdout, id)
		}
		return nil
	},
}

func writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}

func init() {
	addEngineFlags(analyzeCmd.Flags())
	addEngineFlags(rulesCmd.Flags())
}
