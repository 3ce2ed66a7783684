package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plarroque/cephalo/internal/worker"
)

var (
	assessFile    string
	assessJSON    bool
	concurrency   int
	assessTimeout time.Duration
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess [vignette]",
	Short: "Assess one clinical vignette, or a file of vignettes",
	Long: `Assess runs a single-turn triage on a free-text clinical vignette
and prints the resulting case and recommendation. With --file, every
non-blank line of the file is assessed as an independent case, in
parallel.

Example:
  cephalo assess "Femme 45 ans, céphalée brutale en coup de tonnerre il y a 2h"
  cephalo assess --file vignettes.txt --concurrency 8
  cephalo assess --json "Céphalée fébrile avec raideur de nuque"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringVar(&assessFile, "file", "", "file with one vignette per line")
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "print full turn results as JSON")
	assessCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers for --file")
	assessCmd.Flags().DurationVar(&assessTimeout, "timeout", 2*time.Minute, "overall assessment timeout")

	assessCmd.Flags().String("embedding-provider", "", "similarity backend (openai, ollama, empty for rule-only)")
	assessCmd.Flags().String("embedding-model", "", "embedding model name")
	_ = viper.BindPFlag("embedding.provider", assessCmd.Flags().Lookup("embedding-provider"))
	_ = viper.BindPFlag("embedding.model", assessCmd.Flags().Lookup("embedding-model"))
}

func runAssess(cmd *cobra.Command, args []string) error {
	if assessFile == "" && len(args) == 0 {
		return fmt.Errorf("provide a vignette or --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), assessTimeout)
	defer cancel()

	if assessFile == "" {
		result, err := engine.HandleTurn(ctx, "", args[0])
		if err != nil {
			return fmt.Errorf("assess failed: %w", err)
		}
		if assessJSON {
			return printJSON(result)
		}
		printSummary(result)
		return nil
	}

	processor := worker.NewBatchProcessor(engine, concurrency)

	results, err := processor.ProcessFile(ctx, assessFile)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Line < results[j].Line })

	if assessJSON {
		return printJSON(results)
	}

	failures := 0
	for _, r := range results {
		if r.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ ligne %d: %v\n", r.Line, r.Error)
			continue
		}
		rec := r.Result.Recommendation
		fmt.Printf("ligne %d: %s | règle %s | %s\n",
			r.Line, urgencyLabel(rec.Urgency), rec.AppliedRuleID, truncate(r.Text, 60))
	}

	fmt.Fprintf(os.Stderr, "\n%d vignettes, %d échecs\n", len(results), failures)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRight(string(runes[:max]), " ") + "…"
}
