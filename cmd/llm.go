package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/eysh-app/eysh/internal/advisor"
	"github.com/eysh-app/eysh/internal/llm"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Check the study-tip model and inspect its requests",
}

type llmTestResult struct {
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	LatencyMs    int64           `json:"latency_ms"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	Content      json.RawMessage `json:"content"`
}

var llmTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send one study-tip request to the configured provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := env.openStore()
		if err != nil {
			return err
		}
		cfg := llm.ConfigFromEnv()
		p, err := provider(ctx, st.EventRepo())
		if err != nil {
			return output.ErrUsage(fmt.Sprintf("LLM provider: %v", err))
		}

		start := time.Now()
		resp, err := p.Generate(ctx, llm.Request{
			System:    "You give short study tips to students preparing for the EYSH exam.",
			Messages:  llm.UserPrompt("Give one tip for the weak topic Алгебр."),
			Schema:    advisor.TipsSchema,
			MaxTokens: 256,
			Purpose:   "llm-test",
		})
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}

		res := llmTestResult{
			Provider:     cfg.Provider,
			Model:        resp.Model,
			LatencyMs:    time.Since(start).Milliseconds(),
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			Content:      resp.Content,
		}
		return env.out.Print(res, func(w io.Writer) error {
			if err := output.Fields(w,
				[2]string{"Provider", res.Provider},
				[2]string{"Model", res.Model},
				[2]string{"Latency", fmt.Sprintf("%dms", res.LatencyMs)},
				[2]string{"Tokens", fmt.Sprintf("%d in / %d out", res.InputTokens, res.OutputTokens)},
			); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "\n%s\n", res.Content)
			return err
		})
	},
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		st, err := env.openStore()
		if err != nil {
			return err
		}
		events, err := st.EventRepo().RecentLLMRequests(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if purpose != "" {
			kept := events[:0]
			for _, e := range events {
				if e.Purpose == purpose {
					kept = append(kept, e)
				}
			}
			events = kept
		}

		return env.out.Print(events, func(w io.Writer) error {
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				ok := "✓"
				if !e.Success {
					ok = "✗"
				}
				rows = append(rows, []string{
					fmt.Sprint(e.ID),
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Purpose,
					truncate(e.Model, 28),
					fmt.Sprint(e.InputTokens),
					fmt.Sprint(e.OutputTokens),
					fmt.Sprint(e.LatencyMs),
					ok,
				})
			}
			return output.Table(w, []string{"ID", "TIME", "PURPOSE", "MODEL", "IN", "OUT", "MS", "OK"}, rows, "No LLM requests found.")
		})
	},
}

type modelUsage struct {
	Model        string   `json:"model"`
	Calls        int      `json:"calls"`
	Failures     int      `json:"failures"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	CostUSD      *float64 `json:"cost_usd"`
}

var llmUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage and estimated cost per model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		st, err := env.openStore()
		if err != nil {
			return err
		}
		events, err := st.EventRepo().RecentLLMRequests(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		byModel := map[string]*modelUsage{}
		for _, e := range events {
			u, ok := byModel[e.Model]
			if !ok {
				u = &modelUsage{Model: e.Model}
				byModel[e.Model] = u
			}
			u.Calls++
			if !e.Success {
				u.Failures++
			}
			u.InputTokens += e.InputTokens
			u.OutputTokens += e.OutputTokens
		}
		usage := make([]modelUsage, 0, len(byModel))
		for _, u := range byModel {
			if c := llm.LookupCost(u.Model); c != nil {
				cost := c.Cost(u.InputTokens, u.OutputTokens)
				u.CostUSD = &cost
			}
			usage = append(usage, *u)
		}
		sort.Slice(usage, func(i, j int) bool { return usage[i].Calls > usage[j].Calls })

		return env.out.Print(usage, func(w io.Writer) error {
			var (
				rows    [][]string
				total   float64
				unknown []string
			)
			for _, u := range usage {
				cost := "?"
				if u.CostUSD != nil {
					cost = formatCost(*u.CostUSD)
					total += *u.CostUSD
				} else {
					unknown = append(unknown, u.Model)
				}
				rows = append(rows, []string{
					truncate(u.Model, 32),
					fmt.Sprint(u.Calls),
					fmt.Sprint(u.Failures),
					fmt.Sprint(u.InputTokens),
					fmt.Sprint(u.OutputTokens),
					cost,
				})
			}
			if err := output.Table(w, []string{"MODEL", "CALLS", "FAILED", "INPUT", "OUTPUT", "COST"}, rows, "No LLM usage recorded yet."); err != nil {
				return err
			}
			if len(usage) == 0 {
				return nil
			}
			label := "Total"
			if len(unknown) > 0 {
				label = "Total (partial)"
			}
			fmt.Fprintf(w, "\n%s: %s\n", label, formatCost(total))
			if len(unknown) > 0 {
				fmt.Fprintf(w, "Pricing unavailable for: %s\n", strings.Join(unknown, ", "))
			}
			return nil
		})
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. study-tips, llm-test)")
	llmUsageCmd.Flags().IntP("limit", "n", 1000, "Number of recent requests to aggregate")

	llmCmd.AddCommand(llmTestCmd)
	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmUsageCmd)
}
