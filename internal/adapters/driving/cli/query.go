package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/formatter"
)

var (
	queryTopK  int
	queryStyle string
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question from the indexed corpus",
	Long: `Answers a single question grounded in the indexed passages.
The answer cites its sources by bracketed number; full citations are
printed below the answer in the chosen style.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 4, "passages retrieved per question")
	queryCmd.Flags().StringVar(&queryStyle, "style", "", "citation style: mla, apa or chicago")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	style, err := citationStyle(queryStyle)
	if err != nil {
		return err
	}
	if err := ensureQueryService(style, queryTopK); err != nil {
		return err
	}
	defer closeStores(cmd)

	answer, err := queryService.Query(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Message)
	printSources(cmd, answer.Sources)
	return nil
}

// citationStyle resolves the style flag, falling back to config.
func citationStyle(name string) (formatter.Style, error) {
	if name == "" {
		name = configStore.GetString("citation.style")
	}
	return formatter.ParseStyle(name)
}

func printSources(cmd *cobra.Command, sources []domain.Source) {
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, s := range sources {
		cmd.Printf("  [%d] %s\n", s.Ordinal, s.Citation)
	}
}
