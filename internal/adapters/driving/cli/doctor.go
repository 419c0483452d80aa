package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured model services are reachable",
	Long: `Pings the configured embedding and chat completion endpoints and
reports which models they serve. No inference is run.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// healthChecker is the connectivity surface the model adapters expose
// beyond their core ports.
type healthChecker interface {
	Ping(ctx context.Context) error
	ModelName() string
	Close() error
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	embedder, err := buildEmbedder()
	if err != nil {
		return err
	}
	llm, err := buildLLM()
	if err != nil {
		return err
	}

	failures := 0
	if !checkService(cmd, "embedding", embedder) {
		failures++
	}
	if !checkService(cmd, "llm", llm) {
		failures++
	}
	if failures > 0 {
		return fmt.Errorf("%d service(s) unreachable", failures)
	}
	return nil
}

// checkService pings one collaborator and reports the outcome.
func checkService(cmd *cobra.Command, label string, svc any) bool {
	hc, ok := svc.(healthChecker)
	if !ok {
		return true
	}
	defer hc.Close()

	if err := hc.Ping(cmd.Context()); err != nil {
		cmd.Printf("%-10s %s: %v\n", label+":", hc.ModelName(), err)
		return false
	}
	cmd.Printf("%-10s %s: ok\n", label+":", hc.ModelName())
	return true
}
