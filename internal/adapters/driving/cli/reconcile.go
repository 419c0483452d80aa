package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/services"
)

var reconcileBatchSize int

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair document store and vector index drift",
	Long: `Compares the document store against the vector index. Documents
without a vector are re-embedded and added to the index; vectors
without a document are removed. Drift appears when an ingest run is
interrupted between the two writes.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileBatchSize, "batch-size", 32, "documents per embedding batch")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	embedder, err := buildEmbedder()
	if err != nil {
		return err
	}
	if err := openStores(embedder); err != nil {
		return err
	}
	defer closeStores(cmd)

	r := services.NewReconciler(embedder, docStore, vectorIndex, reconcileBatchSize)
	err = r.Reconcile(cmd.Context())

	var report *domain.ConsistencyError
	switch {
	case err == nil:
		cmd.Println("Stores are consistent.")
		return nil
	case errors.As(err, &report):
		saveIndex(cmd)
		cmd.Printf("Repaired drift: %d documents re-embedded, %d orphan vectors removed.\n",
			len(report.MissingVectors), len(report.MissingDocuments))
		return nil
	default:
		return fmt.Errorf("reconcile failed: %w", err)
	}
}
