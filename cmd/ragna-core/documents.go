package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragna-core/internal/adapters/driven/postgres"
	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [document-id]",
	Short: "Show the latest processing record per stage",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List documents whose last processing run failed",
	Args:  cobra.NoArgs,
	RunE:  runFailed,
}

// stageOrder is the pipeline order used for status output
var stageOrder = []domain.ProcessingStage{
	domain.StageStart,
	domain.StageChunking,
	domain.StageEntityExtraction,
	domain.StageEmbeddingGeneration,
	domain.StageVectorStorage,
	domain.StageGraphStorage,
	domain.StageIndexing,
	domain.StageOverall,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(failedCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	documentID := args[0]
	ctx := context.Background()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := postgres.NewProcessingLog(db).LatestByStage(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no processing records for %s", documentID)
		}
		return fmt.Errorf("failed to load status: %w", err)
	}

	cmd.Printf("Document %s\n\n", documentID)
	cmd.Printf("%-22s %-12s %-20s %s\n", "STAGE", "STATUS", "TIMESTAMP", "DETAIL")
	for _, stage := range stageOrder {
		rec, ok := records[stage]
		if !ok {
			continue
		}
		detail := rec.Error
		if detail == "" {
			detail = formatMetadata(rec.Metadata)
		}
		cmd.Printf("%-22s %-12s %-20s %s\n",
			stage, rec.Status, rec.Timestamp.Format(time.RFC3339), detail)
	}
	return nil
}

func runFailed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	ids, err := postgres.NewProcessingLog(db).FailedDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list failed documents: %w", err)
	}

	if len(ids) == 0 {
		cmd.Println("No failed documents")
		return nil
	}
	for _, id := range ids {
		cmd.Println(id)
	}
	return nil
}

// formatMetadata renders the count metadata commonly attached to stage
// records, in stable order
func formatMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}

	keys := []string{
		"chunk_count", "entity_count", "relationship_count",
		"embedding_count", "vector_count", "file_path",
	}

	var out string
	for _, key := range keys {
		value, ok := metadata[key]
		if !ok {
			continue
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", key, value)
	}
	return out
}
