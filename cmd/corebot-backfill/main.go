// Command corebot-backfill re-indexes existing session transcripts into the
// semantic memory layer — useful after enabling MEMORY_SEMANTIC_SEARCH on a
// workspace that already has conversation history on disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/localloom/corebot/pkg/config"
	"github.com/localloom/corebot/pkg/memory"
)

func main() {
	extractKnowledge := flag.Bool("extract-knowledge", false, "LLM-based knowledge extraction; this command configures no LLM provider, so setting it exits with an error")
	dryRun := flag.Bool("dry-run", false, "print what would be indexed without writing anything")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "corebot-backfill: %v\n", err)
		os.Exit(1)
	}

	store, err := memory.NewVectorStore(cfg.Workspace, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corebot-backfill: open vector store: %v\n", err)
		os.Exit(1)
	}

	var extractor *memory.KnowledgeExtractor
	if *extractKnowledge {
		fmt.Fprintln(os.Stderr, "corebot-backfill: -extract-knowledge requires an LLM provider; wire one in before enabling this flag")
		os.Exit(1)
	}

	sessionsDir := filepath.Join(cfg.Workspace, "sessions")
	stats, err := memory.Backfill(context.Background(), sessionsDir, store, extractor, memory.BackfillOptions{
		ExtractKnowledge: *extractKnowledge,
		DryRun:           *dryRun,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "corebot-backfill: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: %d/%d sessions processed, %d turns indexed, %d facts extracted, %d errors\n",
		stats.SessionsProcessed, stats.SessionsTotal, stats.TurnsIndexed, stats.FactsExtracted, stats.Errors)
}
