package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aiton-rag/uploadui/internal/config"
	"github.com/aiton-rag/uploadui/internal/controller"
	"github.com/aiton-rag/uploadui/internal/errors"
	"github.com/aiton-rag/uploadui/pkg/upload"
)

func statsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print knowledge base stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client := upload.NewClient(cfg.APIBaseURL,
				upload.WithTimeout(cfg.UploadTimeout()),
				upload.WithLogger(logger),
			)
			return runStats(cmd.Context(), cmd.OutOrStdout(), cfg, client)
		},
	}
}

func runStats(ctx context.Context, out io.Writer, cfg *config.Config, uploader controller.Uploader) error {
	health, err := uploader.Health(ctx)
	if err != nil {
		return errors.New("E120").
			Wrap(err).
			WithDetail(err.Error()).
			WithSuggestion(fmt.Sprintf("Check that the API is running at %s or set %s", cfg.APIBaseURL, config.EnvAPIBaseURL))
	}
	if !health.Success {
		return errors.New("E121").WithDetail("health check reported success=false")
	}
	if health.Stats == nil {
		warn(out, "The API did not report stats")
		return nil
	}
	info(out, "Total files:      %s", humanize.Comma(health.Stats.TotalProcessedFiles))
	info(out, "Total categories: %s", humanize.Comma(health.Stats.KnowledgeBaseCategories))
	return nil
}
