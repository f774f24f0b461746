package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aiton-rag/uploadui/internal/config"
	"github.com/aiton-rag/uploadui/internal/controller"
	"github.com/aiton-rag/uploadui/internal/errors"
	"github.com/aiton-rag/uploadui/internal/page"
	"github.com/aiton-rag/uploadui/pkg/upload"
	"github.com/aiton-rag/uploadui/pkg/vdom"
)

func pushCmd(g *globalFlags) *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "push <file>...",
		Short: "Upload files from the terminal",
		Long: `Upload files to the knowledge base with the same rules as the page.

A single file goes through the form flow. Several files are handled
like a drop: each is validated on its own and the valid ones are
uploaded concurrently.

Examples:
  uploadui push report.pdf
  uploadui push docs/*.md --stats`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client := upload.NewClient(cfg.APIBaseURL,
				upload.WithTimeout(cfg.UploadTimeout()),
				upload.WithLogger(logger),
			)
			return runPush(cmd.Context(), cmd.OutOrStdout(), cfg, logger, client, args, stats)
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "Print knowledge base stats afterwards")

	return cmd
}

// runPush drives a detached page document through the controller, the
// same way a browser session would.
func runPush(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger, uploader controller.Uploader, paths []string, stats bool) error {
	files := make([]upload.SelectedFile, 0, len(paths))
	for _, p := range paths {
		f, err := upload.LocalFile(p)
		if err != nil {
			return errors.New("E131").Wrap(err).WithDetail(err.Error())
		}
		files = append(files, f)
	}

	rules := cfg.Constraints()
	doc := page.Build(page.Options{Constraints: rules})
	el := controller.ElementsFrom(doc)
	ctrl := controller.New(el, controller.Options{
		Uploader:      uploader,
		Constraints:   &rules,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxFiles:      cfg.Upload.MaxFiles,
		Logger:        logger,
	})
	defer ctrl.Close()

	var err error
	if len(files) == 1 {
		var res *upload.Result
		res, err = ctrl.Submit(ctx, &files[0])
		if err == nil {
			success(out, "File uploaded successfully: %s", res.Filename)
		}
	} else {
		err = ctrl.HandleFiles(ctx, files)
		ctrl.View(func(*vdom.VNode) {
			for _, indicator := range el.Progress.Children {
				text := strings.Join(strings.Fields(indicator.TextContent()), " ")
				if text == "" {
					continue
				}
				if indicator.HasClass("alert-success") {
					success(out, "%s", text)
				} else {
					errorMsg(out, "%s", text)
				}
			}
		})
	}

	if stats {
		if serr := ctrl.RefreshStats(ctx); serr != nil {
			warn(out, "Stats unavailable: %v", serr)
		} else {
			ctrl.View(func(root *vdom.VNode) {
				info(out, "Total files:      %s", statText(root, controller.StatTotalFiles))
				info(out, "Total categories: %s", statText(root, controller.StatTotalCategories))
			})
		}
	}

	return pushError(err, cfg)
}

func statText(root *vdom.VNode, name string) string {
	nodes := vdom.QueryByAttr(root, controller.AttrStat, name)
	if len(nodes) == 0 {
		return "-"
	}
	return nodes[0].TextContent()
}

// pushError turns a controller failure into a coded CLI error.
func pushError(err error, cfg *config.Config) error {
	if err == nil {
		return nil
	}

	var (
		verr      *upload.ValidationError
		serverErr *upload.ServerError
		transErr  *upload.TransportError
	)
	switch {
	case stderrors.As(err, &transErr):
		return errors.New("E120").
			Wrap(err).
			WithDetail(err.Error()).
			WithSuggestion(fmt.Sprintf("Check that the API is running at %s or set %s", cfg.APIBaseURL, config.EnvAPIBaseURL))
	case stderrors.As(err, &serverErr):
		return errors.New("E121").Wrap(err).WithDetail(err.Error())
	case stderrors.As(err, &verr):
		rules := cfg.Constraints()
		return errors.New("E130").
			Wrap(err).
			WithDetail(err.Error()).
			WithSuggestion(fmt.Sprintf("Accepted: %s up to %s", strings.Join(rules.AllowedExtensions, " "), upload.FormatSize(rules.MaxFileSize)))
	default:
		return err
	}
}
