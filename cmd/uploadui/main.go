// Command uploadui serves the AITON-RAG upload page and pushes files to
// the knowledge base from the terminal.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiton-rag/uploadui/internal/config"
	"github.com/aiton-rag/uploadui/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬ ┬┌─┐┬  ┌─┐┌─┐┌┬┐┬ ┬┬
  │ │├─┘│  │ │├─┤ │││ ││
  └─┘┴  ┴─┘└─┘┴ ┴─┴┘└─┘┴
`

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dir      string
	envFiles []string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "uploadui",
		Short: "Upload documents to the AITON-RAG knowledge base",
		Long: `uploadui serves the AITON-RAG document upload page.

The page is rendered and driven on the server; a small script in the
browser forwards events over a WebSocket. Files can also be pushed
straight from the terminal with the same validation rules.

Configuration is read from uploadui.json, then .env, then the
process environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.dir, "dir", "C", ".", "Directory containing uploadui.json")
	flags.StringSliceVar(&g.envFiles, "env-file", nil, "Env files to load (default .env)")
	flags.StringVar(&g.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		serveCmd(g),
		pushCmd(g),
		statsCmd(g),
		initCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// load resolves the configuration and the logger for a command.
func (g *globalFlags) load(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Resolve(g.dir, g.envFiles...)
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return cfg, newLogger(cfg, stderr), nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
