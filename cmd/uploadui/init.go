package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aiton-rag/uploadui/internal/config"
	"github.com/aiton-rag/uploadui/internal/errors"
)

func initCmd(g *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default uploadui.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(g.dir, config.ConfigFileName)
			if config.Exists(g.dir) && !force {
				return errors.Newf(errors.CategoryCLI, "%s already exists", path).
					WithSuggestion("Use --force to overwrite it")
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
