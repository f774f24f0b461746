package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the uploadui build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(out, version)
				return err
			}

			printBanner(out)
			rows := [][2]string{
				{"Version", version},
				{"Commit", commit},
				{"Built", date},
				{"Go", runtime.Version()},
				{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
			}
			fmt.Fprintln(out)
			for _, r := range rows {
				fmt.Fprintf(out, "  %-10s %s\n", r[0]+":", r[1])
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "print the version number only")
	return cmd
}
