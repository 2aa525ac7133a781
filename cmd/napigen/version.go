package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/corrreia/napigo/internal/gen"
	"github.com/corrreia/napigo/pkg/bootstrap"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the napigen version",
	Run: func(cmd *cobra.Command, args []string) {
		p := newPalette(colorEnabled(cmd))
		fmt.Fprintf(cmd.OutOrStdout(), "napigen %s\n", p.ok.Sprint(gen.Version))
		fmt.Fprintf(cmd.OutOrStdout(), "  node-api  %d (default)\n", bootstrap.APIVersion)
		fmt.Fprintf(cmd.OutOrStdout(), "  go        %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
