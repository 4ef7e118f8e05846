// Package cli is the operator command line of the image cache.
package cli

import (
	"github.com/andreyxaxa/Image-Cache/config"
	"github.com/spf13/cobra"
)

// NewRootCmd builds imgctl. Commands read the same environment as the server.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "imgctl",
		Short: "Sign image URLs and manage the transformed image cache",
		Long: `imgctl signs upload URLs for the transform pipeline, checks signatures,
locates and purges cached variants, and injects srcset into rendered HTML.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSignCmd(cfg),
		newVerifyCmd(cfg),
		newCachePathCmd(cfg),
		newPurgeCmd(cfg),
		newSrcsetCmd(cfg),
	)

	return root
}
