package cli

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"github.com/andreyxaxa/Image-Cache/config"
	"github.com/andreyxaxa/Image-Cache/internal/app"
	"github.com/andreyxaxa/Image-Cache/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Cache/internal/usecase/invalidation"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
	"github.com/andreyxaxa/Image-Cache/pkg/signedurl"
	"github.com/spf13/cobra"
)

func newCachePathCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "cache-path <url>",
		Short: "Print the cache file a signed URL is stored under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("url.Parse: %w", err)
			}

			key := u.Query().Get(signedurl.KeyParam)
			if key == "" {
				return fmt.Errorf("url has no %s parameter", signedurl.KeyParam)
			}

			sitePath := path.Clean("/" + u.Path)
			name := persistent.CacheFileName(sitePath, key, path.Ext(sitePath))

			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(app.CacheDir(cfg), name))

			return nil
		},
	}
}

func newPurgeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <upload-path>",
		Short: "Delete every cached variant of an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := persistent.NewDiskCache(app.CacheDir(cfg))
			if err != nil {
				return err
			}

			n, err := invalidation.New(cache, logger.Nop()).Purge(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n)

			return nil
		},
	}
}
