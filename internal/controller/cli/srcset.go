package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/andreyxaxa/Image-Cache/config"
	"github.com/andreyxaxa/Image-Cache/internal/app"
	"github.com/andreyxaxa/Image-Cache/internal/usecase/srcset"
	"github.com/andreyxaxa/Image-Cache/pkg/signedurl"
	"github.com/spf13/cobra"
)

func newSrcsetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srcset [file]",
		Short: "Add srcset to managed upload images in HTML",
		Long:  "Reads HTML from file, or stdin when omitted, and prints it with srcset attributes added.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			html, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read html: %w", err)
			}

			uploads, closeUploads, err := app.OpenUploads(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeUploads()

			uc, err := srcset.New(uploads, signedurl.New(cfg.Signing.Secret), cfg.App.URL, cfg.App.UploadsPrefix)
			if err != nil {
				return err
			}

			out, err := uc.InjectSrcset(cmd.Context(), string(html))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)

			return nil
		},
	}
}
