package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/andreyxaxa/Image-Cache/config"
	"github.com/andreyxaxa/Image-Cache/internal/usecase/srcset"
	"github.com/andreyxaxa/Image-Cache/pkg/signedurl"
	"github.com/spf13/cobra"
)

var errSignatureMismatch = errors.New("signature mismatch")

func newSignCmd(cfg *config.Config) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "sign <url>",
		Short: "Print the signed URL",
		Example: `  imgctl sign /uploads/2024/photo.jpg --param width=300
  imgctl sign https://blog.example.com/uploads/a.png -p rotate=90 -p grayscale=1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged := make(map[string]string, len(params))
			for _, p := range params {
				k, v, ok := strings.Cut(p, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid --param %q, want key=value", p)
				}
				merged[k] = v
			}

			// база не нужна, подпись строится без поиска загрузок
			uc, err := srcset.New(nil, signedurl.New(cfg.Signing.Secret), cfg.App.URL, cfg.App.UploadsPrefix)
			if err != nil {
				return err
			}

			signed, err := uc.GenerateURL(args[0], merged)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), signed)

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "transform parameter as key=value, repeatable")

	return cmd
}

func newVerifyCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <url>",
		Short: "Exit with status 0 when the URL signature is valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := absolute(cfg.App.URL, args[0])
			if err != nil {
				return err
			}

			if !signedurl.Verify(abs, cfg.Signing.Secret) {
				return errSignatureMismatch
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")

			return nil
		},
	}
}

// absolute resolves relative URLs against the app origin they are signed for.
func absolute(appURL, rawURL string) (string, error) {
	base, err := url.Parse(appURL)
	if err != nil {
		return "", fmt.Errorf("url.Parse: %w", err)
	}

	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("url.Parse: %w", err)
	}

	return base.ResolveReference(ref).String(), nil
}
