package cli

import (
	"fmt"

	"github.com/Davincible/shadowshare/internal/validation"
	"github.com/Davincible/shadowshare/pkg/bmp"
	"github.com/spf13/cobra"
)

// RecoverResult is the JSON output of the recover command
type RecoverResult struct {
	Secret string   `json:"secret"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Shares []string `json:"shares"`
}

// NewRecoverCommand creates the command that rebuilds a secret bitmap from
// the shares found in a directory
func NewRecoverCommand() *cobra.Command {
	var (
		secretPath string
		threshold  int
		shareDir   string
		pattern    string
		bits       int
	)

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Recover a secret bitmap from k shares",
		Long: `Read the shares hidden in the bitmaps of --dir and write the recovered
secret to --secret.

Files that do not carry a share are skipped. Shares are ordered by their
index and the lowest k are used. --bits must match the value used when the
shares were distributed.`,
		Example: `  # Recover from shares hidden with 2 bits per byte
  shadowshare recover --secret recovered.bmp -k 3 --dir shares

  # Recover from dedicated share images
  shadowshare recover --secret recovered.bmp -k 3 --dir shares --bits 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg := cm.GetConfig()

			flags := cmd.Flags()
			k := cfg.Defaults.Threshold
			if flags.Changed("threshold") {
				k = threshold
			}
			useBits := cfg.Defaults.Bits
			if flags.Changed("bits") {
				useBits = bits
			}
			dir := cfg.Carriers.OutputDir
			if flags.Changed("dir") {
				dir = shareDir
			}
			glob := cfg.Carriers.Pattern
			if flags.Changed("pattern") {
				glob = pattern
			}

			if err := validation.ValidateThreshold(k); err != nil {
				return err
			}
			if err := validation.ValidateBits(useBits); err != nil {
				return err
			}
			if err := validation.ValidateBitmapPath(secretPath); err != nil {
				return err
			}
			if err := validation.ValidatePattern(glob); err != nil {
				return err
			}

			store, hider, err := newHider(useBits)
			if err != nil {
				return err
			}

			files, err := store.List(dir, glob, k)
			if err != nil {
				return err
			}

			secret, used, err := hider.RecoverFromCarriers(files, k)
			if err != nil {
				return fmt.Errorf("failed to recover secret: %w", err)
			}

			if err := store.Save(secretPath, bmp.NewGray(secret)); err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), RecoverResult{
					Secret: secretPath,
					Width:  secret.Width,
					Height: secret.Height,
					Shares: used,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w)
			successColor.Fprintln(w, "✓ Secret recovered successfully")
			fmt.Fprintf(w, "  %dx%d image written to %s\n", secret.Width, secret.Height, secretPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&secretPath, "secret", "s", "", "Where to write the recovered bitmap")
	cmd.Flags().IntVarP(&threshold, "threshold", "k", 0, "Shares needed to recover")
	cmd.Flags().StringVarP(&shareDir, "dir", "d", "", "Directory holding the shares")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Share file name pattern")
	cmd.Flags().IntVarP(&bits, "bits", "b", 0, "Bits hidden per carrier byte (1, 2 or 8)")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}
