package cli

import (
	"fmt"
	"math"

	"github.com/Davincible/shadowshare/internal/validation"
	"github.com/Davincible/shadowshare/pkg/scheme"
	"github.com/Davincible/shadowshare/pkg/stego"
	"github.com/spf13/cobra"
)

// CapacityResult is the JSON output of the capacity command
type CapacityResult struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	Bits        int `json:"bits"`
	BlockSize   int `json:"block_size"`
	FrameBytes  int `json:"frame_bytes"`
	Pixels      int `json:"carrier_pixels"`
	SquareSide  int `json:"square_side"`
	ShareHeight int `json:"share_height,omitempty"`
}

// NewCapacityCommand creates the command that reports how large carriers
// must be for a given secret
func NewCapacityCommand() *cobra.Command {
	var (
		secretPath string
		bits       int
		threshold  int
		blockMode  bool
	)

	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Show the carrier size needed to hide shares of a secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg := cm.GetConfig()

			useBits := cfg.Defaults.Bits
			if cmd.Flags().Changed("bits") {
				useBits = bits
			}
			k := cfg.Defaults.Threshold
			if cmd.Flags().Changed("threshold") {
				k = threshold
			}
			block := cfg.Defaults.BlockSize > 1
			if cmd.Flags().Changed("block") {
				block = blockMode
			}
			if err := validation.ValidateBits(useBits); err != nil {
				return err
			}
			if err := validation.ValidateThreshold(k); err != nil {
				return err
			}

			store, _, err := newHider(useBits)
			if err != nil {
				return err
			}
			secret, err := store.Load(secretPath)
			if err != nil {
				return fmt.Errorf("failed to load secret: %w", err)
			}

			codec := stego.Codec{Bits: useBits}
			blockSize := 1
			if block {
				blockSize = k
			}
			g := secret.Grid
			if g.Len()%blockSize != 0 {
				return fmt.Errorf("%dx%d image does not divide into blocks of %d", g.Width, g.Height, blockSize)
			}

			pixels := scheme.CarrierSize(g.Width, g.Height, blockSize, codec)
			result := CapacityResult{
				Width:      g.Width,
				Height:     g.Height,
				Bits:       useBits,
				BlockSize:  blockSize,
				FrameBytes: stego.FrameSize(g.Len() / blockSize),
				Pixels:     pixels,
				SquareSide: int(math.Ceil(math.Sqrt(float64(pixels)))),
			}
			if useBits == 8 {
				result.ShareHeight = (pixels + g.Width - 1) / g.Width
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), result)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w)
			headerColor.Fprintf(w, "Secret %dx%d, block size %d, %d bits per byte\n", g.Width, g.Height, blockSize, useBits)
			fmt.Fprintf(w, "  Share frame:    %d bytes\n", result.FrameBytes)
			fmt.Fprintf(w, "  Carrier pixels: %d (at least %dx%d)\n", result.Pixels, result.SquareSide, result.SquareSide)
			if result.ShareHeight > 0 {
				fmt.Fprintf(w, "  Share images:   %dx%d\n", g.Width, result.ShareHeight)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&secretPath, "secret", "s", "", "Secret bitmap")
	cmd.Flags().IntVarP(&bits, "bits", "b", 0, "Bits hidden per carrier byte (1, 2 or 8)")
	cmd.Flags().IntVarP(&threshold, "threshold", "k", 0, "Threshold, used for block mode")
	cmd.Flags().BoolVar(&blockMode, "block", false, "Pack k pixels into each polynomial")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}
