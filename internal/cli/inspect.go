package cli

import (
	"fmt"

	"github.com/Davincible/shadowshare/internal/validation"
	"github.com/Davincible/shadowshare/pkg/scheme"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the command that reports what a bitmap carries
func NewInspectCommand() *cobra.Command {
	var bits int

	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Show the side channel, capacity and share frame of bitmaps",
		Long: `Inspect reports, for each bitmap, the seed and share index stored in its
header, how many payload bytes it can carry at --bits, and whether a valid
share frame is hidden in it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			useBits := cm.GetConfig().Defaults.Bits
			if cmd.Flags().Changed("bits") {
				useBits = bits
			}
			if err := validation.ValidateBits(useBits); err != nil {
				return err
			}

			_, hider, err := newHider(useBits)
			if err != nil {
				return err
			}

			results := make([]*scheme.Inspection, 0, len(args))
			for _, path := range args {
				in, err := hider.Inspect(path)
				if err != nil {
					in = &scheme.Inspection{Path: path, Error: err.Error()}
				}
				results = append(results, in)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), results)
			}

			displayInspections(cmd, results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&bits, "bits", "b", 0, "Bits hidden per carrier byte (1, 2 or 8)")

	return cmd
}

func displayInspections(cmd *cobra.Command, results []*scheme.Inspection) {
	w := cmd.OutOrStdout()
	for _, in := range results {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, in.Path)
		if in.Width == 0 {
			warnColor.Fprintf(w, "  ✗ %s\n", in.Error)
			continue
		}

		fmt.Fprintf(w, "  Size:     %dx%d\n", in.Width, in.Height)
		fmt.Fprintf(w, "  Seed:     %d\n", in.Side.Seed)
		fmt.Fprintf(w, "  Index:    %d\n", in.Side.Index)
		fmt.Fprintf(w, "  Capacity: %d bytes\n", in.Capacity)
		if in.Header == nil {
			warnColor.Fprintf(w, "  ✗ no share: %s\n", in.Error)
			continue
		}
		successColor.Fprintf(w, "  ✓ share of a %dx%d secret, threshold %d, block size %d\n",
			in.Header.Width, in.Header.Height, in.Header.Threshold, in.Header.BlockSize)
	}
}
