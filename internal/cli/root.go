package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the shadowshare command tree. level is raised to
// debug when --verbose is set.
func NewRootCommand(version string, level *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shadowshare",
		Short: "Threshold secret sharing for grayscale bitmaps",
		Long: `Shadowshare splits an 8-bit grayscale bitmap into n shares so that any k
of them rebuild it exactly while fewer than k reveal nothing useful.

Shares are hidden in the low bits of ordinary carrier bitmaps, or written
as dedicated share images with --bits 8.

Features:
- (k, n) sharing over GF(257) for 2 <= k <= n <= 10
- Seeded pixel diffusion before sharing
- Per-pixel or block polynomials
- 1 or 2 bit LSB hiding with carrier palette preserved
- Tamper-evident share frames`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && level != nil {
				level.Set(slog.LevelDebug)
			}
		},
	}

	rootCmd.AddCommand(
		NewDistributeCommand(),
		NewRecoverCommand(),
		NewInspectCommand(),
		NewCapacityCommand(),
		NewConfigCommand(),
	)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/shadowshare/config.json)")

	return rootCmd
}
