package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Davincible/shadowshare/pkg/carrier"
	"github.com/Davincible/shadowshare/pkg/config"
	"github.com/Davincible/shadowshare/pkg/scheme"
	"github.com/Davincible/shadowshare/pkg/stego"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// appFs is the filesystem every command reads carriers, shares and
// configuration from.
var appFs afero.Fs = afero.NewOsFs()

// loadConfig opens the configuration named by --config, or the default one.
func loadConfig(cmd *cobra.Command) (*config.ConfigManager, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cm  *config.ConfigManager
		err error
	)
	if path != "" {
		cm, err = config.NewConfigManagerAt(appFs, path)
	} else {
		cm, err = config.NewConfigManager(appFs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cm.GetConfig().Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cm.Path(), err)
	}

	setupColor(cmd, cm.GetConfig())
	return cm, nil
}

// setupColor disables colour when stdout is not a terminal or the config
// turns it off.
func setupColor(cmd *cobra.Command, cfg *config.Config) {
	if !cfg.UI.UseColor || !isTerminal(cmd.OutOrStdout()) {
		color.NoColor = true
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func jsonOutput(cmd *cobra.Command) bool {
	outputJSON, _ := cmd.Flags().GetBool("json")
	return outputJSON
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func newHider(bits int) (*carrier.Store, *scheme.Hider, error) {
	codec, err := stego.NewCodec(bits)
	if err != nil {
		return nil, nil, err
	}
	store := carrier.NewStore(appFs)
	hider, err := scheme.NewHider(store, codec, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return store, hider, nil
}

var (
	successColor = color.New(color.FgGreen, color.Bold)
	headerColor  = color.New(color.FgYellow, color.Bold)
	warnColor    = color.New(color.FgRed, color.Bold)
	labelColor   = color.New(color.FgCyan)
)
