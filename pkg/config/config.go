// Package config provides configuration management for the shadowshare CLI
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Davincible/shadowshare/pkg/carrier"
	"github.com/Davincible/shadowshare/pkg/crypto/shamir"
	"github.com/Davincible/shadowshare/pkg/scheme"
	"github.com/Davincible/shadowshare/pkg/stego"
	"github.com/spf13/afero"
)

// Config represents the main configuration structure
type Config struct {
	Version  string          `json:"version"`
	Defaults DefaultSettings `json:"defaults"`
	Carriers CarrierSettings `json:"carriers"`
	UI       UIConfig        `json:"ui"`
}

// DefaultSettings contains default values for distribute and recover
type DefaultSettings struct {
	Threshold int    `json:"threshold"`  // Default: 3
	Shares    int    `json:"shares"`     // Default: 5
	Bits      int    `json:"bits"`       // Default: 2
	BlockSize int    `json:"block_size"` // Default: 1
	Policy    string `json:"policy"`     // replicate or keystream
}

// CarrierSettings contains where carriers are found and shares written
type CarrierSettings struct {
	Dir       string `json:"dir"`        // Default: "."
	Pattern   string `json:"pattern"`    // Default: "*.bmp"
	OutputDir string `json:"output_dir"` // Default: "shares"
}

// UIConfig contains user interface settings
type UIConfig struct {
	UseColor bool `json:"use_color"` // Enable colored output
}

// ShareProfile is a saved set of sharing parameters for quick access
type ShareProfile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Threshold   int    `json:"threshold"`
	Shares      int    `json:"shares"`
	Bits        int    `json:"bits"`
	BlockMode   bool   `json:"block_mode"`
	Policy      string `json:"policy"`
}

// ConfigManager manages configuration loading and saving
type ConfigManager struct {
	fs         afero.Fs
	config     *Config
	configPath string
	profiles   map[string]*ShareProfile
}

// NewConfigManager creates a configuration manager for the default path
func NewConfigManager(fs afero.Fs) (*ConfigManager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewConfigManagerAt(fs, configPath)
}

// NewConfigManagerAt creates a configuration manager for configPath on fs. A
// nil fs means the OS filesystem. A missing file yields the defaults; it is
// only written by SaveConfig.
func NewConfigManagerAt(fs afero.Fs, configPath string) (*ConfigManager, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	cm := &ConfigManager{
		fs:         fs,
		configPath: configPath,
		profiles:   make(map[string]*ShareProfile),
	}

	if err := cm.LoadConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cm.config = DefaultConfig()
	}

	if err := cm.LoadProfiles(); err != nil {
		// Profiles are optional, so we don't fail here
		cm.profiles = make(map[string]*ShareProfile)
	}

	return cm, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Defaults: DefaultSettings{
			Threshold: 3,
			Shares:    5,
			Bits:      2,
			BlockSize: 1,
			Policy:    shamir.PolicyReplicate.String(),
		},
		Carriers: CarrierSettings{
			Dir:       ".",
			Pattern:   carrier.DefaultPattern,
			OutputDir: "shares",
		},
		UI: UIConfig{
			UseColor: true,
		},
	}
}

// Path returns the configuration file path
func (cm *ConfigManager) Path() string {
	return cm.configPath
}

// LoadConfig loads the configuration from disk. Fields missing from the
// file keep their default values.
func (cm *ConfigManager) LoadConfig() error {
	data, err := afero.ReadFile(cm.fs, cm.configPath)
	if err != nil {
		return err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	cm.config = config
	return nil
}

// SaveConfig saves the configuration to disk
func (cm *ConfigManager) SaveConfig() error {
	configDir := filepath.Dir(cm.configPath)
	if err := cm.fs.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cm.fs, cm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// SetConfig updates the configuration
func (cm *ConfigManager) SetConfig(config *Config) {
	cm.config = config
}

func (cm *ConfigManager) profilesPath() string {
	return filepath.Join(filepath.Dir(cm.configPath), "profiles.json")
}

// LoadProfiles loads saved sharing profiles
func (cm *ConfigManager) LoadProfiles() error {
	data, err := afero.ReadFile(cm.fs, cm.profilesPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	profiles := make(map[string]*ShareProfile)
	if err := json.Unmarshal(data, &profiles); err != nil {
		return fmt.Errorf("failed to parse profiles: %w", err)
	}

	cm.profiles = profiles
	return nil
}

// SaveProfiles saves sharing profiles to disk
func (cm *ConfigManager) SaveProfiles() error {
	if err := cm.fs.MkdirAll(filepath.Dir(cm.configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cm.profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	if err := afero.WriteFile(cm.fs, cm.profilesPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}

	return nil
}

// AddProfile adds a new sharing profile
func (cm *ConfigManager) AddProfile(profile *ShareProfile) error {
	if profile.Name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}

	cm.profiles[profile.Name] = profile
	return cm.SaveProfiles()
}

// GetProfile retrieves a sharing profile by name
func (cm *ConfigManager) GetProfile(name string) (*ShareProfile, error) {
	profile, exists := cm.profiles[name]
	if !exists {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}
	return profile, nil
}

// getConfigPath returns the configuration file path
func getConfigPath() (string, error) {
	if customPath := os.Getenv("SHADOWSHARE_CONFIG"); customPath != "" {
		return customPath, nil
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "shadowshare", "config.json"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "shadowshare", "config.json"), nil
}

// ApplyDefaults fills unset sharing parameters from the configuration
func (cm *ConfigManager) ApplyDefaults(params *scheme.Params) error {
	d := cm.config.Defaults
	if params.Threshold == 0 {
		params.Threshold = d.Threshold
	}
	if params.Shares == 0 {
		params.Shares = d.Shares
	}
	if params.BlockSize == 0 {
		params.BlockSize = d.BlockSize
	}
	if params.Policy == shamir.PolicyReplicate && d.Policy != "" {
		policy, err := shamir.ParsePolicy(d.Policy)
		if err != nil {
			return fmt.Errorf("invalid default policy: %w", err)
		}
		params.Policy = policy
	}
	return nil
}

// ApplyProfile overwrites sharing parameters with a saved profile
func (p *ShareProfile) ApplyProfile(params *scheme.Params) error {
	policy, err := shamir.ParsePolicy(p.Policy)
	if err != nil {
		return fmt.Errorf("profile '%s': %w", p.Name, err)
	}
	params.Threshold = p.Threshold
	params.Shares = p.Shares
	params.Policy = policy
	params.BlockSize = 1
	if p.BlockMode {
		params.BlockSize = p.Threshold
	}
	return nil
}

// Validate checks the configured defaults
func (c *Config) Validate() error {
	d := c.Defaults
	if err := (&shamir.Config{
		Parts:     d.Shares,
		Threshold: d.Threshold,
		BlockSize: d.BlockSize,
	}).Validate(); err != nil {
		return fmt.Errorf("invalid defaults: %w", err)
	}
	if _, err := shamir.ParsePolicy(d.Policy); err != nil {
		return fmt.Errorf("invalid defaults: %w", err)
	}
	if _, err := stego.NewCodec(d.Bits); err != nil {
		return fmt.Errorf("invalid defaults: %w", err)
	}
	return nil
}
