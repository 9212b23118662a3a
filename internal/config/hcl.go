// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/privarion/privariond/internal/errors"
)

// ConfigFile pairs a decoded Config with the hclwrite tree it was parsed
// from, so comments and block ordering survive a load/modify/save cycle.
type ConfigFile struct {
	Path    string
	Config  *Config
	hclFile *hclwrite.File
}

// LoadConfigFile reads and decodes an HCL configuration file from path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "read config file")
	}
	return LoadConfigFromBytes(path, data)
}

// LoadConfigFromBytes decodes HCL source into a Config, keeping the
// hclwrite tree for later round-trip editing.
func LoadConfigFromBytes(filename string, data []byte) (*ConfigFile, error) {
	hclFile, diags := hclwrite.ParseConfig(data, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, errors.Codedf(errors.KindValidation, errors.CodeConfigurationInvalid, "parse HCL: %s", diags.Error())
	}

	var cfg Config
	if err := hclsimple.Decode(filename, data, nil, &cfg); err != nil {
		return nil, errors.WrapCoded(err, errors.KindValidation, errors.CodeConfigurationInvalid, "decode config")
	}

	if cfg.ActiveProfile == "" {
		cfg.ActiveProfile = DefaultProfileName
	}
	if cfg.FindProfile(DefaultProfileName) == nil {
		cfg.Profiles = append(cfg.Profiles, Profile{
			Name:        DefaultProfileName,
			Description: "Default privacy profile",
			Modules:     DefaultModuleToggles(),
		})
	}

	return &ConfigFile{Path: filename, Config: &cfg, hclFile: hclFile}, nil
}

// Save writes the config back to its original path.
func (cf *ConfigFile) Save() error {
	return cf.SaveTo(cf.Path)
}

// SaveTo writes the config to path, creating parent directories as needed.
func (cf *ConfigFile) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, errors.KindInternal, "create config directory")
	}
	if err := os.WriteFile(path, cf.hclFile.Bytes(), 0o600); err != nil {
		return errors.Wrap(err, errors.KindInternal, "write config file")
	}
	cf.Path = path
	return nil
}

// GetRawHCL returns the current HCL source as a string.
func (cf *ConfigFile) GetRawHCL() string {
	return string(cf.hclFile.Bytes())
}
