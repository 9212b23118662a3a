// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import "github.com/privarion/privariond/internal/errors"

// SwitchProfile returns a clone of c with activeProfile set to name.
// Fails with CodeProfileNotFound if name does not name an existing profile.
func (c *Config) SwitchProfile(name string) (*Config, error) {
	if c.FindProfile(name) == nil {
		return nil, errors.Codedf(errors.KindNotFound, errors.CodeProfileNotFound, "profile %q does not exist", name)
	}
	next := c.Clone()
	next.ActiveProfile = name
	return next, nil
}

// CreateProfile returns a clone of c with a new profile appended.
// Fails with CodeConfigurationInvalid if a profile by that name already exists.
func (c *Config) CreateProfile(name, description string) (*Config, error) {
	if name == "" {
		return nil, errors.Coded(errors.KindValidation, errors.CodeConfigurationInvalid, "profile name cannot be empty")
	}
	if c.FindProfile(name) != nil {
		return nil, errors.Codedf(errors.KindConflict, errors.CodeConfigurationInvalid, "profile %q already exists", name)
	}
	next := c.Clone()
	next.Profiles = append(next.Profiles, Profile{
		Name:        name,
		Description: description,
		Modules:     DefaultModuleToggles(),
	})
	return next, nil
}

// DeleteProfile returns a clone of c with the named profile removed.
// The default profile can never be deleted. Deleting the active profile
// falls back the result's activeProfile to the default profile.
func (c *Config) DeleteProfile(name string) (*Config, error) {
	if name == DefaultProfileName {
		return nil, errors.Coded(errors.KindValidation, errors.CodeProfileSwitchFailed, "the default profile cannot be deleted")
	}
	if c.FindProfile(name) == nil {
		return nil, errors.Codedf(errors.KindNotFound, errors.CodeProfileNotFound, "profile %q does not exist", name)
	}

	next := c.Clone()
	filtered := make([]Profile, 0, len(next.Profiles))
	for _, p := range next.Profiles {
		if p.Name != name {
			filtered = append(filtered, p)
		}
	}
	next.Profiles = filtered

	if next.ActiveProfile == name {
		next.ActiveProfile = DefaultProfileName
	}
	return next, nil
}
