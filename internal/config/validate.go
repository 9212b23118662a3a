// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"fmt"
	"strings"

	"github.com/privarion/privariond/internal/validation"
)

// ValidationError represents a single configuration validation failure.
type ValidationError struct {
	Field    string
	Message  string
	Severity string // "error" (default) or "warning"
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if any entry has error (not warning) severity.
func (e ValidationErrors) HasErrors() bool {
	for _, err := range e {
		if err.Severity != "warning" {
			return true
		}
	}
	return false
}

// Validate checks every recognized option against its documented range and
// returns every violation found, rather than failing on the first one.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if !c.Global.LogLevel.Valid() && c.Global.LogLevel != "" {
		errs = append(errs, ValidationError{
			Field:   "global.logLevel",
			Message: fmt.Sprintf("unrecognized level %q (must be debug, info, warning, or error)", c.Global.LogLevel),
		})
	}
	if c.Global.MaxLogSizeMB < 0 {
		errs = append(errs, ValidationError{Field: "global.maxLogSizeMB", Message: "must be non-negative"})
	}
	if c.Global.LogRotationCount < 1 {
		errs = append(errs, ValidationError{Field: "global.logRotationCount", Message: "must be at least 1"})
	}

	seen := make(map[string]bool, len(c.Profiles))
	hasDefault := false
	for _, p := range c.Profiles {
		if p.Name == "" {
			errs = append(errs, ValidationError{Field: "profile.name", Message: "profile name cannot be empty"})
			continue
		}
		if err := validation.ValidateIdentifier(p.Name); err != nil {
			errs = append(errs, ValidationError{Field: "profile.name", Message: err.Error()})
		}
		if seen[p.Name] {
			errs = append(errs, ValidationError{Field: "profile.name", Message: fmt.Sprintf("duplicate profile name %q", p.Name)})
		}
		seen[p.Name] = true
		if p.Name == DefaultProfileName {
			hasDefault = true
		}
	}
	if !hasDefault {
		errs = append(errs, ValidationError{Field: "profiles", Message: "the default profile must always exist"})
	}

	if c.ActiveProfile != "" && !seen[c.ActiveProfile] {
		errs = append(errs, ValidationError{
			Field:   "activeProfile",
			Message: fmt.Sprintf("active profile %q does not name an existing profile", c.ActiveProfile),
		})
	}

	for _, d := range c.Blocklist {
		if d == "" {
			errs = append(errs, ValidationError{Field: "blocklist", Message: "blocklist entries cannot be empty"})
		}
	}

	for _, r := range c.ApplicationRules {
		if r.AppPath == "" {
			errs = append(errs, ValidationError{Field: "application.app_path", Message: "application path cannot be empty"})
		} else if err := validation.ValidatePath(r.AppPath, []string{"/"}); err != nil {
			errs = append(errs, ValidationError{Field: "application.app_path", Message: err.Error()})
		}
		if r.Action != ApplicationAllow && r.Action != ApplicationBlock {
			errs = append(errs, ValidationError{
				Field:   "application.action",
				Message: fmt.Sprintf("unrecognized action %q for %q", r.Action, r.AppPath),
			})
		}
	}

	return errs
}
