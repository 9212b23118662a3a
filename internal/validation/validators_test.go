// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package validation

import "testing"

func TestValidateInterfaceName(t *testing.T) {
	cases := map[string]bool{
		"eth0":                true,
		"wg-privarion.1":      true,
		"":                    false,
		"this-name-is-way-too-long-for-a-nic": false,
		"eth0;rm -rf /":       false,
	}
	for name, want := range cases {
		if err := ValidateInterfaceName(name); (err == nil) != want {
			t.Errorf("ValidateInterfaceName(%q): got err=%v, want valid=%v", name, err, want)
		}
	}
}

func TestValidateIdentifier(t *testing.T) {
	if err := ValidateIdentifier("work-profile"); err != nil {
		t.Errorf("expected valid identifier, got %v", err)
	}
	if err := ValidateIdentifier(""); err == nil {
		t.Error("expected error for empty identifier")
	}
	if err := ValidateIdentifier("profile`id`"); err == nil {
		t.Error("expected error for identifier with dangerous characters")
	}
}

func TestValidatePath(t *testing.T) {
	allowed := []string{"/etc/privarion"}
	if err := ValidatePath("/etc/privarion/config.hcl", allowed); err != nil {
		t.Errorf("expected path inside allowlist to pass, got %v", err)
	}
	if err := ValidatePath("/etc/shadow", allowed); err == nil {
		t.Error("expected error for path outside allowlist")
	}
	if err := ValidatePath("/etc/privarion/../shadow", allowed); err == nil {
		t.Error("expected error for path traversal")
	}
}

func TestValidateIPOrCIDR(t *testing.T) {
	if err := ValidateIPOrCIDR("10.0.0.1"); err != nil {
		t.Errorf("expected valid IP to pass, got %v", err)
	}
	if err := ValidateIPOrCIDR("10.0.0.0/8"); err != nil {
		t.Errorf("expected valid CIDR to pass, got %v", err)
	}
	if err := ValidateIPOrCIDR("not-an-ip"); err == nil {
		t.Error("expected error for invalid IP")
	}
}

func TestValidatePortNumber(t *testing.T) {
	if err := ValidatePortNumber(443); err != nil {
		t.Errorf("expected valid port to pass, got %v", err)
	}
	if err := ValidatePortNumber(0); err == nil {
		t.Error("expected error for port 0")
	}
	if err := ValidatePortNumber(70000); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestValidateProtocol(t *testing.T) {
	if err := ValidateProtocol("TCP"); err != nil {
		t.Errorf("expected protocol validation to be case-insensitive, got %v", err)
	}
	if err := ValidateProtocol("sctp"); err == nil {
		t.Error("expected error for unrecognized protocol")
	}
}
