// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errors

import (
	"errors"
	"fmt"
)

// Kind defines the category of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindInternal
	KindValidation
	KindNotFound
	KindPermission
	KindConflict
	KindUnavailable
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Code identifies a specific surfaced failure category, independent of the
// coarser Kind bucket it falls into. Codes drive the troubleshooting hint
// attached to every surfaced error.
type Code int

const (
	CodeNone Code = iota
	CodeConfigurationInvalid
	CodeProfileNotFound
	CodeProfileSwitchFailed
	CodeSystemStartupFailed
	CodeTunnelConfigurationInvalid
	CodeTunnelStartFailed
	CodeNetworkSettingsRestoreFailed
	CodePacketProcessingFailed
	CodeDNSProxyBindFailed
	CodeBackupNotFound
	CodeBackupValidationFailed
	CodeRestoreFailed
	CodeSipEnabled
	CodeTargetNotFound
	CodeHookLibraryNotFound
	CodeHookInstallFailed
	CodeInvalidIdentityType
	CodeInvalidIdentityValue
)

func (c Code) String() string {
	switch c {
	case CodeConfigurationInvalid:
		return "configuration_invalid"
	case CodeProfileNotFound:
		return "profile_not_found"
	case CodeProfileSwitchFailed:
		return "profile_switch_failed"
	case CodeSystemStartupFailed:
		return "system_startup_failed"
	case CodeTunnelConfigurationInvalid:
		return "tunnel_configuration_invalid"
	case CodeTunnelStartFailed:
		return "tunnel_start_failed"
	case CodeNetworkSettingsRestoreFailed:
		return "network_settings_restore_failed"
	case CodePacketProcessingFailed:
		return "packet_processing_failed"
	case CodeDNSProxyBindFailed:
		return "dns_proxy_bind_failed"
	case CodeBackupNotFound:
		return "backup_not_found"
	case CodeBackupValidationFailed:
		return "backup_validation_failed"
	case CodeRestoreFailed:
		return "restore_failed"
	case CodeSipEnabled:
		return "sip_enabled"
	case CodeTargetNotFound:
		return "target_not_found"
	case CodeHookLibraryNotFound:
		return "hook_library_not_found"
	case CodeHookInstallFailed:
		return "hook_install_failed"
	case CodeInvalidIdentityType:
		return "invalid_identity_type"
	case CodeInvalidIdentityValue:
		return "invalid_identity_value"
	default:
		return "none"
	}
}

// Troubleshooting returns an operator-readable paragraph of concrete next
// steps for the code. Codes with no specific guidance fall back to one
// fixed generic hint.
func (c Code) Troubleshooting() string {
	switch c {
	case CodeConfigurationInvalid:
		return "Check the offending option's key path and value against the recognized option set, then reload the configuration."
	case CodeProfileNotFound:
		return "List available profiles and confirm the requested name is spelled correctly; the default profile always exists."
	case CodeProfileSwitchFailed:
		return "Reset to the default profile and retry; inspect the previous profile's module toggles for an invalid combination."
	case CodeSystemStartupFailed:
		return "Verify host OS version support, confirm the process has the permissions required to install hooks or bind the tunnel, and re-run startup validation."
	case CodeTunnelConfigurationInvalid:
		return "Review the tunnel configuration (MTU, addresses, DNS servers) against the documented ranges before retrying start."
	case CodeTunnelStartFailed:
		return "Confirm no other process holds the tunnel device, check the retry policy's exhausted attempt count, and inspect host network settings for partial changes."
	case CodeNetworkSettingsRestoreFailed:
		return "Manually compare current host network settings against the pre-start snapshot and restore any field the automatic rollback could not."
	case CodePacketProcessingFailed:
		return "This is a locally recoverable fast-path failure; the packet was dropped and a counter incremented. Persistent recurrence suggests a malformed upstream packet source."
	case CodeDNSProxyBindFailed:
		return "Check for a process already bound to the DNS proxy port and confirm the daemon has permission to bind it."
	case CodeBackupNotFound:
		return "Confirm the backup id with list_backups; it may already have been deleted or never existed."
	case CodeBackupValidationFailed:
		return "Run integrity validation across the backup store; a checksum mismatch means the on-disk record was corrupted and should be treated as untrustworthy."
	case CodeRestoreFailed:
		return "The original value could not be reinstated on the live system, typically a permission error; the backup record was left intact for a retry."
	case CodeSipEnabled:
		return "Kernel integrity protection prevents injection on this host; disable it for testing or accept that this process cannot be hooked."
	case CodeTargetNotFound:
		return "Confirm the target application path exists and is executable before retrying the launch."
	case CodeHookLibraryNotFound:
		return "Verify the interposer library is installed alongside the daemon binary and reachable by the dynamic loader."
	case CodeHookInstallFailed:
		return "Partial hook installation was rolled back for this process; inspect the per-hook error for the specific interposer that failed."
	case CodeInvalidIdentityType:
		return "Use one of the compile-time identity types: hostname, macAddress, serialNumber, diskUUID, networkInterface."
	case CodeInvalidIdentityValue:
		return "Check the value against the required format for its identity type (hostname length/characters, MAC octets, UUID form, etc.)."
	default:
		return "No specific troubleshooting guidance is available for this error; consult the machine-readable kind for the general category."
	}
}

// Error represents a structured error in the privarion core.
type Error struct {
	Kind       Kind
	Code       Code
	Message    string
	Underlying error
	Attributes map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates a new Error of the specified kind.
func New(kind Kind, msg string) error {
	return &Error{
		Kind:    kind,
		Message: msg,
	}
}

// Errorf creates a new Error of the specified kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error as a new Error of the specified kind.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:       kind,
		Message:    msg,
		Underlying: err,
	}
}

// Wrapf wraps an existing error as a new Error of the specified kind with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		Underlying: err,
	}
}

// Coded creates a new Error carrying a specific troubleshooting Code.
func Coded(kind Kind, code Code, msg string) error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Codedf creates a new Error carrying a specific troubleshooting Code with a formatted message.
func Codedf(kind Kind, code Code, format string, args ...any) error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapCoded wraps an existing error, attaching a Kind and a troubleshooting Code.
func WrapCoded(err error, kind Kind, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Message: msg, Underlying: err}
}

// GetCode returns the Code of the error, or CodeNone if it's not a coded core error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeNone
}

// Troubleshooting returns the operator-readable next-steps paragraph for err's Code.
func Troubleshooting(err error) string {
	return GetCode(err).Troubleshooting()
}

// Attr attaches an attribute to an error. If the error is not an *Error, it wraps it as KindInternal.
func Attr(err error, key string, val any) error {
	if err == nil {
		return nil
	}

	var e *Error
	if !errors.As(err, &e) {
		e = &Error{
			Kind:       KindInternal,
			Message:    err.Error(),
			Underlying: err,
		}
	}

	if e.Attributes == nil {
		e.Attributes = make(map[string]any)
	}
	e.Attributes[key] = val
	return e
}

// GetKind returns the Kind of the error, or KindUnknown if it's not a flywall error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// GetAttributes returns all attributes associated with the error and its chain.
func GetAttributes(err error) map[string]any {
	attrs := make(map[string]any)
	var e *Error

	// We use errors.As in a loop to collect all attributes in the chain
	// although typically we only have one flywall error in the chain.
	tempErr := err
	for tempErr != nil {
		if errors.As(tempErr, &e) {
			for k, v := range e.Attributes {
				if _, ok := attrs[k]; !ok {
					attrs[k] = v
				}
			}
			tempErr = e.Underlying
		} else {
			break
		}
	}

	return attrs
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if err's type contains an Unwrap method returning error.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
