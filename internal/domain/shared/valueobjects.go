// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"net/mail"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// DeviceID identifies one visitor device. It scopes the visitor's stored
// progress the way a browser profile scopes local storage.
type DeviceID string

// Device ids are opaque tokens chosen by the client: letters, digits, dash,
// underscore, dot; 8 to 64 characters.
var deviceIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{8,64}$`)

// IsValid checks if the device ID has an acceptable shape.
func (d DeviceID) IsValid() bool {
	return deviceIDRegex.MatchString(string(d))
}

// String returns the string representation.
func (d DeviceID) String() string {
	return string(d)
}

// NewDeviceID creates a new DeviceID with validation.
func NewDeviceID(id string) (DeviceID, error) {
	d := DeviceID(strings.TrimSpace(id))
	if !d.IsValid() {
		return "", ErrInvalidDeviceID
	}
	return d, nil
}

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s looks like a canonical UUID.
func IsUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// ═══════════════════════════════════════════════════════════════════════════
// Contact Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Email is a validated, lowercased e-mail address.
type Email string

// NewEmail parses and normalizes an address.
func NewEmail(value string) (Email, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", NewDomainError("shared", "NewEmail", ErrEmptyValue, "email is required")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return "", NewDomainError("shared", "NewEmail", ErrInvalidFormat, "invalid email address")
	}
	return Email(strings.ToLower(addr.Address)), nil
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// ═══════════════════════════════════════════════════════════════════════════
// Proficiency Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Proficiency is a skill level in percent.
type Proficiency int

const (
	MinProficiency Proficiency = 0
	MaxProficiency Proficiency = 100
)

// IsValid checks that the value is within 0..100.
func (p Proficiency) IsValid() bool {
	return p >= MinProficiency && p <= MaxProficiency
}

// Int returns the percentage.
func (p Proficiency) Int() int {
	return int(p)
}

// NewProficiency creates a Proficiency with validation.
func NewProficiency(value int) (Proficiency, error) {
	p := Proficiency(value)
	if !p.IsValid() {
		return 0, ErrInvalidProficiency
	}
	return p, nil
}
