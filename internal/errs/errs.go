package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotificationDisabled = errors.New("notification disabled")
	ErrProvider             = errors.New("provider rejected request")
	ErrUpload               = errors.New("media upload failed")
)

// ConfigError reports a template, card, button or parameter that breaks a
// structural rule. It is raised before any network call is attempted.
type ConfigError struct {
	Entity string // "template", "card", "button", "parameter", "header"...
	Index  int    // card index or button index; -1 when not applicable
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	var subject string
	if e.Index >= 0 {
		subject = fmt.Sprintf("%s %d", e.Entity, e.Index)
	} else {
		subject = e.Entity
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", subject, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", subject, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Config builds a ConfigError for an entity that has no index.
func Config(entity, field, format string, args ...any) *ConfigError {
	return &ConfigError{Entity: entity, Index: -1, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConfigAt builds a ConfigError for an indexed entity such as a card or button.
func ConfigAt(entity string, index int, field, format string, args ...any) *ConfigError {
	return &ConfigError{Entity: entity, Index: index, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
