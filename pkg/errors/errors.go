// Unified error handling for the resonance tuning host
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import "fmt"

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// G-code parsing errors
	ErrGCodeParse        ErrorCode = "GCODE_PARSE"
	ErrGCodeUnknownCmd   ErrorCode = "GCODE_UNKNOWN_CMD"
	ErrGCodeInvalidParam ErrorCode = "GCODE_INVALID_PARAM"

	// Kinematics errors
	ErrKinematics ErrorCode = "KINEMATICS"

	// Runtime errors
	ErrRuntime       ErrorCode = "RUNTIME"
	ErrRuntimeSensor ErrorCode = "RUNTIME_SENSOR"
)

// HostError is the unified error type for the tuning host
type HostError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Command is the G-code command being handled (if applicable)
	Command string

	// Param is the offending parameter letter (if applicable)
	Param string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *HostError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Command, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetCommand sets the G-code command context
func (e *HostError) SetCommand(command string) *HostError {
	e.Command = command
	return e
}

// SetParam sets the offending parameter
func (e *HostError) SetParam(param string) *HostError {
	e.Param = param
	return e
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{Code: code, Message: message}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{Code: code, Message: message, Err: err}
}

// GCodeParseError creates an error for G-code parsing failure
func GCodeParseError(line string, reason string) *HostError {
	return New(ErrGCodeParse, fmt.Sprintf("failed to parse G-code: %s (reason: %s)", line, reason))
}

// GCodeUnknownCommandError creates an error for unknown G-code command
func GCodeUnknownCommandError(command string) *HostError {
	return New(ErrGCodeUnknownCmd, "unknown command").SetCommand(command)
}

// GCodeInvalidParameterError creates an error for invalid G-code parameter
func GCodeInvalidParameterError(command, param, value string, reason string) *HostError {
	return New(ErrGCodeInvalidParam, fmt.Sprintf("invalid parameter %s=%s (%s)", param, value, reason)).
		SetCommand(command).
		SetParam(param)
}

// KinematicsError creates a kinematics configuration error
func KinematicsError(message string) *HostError {
	return New(ErrKinematics, message)
}

// RuntimeError creates a general runtime error
func RuntimeError(message string) *HostError {
	return New(ErrRuntime, message)
}

// SensorError creates an accelerometer error
func SensorError(message string) *HostError {
	return New(ErrRuntimeSensor, message)
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if hostErr, ok := err.(*HostError); ok {
		return hostErr.Code == code
	}
	return false
}

// IsGCode checks if error is a G-code error
func IsGCode(err error) bool {
	return Is(err, ErrGCodeParse) ||
		Is(err, ErrGCodeUnknownCmd) ||
		Is(err, ErrGCodeInvalidParam)
}
