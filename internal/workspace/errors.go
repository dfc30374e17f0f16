// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the conditions that abort a command. Callers
// wrap them with repository, path or schedule context so every
// failure surfaces as a single diagnosable line.
var (
	ErrDuplicateRepository        = errors.New("repository already registered")
	ErrDependencyNotCheckedOut    = errors.New("dependency not checked out")
	ErrCorruptRepositoryDirectory = errors.New("directory exists but is not a git repository")
	ErrRevisionNotUpstream        = errors.New("revision not found on remote tracking branch")
	ErrUnknownPin                 = errors.New("not present in the pin file")
	ErrNoRollingSchedules         = errors.New("no rolling schedules")
	ErrUnknownSchedule            = errors.New("unknown rolling schedule")
	ErrViaRepoNotPinned           = errors.New("via repository is not pinned")
	ErrMissingTransitivePin       = errors.New("missing transitive pin")
	ErrVersionQueryUnrecognized   = errors.New("no 'Available versions:' line in package index output")
	ErrRequirementFileMissing     = errors.New("requirement file does not exist")
	ErrNoWorkspace                = errors.New("no workspace found")
)

// UnknownRepositoryError is returned when a name does not match any
// registered repository. The message enumerates every registered name
// in registration order.
type UnknownRepositoryError struct {
	Name  string
	Known []string
}

func (e *UnknownRepositoryError) Error() string {
	return fmt.Sprintf("No repository matching '%s' found (did you mean one of: %s)",
		e.Name, strings.Join(e.Known, ", "))
}
