// Copyright 2025 Flowgate Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errs defines the typed error conditions surfaced by mutating
// operations. Read paths never return these for absent records; they fail
// closed with empty results instead.
package errs

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPermissionDenied a capability check failed for the acting user.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotLockHolder release attempted by a non-holder without admin override.
	ErrNotLockHolder = errors.New("not the lock holder")
	// ErrNotLocked release attempted on an unlocked flow.
	ErrNotLocked = errors.New("flow is not locked")
	// ErrLockedByOther content mutation blocked by a foreign lock.
	ErrLockedByOther = errors.New("flow is locked by another user")
	// ErrAlreadyResolved a terminal project request was resolved again.
	ErrAlreadyResolved = errors.New("project request is already resolved")
	// ErrSelfModificationDenied the protected creator row was targeted.
	ErrSelfModificationDenied = errors.New("cannot modify the protected member row")
	// ErrConflictingUpdate the optimistic revision check lost a race.
	ErrConflictingUpdate = errors.New("flow was updated concurrently")
	// ErrNotFound the resource or user does not exist.
	ErrNotFound = errors.New("not found")
)

// AlreadyLockedError reports a failed acquire with the holder identity and
// lock timestamp so the caller can render "locked by X since T".
type AlreadyLockedError struct {
	FlowId string
	Holder string
	Since  time.Time
}

func (e *AlreadyLockedError) Error() string {
	return fmt.Sprintf("flow %s is already locked by %s since %s", e.FlowId, e.Holder, e.Since.Format(time.RFC3339))
}

// IsAlreadyLocked reports whether err is an AlreadyLockedError and returns it.
func IsAlreadyLocked(err error) (*AlreadyLockedError, bool) {
	var lockErr *AlreadyLockedError
	if errors.As(err, &lockErr) {
		return lockErr, true
	}
	return nil, false
}
