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

// Package id provides the identifier generators used across flowgate:
// UUIDs for primary resources, ULIDs for sortable grant rows, and short
// ids for human-facing ticket codes.
package id

import (
	"crypto/rand"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// UUID generates a new random UUID string.
func UUID() string {
	return uuid.NewString()
}

// ULID generates a lexicographically sortable ULID string.
func ULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// ShortID generates a short, URL-safe id. Returns "" on generator failure.
func ShortID() string {
	out, err := shortid.Generate()
	if err != nil {
		return ""
	}
	return out
}
