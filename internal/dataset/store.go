// Copyright 2026 The mripipes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dataset implements the key/value + binary-chunk store that
// backs the file-input and file-output tools. A dataset is a flat
// namespace of string keys; a key either holds a scalar string value or
// is marked as the owner of one binary chunk of typed elements.
package dataset

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetString and ReadChunk when the key does
// not exist.
var ErrNotFound = errors.New("dataset: key not found")

// Store is the backend-independent interface consumed by the file-input
// and file-output tools. Implementations: SQLiteStore (default, local)
// and S3Store (object-storage backed).
type Store interface {
	// IterateKeys lists every key currently defined, in a stable order.
	IterateKeys(ctx context.Context) ([]string, error)

	// IsChunk reports whether key owns a binary chunk (as opposed to a
	// plain scalar string value).
	IsChunk(ctx context.Context, key string) (bool, error)

	// GetString returns the scalar string value at key.
	GetString(ctx context.Context, key string) (string, error)

	// SetString sets key to a scalar string value, replacing any chunk
	// previously owned by key.
	SetString(ctx context.Context, key string, value string) error

	// CreateChunk declares key as the owner of a new binary chunk of n
	// elements of the given byte width, replacing any prior value.
	CreateChunk(ctx context.Context, key string, n int64, elemSize int) error

	// ReadChunk reads n elements starting at element offset into p,
	// where len(p) must equal n*elemSize for key's element size. Returns
	// the number of elements actually read, which is less than n only at
	// end of chunk (a non-fatal short read, never an error).
	ReadChunk(ctx context.Context, key string, offset, n int64, p []byte) (int64, error)

	// WriteChunk writes n elements starting at element offset from p.
	WriteChunk(ctx context.Context, key string, offset, n int64, p []byte) error

	// Close flushes and releases the underlying resource.
	Close() error
}
