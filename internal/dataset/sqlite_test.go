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

package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteScalarRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.GetString(ctx, "dim.t")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetString(ctx, "dim.t", "30"))
	v, err := s.GetString(ctx, "dim.t")
	require.NoError(t, err)
	require.Equal(t, "30", v)

	require.NoError(t, s.SetString(ctx, "dim.t", "31"))
	v, err = s.GetString(ctx, "dim.t")
	require.NoError(t, err)
	require.Equal(t, "31", v)
}

func TestSQLiteChunkRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateChunk(ctx, "images", 8, 2))

	isChunk, err := s.IsChunk(ctx, "images")
	require.NoError(t, err)
	require.True(t, isChunk)

	isChunk, err = s.IsChunk(ctx, "missing-key")
	require.NoError(t, err)
	require.False(t, isChunk)

	written := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	require.NoError(t, s.WriteChunk(ctx, "images", 0, 4, written))

	got := make([]byte, 8)
	n, err := s.ReadChunk(ctx, "images", 0, 4, got)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.Equal(t, written, got[:8])
}

func TestSQLiteReadChunkClipsToAvailable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateChunk(ctx, "small", 4, 4))
	require.NoError(t, s.WriteChunk(ctx, "small", 0, 4, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}))

	buf := make([]byte, 40)
	n, err := s.ReadChunk(ctx, "small", 2, 10, buf)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	n, err = s.ReadChunk(ctx, "small", 10, 5, buf)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestSQLiteReadChunkMissingKey(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	buf := make([]byte, 4)
	_, err := s.ReadChunk(ctx, "nope", 0, 1, buf)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteCreateChunkOverwritesScalar(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SetString(ctx, "k", "scalar"))
	isChunk, err := s.IsChunk(ctx, "k")
	require.NoError(t, err)
	require.False(t, isChunk)

	require.NoError(t, s.CreateChunk(ctx, "k", 1, 4))
	isChunk, err = s.IsChunk(ctx, "k")
	require.NoError(t, err)
	require.True(t, isChunk)

	_, err = s.GetString(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteIterateKeys(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SetString(ctx, "b-scalar", "1"))
	require.NoError(t, s.CreateChunk(ctx, "a-chunk", 1, 4))

	keys, err := s.IterateKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a-chunk", "b-scalar"}, keys)
}
