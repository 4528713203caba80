// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Flag_OverridePrecedence(t *testing.T) {
	regions := newFakeRegions("world")
	regions.add(&Region{ID: 12, World: "world"})
	regions.add(&Region{ID: 13, ParentID: 12, World: "world"})
	def := switchFlag("NoPvP")
	manager := newTestManager(t, regions, def)
	ctx := context.Background()

	manager.SetFlag(ctx, DefaultScope, def, true, "default")
	got, ok := manager.Flag("13", "NoPvP")
	require.True(t, ok)
	assert.Equal(t, DefaultScope, got.Scope)

	manager.SetFlag(ctx, "12", def, true, "parent")
	got, ok = manager.Flag("13", "NoPvP")
	require.True(t, ok)
	assert.Equal(t, "parent", got.Params)

	manager.SetFlag(ctx, "13", def, true, "child")
	got, ok = manager.Flag("13", "NoPvP")
	require.True(t, ok)
	assert.Equal(t, "child", got.Params)
}

func TestManager_Flag_ClimbsOneParentLevel(t *testing.T) {
	regions := newFakeRegions("world")
	regions.add(&Region{ID: 1, World: "world"})
	regions.add(&Region{ID: 2, ParentID: 1, World: "world"})
	regions.add(&Region{ID: 3, ParentID: 2, World: "world"})
	def := switchFlag("NoPvP")
	manager := newTestManager(t, regions, def)

	manager.SetFlag(context.Background(), "1", def, true)

	_, ok := manager.Flag("2", "NoPvP")
	assert.True(t, ok)
	_, ok = manager.Flag("3", "NoPvP")
	assert.False(t, ok)
}

func TestManager_Flag_ReturnsTombstones(t *testing.T) {
	regions := newFakeRegions("world")
	regions.add(&Region{ID: 12, World: "world"})
	def := switchFlag("NoPvP")
	manager := newTestManager(t, regions, def)
	ctx := context.Background()

	manager.SetFlag(ctx, DefaultScope, def, true)
	manager.SetFlag(ctx, "12", def, false)

	got, ok := manager.Flag("12", "NoPvP")
	require.True(t, ok)
	assert.False(t, got.Active)
}

func TestManager_Flag_DefaultScopeOnlyForClaims(t *testing.T) {
	def := switchFlag("NoPvP")
	manager := newTestManager(t, newFakeRegions("world"), def)
	manager.SetFlag(context.Background(), DefaultScope, def, true)

	tests := []struct {
		scope string
		want  bool
	}{
		{"42", true},
		{DefaultScope, true},
		{"world", false},
		{"world_unknown", false},
		{"everywhere", false},
		{"EVERYWHERE", false},
	}
	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			_, ok := manager.Flag(tt.scope, "nopvp")
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestManager_Flag_Missing(t *testing.T) {
	manager := newTestManager(t, nil, switchFlag("NoPvP"))

	got, ok := manager.Flag("12", "NoPvP")
	assert.False(t, ok)
	assert.Equal(t, Flag{}, got)
}

func TestManager_FlagAt(t *testing.T) {
	inside := Location{World: "world", X: 10, Z: 10}
	insideChild := Location{World: "world", X: 12, Z: 12}
	outside := Location{World: "world", X: 500, Z: 500}
	nether := Location{World: "world_nether", X: 10, Z: 10}

	setup := func(t *testing.T) (*Manager, *Definition) {
		regions := newFakeRegions("world")
		regions.add(&Region{ID: 1, World: "world"}, inside)
		regions.add(&Region{ID: 2, ParentID: 1, World: "world"}, insideChild)
		def := switchFlag("NoPvP")
		return newTestManager(t, regions, def), def
	}
	ctx := context.Background()

	t.Run("claim flag applies inside", func(t *testing.T) {
		manager, def := setup(t)
		manager.SetFlag(ctx, "1", def, true, "claim")

		got, ok := manager.FlagAt(inside, "NoPvP")
		require.True(t, ok)
		assert.Equal(t, "claim", got.Params)
		got, ok = manager.FlagAt(insideChild, "NoPvP")
		require.True(t, ok)
		assert.Equal(t, "claim", got.Params)
		_, ok = manager.FlagAt(outside, "NoPvP")
		assert.False(t, ok)
	})

	t.Run("world flag applies outside claims", func(t *testing.T) {
		manager, def := setup(t)
		manager.SetFlag(ctx, "world", def, true, "world")

		got, ok := manager.FlagAt(outside, "NoPvP")
		require.True(t, ok)
		assert.Equal(t, "world", got.Params)
		got, ok = manager.FlagAt(inside, "NoPvP")
		require.True(t, ok)
		assert.Equal(t, "world", got.Params)
	})

	t.Run("everywhere applies in untracked worlds", func(t *testing.T) {
		manager, def := setup(t)
		manager.SetFlag(ctx, EverywhereScope, def, true, "server")

		got, ok := manager.FlagAt(nether, "NoPvP")
		require.True(t, ok)
		assert.Equal(t, "server", got.Params)
	})

	t.Run("inactive claim flag stops the search", func(t *testing.T) {
		manager, def := setup(t)
		manager.SetFlag(ctx, EverywhereScope, def, true)
		manager.SetFlag(ctx, "2", def, false)

		got, ok := manager.FlagAt(insideChild, "NoPvP")
		assert.False(t, ok)
		assert.Equal(t, Flag{}, got)

		_, ok = manager.FlagAt(inside, "NoPvP")
		assert.True(t, ok)
	})

	t.Run("inactive world flag blocks everywhere", func(t *testing.T) {
		manager, def := setup(t)
		manager.SetFlag(ctx, EverywhereScope, def, true)
		manager.SetFlag(ctx, "world", def, false)

		_, ok := manager.FlagAt(outside, "NoPvP")
		assert.False(t, ok)
	})

	t.Run("default scope applies inside claims", func(t *testing.T) {
		manager, def := setup(t)
		manager.SetFlag(ctx, DefaultScope, def, true, "default")

		got, ok := manager.FlagAt(inside, "NoPvP")
		require.True(t, ok)
		assert.Equal(t, "default", got.Params)
		_, ok = manager.FlagAt(outside, "NoPvP")
		assert.False(t, ok)
	})
}
