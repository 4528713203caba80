// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetIgnoresCase(t *testing.T) {
	store := NewStore()

	prev, existed := store.Put("12", Flag{Name: "NoEnterPlayer", Params: "Steve", Active: true})
	assert.False(t, existed)
	assert.Equal(t, Flag{}, prev)

	got, ok := store.Get("12", "noenterplayer")
	require.True(t, ok)
	assert.Equal(t, Flag{Name: "NoEnterPlayer", Params: "Steve", Active: true, Scope: "12"}, got)

	prev, existed = store.Put("12", Flag{Name: "NOENTERPLAYER", Params: "Alex", Active: true})
	assert.True(t, existed)
	assert.Equal(t, "Steve", prev.Params)
	assert.Len(t, store.Flags("12"), 1)
}

func TestStore_Remove(t *testing.T) {
	store := NewStore()
	store.Put("12", Flag{Name: "NoPvP", Active: true})
	store.Put("12", Flag{Name: "KeepInventory", Active: true})

	removed, ok := store.Remove("12", "NOPVP")
	require.True(t, ok)
	assert.Equal(t, "NoPvP", removed.Name)

	_, ok = store.Remove("12", "nopvp")
	assert.False(t, ok)
	_, ok = store.Remove("99", "nopvp")
	assert.False(t, ok)

	store.Remove("12", "keepinventory")
	assert.Empty(t, store.Scopes())
}

func TestStore_FlagsScopesKeysSorted(t *testing.T) {
	store := NewStore()
	store.Put("world", Flag{Name: "NoPvP", Active: true})
	store.Put("12", Flag{Name: "NoPvP", Active: true})
	store.Put("12", Flag{Name: "KeepInventory", Active: false})

	assert.Equal(t, []string{"12", "world"}, store.Scopes())
	assert.Equal(t, []string{"keepinventory", "nopvp"}, store.Keys())

	flags := store.Flags("12")
	require.Len(t, flags, 2)
	assert.Equal(t, "KeepInventory", flags[0].Name)
	assert.Equal(t, "NoPvP", flags[1].Name)

	assert.Empty(t, store.Flags("missing"))
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	store := NewStore()
	store.Put("12", Flag{Name: "NoPvP", Active: true})

	snap := store.Snapshot()
	store.Put("12", Flag{Name: "NoPvP", Active: false})
	store.Put("13", Flag{Name: "NoPvP", Active: true})

	require.Len(t, snap, 1)
	assert.True(t, snap["12"][0].Active)
}

func TestStore_RemoveScopes(t *testing.T) {
	store := NewStore()
	store.Put("3", Flag{Name: "NoPvP", Active: true})
	store.Put("5", Flag{Name: "NoPvP", Active: true})

	removed := store.RemoveScopes(func(scope string) bool { return scope == "3" })
	require.Len(t, removed, 1)
	assert.Equal(t, "3", removed[0].Scope)
	assert.Equal(t, []string{"5"}, store.Scopes())

	assert.Len(t, store.Clear(), 1)
	assert.Empty(t, store.Scopes())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		scope := strconv.Itoa(i % 5)
		name := fmt.Sprintf("Flag%d", i%7)
		wg.Add(3)
		go func() {
			defer wg.Done()
			store.Put(scope, Flag{Name: name, Params: "p", Active: true})
		}()
		go func() {
			defer wg.Done()
			if f, ok := store.Get(scope, name); ok {
				assert.Equal(t, "p", f.Params)
				assert.Equal(t, scope, f.Scope)
			}
		}()
		go func() {
			defer wg.Done()
			_ = store.Snapshot()
			store.Remove(scope, name)
		}()
	}
	wg.Wait()
}
