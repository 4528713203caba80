// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package flags_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/claimflags/internal/behavior"
	"github.com/holomush/claimflags/internal/defpack"
	"github.com/holomush/claimflags/internal/flag"
	"github.com/holomush/claimflags/internal/movement"
	"github.com/holomush/claimflags/internal/persist"
	"github.com/holomush/claimflags/internal/worldmap"
)

func TestFlags(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Claim Flags Integration Suite")
}

const (
	alexID  = "01J8Z3Q4YV5N4WQ6ZK5T3C1M2B"
	steveID = "01J8Z3Q4YV5N4WQ6ZK5T3C1M2C"
)

const worldFile = `
worlds:
  - name: world
    tracking: true
  - name: world_nether
regions:
  - id: 12
    world: world
    owner: ` + alexID + `
    owner-name: Alex
    min: {x: 0, z: 0}
    max: {x: 99, z: 99}
  - id: 13
    parent: 12
    world: world
    owner: ` + alexID + `
    min: {x: 10, z: 10}
    max: {x: 20, z: 20}
  - id: 14
    world: world
    owner: ` + steveID + `
    builders: [Alex]
    min: {x: 200, z: 0}
    max: {x: 299, z: 99}
players:
  - name: Alex
    id: ` + alexID + `
  - name: Steve
    id: ` + steveID + `
`

// recordingHost captures every action behaviors take.
type recordingHost struct {
	mu       sync.Mutex
	world    *worldmap.Map
	messages []string
	commands []string
	ejected  []string
}

func (h *recordingHost) SendMessage(_ context.Context, player flag.Player, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, player.Name+": "+message)
	return nil
}

func (h *recordingHost) DispatchCommand(_ context.Context, command string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, command)
	return nil
}

func (h *recordingHost) HasPermission(flag.Player, string) bool { return false }

func (h *recordingHost) CanBuild(player flag.Player, region *flag.Region) bool {
	return h.world.CanBuild(player, region)
}

func (h *recordingHost) Eject(_ context.Context, player flag.Player, _ *flag.Location) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ejected = append(h.ejected, player.Name)
	return nil
}

func (h *recordingHost) snapshot() (messages, commands, ejected []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...), append([]string(nil), h.commands...), append([]string(nil), h.ejected...)
}

// engine is a fully wired flag engine over files in a temporary directory.
type engine struct {
	dir        string
	world      *worldmap.Map
	registry   *flag.Registry
	manager    *flag.Manager
	datastore  *persist.Datastore
	host       *recordingHost
	dispatcher *movement.Dispatcher
}

func newEngine(dir string) *engine {
	world, err := worldmap.Load(filepath.Join(dir, "world.yml"))
	Expect(err).NotTo(HaveOccurred())

	registry := flag.NewRegistry()
	manager := flag.NewManager(registry, flag.NewStore(), world)
	host := &recordingHost{world: world}
	Expect(behavior.Register(registry, behavior.Deps{Resolver: manager, Host: host, Players: world})).To(Succeed())

	packs, errs := defpack.NewLoader(defpack.NewScriptRunner(0), nil).LoadDir(filepath.Join(dir, "packs"))
	Expect(errs).To(BeEmpty())
	Expect(defpack.Register(registry, packs)).To(Succeed())

	return &engine{
		dir:        dir,
		world:      world,
		registry:   registry,
		manager:    manager,
		datastore:  persist.NewDatastore(manager, filepath.Join(dir, "data", "flags.yml")),
		host:       host,
		dispatcher: movement.NewDispatcher(registry, world),
	}
}

func (e *engine) def(name string) *flag.Definition {
	def, ok := e.registry.Lookup(name)
	Expect(ok).To(BeTrue(), "definition %s not registered", name)
	return def
}

func (e *engine) set(scope, name string, args ...string) {
	result := e.manager.SetFlag(context.Background(), scope, e.def(name), true, args...)
	Expect(result.Success).To(BeTrue(), result.Message)
}

func newWorkspace() string {
	dir := GinkgoT().TempDir()
	Expect(os.WriteFile(filepath.Join(dir, "world.yml"), []byte(worldFile), 0o600)).To(Succeed())
	return dir
}

func writeFile(path, content string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0o750)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
}
