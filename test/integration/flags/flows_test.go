// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package flags_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/claimflags/internal/behavior"
	"github.com/holomush/claimflags/internal/flag"
	"github.com/holomush/claimflags/internal/movement"
	"github.com/holomush/claimflags/internal/persist"
)

const validatorPack = `
name: server-rules
version: 1.0.0
flags:
  - name: ClaimLimit
    scopes: [claim, default]
    set-message: "Claim limit is now {{ .Params }}."
    validator:
      kind: expr
      expr: len(args) == 1 && int(args[0]) > 0
      message: Give one positive limit.
  - name: Motd
    scopes: [world, server]
    validator:
      kind: lua
      message: Keep it short.
      lua: |
        function validate(params)
          return string.len(params) > 0 and string.len(params) <= 20
        end
`

var _ = Describe("Claim flag engine", func() {
	var (
		ctx context.Context
		dir string
		e   *engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = newWorkspace()
	})

	Describe("persistence", func() {
		BeforeEach(func() {
			e = newEngine(dir)
		})

		It("restores flags and instance counts after a restart", func() {
			e.set("12", behavior.NoEnterPlayerName, "Steve")
			e.set("14", behavior.NoEnterPlayerName, "Alex")
			e.set(flag.DefaultScope, behavior.ExitCommandOwnerName, "spawn %name%")
			Expect(e.manager.SetFlag(ctx, "13", e.def(behavior.NoEnterPlayerName), false).Success).To(BeTrue())
			Expect(e.datastore.Save(ctx)).To(Succeed())

			restarted := newEngine(dir)
			errs, err := restarted.datastore.Load(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(errs).To(BeEmpty())

			f, ok := restarted.manager.Flag("12", behavior.NoEnterPlayerName)
			Expect(ok).To(BeTrue())
			Expect(f.Params).To(Equal(steveID))

			f, ok = restarted.manager.Flag("13", behavior.NoEnterPlayerName)
			Expect(ok).To(BeTrue())
			Expect(f.Active).To(BeFalse(), "tombstones survive a round trip")

			Expect(restarted.def(behavior.NoEnterPlayerName).Instances()).To(Equal(e.def(behavior.NoEnterPlayerName).Instances()))
			Expect(restarted.def(behavior.NoEnterPlayerName).Instances()).To(BeEquivalentTo(2))
			Expect(restarted.def(behavior.ExitCommandOwnerName).Instances()).To(BeEquivalentTo(1))
		})

		It("rewrites a legacy flags file in the current layout", func() {
			path := filepath.Join(dir, "data", "flags.yml")
			writeFile(path, "\"12\":\n  NoEnterPlayer: \"§cSteve   Alex\"\n")

			errs, err := e.datastore.Load(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(errs).To(BeEmpty())

			f, ok := e.manager.Flag("12", behavior.NoEnterPlayerName)
			Expect(ok).To(BeTrue())
			Expect(f.Params).To(Equal("&cSteve Alex"))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("params:"))
			Expect(string(data)).NotTo(ContainSubstring("§"))
		})

		It("prunes scopes for claims that no longer exist", func() {
			writeFile(filepath.Join(dir, "data", "flags.yml"), `
"12":
    NoEnterPlayer: {params: Steve, value: true}
"404":
    NoEnterPlayer: {params: Steve, value: true}
"-2":
    ExitCommand-Owner: {params: spawn, value: true}
`)
			_, err := e.datastore.Load(ctx)
			Expect(err).NotTo(HaveOccurred())

			pruned, err := e.datastore.Prune(ctx, e.world.ClaimIDs())
			Expect(err).NotTo(HaveOccurred())
			Expect(pruned).To(Equal([]string{"404"}))
			Expect(e.def(behavior.NoEnterPlayerName).Instances()).To(BeEquivalentTo(1))

			restarted := newEngine(dir)
			_, err = restarted.datastore.Load(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(restarted.manager.Store().Scopes()).To(ConsistOf("-2", "12"))
		})
	})

	Describe("movement", func() {
		BeforeEach(func() {
			e = newEngine(dir)
		})

		It("ejects banned players from a claim and its subclaims", func() {
			e.set("12", behavior.NoEnterPlayerName, "Steve")
			steve := e.world.Player("Steve")
			outside := flag.Location{World: "world", X: 150, Z: 5}

			e.dispatcher.PlayerMoved(ctx, steve, outside, flag.Location{World: "world", X: 50, Z: 50})
			e.dispatcher.PlayerMoved(ctx, steve, outside, flag.Location{World: "world", X: 15, Z: 15})
			e.dispatcher.PlayerMoved(ctx, e.world.Player("Alex"), outside, flag.Location{World: "world", X: 50, Z: 50})

			messages, _, ejected := e.host.snapshot()
			Expect(ejected).To(Equal([]string{"Steve", "Steve"}))
			Expect(messages).To(HaveEach("Steve: You have been banned from entering this claim."))
		})

		It("lets banned builders in", func() {
			e.set("14", behavior.NoEnterPlayerName, "Alex")
			e.dispatcher.PlayerJoined(ctx, e.world.Player("Alex"), flag.Location{World: "world", X: 250, Z: 5})

			_, _, ejected := e.host.snapshot()
			Expect(ejected).To(BeEmpty())
		})

		It("runs owner exit commands from the default scope", func() {
			e.set(flag.DefaultScope, behavior.ExitCommandOwnerName, "say bye %name%; tp %uuid% spawn")
			alex := e.world.Player("Alex")
			inside := flag.Location{World: "world", X: 50, Z: 50}

			By("moving into a subclaim sharing the same record")
			e.dispatcher.PlayerMoved(ctx, alex, inside, flag.Location{World: "world", X: 15, Z: 15})
			_, commands, _ := e.host.snapshot()
			Expect(commands).To(BeEmpty())

			By("leaving the claim for the wilderness")
			e.dispatcher.PlayerMoved(ctx, alex, inside, flag.Location{World: "world", X: 150, Z: 5})
			_, commands, _ = e.host.snapshot()
			Expect(commands).To(Equal([]string{"say bye Alex", "tp " + alexID + " spawn"}))
		})

		It("delivers a stream of events in order", func() {
			e.set("12", behavior.NoEnterPlayerName, "Steve")
			steve := e.world.Player("Steve")
			outside := flag.Location{World: "world", X: 150, Z: 5}

			events := make(chan movement.Event, 3)
			events <- movement.Event{Kind: movement.KindJoin, Player: steve, To: outside}
			events <- movement.Event{Kind: movement.KindMove, Player: steve, From: &outside, To: flag.Location{World: "world", X: 5, Z: 5}}
			events <- movement.Event{Kind: movement.KindMove, Player: steve, From: &outside, To: flag.Location{World: "world_nether", X: 5, Z: 5}}
			close(events)

			e.dispatcher.Start(ctx, events)
			e.dispatcher.Stop()

			_, _, ejected := e.host.snapshot()
			Expect(ejected).To(Equal([]string{"Steve"}))
		})
	})

	Describe("definition packs", func() {
		BeforeEach(func() {
			writeFile(filepath.Join(dir, "packs", "rules.yml"), validatorPack)
			e = newEngine(dir)
		})

		It("validates parameters with expr and lua", func() {
			limit := e.def("ClaimLimit")
			result := e.manager.SetFlag(ctx, "12", limit, true, "0")
			Expect(result.Success).To(BeFalse())
			Expect(result.Message).To(Equal("Give one positive limit."))

			result = e.manager.SetFlag(ctx, "12", limit, true, "5")
			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal("Claim limit is now 5."))

			motd := e.def("motd")
			Expect(e.manager.SetFlag(ctx, "world", motd, true, "this message is far too long").Message).To(Equal("Keep it short."))
			Expect(e.manager.SetFlag(ctx, "world", motd, true, "hello").Success).To(BeTrue())

			f, ok := e.manager.FlagAt(flag.Location{World: "world", X: 50, Z: 50}, "Motd")
			Expect(ok).To(BeTrue())
			Expect(f.Scope).To(Equal("world"))
		})

		It("keeps pack flags through a save and reload", func() {
			e.set("-2", "ClaimLimit", "3")
			Expect(e.datastore.Save(ctx)).To(Succeed())

			restarted := newEngine(dir)
			_, err := restarted.datastore.Load(ctx)
			Expect(err).NotTo(HaveOccurred())

			f, ok := restarted.manager.Flag("13", "ClaimLimit")
			Expect(ok).To(BeTrue())
			Expect(f.Params).To(Equal("3"))
		})
	})

	Describe("hot reload", func() {
		It("picks up edits made by another process", func() {
			e = newEngine(dir)
			path := e.datastore.Path()
			writeFile(path, "\"12\":\n    BuySubclaim: {params: \"10\", value: true}\n")
			_, err := e.datastore.Load(ctx)
			Expect(err).NotTo(HaveOccurred())

			reloads := make(chan []string, 8)
			watcher := persist.NewWatcher(e.datastore, func(errs []string, err error) {
				if err != nil {
					return
				}
				select {
				case reloads <- errs:
				default:
				}
			})

			watchCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- watcher.Run(watchCtx) }()
			DeferCleanup(func() {
				cancel()
				Eventually(done).Should(Receive(BeNil()))
			})

			Eventually(func() string {
				tmp := path + ".tmp"
				_ = os.WriteFile(tmp, []byte("\"12\":\n    BuySubclaim: {params: \"25\", value: true}\n"), 0o600)
				_ = os.Rename(tmp, path)
				f, _ := e.manager.Flag("12", behavior.BuySubclaimName)
				return f.Params
			}).WithTimeout(5 * time.Second).WithPolling(50 * time.Millisecond).Should(Equal("25"))
			Eventually(reloads).Should(Receive(BeEmpty()))
		})
	})
})
