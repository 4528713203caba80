// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package behavior

import (
	"context"
	"log/slog"
	"slices"

	"github.com/holomush/claimflags/internal/flag"
)

// BuildChecker reports build trust. The world map implements it.
type BuildChecker interface {
	CanBuild(player flag.Player, region *flag.Region) bool
}

// LogHost is a Host that records actions in the log instead of performing
// them. It backs the standalone CLI, which has no game server attached.
type LogHost struct {
	logger      *slog.Logger
	builds      BuildChecker
	permissions []string
}

// LogHostOption configures a LogHost.
type LogHostOption func(*LogHost)

// WithBuildChecker answers CanBuild from checker.
func WithBuildChecker(checker BuildChecker) LogHostOption {
	return func(h *LogHost) {
		h.builds = checker
	}
}

// WithPermissions grants every player the listed permission nodes.
func WithPermissions(nodes ...string) LogHostOption {
	return func(h *LogHost) {
		h.permissions = append(h.permissions, nodes...)
	}
}

// NewLogHost creates a LogHost. A nil logger uses slog.Default().
func NewLogHost(logger *slog.Logger, opts ...LogHostOption) *LogHost {
	if logger == nil {
		logger = slog.Default()
	}
	h := &LogHost{logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SendMessage logs the message.
func (h *LogHost) SendMessage(ctx context.Context, player flag.Player, message string) error {
	h.logger.InfoContext(ctx, "message to player", "player", player.Name, "message", message)
	return nil
}

// DispatchCommand logs the command.
func (h *LogHost) DispatchCommand(ctx context.Context, command string) error {
	h.logger.InfoContext(ctx, "console command", "command", command)
	return nil
}

// HasPermission reports whether node was granted with WithPermissions.
func (h *LogHost) HasPermission(_ flag.Player, node string) bool {
	return slices.Contains(h.permissions, node)
}

// CanBuild delegates to the configured BuildChecker; without one nobody can build.
func (h *LogHost) CanBuild(player flag.Player, region *flag.Region) bool {
	if h.builds == nil {
		return false
	}
	return h.builds.CanBuild(player, region)
}

// Eject logs the ejection.
func (h *LogHost) Eject(ctx context.Context, player flag.Player, from *flag.Location) error {
	attrs := []any{"player", player.Name}
	if from != nil {
		attrs = append(attrs, "world", from.World, "x", from.X, "y", from.Y, "z", from.Z)
	}
	h.logger.InfoContext(ctx, "ejected player", attrs...)
	return nil
}
