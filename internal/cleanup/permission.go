package cleanup

import (
	"context"
	"io"
	"log/slog"
)

// PermissionResolver decides whether a sweep may use the privileged
// full-history strategy for a chat, combining the platform's membership
// check with the invoker's stored preference.
type PermissionResolver struct {
	platform Platform
	prefs    PrefStore
	logger   *slog.Logger
}

// NewPermissionResolver creates a resolver over the given platform and
// preference store.
func NewPermissionResolver(platform Platform, prefs PrefStore, logger *slog.Logger) *PermissionResolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PermissionResolver{
		platform: platform,
		prefs:    prefs,
		logger:   logger.With("component", "permissions"),
	}
}

// CanDeleteOthers reports the effective authorization for deleting other
// participants' messages: one-to-one chats are always authorized; group
// chats require both the stored preference (default enabled) and an
// owner/delete-capable-admin membership. Membership lookup failures
// resolve to unauthorized.
func (r *PermissionResolver) CanDeleteOthers(ctx context.Context, chatID, userID int64, private bool) bool {
	if private {
		return true
	}

	enabled, err := r.prefs.DeleteOthersEnabled(ctx, userID)
	if err != nil {
		// Preference defaults to enabled; the membership check below
		// still gates the privileged path.
		r.logger.WarnContext(ctx, "Failed to read delete-others preference",
			"user_id", userID, "error", err)
		enabled = true
	}
	if !enabled {
		return false
	}

	membership, err := r.platform.GetMembership(ctx, chatID, userID)
	if err != nil {
		// Fail closed: treat lookup failures as unauthorized.
		r.logger.WarnContext(ctx, "Membership lookup failed, treating as unauthorized",
			"chat_id", chatID, "user_id", userID, "error", err)
		return false
	}

	return membership.MayDeleteOthers()
}
