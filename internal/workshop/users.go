package workshop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/store"
)

// InviteTTL is how long an invite code stays valid.
const InviteTTL = 7 * 24 * time.Hour

// GetUser returns a user visible to scope.
func (r *Repository) GetUser(ctx context.Context, scope filter.Scope, id uuid.UUID) (*User, error) {
	return get[User](ctx, r.db, scope, TableUsers, UserColumns, id)
}

// CreateUser stores u. Users may exist before they join an organization, so
// the tenant is not stamped: a tenant scope only accepts users without an
// organization or users of its own organization. Unscoped system code may
// create any user.
func (r *Repository) CreateUser(ctx context.Context, scope filter.Scope, u *User) error {
	if !scope.Bypassed() {
		org, err := tenantOf(scope)
		if err != nil {
			return err
		}
		if u.OrganizationID.Valid && u.OrganizationID.UUID != org {
			return fmt.Errorf("%w: user belongs to another organization", store.ErrInvalidInput)
		}
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return fmt.Errorf("%w: user email is required", store.ErrInvalidInput)
	}
	var err error
	if u.ID, err = newID(u.ID); err != nil {
		return err
	}
	u.CreatedAt = r.stamp(u.CreatedAt)

	if err := r.insert(ctx, TableUsers, UserColumns,
		u.ID, u.OrganizationID, u.Email, u.FullName, u.IsActive, u.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// CreateInvite issues an invite code to join the scope's organization.
func (r *Repository) CreateInvite(ctx context.Context, scope filter.Scope, inv *Invite) error {
	org, err := tenantOf(scope)
	if err != nil {
		return err
	}
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	if inv.Email == "" {
		return fmt.Errorf("%w: invite email is required", store.ErrInvalidInput)
	}
	if inv.ID, err = newID(inv.ID); err != nil {
		return err
	}
	if inv.InviteCode == "" {
		inv.InviteCode = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if inv.Role == "" {
		inv.Role = "member"
	}
	inv.OrganizationID = org
	inv.Status = InvitePending
	inv.CreatedAt = r.stamp(inv.CreatedAt)
	if inv.ExpiresAt.IsZero() {
		inv.ExpiresAt = inv.CreatedAt.Add(InviteTTL)
	}
	inv.ExpiresAt = inv.ExpiresAt.UTC()

	if err := r.insert(ctx, TableInvites, InviteColumns,
		inv.ID, inv.OrganizationID, inv.Email, inv.Role, inv.InviteCode, inv.ExpiresAt, inv.Status, inv.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}
