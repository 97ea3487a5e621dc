package workshop

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/store"
)

// GetComment returns a comment visible to scope. Deleted comments are not found.
func (r *Repository) GetComment(ctx context.Context, scope filter.Scope, id uuid.UUID) (*Comment, error) {
	return get[Comment](ctx, r.db, scope, TableComments, CommentColumns, id, sql.EQ("is_deleted", false))
}

// AddComment posts a comment on one of the scope's job cards by one of its
// users. Replies must target a live comment on the same card.
func (r *Repository) AddComment(ctx context.Context, scope filter.Scope, c *Comment) error {
	if _, err := r.GetJobCard(ctx, scope, c.JobCardID); err != nil {
		return fmt.Errorf("comment job card: %w", err)
	}
	if _, err := r.GetUser(ctx, scope, c.AuthorID); err != nil {
		return fmt.Errorf("comment author: %w", err)
	}
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return fmt.Errorf("%w: comment content is required", store.ErrInvalidInput)
	}
	if c.JobItemID.Valid {
		it, err := r.GetJobItem(ctx, scope, c.JobItemID.UUID)
		if err != nil {
			return fmt.Errorf("comment job item: %w", err)
		}
		if it.JobCardID != c.JobCardID {
			return fmt.Errorf("%w: job item belongs to another job card", store.ErrInvalidInput)
		}
	}
	if c.ParentCommentID.Valid {
		parent, err := r.GetComment(ctx, scope, c.ParentCommentID.UUID)
		if err != nil {
			return fmt.Errorf("parent comment: %w", err)
		}
		if parent.JobCardID != c.JobCardID {
			return fmt.Errorf("%w: parent comment belongs to another job card", store.ErrInvalidInput)
		}
	}
	var err error
	if c.ID, err = newID(c.ID); err != nil {
		return err
	}
	c.IsDeleted = false
	c.DeletedAt = nil
	c.CreatedAt = r.stamp(c.CreatedAt)

	if err := r.insert(ctx, TableComments, CommentColumns,
		c.ID, c.JobCardID, c.JobItemID, c.AuthorID, c.Content, c.ParentCommentID, c.IsDeleted, c.DeletedAt, c.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// SoftDeleteComment marks a visible comment as deleted. Its replies stay.
func (r *Repository) SoftDeleteComment(ctx context.Context, scope filter.Scope, id uuid.UUID) error {
	now := r.now().UTC()
	return r.update(ctx, scope, TableComments, id, func(u *sql.UpdateBuilder) {
		u.Set("is_deleted", true).Set("deleted_at", now)
	}, sql.EQ("is_deleted", false))
}

// AddMention notifies a user of the scope's tenant about a comment.
func (r *Repository) AddMention(ctx context.Context, scope filter.Scope, m *Mention) error {
	if _, err := r.GetComment(ctx, scope, m.CommentID); err != nil {
		return fmt.Errorf("mention comment: %w", err)
	}
	if _, err := r.GetUser(ctx, scope, m.MentionedUserID); err != nil {
		return fmt.Errorf("mentioned user: %w", err)
	}
	var err error
	if m.ID, err = newID(m.ID); err != nil {
		return err
	}
	m.CreatedAt = r.stamp(m.CreatedAt)

	if err := r.insert(ctx, TableMentions, MentionColumns,
		m.ID, m.CommentID, m.MentionedUserID, m.IsRead, m.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to add mention: %w", err)
	}
	return nil
}
