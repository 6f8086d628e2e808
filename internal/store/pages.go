package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Page is a registry entry for a page that files can be attached to.
type Page struct {
	PageID    int64      `json:"page_id"`
	SiteID    int64      `json:"site_id"`
	Slug      string     `json:"slug"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// PutPage inserts a page or updates its slug. Putting a page clears any
// deletion mark.
func (t *Tx) PutPage(ctx context.Context, page Page) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO pages (page_id, site_id, slug, deleted_at)
		VALUES (?, ?, ?, NULL)
		ON CONFLICT(page_id) DO UPDATE SET
			site_id = excluded.site_id,
			slug = excluded.slug,
			deleted_at = NULL
	`, page.PageID, page.SiteID, page.Slug)
	if err != nil {
		return fmt.Errorf("put page: %w", err)
	}
	return nil
}

// DeletePage marks a page deleted. Returns ErrNotFound if it is unknown.
func (t *Tx) DeletePage(ctx context.Context, siteID, pageID int64, at time.Time) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE pages SET deleted_at = ?
		WHERE site_id = ? AND page_id = ? AND deleted_at IS NULL
	`, formatTime(at), siteID, pageID)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete page: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete page %d: %w", pageID, ErrNotFound)
	}
	return nil
}

// GetPage returns a page, including deleted ones.
// Returns ErrNotFound if the page is not registered on the site.
func (t *Tx) GetPage(ctx context.Context, siteID, pageID int64) (Page, error) {
	var (
		page      Page
		deletedAt sql.NullString
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT page_id, site_id, slug, deleted_at
		FROM pages
		WHERE site_id = ? AND page_id = ?
	`, siteID, pageID).Scan(&page.PageID, &page.SiteID, &page.Slug, &deletedAt)
	if err != nil {
		return Page{}, notFound("get page", err)
	}

	if deletedAt.Valid {
		at, err := parseTime(deletedAt.String)
		if err != nil {
			return Page{}, fmt.Errorf("get page: %w", err)
		}
		page.DeletedAt = &at
	}
	return page, nil
}

// PageSlug resolves the current slug of a live page.
// Deleted and unknown pages both return ErrNotFound.
func (t *Tx) PageSlug(ctx context.Context, siteID, pageID int64) (string, error) {
	page, err := t.GetPage(ctx, siteID, pageID)
	if err != nil {
		return "", err
	}
	if page.DeletedAt != nil {
		return "", fmt.Errorf("page slug: page %d deleted: %w", pageID, ErrNotFound)
	}
	return page.Slug, nil
}
