package store

import (
	"context"
	"errors"
	"testing"
)

func TestPageSlug(t *testing.T) {
	s := createTestStore(t)

	readTx(t, s, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutPage(ctx, Page{PageID: 10, SiteID: 1, Slug: "start"}); err != nil {
			return err
		}
		slug, err := tx.PageSlug(ctx, 1, 10)
		if err != nil {
			return err
		}
		if slug != "start" {
			t.Errorf("PageSlug() = %q, want start", slug)
		}
		return nil
	})
}

func TestPageSlug_WrongSite(t *testing.T) {
	s := createTestStore(t)

	readTx(t, s, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutPage(ctx, Page{PageID: 10, SiteID: 1, Slug: "start"}); err != nil {
			return err
		}
		_, err := tx.PageSlug(ctx, 2, 10)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("PageSlug() error = %v, want ErrNotFound", err)
		}
		return nil
	})
}

func TestPageSlug_DeletedPage(t *testing.T) {
	s := createTestStore(t)

	readTx(t, s, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutPage(ctx, Page{PageID: 10, SiteID: 1, Slug: "start"}); err != nil {
			return err
		}
		if err := tx.DeletePage(ctx, 1, 10, testTime); err != nil {
			return err
		}

		_, err := tx.PageSlug(ctx, 1, 10)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("PageSlug() error = %v, want ErrNotFound", err)
		}

		page, err := tx.GetPage(ctx, 1, 10)
		if err != nil {
			return err
		}
		if page.DeletedAt == nil || !page.DeletedAt.Equal(testTime) {
			t.Errorf("DeletedAt = %v, want %v", page.DeletedAt, testTime)
		}
		return nil
	})
}

func TestPutPage_RestoresAndRenames(t *testing.T) {
	s := createTestStore(t)

	readTx(t, s, func(ctx context.Context, tx *Tx) error {
		if err := tx.PutPage(ctx, Page{PageID: 10, SiteID: 1, Slug: "start"}); err != nil {
			return err
		}
		if err := tx.DeletePage(ctx, 1, 10, testTime); err != nil {
			return err
		}
		if err := tx.PutPage(ctx, Page{PageID: 10, SiteID: 1, Slug: "home"}); err != nil {
			return err
		}
		slug, err := tx.PageSlug(ctx, 1, 10)
		if err != nil {
			return err
		}
		if slug != "home" {
			t.Errorf("PageSlug() = %q, want home", slug)
		}
		return nil
	})
}

func TestDeletePage_Unknown(t *testing.T) {
	s := createTestStore(t)

	readTx(t, s, func(ctx context.Context, tx *Tx) error {
		err := tx.DeletePage(ctx, 1, 99, testTime)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("DeletePage() error = %v, want ErrNotFound", err)
		}
		return nil
	})
}
