package store

import (
	"context"
	"fmt"
	"time"
)

// OutdateJob is a pending invalidation of derived state for one page.
type OutdateJob struct {
	JobID     int64     `json:"job_id"`
	Kind      string    `json:"kind"` // "displace" or "edit"
	SiteID    int64     `json:"site_id"`
	PageID    int64     `json:"page_id"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// EnqueueOutdate records a pending invalidation.
// Repeated notifications for the same (kind, site, page) collapse into one
// pending job whose slug is refreshed to the latest value, so a page
// renamed between notifications is purged under its current slug.
// Returns whether a new job was inserted.
func (t *Tx) EnqueueOutdate(ctx context.Context, job OutdateJob) (bool, error) {
	// An upsert reports a row change for both branches, so refresh first
	// and insert only when nothing was pending.
	result, err := t.tx.ExecContext(ctx, `
		UPDATE outdate_jobs SET slug = ?
		WHERE kind = ? AND site_id = ? AND page_id = ?
	`, job.Slug, job.Kind, job.SiteID, job.PageID)
	if err != nil {
		return false, fmt.Errorf("enqueue outdate: refresh: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enqueue outdate: rows affected: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	result, err = t.tx.ExecContext(ctx, `
		INSERT INTO outdate_jobs (kind, site_id, page_id, slug, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, site_id, page_id) DO NOTHING
	`, job.Kind, job.SiteID, job.PageID, job.Slug, formatTime(job.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("enqueue outdate: %w", err)
	}

	n, err = result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enqueue outdate: rows affected: %w", err)
	}
	return n > 0, nil
}

// ListOutdateJobs returns pending jobs for a site in insertion order.
func (t *Tx) ListOutdateJobs(ctx context.Context, siteID int64) ([]OutdateJob, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT job_id, kind, site_id, page_id, slug, created_at
		FROM outdate_jobs
		WHERE site_id = ?
		ORDER BY job_id ASC
	`, siteID)
	if err != nil {
		return nil, fmt.Errorf("query outdate jobs: %w", err)
	}
	defer rows.Close()

	jobs := []OutdateJob{}
	for rows.Next() {
		var (
			job       OutdateJob
			createdAt string
		)
		if err := rows.Scan(&job.JobID, &job.Kind, &job.SiteID, &job.PageID, &job.Slug, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outdate job: %w", err)
		}
		if job.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("scan outdate job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outdate jobs: %w", err)
	}
	return jobs, nil
}

// CompleteOutdateJob removes a job once its invalidation has been processed.
// Returns ErrNotFound if the job does not exist.
func (t *Tx) CompleteOutdateJob(ctx context.Context, jobID int64) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM outdate_jobs WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("complete outdate job: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete outdate job: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("complete outdate job %d: %w", jobID, ErrNotFound)
	}
	return nil
}
