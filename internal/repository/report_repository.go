package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saferoute/admin-api/internal/models"
)

const reportColumns = `id, category, location, landmark, datetime, status, description, barangay, lat, lng, reporter_user_id, reported_by, created_by_email, created_at`

// reportsChannel is the Postgres notification channel fired on every
// mutation of the reports table.
const reportsChannel = "reports_changed"

// ReportRepository provides database access for incident reports. Mutations
// notify the reports_changed channel so watchers re-deliver a fresh
// snapshot.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// List returns the full report collection.
func (r *ReportRepository) List(ctx context.Context) ([]models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports ORDER BY created_at DESC`, reportColumns)
	reports := []models.Report{}
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ListByBarangay returns reports scoped to one barangay.
func (r *ReportRepository) ListByBarangay(ctx context.Context, barangay string) ([]models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE barangay = $1 ORDER BY created_at DESC`, reportColumns)
	reports := []models.Report{}
	if err := r.db.SelectContext(ctx, &reports, query, barangay); err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", barangay, err)
	}
	return reports, nil
}

// GetByID returns one report by identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1 LIMIT 1`, reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return &report, nil
}

// Create persists a new report, assigning the store id and created_at.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = models.StatusPending
	}
	report.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO reports (id, category, location, landmark, datetime, status, description, barangay, lat, lng, reporter_user_id, reported_by, created_by_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := r.db.ExecContext(ctx, query,
		report.ID, report.Category, report.Location, report.Landmark, []byte(report.Datetime),
		report.Status, report.Description, report.Barangay, report.Lat, report.Lng,
		report.ReporterUserID, report.ReportedBy, report.CreatedByEmail, report.CreatedAt,
	); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return r.notifyChanged(ctx)
}

// UpdateStatus sets the moderation status of one report.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus) error {
	const query = `UPDATE reports SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return r.notifyChanged(ctx)
}

// Delete removes one report permanently.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM reports WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return r.notifyChanged(ctx)
}

// CountByStatus tallies reports per status, optionally scoped to a barangay.
func (r *ReportRepository) CountByStatus(ctx context.Context, barangay string) ([]models.StatusCount, error) {
	counts := []models.StatusCount{}
	if barangay == "" || barangay == models.AllBarangays {
		const query = `SELECT COALESCE(NULLIF(status, ''), 'pending') AS status, COUNT(*) AS total FROM reports GROUP BY 1`
		if err := r.db.SelectContext(ctx, &counts, query); err != nil {
			return nil, fmt.Errorf("count reports by status: %w", err)
		}
		return counts, nil
	}
	const query = `SELECT COALESCE(NULLIF(status, ''), 'pending') AS status, COUNT(*) AS total FROM reports WHERE barangay = $1 GROUP BY 1`
	if err := r.db.SelectContext(ctx, &counts, query, barangay); err != nil {
		return nil, fmt.Errorf("count reports by status for %s: %w", barangay, err)
	}
	return counts, nil
}

func (r *ReportRepository) notifyChanged(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_notify($1, '')`, reportsChannel); err != nil {
		return fmt.Errorf("notify %s: %w", reportsChannel, err)
	}
	return nil
}
