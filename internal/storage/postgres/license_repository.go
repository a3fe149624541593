package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/domain/license"
)

type LicenseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLicenseRepository(db *pgxpool.Pool, logger *zap.Logger) *LicenseRepository {
	return &LicenseRepository{
		db:     db,
		logger: logger.Named("LicenseRepository"),
	}
}

var _ license.Repository = (*LicenseRepository)(nil)

func (r *LicenseRepository) List(ctx context.Context) ([]*license.License, error) {
	query := `
        SELECT id, license_key, expires_at, hwid, created_at, updated_at
        FROM licenses
        ORDER BY expires_at ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query list of licenses", zap.Error(err))
		return nil, fmt.Errorf("database error on list licenses: %w", err)
	}
	defer rows.Close()

	licenses := make([]*license.License, 0)
	for rows.Next() {
		var lic license.License
		err := rows.Scan(
			&lic.ID,
			&lic.LicenseKey,
			&lic.ExpiresAt,
			&lic.HWID,
			&lic.CreatedAt,
			&lic.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan license row during list", zap.Error(err))
			return nil, fmt.Errorf("database scan error during list: %w", err)
		}
		licenses = append(licenses, &lic)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating license rows", zap.Error(err))
		return nil, fmt.Errorf("database iteration error on list licenses: %w", err)
	}

	return licenses, nil
}

func (r *LicenseRepository) FindByKey(ctx context.Context, key string) (*license.License, error) {
	query := `
        SELECT id, license_key, expires_at, hwid, created_at, updated_at
        FROM licenses
        WHERE license_key = $1
    `
	var lic license.License
	err := r.db.QueryRow(ctx, query, key).Scan(
		&lic.ID,
		&lic.LicenseKey,
		&lic.ExpiresAt,
		&lic.HWID,
		&lic.CreatedAt,
		&lic.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, license.ErrNotFound
		}
		r.logger.Error("Failed to scan license row", zap.String("license_key", key), zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return &lic, nil
}

func (r *LicenseRepository) Create(ctx context.Context, lic *license.License) (uuid.UUID, error) {
	query := `
        INSERT INTO licenses (license_key, expires_at, hwid)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	var insertedID uuid.UUID
	err := r.db.QueryRow(ctx, query, lic.LicenseKey, lic.ExpiresAt, lic.HWID).Scan(&insertedID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Attempted to create license with duplicate key",
				zap.String("license_key", lic.LicenseKey),
				zap.String("constraint", pgErr.ConstraintName),
			)
			return uuid.Nil, fmt.Errorf("%w: %s", license.ErrDuplicateKey, lic.LicenseKey)
		}

		r.logger.Error("Failed to create license in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error on create license: %w", err)
	}

	r.logger.Info("License created successfully", zap.String("id", insertedID.String()))
	return insertedID, nil
}

// BindHWID binds only while the key is currently unbound; the guard lives in
// the statement so concurrent activations race on the row, not in the app.
func (r *LicenseRepository) BindHWID(ctx context.Context, key, hwid string) error {
	query := `UPDATE licenses SET hwid = $2 WHERE license_key = $1 AND hwid IS NULL`
	cmdTag, err := r.db.Exec(ctx, query, key, hwid)
	if err != nil {
		r.logger.Error("Failed to bind hwid", zap.String("license_key", key), zap.Error(err))
		return fmt.Errorf("database error on bind hwid: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		lic, findErr := r.FindByKey(ctx, key)
		if findErr != nil {
			return findErr
		}
		if lic.HWID.Valid {
			return license.ErrAlreadyBound
		}
		return license.ErrNotFound
	}

	r.logger.Info("Hardware id bound to license", zap.String("license_key", key))
	return nil
}

func (r *LicenseRepository) ResetHWID(ctx context.Context, key string) error {
	query := `UPDATE licenses SET hwid = NULL WHERE license_key = $1`
	cmdTag, err := r.db.Exec(ctx, query, key)
	if err != nil {
		r.logger.Error("Failed to reset hwid", zap.String("license_key", key), zap.Error(err))
		return fmt.Errorf("database error on reset hwid: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to reset hwid, but license was not found", zap.String("license_key", key))
		return license.ErrNotFound
	}

	r.logger.Info("Hardware binding reset", zap.String("license_key", key))
	return nil
}

func (r *LicenseRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM licenses WHERE license_key = $1`
	cmdTag, err := r.db.Exec(ctx, query, key)
	if err != nil {
		r.logger.Error("Failed to delete license", zap.String("license_key", key), zap.Error(err))
		return fmt.Errorf("database error on delete license: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete license, but it was not found", zap.String("license_key", key))
		return license.ErrNotFound
	}

	r.logger.Info("License deleted", zap.String("license_key", key))
	return nil
}
