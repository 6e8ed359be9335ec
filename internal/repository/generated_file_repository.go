package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"dokugen/internal/domain"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("generated file not found")

type GeneratedFileRepository struct {
	db *sqlx.DB
}

func NewGeneratedFileRepository(db *sqlx.DB) *GeneratedFileRepository {
	return &GeneratedFileRepository{db: db}
}

// Create inserts a new generated-file record. Records are immutable; there
// is deliberately no Update.
func (r *GeneratedFileRepository) Create(ctx context.Context, file *domain.GeneratedFile) error {
	query := `
        INSERT INTO generated_files (id, chat_id, user_id, file_name, content_type, content, size_bytes, created_on, expires_on)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(
		ctx,
		query,
		file.ID,
		file.ChatID,
		file.UserID,
		file.FileName,
		file.ContentType,
		file.Content,
		file.SizeBytes,
		file.CreatedOn,
		file.ExpiresOn,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generated file: %w", err)
	}
	return nil
}

func (r *GeneratedFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.GeneratedFile, error) {
	var file domain.GeneratedFile
	query := `SELECT * FROM generated_files WHERE id = $1`

	err := r.db.GetContext(ctx, &file, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &file, nil
}

// DeleteExpired removes every record past its retention window. The hourly
// cleanup in main reaches this through the service.
func (r *GeneratedFileRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM generated_files WHERE expires_on < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired files: %w", err)
	}
	return res.RowsAffected()
}
