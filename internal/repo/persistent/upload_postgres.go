package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Image-Cache/internal/entity"
	"github.com/andreyxaxa/Image-Cache/pkg/postgres"
	"github.com/andreyxaxa/Image-Cache/pkg/types/errs"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	uploadsTable = "uploads"

	// Columns
	idColumn       = "id"
	pathColumn     = "path"
	mimeTypeColumn = "mime_type"
	widthColumn    = "width"
	heightColumn   = "height"
)

var uploadColumns = []string{idColumn, pathColumn, mimeTypeColumn, widthColumn, heightColumn}

type UploadPostgresRepo struct {
	*postgres.Postgres
}

func NewUploadPostgresRepo(pg *postgres.Postgres) *UploadPostgresRepo {
	return &UploadPostgresRepo{pg}
}

func (r *UploadPostgresRepo) FindByPath(ctx context.Context, path string) (*entity.Upload, error) {
	sql, args, err := r.Builder.
		Select(uploadColumns...).
		From(uploadsTable).
		Where(squirrel.Eq{pathColumn: path}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("UploadPostgresRepo - FindByPath - r.Builder.ToSql: %w", err)
	}

	var upload entity.Upload
	err = r.Pool.QueryRow(ctx, sql, args...).Scan(
		&upload.ID,
		&upload.Path,
		&upload.MimeType,
		&upload.Width,
		&upload.Height,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("UploadPostgresRepo - FindByPath: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("UploadPostgresRepo - FindByPath - r.Pool.QueryRow: %w", err)
	}

	return &upload, nil
}
