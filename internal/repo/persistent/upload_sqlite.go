package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Image-Cache/internal/entity"
	"github.com/andreyxaxa/Image-Cache/pkg/sqlite"
	"github.com/andreyxaxa/Image-Cache/pkg/types/errs"
)

// UploadSQLiteRepo reads the uploads table of a single-file blog database.
type UploadSQLiteRepo struct {
	*sqlite.SQLite
}

func NewUploadSQLiteRepo(db *sqlite.SQLite) *UploadSQLiteRepo {
	return &UploadSQLiteRepo{db}
}

func (r *UploadSQLiteRepo) FindByPath(ctx context.Context, path string) (*entity.Upload, error) {
	query, args, err := r.Builder.
		Select(uploadColumns...).
		From(uploadsTable).
		Where(squirrel.Eq{pathColumn: path}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("UploadSQLiteRepo - FindByPath - r.Builder.ToSql: %w", err)
	}

	var upload entity.Upload
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(
		&upload.ID,
		&upload.Path,
		&upload.MimeType,
		&upload.Width,
		&upload.Height,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("UploadSQLiteRepo - FindByPath: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("UploadSQLiteRepo - FindByPath - r.DB.QueryRowContext: %w", err)
	}

	return &upload, nil
}
