package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/asset-registry/internal/domain"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

type itemRepository struct {
	db querier
}

const itemColumns = `id, department, type, sub_type, serial, model, status, location,
               asset_tag, qr_code, created_at, updated_at`

func (r *itemRepository) InsertShell(ctx context.Context, item *domain.Item) error {
	const query = `
        INSERT INTO items (department, type, sub_type, serial, model, status, location)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		item.Department.Code(),
		item.Type.Code(),
		item.SubType,
		item.Serial,
		item.Model,
		item.Status,
		item.Location,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	return translatePgError(err)
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	const query = `
        UPDATE items SET department=$1, type=$2, sub_type=$3, serial=$4, model=$5, status=$6,
            location=$7, asset_tag=$8, qr_code=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		item.Department.Code(),
		item.Type.Code(),
		item.SubType,
		item.Serial,
		item.Model,
		item.Status,
		item.Location,
		nullableTag(item.AssetTag),
		item.QRCode,
		item.ID,
	).Scan(&item.UpdatedAt)
	return translatePgError(err)
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id))
	if err != nil {
		return nil, translatePgError(err)
	}
	return item, nil
}

func (r *itemRepository) List(ctx context.Context, opts ListOptions) ([]domain.Item, error) {
	query, args := paginate(`SELECT `+itemColumns+` FROM items ORDER BY id`, opts)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, translatePgError(rows.Err())
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM items WHERE id=$1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *itemRepository) TagExists(ctx context.Context, tag string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM items WHERE asset_tag=$1 AND id<>$2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, tag, excludeID).Scan(&exists); err != nil {
		return false, translatePgError(err)
	}
	return exists, nil
}

func scanItem(row scanner) (*domain.Item, error) {
	var (
		item           domain.Item
		dept, itemType string
		tag            *string
	)
	if err := row.Scan(
		&item.ID,
		&dept,
		&itemType,
		&item.SubType,
		&item.Serial,
		&item.Model,
		&item.Status,
		&item.Location,
		&tag,
		&item.QRCode,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if item.Department, err = domain.DepartmentFromCode(dept); err != nil {
		return nil, apperrors.NewIntegrityViolation(fmt.Errorf("item %d: %w", item.ID, err))
	}
	if item.Type, err = domain.ItemTypeFromCode(itemType); err != nil {
		return nil, apperrors.NewIntegrityViolation(fmt.Errorf("item %d: %w", item.ID, err))
	}
	if tag != nil {
		item.AssetTag = *tag
	}
	return &item, nil
}

func nullableTag(tag string) *string {
	if tag == "" {
		return nil
	}
	return &tag
}

func paginate(query string, opts ListOptions) (string, []any) {
	args := make([]any, 0, 2)
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}
