package store

import (
	"context"

	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

const photoCols = `id, inspection_id, COALESCE(item_id, ''), storage_key, COALESCE(url, ''), COALESCE(content_type, ''), COALESCE(size_bytes, 0), created_at`

func scanPhoto(row interface{ Scan(...any) error }) (*models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.InspectionID, &p.ItemID, &p.StorageKey, &p.URL, &p.ContentType, &p.SizeBytes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Postgres) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO photos (id, inspection_id, item_id, storage_key, url, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		photo.ID, photo.InspectionID, nullStr(photo.ItemID), photo.StorageKey, nullStr(photo.URL),
		nullStr(photo.ContentType), photo.SizeBytes, utc(photo.CreatedAt))
	return translate(err, "")
}

func (p *Postgres) ListPhotos(ctx context.Context, inspectionID string) ([]models.Photo, error) {
	rows, err := p.q.Query(ctx, `
		SELECT `+photoCols+` FROM photos
		WHERE inspection_id = $1
		ORDER BY created_at, id`, inspectionID)
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	var out []models.Photo
	for rows.Next() {
		ph, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ph)
	}
	return out, rows.Err()
}
