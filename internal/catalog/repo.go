package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"storeadmin/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	Q      string // keyword search in name
	Type   string // "simple" or "variable"
	Limit  int
	Offset int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (models.Product, error) {
	var (
		p          models.Product
		typ        string
		imagesJSON string
	)
	if err := s.Scan(&p.ID, &p.SiteID, &typ, &p.Name, &p.Price, &imagesJSON); err != nil {
		return p, err
	}
	p.Type = models.ParseProductType(typ)
	_ = json.Unmarshal([]byte(imagesJSON), &p.Images)
	return p, nil
}

func (r *Repo) GetProduct(ctx context.Context, siteID, id int64) (*models.Product, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, site_id, type, name, price, images
		FROM products
		WHERE site_id = ? AND id = ?
	`, siteID, id)

	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan get product: %w", err)
	}
	return &p, nil
}

func (r *Repo) CountProducts(ctx context.Context, siteID int64, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(siteID, q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

func (r *Repo) ListProducts(ctx context.Context, siteID int64, q ListQuery) ([]models.Product, error) {
	sqlStr, args := buildListSQL(siteID, q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func buildListSQL(siteID int64, q ListQuery, countOnly bool) (string, []any) {
	sqlStr := `SELECT id, site_id, type, name, price, images FROM products`
	if countOnly {
		sqlStr = `SELECT COUNT(*) FROM products`
	}

	where := []string{"site_id = ?"}
	args := []any{siteID}

	if kw := strings.TrimSpace(q.Q); kw != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}
	if t := strings.ToLower(strings.TrimSpace(q.Type)); t != "" {
		where = append(where, "type = ?")
		args = append(args, t)
	}
	sqlStr += " WHERE " + strings.Join(where, " AND ")

	if !countOnly {
		limit := q.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		sqlStr += " ORDER BY name ASC, id ASC LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	return sqlStr, args
}

func (r *Repo) ListVariations(ctx context.Context, siteID, productID int64) ([]models.Variation, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, product_id, price, attributes, image_src
		FROM product_variations
		WHERE site_id = ? AND product_id = ?
		ORDER BY id ASC
	`, siteID, productID)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Variation, 0)
	for rows.Next() {
		var (
			v         models.Variation
			attrsJSON string
			imageSrc  sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Price, &attrsJSON, &imageSrc); err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		if err := json.Unmarshal([]byte(attrsJSON), &v.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes of variation %d: %w", v.ID, err)
		}
		if imageSrc.Valid && imageSrc.String != "" {
			v.Image = &models.Image{Src: imageSrc.String}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) UpsertProduct(ctx context.Context, p models.Product) error {
	images := p.Images
	if images == nil {
		images = []models.Image{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	typ := p.Type
	if typ == "" {
		typ = models.ProductSimple
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO products (id, site_id, type, name, price, images)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id, id) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			price = excluded.price,
			images = excluded.images
	`, p.ID, p.SiteID, string(typ), p.Name, p.Price, string(imagesJSON))
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

func (r *Repo) UpsertVariation(ctx context.Context, siteID int64, v models.Variation) error {
	attrs := v.Attributes
	if attrs == nil {
		attrs = []models.VariationAttribute{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	var imageSrc any
	if v.Image != nil && v.Image.Src != "" {
		imageSrc = v.Image.Src
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO product_variations (id, site_id, product_id, price, attributes, image_src)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id, id) DO UPDATE SET
			product_id = excluded.product_id,
			price = excluded.price,
			attributes = excluded.attributes,
			image_src = excluded.image_src
	`, v.ID, siteID, v.ProductID, v.Price, string(attrsJSON), imageSrc)
	if err != nil {
		return fmt.Errorf("upsert variation: %w", err)
	}
	return nil
}
