package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storeadmin/internal/catalog"
	"storeadmin/internal/comments"
	"storeadmin/internal/sites"
	"storeadmin/pkg/models"
)

var productColumns = []string{"id", "site_id", "type", "name", "price", "images"}

type importer struct {
	sites    *sites.Repo
	catalog  *catalog.Repo
	comments *comments.Repo
}

// each walks the data rows of a CSV with a header line, skipping blank rows.
func each(in io.Reader, fn func(row func(string) string) error) (int, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if len(rec) == 0 {
			continue
		}
		get := func(key string) string { return valueAt(header, rec, key) }
		if err := fn(get); err != nil {
			return n, err
		}
		n++
	}
}

func (im importer) importSites(ctx context.Context, in io.Reader) (int, error) {
	return each(in, func(get func(string) string) error {
		id, err := parseID(get("id"))
		if err != nil {
			return fmt.Errorf("parse site id: %w", err)
		}
		if get("slug") == "" {
			return fmt.Errorf("site %d: slug is required", id)
		}
		return im.sites.Upsert(ctx, models.Site{ID: id, Slug: get("slug"), Name: get("name")})
	})
}

func (im importer) importProducts(ctx context.Context, in io.Reader) (int, error) {
	return each(in, func(get func(string) string) error {
		id, err := parseID(get("id"))
		if err != nil {
			return fmt.Errorf("parse product id: %w", err)
		}
		siteID, err := parseID(get("site_id"))
		if err != nil {
			return fmt.Errorf("parse site_id for product %d: %w", id, err)
		}

		var images []models.Image
		for _, src := range strings.Split(get("images"), "|") {
			if src = strings.TrimSpace(src); src != "" {
				images = append(images, models.Image{Src: src})
			}
		}
		return im.catalog.UpsertProduct(ctx, models.Product{
			ID:     id,
			SiteID: siteID,
			Type:   models.ParseProductType(strings.ToLower(get("type"))),
			Name:   get("name"),
			Price:  get("price"),
			Images: images,
		})
	})
}

// importVariations reads attributes as "Color=Red;Size=L".
func (im importer) importVariations(ctx context.Context, in io.Reader) (int, error) {
	return each(in, func(get func(string) string) error {
		id, err := parseID(get("id"))
		if err != nil {
			return fmt.Errorf("parse variation id: %w", err)
		}
		siteID, err := parseID(get("site_id"))
		if err != nil {
			return fmt.Errorf("parse site_id for variation %d: %w", id, err)
		}
		productID, err := parseID(get("product_id"))
		if err != nil {
			return fmt.Errorf("parse product_id for variation %d: %w", id, err)
		}
		attrs, err := parseAttributes(get("attributes"))
		if err != nil {
			return fmt.Errorf("variation %d: %w", id, err)
		}

		v := models.Variation{ID: id, ProductID: productID, Price: get("price"), Attributes: attrs}
		if src := get("image"); src != "" {
			v.Image = &models.Image{Src: src}
		}
		return im.catalog.UpsertVariation(ctx, siteID, v)
	})
}

func (im importer) importComments(ctx context.Context, in io.Reader) (int, error) {
	return each(in, func(get func(string) string) error {
		id, err := parseID(get("id"))
		if err != nil {
			return fmt.Errorf("parse comment id: %w", err)
		}
		siteID, err := parseID(get("site_id"))
		if err != nil {
			return fmt.Errorf("parse site_id for comment %d: %w", id, err)
		}
		postID, err := parseID(get("post_id"))
		if err != nil {
			return fmt.Errorf("parse post_id for comment %d: %w", id, err)
		}
		return im.comments.Upsert(ctx, models.Comment{
			ID:      id,
			SiteID:  siteID,
			PostID:  postID,
			Author:  get("author"),
			Content: get("content"),
			Status:  strings.ToLower(get("status")),
		})
	})
}

func parseAttributes(raw string) ([]models.VariationAttribute, error) {
	out := []models.VariationAttribute{}
	for _, pair := range strings.Split(raw, ";") {
		if pair = strings.TrimSpace(pair); pair == "" {
			continue
		}
		name, option, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("bad attribute %q", pair)
		}
		out = append(out, models.VariationAttribute{Name: strings.TrimSpace(name), Option: strings.TrimSpace(option)})
	}
	return out, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseID(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", n)
	}
	return n, nil
}
