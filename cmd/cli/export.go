package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storeadmin/pkg/models"
)

type productListResponse struct {
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Items  []models.Product `json:"items"`
}

func newExportCmd(opts *globalOpts) *cobra.Command {
	var (
		siteID int64
		limit  int
		out    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a site's products as JSON or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(false)
			if err != nil {
				return err
			}
			items, err := fetchProducts(cmd.Context(), c, siteID, limit)
			if err != nil {
				return err
			}
			switch format {
			case "json":
				err = writeJSON(out, items)
			case "csv":
				err = writeCSV(out, items)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			cmd.Printf("exported %d products to %s\n", len(items), out)
			return nil
		},
	}
	cmd.Flags().Int64Var(&siteID, "site", 0, "site id")
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum products")
	cmd.Flags().StringVar(&out, "out", "data/products.json", "output path")
	cmd.Flags().StringVar(&format, "format", "json", "json or csv")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func fetchProducts(ctx context.Context, c *apiClient, siteID int64, limit int) ([]models.Product, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	var out []models.Product
	offset := 0
	for len(out) < limit {
		pageSize := 50
		if remaining := limit - len(out); remaining < pageSize {
			pageSize = remaining
		}
		qv := url.Values{}
		qv.Set("limit", strconv.Itoa(pageSize))
		qv.Set("offset", strconv.Itoa(offset))

		var resp productListResponse
		if err := c.do(ctx, http.MethodGet, c.url(productsPath(siteID), qv), nil, &resp); err != nil {
			return nil, err
		}
		if len(resp.Items) == 0 {
			break
		}
		out = append(out, resp.Items...)
		offset += len(resp.Items)
		if offset >= resp.Total {
			break
		}
	}
	return out, nil
}

func writeJSON(path string, items []models.Product) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// writeCSV uses the same columns import-csv reads for products.
func writeCSV(path string, items []models.Product) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(productColumns); err != nil {
		return err
	}
	for _, p := range items {
		images := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			images = append(images, img.Src)
		}
		if err := w.Write([]string{
			strconv.FormatInt(p.ID, 10),
			strconv.FormatInt(p.SiteID, 10),
			string(p.Type),
			p.Name,
			p.Price,
			strings.Join(images, "|"),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
