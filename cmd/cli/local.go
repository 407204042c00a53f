package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storeadmin/internal/auth"
	"storeadmin/internal/catalog"
	"storeadmin/internal/comments"
	"storeadmin/internal/selection"
	"storeadmin/internal/sites"
	"storeadmin/pkg/database"
	"storeadmin/pkg/utils"
)

func (o *globalOpts) openLocal() (utils.Config, *sql.DB, error) {
	cfg, err := utils.LoadConfig(o.configPath)
	if err != nil {
		return cfg, nil, err
	}
	db, err := database.OpenAndMigrate(cfg.Database)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}

func newImportCmd(opts *globalOpts) *cobra.Command {
	var sitesIn, productsIn, variationsIn, commentsIn string
	cmd := &cobra.Command{
		Use:   "import-csv",
		Short: "Load sites, products, variations and comments from CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := opts.openLocal()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			im := importer{
				sites:    sites.NewRepo(db),
				catalog:  catalog.NewRepo(db),
				comments: comments.NewRepo(db),
			}
			// order matters: products reference sites, variations reference products
			steps := []struct {
				name string
				path string
				fn   func(context.Context, io.Reader) (int, error)
			}{
				{"sites", sitesIn, im.importSites},
				{"products", productsIn, im.importProducts},
				{"variations", variationsIn, im.importVariations},
				{"comments", commentsIn, im.importComments},
			}
			for _, s := range steps {
				if s.path == "" {
					continue
				}
				n, err := importFile(ctx, s.path, s.fn)
				if err != nil {
					return fmt.Errorf("import %s failed: %w", s.name, err)
				}
				cmd.Printf("imported %d %s from %s\n", n, s.name, s.path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sitesIn, "sites", "", "sites CSV (id,slug,name)")
	cmd.Flags().StringVar(&productsIn, "products", "", "products CSV ("+strings.Join(productColumns, ",")+")")
	cmd.Flags().StringVar(&variationsIn, "variations", "", "variations CSV (id,site_id,product_id,price,attributes,image)")
	cmd.Flags().StringVar(&commentsIn, "comments", "", "comments CSV (id,site_id,post_id,author,content,status)")
	return cmd
}

func importFile(ctx context.Context, path string, fn func(context.Context, io.Reader) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return fn(ctx, f)
}

func newModeratorCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{Use: "moderator", Short: "Manage moderator accounts"}

	var username, password string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a moderator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := opts.openLocal()
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := auth.CreateModerator(cmd.Context(), auth.NewRepo(db), username, password)
			if err != nil {
				return err
			}
			cmd.Printf("created moderator %s (%s)\n", m.Username, m.ID)
			return nil
		},
	}
	add.Flags().StringVar(&username, "username", "", "username")
	add.Flags().StringVar(&password, "password", "", "password")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}

func newTokenCmd(opts *globalOpts) *cobra.Command {
	var username, userID string
	var save bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a moderator JWT with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			tokens := auth.TokenService{
				Secret:   []byte(cfg.Auth.JWTSecret),
				Issuer:   cfg.Auth.JWTIssuer,
				Duration: cfg.Auth.JWTDuration,
			}
			if userID == "" {
				userID = username
			}
			tok, exp, err := tokens.Sign(&auth.Moderator{ID: userID, Username: username})
			if err != nil {
				return err
			}
			if save {
				if err := saveToken(opts.tokenPath, tok); err != nil {
					return fmt.Errorf("save token: %w", err)
				}
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"token":      tok,
				"expires_at": exp.UTC().Format(time.RFC3339),
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username claim")
	cmd.Flags().StringVar(&userID, "user-id", "", "user id claim (defaults to username)")
	cmd.Flags().BoolVar(&save, "save", false, "also write the token file")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newResolveCmd(opts *globalOpts) *cobra.Command {
	var (
		siteID, productID int64
		attrs             []string
		value             []int64
		singular          bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve attribute choices for a product offline and print the events and row",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := opts.openLocal()
			if err != nil {
				return err
			}
			defer db.Close()

			choices := make(map[string]string, len(attrs))
			for _, a := range attrs {
				name, option, ok := strings.Cut(a, "=")
				if !ok {
					return fmt.Errorf("bad --attr %q, want name=option", a)
				}
				choices[name] = option
			}

			out, err := resolveOffline(cmd.Context(), catalog.NewRepo(db), siteID, productID, choices, selection.NewChosenIDs(singular, value...), cfg.Catalog.Currency)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().Int64Var(&siteID, "site", 0, "site id")
	cmd.Flags().Int64Var(&productID, "product", 0, "product id")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "attribute choice name=option (repeatable)")
	cmd.Flags().Int64SliceVar(&value, "value", nil, "ids already chosen")
	cmd.Flags().BoolVar(&singular, "singular", false, "single-select host")
	_ = cmd.MarkFlagRequired("site")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

type resolveOutput struct {
	Events []selection.Event   `json:"events"`
	Value  selection.ChosenIDs `json:"value"`
	Row    selection.RowView   `json:"row"`
}

func resolveOffline(ctx context.Context, repo *catalog.Repo, siteID, productID int64, choices map[string]string, chosen selection.ChosenIDs, currency string) (*resolveOutput, error) {
	p, err := repo.GetProduct(ctx, siteID, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, selection.ErrProductNotFound
	}
	variations, err := repo.ListVariations(ctx, siteID, productID)
	if err != nil {
		return nil, err
	}

	out := &resolveOutput{Events: []selection.Event{}}
	e := selection.NewEngine(*p, &chosen, func(ev selection.Event) {
		chosen.Apply(ev)
		out.Events = append(out.Events, ev)
	})
	e.SetVariations(variations)
	e.ResolveAttributeChoice(choices)

	out.Value = chosen
	out.Row = selection.RenderRow(*p, variations, e.State(), chosen, selection.RenderOptions{
		Singular: chosen.Singular,
		Currency: currency,
	})
	return out, nil
}
