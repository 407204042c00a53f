package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeadmin/internal/catalog"
	"storeadmin/internal/comments"
	"storeadmin/internal/selection"
	"storeadmin/internal/sites"
	"storeadmin/pkg/database"
)

const (
	sitesCSV = `id,slug,name
3,Shop.Example.com,Shop
`
	productsCSV = `id,site_id,type,name,price,images
1,3,variable,Shirt,10,shirt.png|shirt-back.png
2,3,simple,Socks,4.5,
`
	variationsCSV = `id,site_id,product_id,price,attributes,image
11,3,1,12,Color=Red;Size=L,red.png
12,3,1,,Color=Blue;Size=L,
`
	commentsCSV = `id,site_id,post_id,author,content,status
1,3,10,ann,hello,pending
`
)

func newImporter(t *testing.T) (importer, *catalog.Repo) {
	t.Helper()
	db, err := database.OpenAndMigrate(database.Config{Path: filepath.Join(t.TempDir(), "cli.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := catalog.NewRepo(db)
	return importer{sites: sites.NewRepo(db), catalog: repo, comments: comments.NewRepo(db)}, repo
}

func TestImporterAndResolve(t *testing.T) {
	im, repo := newImporter(t)
	ctx := context.Background()

	for _, step := range []struct {
		fn   func(context.Context, *strings.Reader) (int, error)
		in   string
		want int
	}{
		{func(ctx context.Context, r *strings.Reader) (int, error) { return im.importSites(ctx, r) }, sitesCSV, 1},
		{func(ctx context.Context, r *strings.Reader) (int, error) { return im.importProducts(ctx, r) }, productsCSV, 2},
		{func(ctx context.Context, r *strings.Reader) (int, error) { return im.importVariations(ctx, r) }, variationsCSV, 2},
		{func(ctx context.Context, r *strings.Reader) (int, error) { return im.importComments(ctx, r) }, commentsCSV, 1},
	} {
		n, err := step.fn(ctx, strings.NewReader(step.in))
		require.NoError(t, err)
		assert.Equal(t, step.want, n)
	}

	site, err := im.sites.Resolve(ctx, "shop.example.com")
	require.NoError(t, err)
	require.NotNil(t, site)

	p, err := repo.GetProduct(ctx, 3, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.IsVariable())
	assert.Len(t, p.Images, 2)

	vs, err := repo.ListVariations(ctx, 3, 1)
	require.NoError(t, err)
	require.Len(t, vs, 2)

	c, err := im.comments.Get(ctx, 3, 1)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "unapproved", c.Status)

	out, err := resolveOffline(ctx, repo, 3, 1, map[string]string{"Color": "Red", "Size": "L"}, selection.NewChosenIDs(false), "USD")
	require.NoError(t, err)
	assert.Equal(t, []selection.Event{{Kind: selection.EventSelect, ID: 1}, {Kind: selection.EventSelect, ID: 11}}, out.Events)
	assert.Equal(t, []int64{1, 11}, out.Value.Values())
	assert.True(t, out.Row.ShowForm)
	require.Len(t, out.Row.Variations, 1)
	assert.Equal(t, int64(11), out.Row.Variations[0].ID)

	out, err = resolveOffline(ctx, repo, 3, 1, map[string]string{"Color": "any"}, selection.NewChosenIDs(false), "USD")
	require.NoError(t, err)
	assert.Empty(t, out.Events)

	_, err = resolveOffline(ctx, repo, 3, 99, nil, selection.NewChosenIDs(false), "USD")
	assert.ErrorIs(t, err, selection.ErrProductNotFound)
}

func TestImporter_BadRows(t *testing.T) {
	im, _ := newImporter(t)
	ctx := context.Background()

	_, err := im.importSites(ctx, strings.NewReader("id,slug\nabc,shop.example.com\n"))
	assert.Error(t, err)

	_, err = im.importSites(ctx, strings.NewReader("id,slug\n3,\n"))
	assert.Error(t, err)

	_, err = parseAttributes("Color=Red;Size")
	assert.Error(t, err)

	attrs, err := parseAttributes(" Color = Red ; ; Size=")
	require.NoError(t, err)
	assert.Equal(t, "Color", attrs[0].Name)
	assert.Equal(t, "Red", attrs[0].Option)
	assert.Equal(t, "", attrs[1].Option)
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	require.Error(t, saveToken(path, ""))
	require.NoError(t, saveToken(path, "abc"))
	tok, err := readToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, clearToken(path))
	require.NoError(t, clearToken(path))
	_, err = readToken(path)
	assert.Error(t, err)
}

func TestAPIClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"total":2}`))
		case "/moved":
			http.Redirect(w, r, "/comments/all", http.StatusFound)
		default:
			http.Error(w, `{"error":"nope"}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := &apiClient{http: srv.Client(), baseURL: srv.URL, token: "tok"}
	var out struct {
		Total int `json:"total"`
	}
	require.NoError(t, c.do(context.Background(), http.MethodGet, c.url("/ok", nil), nil, &out))
	assert.Equal(t, 2, out.Total)

	err := c.do(context.Background(), http.MethodGet, c.url("/moved", nil), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/comments/all")

	err = c.do(context.Background(), http.MethodGet, c.url("/missing", nil), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestRootCmd_Help(t *testing.T) {
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())
	for _, name := range []string{"import-csv", "resolve", "token", "moderator", "comments", "sync"} {
		assert.Contains(t, buf.String(), name)
	}
}
