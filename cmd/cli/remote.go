package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newLoginCmd(opts *globalOpts) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a moderator and store the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}
			c, err := opts.client(false)
			if err != nil {
				return err
			}
			var resp struct {
				Token string `json:"token"`
			}
			payload := map[string]string{"username": username, "password": password}
			if err := c.do(cmd.Context(), http.MethodPost, c.url("/auth/login", nil), payload, &resp); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := saveToken(opts.tokenPath, resp.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			cmd.Println("logged in")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "moderator username")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func newLogoutCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clearToken(opts.tokenPath); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			cmd.Println("logged out")
			return nil
		},
	}
}

func newProductsCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{Use: "products", Short: "Browse the catalog"}

	var (
		siteID        int64
		q, typ        string
		limit, offset int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "Search products of a site",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(false)
			if err != nil {
				return err
			}
			qv := url.Values{}
			if q != "" {
				qv.Set("q", q)
			}
			if typ != "" {
				qv.Set("type", typ)
			}
			qv.Set("limit", strconv.Itoa(limit))
			qv.Set("offset", strconv.Itoa(offset))

			var resp productListResponse
			if err := c.do(cmd.Context(), http.MethodGet, c.url(productsPath(siteID), qv), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	list.Flags().Int64Var(&siteID, "site", 0, "site id")
	list.Flags().StringVar(&q, "q", "", "name query")
	list.Flags().StringVar(&typ, "type", "", "simple or variable")
	list.Flags().IntVar(&limit, "limit", 20, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "offset")
	_ = list.MarkFlagRequired("site")

	var id int64
	show := &cobra.Command{
		Use:   "show",
		Short: "Show a product and its variations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(false)
			if err != nil {
				return err
			}
			base := fmt.Sprintf("%s/%d", productsPath(siteID), id)
			var product, variations any
			if err := c.do(cmd.Context(), http.MethodGet, c.url(base, nil), nil, &product); err != nil {
				return err
			}
			if err := c.do(cmd.Context(), http.MethodGet, c.url(base+"/variations", nil), nil, &variations); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"product": product, "variations": variations})
		},
	}
	show.Flags().Int64Var(&siteID, "site", 0, "site id")
	show.Flags().Int64Var(&id, "id", 0, "product id")
	_ = show.MarkFlagRequired("site")
	_ = show.MarkFlagRequired("id")

	cmd.AddCommand(list, show)
	return cmd
}

func productsPath(siteID int64) string {
	return fmt.Sprintf("/sites/%d/products", siteID)
}

func newCommentsCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{Use: "comments", Short: "Moderate comments"}

	var (
		site, status string
		post, page   int64
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List comments of a site or post",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(true)
			if err != nil {
				return err
			}
			path := "/comments/" + url.PathEscape(status) + "/" + url.PathEscape(site)
			if post > 0 {
				path += "/" + strconv.FormatInt(post, 10)
			}
			var resp map[string]any
			if err := c.do(cmd.Context(), http.MethodGet, c.url(path, url.Values{"page": {strconv.FormatInt(page, 10)}}), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	list.Flags().StringVar(&site, "site", "", "site id or domain")
	list.Flags().StringVar(&status, "status", "all", "all, pending, approved, spam or trash")
	list.Flags().Int64Var(&post, "post", 0, "post id")
	list.Flags().Int64Var(&page, "page", 1, "page number")
	_ = list.MarkFlagRequired("site")

	var (
		commentID, siteID, postID int64
		action                    string
	)
	moderate := &cobra.Command{
		Use:   "moderate",
		Short: "Approve, spam, trash or delete a comment",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(true)
			if err != nil {
				return err
			}
			qv := url.Values{}
			qv.Set("action", action)
			qv.Set("site_id", strconv.FormatInt(siteID, 10))
			qv.Set("post_id", strconv.FormatInt(postID, 10))
			path := fmt.Sprintf("/comment/%s/%d", url.PathEscape(site), commentID)

			var resp map[string]any
			if err := c.do(cmd.Context(), http.MethodGet, c.url(path, qv), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	moderate.Flags().StringVar(&site, "site", "", "site id or domain")
	moderate.Flags().Int64Var(&commentID, "id", 0, "comment id")
	moderate.Flags().Int64Var(&siteID, "site-id", 0, "numeric site id")
	moderate.Flags().Int64Var(&postID, "post-id", 0, "post id")
	moderate.Flags().StringVar(&action, "action", "", "approve, spam, trash or delete")
	for _, f := range []string{"site", "id", "site-id", "post-id", "action"} {
		_ = moderate.MarkFlagRequired(f)
	}

	cmd.AddCommand(list, moderate)
	return cmd
}

func newNoticesCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "notices",
		Short: "Show pending notices",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(true)
			if err != nil {
				return err
			}
			var resp map[string]any
			if err := c.do(cmd.Context(), http.MethodGet, c.url("/notices", nil), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}
