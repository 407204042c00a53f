package comments

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storeadmin/internal/auth"
	"storeadmin/internal/notices"
	"storeadmin/internal/sites"
	"storeadmin/pkg/models"
	"storeadmin/pkg/utils"
)

const (
	PageSize     = 20
	NoticePrefix = "comment-notice"
)

type Flags interface {
	IsEnabled(feature string) bool
}

type Controller struct {
	Repo      *Repo
	Sites     *sites.Repo
	Notices   *notices.Store
	Analytics Analytics
	Flags     Flags
	logger    *zap.Logger
}

func NewController(repo *Repo, siteRepo *sites.Repo, store *notices.Store, a Analytics, flags Flags, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		Repo:      repo,
		Sites:     siteRepo,
		Notices:   store,
		Analytics: a,
		Flags:     flags,
		logger:    logger.Named("comments"),
	}
}

// RegisterRoutes mounts the comment routes on a group that already runs the
// auth middleware.
func (h *Controller) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/comments", h.redirect)
	rg.GET("/comment", h.redirect)
	rg.GET("/comments/:status", h.chooseSite)
	rg.GET("/comments/:status/:site", h.siteComments)
	rg.GET("/comments/:status/:site/:post", h.postComments)
	rg.GET("/comment/:site", h.redirect)
	rg.GET("/comment/:site/:comment", h.comment)
	rg.GET("/notices", h.listNotices)
}

// ClearNotices drops comment notices once the user navigates away from the
// comments section.
func ClearNotices(store *notices.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if !strings.HasPrefix(p, "/comments") && p != "/notices" {
			if claims := auth.MustGetClaims(c); claims != nil {
				store.RemoveByPrefix(claims.UserID, NoticePrefix)
			}
		}
		c.Next()
	}
}

func siteParam(c *gin.Context) string {
	return SiteFragment("/" + c.Param("site"))
}

// resolveSite returns nil when the fragment does not name a known site.
func (h *Controller) resolveSite(ctx context.Context, fragment string) (*models.Site, error) {
	if fragment == "" {
		return nil, nil
	}
	return h.Sites.Resolve(ctx, fragment)
}

func (h *Controller) redirect(c *gin.Context) {
	if site := siteParam(c); site != "" {
		c.Redirect(http.StatusFound, "/comments/all/"+site)
		return
	}
	c.Redirect(http.StatusFound, "/comments/all")
}

func (h *Controller) chooseSite(c *gin.Context) {
	list, err := h.Sites.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list sites", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": MapPendingStatusToUnapproved(c.Param("status")),
		"sites":  list,
	})
}

func (h *Controller) siteComments(c *gin.Context) {
	h.renderList(c, 0)
}

func (h *Controller) postComments(c *gin.Context) {
	site := siteParam(c)
	if site == "" {
		c.Redirect(http.StatusFound, "/comments/all")
		return
	}
	postID, ok := SanitizeInt(c.Param("post"))
	if !ok {
		c.Redirect(http.StatusFound, fmt.Sprintf("/comments/%s/%s", c.Param("status"), site))
		return
	}
	h.renderList(c, postID)
}

func (h *Controller) renderList(c *gin.Context, postID int64) {
	fragment := siteParam(c)
	site, err := h.resolveSite(c.Request.Context(), fragment)
	if err != nil {
		h.logger.Error("resolve site", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "site lookup failed"})
		return
	}
	if site == nil {
		c.Redirect(http.StatusFound, "/comments/all")
		return
	}

	page, ok := SanitizeInt(c.Query("page"))
	if !ok {
		q := c.Request.URL.Query()
		q.Set("page", "1")
		c.Redirect(http.StatusFound, c.Request.URL.Path+"?"+q.Encode())
		return
	}

	status := MapPendingStatusToUnapproved(c.Param("status"))
	q := ListQuery{
		SiteID: site.ID,
		PostID: postID,
		Status: status,
		Limit:  PageSize,
		Offset: int(page-1) * PageSize,
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("count comments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("list comments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	resp := gin.H{
		"site_fragment": fragment,
		"site":          site,
		"status":        status,
		"page":          page,
		"comments":      items,
		"total":         total,
	}
	if postID > 0 {
		resp["post_id"] = postID
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Controller) comment(c *gin.Context) {
	fragment := siteParam(c)
	commentID, ok := SanitizeInt(c.Param("comment"))
	if !ok || !h.Flags.IsEnabled(utils.FeatureCommentsM3) {
		h.redirect(c)
		return
	}

	ctx := c.Request.Context()
	action := SanitizeQueryAction(c.Query("action"))
	siteID, siteOK := SanitizeInt(c.Query("site_id"))
	postID, postOK := SanitizeInt(c.Query("post_id"))

	if action != "" && siteOK && postOK {
		if err := h.moderate(c, siteID, postID, commentID, action); err != nil {
			h.logger.Error("moderate comment",
				zap.Int64("site_id", siteID),
				zap.Int64("comment_id", commentID),
				zap.String("action", action),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "moderation failed"})
			return
		}
	}

	var found *models.Comment
	site, err := h.resolveSite(ctx, fragment)
	if err != nil {
		h.logger.Error("resolve site", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "site lookup failed"})
		return
	}
	if site != nil {
		if found, err = h.Repo.Get(ctx, site.ID, commentID); err != nil {
			h.logger.Error("get comment", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"action":        action,
		"comment_id":    commentID,
		"site_fragment": fragment,
		"comment":       found,
	})
}

func (h *Controller) moderate(c *gin.Context, siteID, postID, commentID int64, action string) error {
	ctx := c.Request.Context()

	var (
		done bool
		err  error
		text string
	)
	if action == ActionDelete {
		done, err = h.Repo.Delete(ctx, siteID, postID, commentID)
		text = "Comment deleted permanently."
	} else {
		done, err = h.Repo.ChangeStatus(ctx, siteID, postID, commentID, action)
		if err == nil {
			recordStatusChange(h.Analytics, action)
		}
		text = statusNotice(action)
	}
	if err != nil {
		return err
	}

	claims := auth.MustGetClaims(c)
	if claims == nil {
		return nil
	}
	n := notices.Notice{ID: fmt.Sprintf("%s-%d", NoticePrefix, commentID), Status: "success", Text: text}
	if !done {
		n.Status = "error"
		n.Text = "Comment not found."
	}
	h.Notices.Add(claims.UserID, n)
	return nil
}

func statusNotice(status string) string {
	switch status {
	case StatusApproved:
		return "Comment approved."
	case StatusSpam:
		return "Comment marked as spam."
	case StatusTrash:
		return "Comment moved to trash."
	}
	return "Comment updated."
}

func (h *Controller) listNotices(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notices": h.Notices.List(claims.UserID)})
}
