package handler

import (
	"errors"
	"net/http"

	"saferoute/internal/middleware"
	"saferoute/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	discussions *service.DiscussionService
	feed        *service.FeedService
}

func NewCommunityHandler(discussions *service.DiscussionService, feed *service.FeedService) *CommunityHandler {
	return &CommunityHandler{discussions: discussions, feed: feed}
}

func (h *CommunityHandler) List(c *gin.Context) {
	page := h.feed.Community(c.Query("category"), c.Query("page"))
	render(c, http.StatusOK, "community.html", gin.H{"Community": page, "Page": page.Page, "Query": c.Request.URL.Query()})
}

// Create posts a new discussion. Both outcomes return to the listing.
func (h *CommunityHandler) Create(c *gin.Context) {
	var form DiscussionForm
	if err := bindForm(c, &form); err != nil {
		middleware.Flash(c, middleware.LevelError, "Please fill in all required fields.")
		c.Redirect(http.StatusFound, "/community/")
		return
	}
	_, err := h.discussions.Create(middleware.GetUserID(c), service.DiscussionInput{
		Title:    form.Title,
		Content:  form.Content,
		Category: form.Category,
	})
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.Flash(c, middleware.LevelError, "Please fill in all required fields.")
	case err != nil:
		serverError(c, "community", err)
		return
	default:
		middleware.Flash(c, middleware.LevelSuccess, "Discussion post created successfully!")
	}
	c.Redirect(http.StatusFound, "/community/")
}

func (h *CommunityHandler) Detail(c *gin.Context) {
	h.renderThread(c, http.StatusOK, nil, nil)
}

func (h *CommunityHandler) renderThread(c *gin.Context, status int, form, errs map[string]string) {
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	d, replies, err := h.discussions.Thread(id)
	if isNotFound(err) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, "community", err)
		return
	}
	data := gin.H{"Discussion": d, "Replies": replies}
	if form != nil {
		data["Form"] = form
	}
	if errs != nil {
		data["Errors"] = errs
	}
	render(c, status, "discussion_detail.html", data)
}

func (h *CommunityHandler) Reply(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	values := formValues(c, "reply_content")
	var form ReplyForm
	err := bindForm(c, &form)
	if err == nil {
		_, err = h.discussions.Reply(id, middleware.GetUserID(c), form.Content)
	}
	var verr *service.ValidationError
	switch {
	case isNotFound(err):
		notFound(c)
	case errors.As(err, &verr):
		h.renderThread(c, http.StatusBadRequest, values, verr.Fields)
	case err != nil:
		serverError(c, "community", err)
	default:
		middleware.Flash(c, middleware.LevelSuccess, "Reply posted successfully!")
		c.Redirect(http.StatusFound, "/community/"+itoa(id)+"/")
	}
}
