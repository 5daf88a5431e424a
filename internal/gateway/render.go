package gateway

import (
	"time"

	"github.com/samber/lo"

	"yallapost/internal/flows"
	"yallapost/internal/timefmt"
	"yallapost/pkg/yalla"
)

// commentView and postView carry the display fields next to the payload.
type commentView struct {
	*yalla.Comment

	Age       string `json:"age"`
	CanModify bool   `json:"canModify"`
}

type postView struct {
	*yalla.Post

	Age       string        `json:"age"`
	CanModify bool          `json:"canModify"`
	Comments  []commentView `json:"comments"`
}

type pageView struct {
	Posts      []postView           `json:"posts"`
	Pagination yalla.PaginationInfo `json:"pagination"`
	HasNext    bool                 `json:"hasNext"`
}

func renderPost(post *yalla.Post, user *yalla.User, now time.Time) postView {
	return postView{
		Post:      post,
		Age:       timefmt.Relative(now, post.CreatedAt),
		CanModify: flows.CanModify(user, post.User.ID),
		Comments: lo.Map(post.Comments, func(c *yalla.Comment, _ int) commentView {
			return commentView{
				Comment:   c,
				Age:       timefmt.Relative(now, c.CreatedAt),
				CanModify: flows.CanModify(user, c.Creator.ID),
			}
		}),
	}
}

func renderPage(page *yalla.PostPage, user *yalla.User, now time.Time) pageView {
	return pageView{
		Posts: lo.Map(page.Posts, func(p *yalla.Post, _ int) postView {
			return renderPost(p, user, now)
		}),
		Pagination: page.Pagination,
		HasNext:    page.HasNext(),
	}
}
