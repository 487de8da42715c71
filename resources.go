package goAuthClient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	postsPath          = "posts"
	adminUsersPath     = "admin/users"
	adminAnalyticsPath = "admin/analytics"
)

func resourcePath(parts ...string) (string, error) {
	for _, p := range parts {
		if p == "" || strings.Contains(p, "/") {
			return "", &APIError{Kind: KindValidation, Message: "invalid resource id " + strconv.Quote(p), Err: ErrValidation}
		}
	}
	return strings.Join(parts, "/"), nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func rangeQuery(r DateRange) url.Values {
	q := url.Values{}
	if r.Start != "" {
		q.Set("startDate", r.Start)
	}
	if r.End != "" {
		q.Set("endDate", r.End)
	}
	return q
}

/*
====================================
POSTS
====================================
*/

// ListPosts returns one page of the feed.
func (c *Client) ListPosts(ctx context.Context, q PostQuery) (*PostPage, error) {
	query := pageQuery(q.Page, q.Limit)
	if q.SortBy != "" {
		query.Set("sortBy", string(q.SortBy))
	}
	if q.UserID != "" {
		query.Set("userId", q.UserID)
	}
	env, err := Do[PostPage](ctx, c, http.MethodGet, postsPath, query, nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	p, err := resourcePath(postsPath, id)
	if err != nil {
		return nil, err
	}
	env, err := Do[Post](ctx, c, http.MethodGet, p, nil, nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) CreatePost(ctx context.Context, post NewPost) (*Post, error) {
	env, err := Do[Post](ctx, c, http.MethodPost, postsPath, nil, post)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) (Message, error) {
	p, err := resourcePath(postsPath, id)
	if err != nil {
		return Message{}, err
	}
	env, err := Do[Message](ctx, c, http.MethodDelete, p, nil, nil)
	if err != nil {
		return Message{}, err
	}
	return env.Data, nil
}

func (c *Client) LikePost(ctx context.Context, id string) (LikeResult, error) {
	return c.like(ctx, http.MethodPost, id)
}

func (c *Client) UnlikePost(ctx context.Context, id string) (LikeResult, error) {
	return c.like(ctx, http.MethodDelete, id)
}

func (c *Client) like(ctx context.Context, method, id string) (LikeResult, error) {
	p, err := resourcePath(postsPath, id, "likes")
	if err != nil {
		return LikeResult{}, err
	}
	var body any
	if method == http.MethodPost {
		body = struct{}{}
	}
	env, err := Do[LikeResult](ctx, c, method, p, nil, body)
	if err != nil {
		return LikeResult{}, err
	}
	return env.Data, nil
}

/*
====================================
COMMENTS
====================================
*/

// ListComments returns one page of the comments on postID.
func (c *Client) ListComments(ctx context.Context, postID string, page, limit int) (*CommentPage, error) {
	p, err := resourcePath(postsPath, postID, "comments")
	if err != nil {
		return nil, err
	}
	env, err := Do[CommentPage](ctx, c, http.MethodGet, p, pageQuery(page, limit), nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) CreateComment(ctx context.Context, postID string, comment NewComment) (*Comment, error) {
	p, err := resourcePath(postsPath, postID, "comments")
	if err != nil {
		return nil, err
	}
	env, err := Do[Comment](ctx, c, http.MethodPost, p, nil, comment)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) UpdateComment(ctx context.Context, postID, commentID string, update CommentUpdate) (*Comment, error) {
	p, err := resourcePath(postsPath, postID, "comments", commentID)
	if err != nil {
		return nil, err
	}
	env, err := Do[Comment](ctx, c, http.MethodPut, p, nil, update)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) (Message, error) {
	p, err := resourcePath(postsPath, postID, "comments", commentID)
	if err != nil {
		return Message{}, err
	}
	env, err := Do[Message](ctx, c, http.MethodDelete, p, nil, nil)
	if err != nil {
		return Message{}, err
	}
	return env.Data, nil
}

/*
====================================
ADMIN
====================================
*/

// ListUsers returns one page of accounts. Admin only.
func (c *Client) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	env, err := Do[UserPage](ctx, c, http.MethodGet, adminUsersPath, pageQuery(page, limit), nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// CreateUser registers an account on someone else's behalf. Admin only.
func (c *Client) CreateUser(ctx context.Context, reg Registration) (*Profile, error) {
	env, err := Do[Profile](ctx, c, http.MethodPost, adminUsersPath, nil, reg)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// SetUserActive deactivates or reactivates userID. Admin only.
func (c *Client) SetUserActive(ctx context.Context, userID string, active bool) error {
	if !active {
		p, err := resourcePath(adminUsersPath, userID)
		if err != nil {
			return err
		}
		_, err = Do[Message](ctx, c, http.MethodDelete, p, nil, nil)
		return err
	}
	p, err := resourcePath(adminUsersPath, userID, "active")
	if err != nil {
		return err
	}
	_, err = Do[Message](ctx, c, http.MethodPost, p, nil, struct{}{})
	return err
}

type postsPerUserRow struct {
	Username   string `json:"username"`
	TotalPosts int    `json:"totalPosts"`
}

type commentsPerPostRow struct {
	PostTitle     string `json:"postTitle"`
	TotalComments int    `json:"totalComments"`
}

type commentsTotal struct {
	TotalComments int `json:"totalComments"`
}

// PostsPerUser returns post counts per author within r.
func (c *Client) PostsPerUser(ctx context.Context, r DateRange) ([]ChartPoint, error) {
	env, err := Do[[]postsPerUserRow](ctx, c, http.MethodGet, adminAnalyticsPath+"/posts-per-user", rangeQuery(r), nil)
	if err != nil {
		return nil, err
	}
	points := make([]ChartPoint, 0, len(env.Data))
	for _, row := range env.Data {
		label := row.Username
		if label == "" {
			label = "user"
		}
		points = append(points, ChartPoint{Label: label, Value: row.TotalPosts})
	}
	return points, nil
}

// CommentsByRange returns how many comments were written within r.
func (c *Client) CommentsByRange(ctx context.Context, r DateRange) (int, error) {
	env, err := Do[commentsTotal](ctx, c, http.MethodGet, adminAnalyticsPath+"/comments-by-range", rangeQuery(r), nil)
	if err != nil {
		return 0, err
	}
	return env.Data.TotalComments, nil
}

// CommentsPerPost returns comment counts per post within r.
func (c *Client) CommentsPerPost(ctx context.Context, r DateRange) ([]ChartPoint, error) {
	env, err := Do[[]commentsPerPostRow](ctx, c, http.MethodGet, adminAnalyticsPath+"/comments-per-post", rangeQuery(r), nil)
	if err != nil {
		return nil, err
	}
	points := make([]ChartPoint, 0, len(env.Data))
	for _, row := range env.Data {
		label := row.PostTitle
		if label == "" {
			label = "untitled"
		}
		points = append(points, ChartPoint{Label: label, Value: row.TotalComments})
	}
	return points, nil
}
