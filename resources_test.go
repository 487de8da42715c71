package goAuthClient

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestPostsLikesAndComments(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	ctx := context.Background()

	post, err := env.client.CreatePost(ctx, NewPost{Title: "Roll", Content: "Open mat tonight"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Author.Username != "ana" || post.Type != "general" {
		t.Fatalf("unexpected post %+v", post)
	}

	liked, err := env.client.LikePost(ctx, post.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if liked.LikesCount != 1 {
		t.Fatalf("expected one like, got %d", liked.LikesCount)
	}
	if _, err := env.client.LikePost(ctx, post.ID); KindOf(err) != KindValidation {
		t.Fatalf("expected a conflict to be a validation error, got %v", err)
	}

	got, err := env.client.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if !got.IsLikedByMe {
		t.Fatal("expected post liked by viewer")
	}

	comment, err := env.client.CreateComment(ctx, post.ID, NewComment{Content: "See you there"})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	edited, err := env.client.UpdateComment(ctx, post.ID, comment.ID, CommentUpdate{Content: "Running late"})
	if err != nil {
		t.Fatalf("update comment: %v", err)
	}
	if !edited.IsModified || edited.Content != "Running late" {
		t.Fatalf("unexpected edit %+v", edited)
	}

	page, err := env.client.ListComments(ctx, post.ID, 1, 5)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(page.Data) != 1 || page.Meta.Total != 1 {
		t.Fatalf("unexpected comment page %+v", page.Meta)
	}

	if _, err := env.client.DeleteComment(ctx, post.ID, comment.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if _, err := env.client.UnlikePost(ctx, post.ID); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	msg, err := env.client.DeletePost(ctx, post.ID)
	if err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if msg.Message != "Post deleted" {
		t.Fatalf("unexpected message %q", msg.Message)
	}

	_, err = env.client.GetPost(ctx, post.ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", err)
	}
	if got := env.client.Message(err).Message; got != "The requested resource was not found." {
		t.Fatalf("unexpected not found copy %q", got)
	}
}

func TestListPostsSortsAndFilters(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	ctx := context.Background()

	first, err := env.client.CreatePost(ctx, NewPost{Title: "one", Content: "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.client.CreatePost(ctx, NewPost{Title: "two", Content: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.client.LikePost(ctx, first.ID); err != nil {
		t.Fatalf("like: %v", err)
	}

	page, err := env.client.ListPosts(ctx, PostQuery{SortBy: SortByLikes, Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != first.ID {
		t.Fatalf("expected most liked first, got %+v", page.Data)
	}
	if !page.Meta.NextPage || page.Meta.TotalPages != 2 {
		t.Fatalf("unexpected meta %+v", page.Meta)
	}

	mine, err := env.client.ListPosts(ctx, PostQuery{UserID: env.user.ID})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if mine.Meta.Total != 2 {
		t.Fatalf("expected two posts by user, got %d", mine.Meta.Total)
	}
}

func TestResourceIDsAreValidated(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	for _, id := range []string{"", "a/b"} {
		_, err := env.client.GetPost(context.Background(), id)
		if KindOf(err) != KindValidation {
			t.Fatalf("id %q: expected validation error, got %v", id, err)
		}
	}
}

func TestAnalyticsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	_, err := env.client.CommentsByRange(context.Background(), DateRange{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if KindOf(err) != KindServer {
		t.Fatalf("a forbidden resource must not look like an auth failure, got %v", KindOf(err))
	}
	if got := env.client.Message(err).Message; got != "You do not have permission to do that." {
		t.Fatalf("unexpected forbidden copy %q", got)
	}
	if env.server.RefreshCalls() != 0 {
		t.Fatal("403 must not trigger a refresh")
	}
}

func TestAdminAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login()
	post, err := env.client.CreatePost(ctx, NewPost{Title: "Seminar", Content: "Sunday"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, text := range []string{"in", "me too"} {
		if _, err := env.client.CreateComment(ctx, post.ID, NewComment{Content: text}); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}

	admin := env.newClient()
	if _, err := admin.Login(ctx, Credentials{Email: adminEmail, Password: testPassword}); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if !admin.Session().Profile.IsAdmin() {
		t.Fatal("expected admin profile")
	}

	today := time.Now().UTC().Format(time.DateOnly)
	r := DateRange{Start: today, End: today}

	perUser, err := admin.PostsPerUser(ctx, r)
	if err != nil {
		t.Fatalf("posts per user: %v", err)
	}
	if len(perUser) != 1 || perUser[0] != (ChartPoint{Label: "ana", Value: 1}) {
		t.Fatalf("unexpected posts per user %+v", perUser)
	}

	total, err := admin.CommentsByRange(ctx, r)
	if err != nil {
		t.Fatalf("comments by range: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected two comments, got %d", total)
	}

	perPost, err := admin.CommentsPerPost(ctx, r)
	if err != nil {
		t.Fatalf("comments per post: %v", err)
	}
	if len(perPost) != 1 || perPost[0] != (ChartPoint{Label: "Seminar", Value: 2}) {
		t.Fatalf("unexpected comments per post %+v", perPost)
	}

	past, err := admin.CommentsByRange(ctx, DateRange{End: "2000-01-01"})
	if err != nil {
		t.Fatalf("comments before 2000: %v", err)
	}
	if past != 0 {
		t.Fatalf("expected no comments before 2000, got %d", past)
	}
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.client.Login(ctx, Credentials{Email: adminEmail, Password: testPassword}); err != nil {
		t.Fatalf("admin login: %v", err)
	}

	created, err := env.client.CreateUser(ctx, Registration{Email: "new@example.com", Password: "secret1", Username: "newbie"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := env.client.SetUserActive(ctx, created.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	page, err := env.client.ListUsers(ctx, 1, 10)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if page.Meta.Total != 3 {
		t.Fatalf("expected three users, got %d", page.Meta.Total)
	}
	for _, u := range page.Data {
		if u.ID == created.ID && u.IsActive {
			t.Fatal("expected user deactivated")
		}
	}

	if err := env.client.SetUserActive(ctx, "missing", true); KindOf(err) != KindServer {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRangeQueryUsesDateParams(t *testing.T) {
	cases := []struct {
		name string
		in   DateRange
		want string
	}{
		{name: "empty", in: DateRange{}, want: ""},
		{name: "start only", in: DateRange{Start: "2024-01-02"}, want: "startDate=2024-01-02"},
		{name: "both", in: DateRange{Start: "2024-01-02", End: "2024-02-03"}, want: "endDate=2024-02-03&startDate=2024-01-02"},
	}
	for _, tc := range cases {
		if got := rangeQuery(tc.in).Encode(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
