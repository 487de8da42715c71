// Package devserver is an in-process stand-in for the social-network API. It
// speaks the same envelope and cookie protocol as the real backend and lets
// tests force the session edge cases: expired access tokens, revoked refresh
// tokens, slow refreshes and failing logouts.
package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MrEthical07/goAuthClient/internal/rate"
	"github.com/MrEthical07/goAuthClient/jwt"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Config configures a Server.
type Config struct {
	// Prefix is the mount point of the API, "/api" when empty.
	Prefix    string
	AccessTTL time.Duration
	Secret    []byte
	// Limiter throttles failed logins per email. Nil disables throttling.
	Limiter *rate.Limiter
}

// User is an account known to the server.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Bio       string    `json:"bio,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	passwordHash string
}

type author struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type post struct {
	ID            string    `json:"id"`
	Author        author    `json:"author"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Type          string    `json:"type"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	IsLikedByMe   bool      `json:"isLikedByMe"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	likes map[string]struct{}
}

type comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	Author     author    `json:"author"`
	Content    string    `json:"content"`
	IsModified bool      `json:"isModified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type pageMeta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	NextPage   bool `json:"nextPage"`
	PrevPage   bool `json:"prevPage"`
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	cfg    Config
	tokens *jwt.Manager
	router chi.Router

	mu       sync.Mutex
	users    map[string]*User // by id
	live     map[string]string
	refresh  map[string]string
	posts    []*post
	comments map[string][]*comment
	gate     <-chan struct{}

	refreshCalls  atomic.Int64
	logoutCalls   atomic.Int64
	failLogout    atomic.Bool
	omitExpiresIn atomic.Bool
}

// New returns a Server with no users.
func New(cfg Config) (*Server, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "/api"
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = []byte(uuid.NewString())
	}
	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.AccessTTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    cfg.Secret,
		Issuer:        "devserver",
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		tokens:   tokens,
		users:    make(map[string]*User),
		live:     make(map[string]string),
		refresh:  make(map[string]string),
		comments: make(map[string][]*comment),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route(s.cfg.Prefix, func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/users/profile", s.handleGetProfile)
			r.Put("/users/profile", s.handleUpdateProfile)

			r.Get("/posts", s.handleListPosts)
			r.Post("/posts", s.handleCreatePost)
			r.Get("/posts/{id}", s.handleGetPost)
			r.Delete("/posts/{id}", s.handleDeletePost)
			r.Post("/posts/{id}/likes", s.handleLike)
			r.Delete("/posts/{id}/likes", s.handleUnlike)
			r.Get("/posts/{id}/comments", s.handleListComments)
			r.Post("/posts/{id}/comments", s.handleCreateComment)
			r.Put("/posts/{id}/comments/{commentID}", s.handleUpdateComment)
			r.Delete("/posts/{id}/comments/{commentID}", s.handleDeleteComment)

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/users", s.handleListUsers)
				r.Post("/users", s.handleRegister)
				r.Delete("/users/{id}", s.handleDeactivate)
				r.Post("/users/{id}/active", s.handleActivate)
				r.Get("/analytics/posts-per-user", s.handlePostsPerUser)
				r.Get("/analytics/comments-by-range", s.handleCommentsByRange)
				r.Get("/analytics/comments-per-post", s.handleCommentsPerPost)
			})
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

/*
====================================
TEST HOOKS
====================================
*/

// AddUser registers u, assigning an ID when empty. The password is stored
// only as an argon2id hash.
func (s *Server) AddUser(u User) User {
	hash, err := hashPassword(u.Password, defaultHashParams)
	if err != nil {
		panic("devserver: hash password: " + err.Error())
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = "user"
	}
	now := time.Now().UTC()
	u.Password, u.passwordHash = "", hash
	u.IsActive = true
	u.CreatedAt, u.UpdatedAt = now, now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
	return u
}

// ExpireAccessTokens revokes every issued access token. The next
// authenticated request fails with 401 until the client refreshes.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.live)
}

// InvalidateRefresh revokes every refresh token, so the next refresh fails.
func (s *Server) InvalidateRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.refresh)
}

// SetRefreshGate makes every refresh wait until gate is closed or yields.
// A nil gate removes the wait.
func (s *Server) SetRefreshGate(gate <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = gate
}

// RefreshCalls returns how many refresh requests reached the server.
func (s *Server) RefreshCalls() int64 { return s.refreshCalls.Load() }

// LogoutCalls returns how many logout requests reached the server.
func (s *Server) LogoutCalls() int64 { return s.logoutCalls.Load() }

// FailLogout makes logout answer 500 while fail is true.
func (s *Server) FailLogout(fail bool) { s.failLogout.Store(fail) }

// OmitExpiresIn drops expiresIn from login and refresh responses, so the
// client has to fall back to the token's exp claim.
func (s *Server) OmitExpiresIn(omit bool) { s.omitExpiresIn.Store(omit) }

/*
====================================
ENVELOPE
====================================
*/

type envelope struct {
	Data       any    `json:"data"`
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	Success    bool   `json:"success"`
	Error      any    `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, r, envelope{Data: data, StatusCode: status, Success: true})
}

// writeError answers with msg as the error field. More than one message is
// sent as an array, one as a plain string.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgs ...string) {
	var field any = msgs
	if len(msgs) == 1 {
		field = msgs[0]
	}
	writeEnvelope(w, r, envelope{StatusCode: status, Error: field})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, env envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	env.Path = r.URL.Path
	env.Method = r.Method
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	_ = json.NewEncoder(w).Encode(env)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}

/*
====================================
AUTH
====================================
*/

type userKey struct{}

func currentUser(r *http.Request) *User {
	u, _ := r.Context().Value(userKey{}).(*User)
	return u
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(AccessCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claims, err := s.tokens.ParseAccess(cookie.Value)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		s.mu.Lock()
		uid, live := s.live[cookie.Value]
		u := s.users[claims.UID]
		s.mu.Unlock()
		if !live || uid != claims.UID || u == nil || !u.IsActive {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := currentUser(r); u == nil || u.Role != "admin" {
			writeError(w, r, http.StatusForbidden, "Forbidden resource")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// issue signs a new access token and rotates the refresh token for uid.
func (s *Server) issue(w http.ResponseWriter, uid string) error {
	access, expiresAt, err := s.tokens.CreateAccess(uid, uuid.NewString(), time.Now())
	if err != nil {
		return err
	}
	refresh := uuid.NewString()

	s.mu.Lock()
	s.live[access] = uid
	s.refresh[refresh] = uid
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: AccessCookie, Value: access, Path: "/", Expires: expiresAt, HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Value: refresh, Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true})
	return nil
}

func (s *Server) expiresIn() any {
	if s.omitExpiresIn.Load() {
		return nil
	}
	return int64(s.cfg.AccessTTL / time.Second)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email should not be empty", "password should not be empty")
		return
	}

	s.mu.Lock()
	var found *User
	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) {
			cp := *u
			found = &cp
			break
		}
	}
	s.mu.Unlock()

	limiter := s.cfg.Limiter
	if limiter != nil {
		if err := limiter.CheckLogin(r.Context(), req.Email); err != nil {
			writeError(w, r, http.StatusTooManyRequests, "Too many login attempts")
			return
		}
	}
	ok := false
	if found != nil && found.IsActive {
		ok, _ = verifyPassword(req.Password, found.passwordHash)
	}
	if !ok {
		if limiter != nil {
			_ = limiter.RecordFailure(r.Context(), req.Email)
		}
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if limiter != nil {
		_ = limiter.ResetLogin(r.Context(), req.Email)
	}

	if err := s.issue(w, found.ID); err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	data := map[string]any{"user": found}
	if v := s.expiresIn(); v != nil {
		data["expiresIn"] = v
	}
	writeData(w, r, http.StatusOK, data)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Bio       string `json:"bio"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}
	var problems []string
	if req.Email == "" {
		problems = append(problems, "email should not be empty")
	}
	if len(req.Password) < 6 {
		problems = append(problems, "password must be longer than or equal to 6 characters")
	}
	if req.Username == "" {
		problems = append(problems, "username should not be empty")
	}
	if len(problems) > 0 {
		writeError(w, r, http.StatusBadRequest, problems...)
		return
	}

	s.mu.Lock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) {
			s.mu.Unlock()
			writeError(w, r, http.StatusConflict, "Email already registered")
			return
		}
	}
	s.mu.Unlock()

	u := s.AddUser(User{
		Email:     req.Email,
		Password:  req.Password,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
	writeData(w, r, http.StatusCreated, u)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	cookie, err := r.Cookie(RefreshCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, r, http.StatusUnauthorized, "Refresh token missing")
		return
	}
	s.mu.Lock()
	uid, ok := s.refresh[cookie.Value]
	delete(s.refresh, cookie.Value)
	s.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	if err := s.issue(w, uid); err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	data := map[string]any{"message": "Token refreshed"}
	if v := s.expiresIn(); v != nil {
		data["expiresIn"] = v
	}
	writeData(w, r, http.StatusOK, data)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.logoutCalls.Add(1)
	if s.failLogout.Load() {
		writeError(w, r, http.StatusInternalServerError, "logout failed")
		return
	}
	s.mu.Lock()
	if c, err := r.Cookie(AccessCookie); err == nil {
		delete(s.live, c.Value)
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		delete(s.refresh, c.Value)
	}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: AccessCookie, Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Path: "/", MaxAge: -1})
	writeData(w, r, http.StatusOK, map[string]string{"message": "Logged out"})
}

/*
====================================
PROFILE
====================================
*/

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.mu.Lock()
	out := *u
	s.mu.Unlock()
	writeData(w, r, http.StatusOK, out)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Bio       *string `json:"bio"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}
	u := currentUser(r)
	s.mu.Lock()
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	u.UpdatedAt = time.Now().UTC()
	out := *u
	s.mu.Unlock()
	writeData(w, r, http.StatusOK, out)
}

/*
====================================
POSTS AND COMMENTS
====================================
*/

func pagination(r *http.Request, defLimit int) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) ([]T, pageMeta) {
	total := len(items)
	pages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], pageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: pages,
		NextPage:   page < pages,
		PrevPage:   page > 1,
	}
}

func authorOf(u *User) author {
	return author{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}

func (s *Server) findPost(id string) (*post, int) {
	for i, p := range s.posts {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

func (s *Server) view(p *post, viewer *User) post {
	out := *p
	_, out.IsLikedByMe = p.likes[viewer.ID]
	out.LikesCount = len(p.likes)
	out.CommentsCount = len(s.comments[p.ID])
	return out
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r, 10)
	userID := r.URL.Query().Get("userId")
	viewer := currentUser(r)

	s.mu.Lock()
	views := make([]post, 0, len(s.posts))
	for _, p := range s.posts {
		if userID != "" && p.Author.ID != userID {
			continue
		}
		views = append(views, s.view(p, viewer))
	}
	s.mu.Unlock()

	if r.URL.Query().Get("sortBy") == "likes" {
		sort.SliceStable(views, func(i, j int) bool { return views[i].LikesCount > views[j].LikesCount })
	} else {
		sort.SliceStable(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })
	}
	data, meta := paginate(views, page, limit)
	writeData(w, r, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Type    string `json:"type"`
	}
	if err := decodeBody(r, &req); err != nil || req.Title == "" || req.Content == "" {
		writeError(w, r, http.StatusBadRequest, "title should not be empty", "content should not be empty")
		return
	}
	if req.Type == "" {
		req.Type = "general"
	}
	u := currentUser(r)
	now := time.Now().UTC()
	p := &post{
		ID:        uuid.NewString(),
		Author:    authorOf(u),
		Title:     req.Title,
		Content:   req.Content,
		Type:      req.Type,
		CreatedAt: now,
		UpdatedAt: now,
		likes:     make(map[string]struct{}),
	}
	s.mu.Lock()
	s.posts = append(s.posts, p)
	out := s.view(p, u)
	s.mu.Unlock()
	writeData(w, r, http.StatusCreated, out)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _ := s.findPost(chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, r, http.StatusNotFound, "Post not found")
		return
	}
	writeData(w, r, http.StatusOK, s.view(p, currentUser(r)))
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, i := s.findPost(chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, r, http.StatusNotFound, "Post not found")
		return
	}
	if p.Author.ID != u.ID && u.Role != "admin" {
		writeError(w, r, http.StatusForbidden, "You can only delete your own posts")
		return
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	delete(s.comments, p.ID)
	writeData(w, r, http.StatusOK, map[string]string{"message": "Post deleted"})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	s.toggleLike(w, r, true)
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request) {
	s.toggleLike(w, r, false)
}

func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request, like bool) {
	u := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _ := s.findPost(chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, r, http.StatusNotFound, "Post not found")
		return
	}
	_, liked := p.likes[u.ID]
	switch {
	case like && liked:
		writeError(w, r, http.StatusConflict, "Post already liked")
		return
	case !like && !liked:
		writeError(w, r, http.StatusConflict, "Post not liked")
		return
	case like:
		p.likes[u.ID] = struct{}{}
	default:
		delete(p.likes, u.ID)
	}
	msg := "Post liked"
	if !like {
		msg = "Post unliked"
	}
	writeData(w, r, http.StatusOK, map[string]any{"message": msg, "likesCount": len(p.likes)})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r, 5)
	s.mu.Lock()
	p, _ := s.findPost(chi.URLParam(r, "id"))
	if p == nil {
		s.mu.Unlock()
		writeError(w, r, http.StatusNotFound, "Post not found")
		return
	}
	all := make([]comment, 0, len(s.comments[p.ID]))
	for _, c := range s.comments[p.ID] {
		all = append(all, *c)
	}
	s.mu.Unlock()
	data, meta := paginate(all, page, limit)
	writeData(w, r, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, "content should not be empty")
		return
	}
	u := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _ := s.findPost(chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, r, http.StatusNotFound, "Post not found")
		return
	}
	now := time.Now().UTC()
	c := &comment{
		ID:        uuid.NewString(),
		PostID:    p.ID,
		Author:    authorOf(u),
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.comments[p.ID] = append(s.comments[p.ID], c)
	writeData(w, r, http.StatusCreated, *c)
}

func (s *Server) findComment(r *http.Request) (*comment, int) {
	postID, commentID := chi.URLParam(r, "id"), chi.URLParam(r, "commentID")
	for i, c := range s.comments[postID] {
		if c.ID == commentID {
			return c, i
		}
	}
	return nil, -1
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, "content should not be empty")
		return
	}
	u := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := s.findComment(r)
	if c == nil {
		writeError(w, r, http.StatusNotFound, "Comment not found")
		return
	}
	if c.Author.ID != u.ID {
		writeError(w, r, http.StatusForbidden, "You can only edit your own comments")
		return
	}
	c.Content = req.Content
	c.IsModified = true
	c.UpdatedAt = time.Now().UTC()
	writeData(w, r, http.StatusOK, *c)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, i := s.findComment(r)
	if c == nil {
		writeError(w, r, http.StatusNotFound, "Comment not found")
		return
	}
	if c.Author.ID != u.ID && u.Role != "admin" {
		writeError(w, r, http.StatusForbidden, "You can only delete your own comments")
		return
	}
	list := s.comments[c.PostID]
	s.comments[c.PostID] = append(list[:i], list[i+1:]...)
	writeData(w, r, http.StatusOK, map[string]string{"message": "Comment deleted"})
}

/*
====================================
ADMIN
====================================
*/

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r, 10)
	s.mu.Lock()
	all := make([]User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *u)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	data, meta := paginate(all, page, limit)
	writeData(w, r, http.StatusOK, map[string]any{"data": data, "meta": meta})
}

func (s *Server) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	s.mu.Lock()
	u, ok := s.users[chi.URLParam(r, "id")]
	if ok {
		u.IsActive = active
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "User not found")
		return
	}
	writeData(w, r, http.StatusOK, map[string]string{"message": "User updated"})
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) { s.setActive(w, r, false) }

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) { s.setActive(w, r, true) }

// inRange reports whether t falls within the startDate/endDate query bounds,
// given as YYYY-MM-DD. Unparseable bounds are ignored.
func inRange(r *http.Request, t time.Time) bool {
	q := r.URL.Query()
	if start, err := time.Parse(time.DateOnly, q.Get("startDate")); err == nil && t.Before(start) {
		return false
	}
	if end, err := time.Parse(time.DateOnly, q.Get("endDate")); err == nil && !t.Before(end.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func (s *Server) handlePostsPerUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	counts := make(map[string]int)
	for _, p := range s.posts {
		if inRange(r, p.CreatedAt) {
			counts[p.Author.Username]++
		}
	}
	s.mu.Unlock()

	rows := make([]map[string]any, 0, len(counts))
	for name, n := range counts {
		rows = append(rows, map[string]any{"username": name, "totalPosts": n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i]["username"].(string) < rows[j]["username"].(string) })
	writeData(w, r, http.StatusOK, rows)
}

func (s *Server) handleCommentsByRange(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	total := 0
	for _, list := range s.comments {
		for _, c := range list {
			if inRange(r, c.CreatedAt) {
				total++
			}
		}
	}
	s.mu.Unlock()
	writeData(w, r, http.StatusOK, map[string]int{"totalComments": total})
}

func (s *Server) handleCommentsPerPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rows := make([]map[string]any, 0, len(s.posts))
	for _, p := range s.posts {
		n := 0
		for _, c := range s.comments[p.ID] {
			if inRange(r, c.CreatedAt) {
				n++
			}
		}
		rows = append(rows, map[string]any{"postTitle": p.Title, "totalComments": n})
	}
	s.mu.Unlock()
	writeData(w, r, http.StatusOK, rows)
}
