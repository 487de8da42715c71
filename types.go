package goAuthClient

import "time"

// Role is a user's authorization role on the backend.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Credentials are what Login submits.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is what Register submits.
type Registration struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	BirthDate       string `json:"birthDate"`
	Bio             string `json:"bio,omitempty"`
}

// MartialArt is one discipline on a user's profile.
type MartialArt struct {
	MartialArt    string `json:"martialArt"`
	MartialLevel  string `json:"martialLevel"`
	BeltLevel     string `json:"beltLevel,omitempty"`
	YearsPractice int    `json:"yearsPractice,omitempty"`
}

// SocialLinks are optional profile links.
type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	Website   string `json:"website,omitempty"`
}

// Profile is the user record returned by users/profile.
type Profile struct {
	ID             string       `json:"id"`
	Email          string       `json:"email"`
	Username       string       `json:"username"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	FullName       string       `json:"fullName,omitempty"`
	Bio            string       `json:"bio,omitempty"`
	ProfileImage   string       `json:"profileImage,omitempty"`
	Role           Role         `json:"role"`
	MartialArts    []MartialArt `json:"martialArts,omitempty"`
	SocialLinks    *SocialLinks `json:"socialLinks,omitempty"`
	FollowersCount int          `json:"followersCount"`
	FollowingCount int          `json:"followingCount"`
	PostsCount     int          `json:"postsCount"`
	IsActive       bool         `json:"isActive"`
	IsVerified     bool         `json:"isVerified"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// IsAdmin reports whether the profile has the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

func (p *Profile) clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	if p.MartialArts != nil {
		out.MartialArts = append([]MartialArt(nil), p.MartialArts...)
	}
	if p.SocialLinks != nil {
		links := *p.SocialLinks
		out.SocialLinks = &links
	}
	return &out
}

// ProfileUpdate is a partial profile change. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName    *string      `json:"firstName,omitempty"`
	LastName     *string      `json:"lastName,omitempty"`
	Bio          *string      `json:"bio,omitempty"`
	ProfileImage *string      `json:"profileImage,omitempty"`
	MartialArts  []MartialArt `json:"martialArts,omitempty"`
	SocialLinks  *SocialLinks `json:"socialLinks,omitempty"`
}

// authPayload is the data of a login or refresh envelope.
type authPayload struct {
	User *Profile `json:"user,omitempty"`
	// ExpiresIn is the access lifetime in seconds; zero when not reported.
	ExpiresIn int64 `json:"expiresIn,omitempty"`
}

// Author is the embedded author summary on posts and comments.
type Author struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Post is one feed entry.
type Post struct {
	ID             string    `json:"id"`
	Author         Author    `json:"author"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Image          string    `json:"image,omitempty"`
	Type           string    `json:"type"`
	LikesCount     int       `json:"likesCount"`
	CommentsCount  int       `json:"commentsCount"`
	RepostsCount   int       `json:"repostsCount"`
	IsLikedByMe    bool      `json:"isLikedByMe"`
	IsRepostedByMe bool      `json:"isRepostedByMe"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SortBy orders the feed.
type SortBy string

const (
	SortByDate  SortBy = "date"
	SortByLikes SortBy = "likes"
)

// PostQuery selects a feed page. Zero values use the backend defaults.
type PostQuery struct {
	Page   int
	Limit  int
	SortBy SortBy
	UserID string
}

// NewPost is what CreatePost submits.
type NewPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	NextPage   bool `json:"nextPage"`
	PrevPage   bool `json:"prevPage"`
}

// PostPage is one page of the feed.
type PostPage struct {
	Data []Post   `json:"data"`
	Meta PageMeta `json:"meta"`
}

// Comment is one comment on a post.
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	Author     Author    `json:"author"`
	Content    string    `json:"content"`
	IsModified bool      `json:"isModified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CommentPage is one page of comments.
type CommentPage struct {
	Data []Comment `json:"data"`
	Meta PageMeta  `json:"meta"`
}

// NewComment is what CreateComment submits.
type NewComment struct {
	Content string `json:"content"`
}

// DateRange bounds an analytics query. Empty bounds are open.
type DateRange struct {
	Start string
	End   string
}

// ChartPoint is one labelled analytics value.
type ChartPoint struct {
	Label string
	Value int
}

// Message is the data of endpoints that only confirm an action.
type Message struct {
	Message string `json:"message"`
}

// LikeResult is the data of the like and unlike endpoints.
type LikeResult struct {
	Message    string `json:"message"`
	LikesCount int    `json:"likesCount"`
}

// CommentUpdate is what UpdateComment submits.
type CommentUpdate struct {
	Content string `json:"content"`
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Data []Profile `json:"data"`
	Meta PageMeta  `json:"meta"`
}
