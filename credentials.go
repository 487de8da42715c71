package goAuthClient

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/MrEthical07/goAuthClient/session"
)

// credentials owns the cookie jar holding the access and refresh cookies.
// It attaches cookies per attempt so a retried request picks up the cookies
// a refresh just stored.
//
// gen advances when the jar is reset or a new session is established. A
// response only stores cookies if gen is unchanged since its request was
// sent, so a request that outlives a logout cannot bring credentials back.
type credentials struct {
	base       *url.URL
	accessName string

	mu  sync.RWMutex
	jar *cookiejar.Jar
	gen uint64
}

func newCookieJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

func newCredentials(base *url.URL, accessName string) (*credentials, error) {
	jar, err := newCookieJar()
	if err != nil {
		return nil, err
	}
	return &credentials{
		base:       base,
		accessName: accessName,
		jar:        jar,
	}, nil
}

func (c *credentials) current() *cookiejar.Jar {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jar
}

// attach replaces any Cookie header on req with the jar's cookies for its URL
// and returns the generation the request was sent under.
func (c *credentials) attach(req *http.Request) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	req.Header.Del("Cookie")
	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}
	return c.gen
}

// capture stores Set-Cookie headers from a response to u, unless the
// credentials moved on since gen.
func (c *credentials) capture(gen uint64, u *url.URL, resp *http.Response) bool {
	if resp == nil {
		return false
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if gen != c.gen {
		return false
	}
	c.jar.SetCookies(u, cookies)
	return true
}

// advance makes responses to requests already in flight stale.
func (c *credentials) advance() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
}

// accessToken returns the raw access cookie value, or "".
func (c *credentials) accessToken() string {
	for _, cookie := range c.current().Cookies(c.base) {
		if cookie.Name == c.accessName {
			return cookie.Value
		}
	}
	return ""
}

func (c *credentials) hasAny() bool {
	return len(c.current().Cookies(c.base)) > 0
}

// export returns the cookies the jar would send to the API origin. The jar
// does not reveal expiry, so none is recorded.
func (c *credentials) export() []session.Cookie {
	cookies := c.current().Cookies(c.base)
	out := make([]session.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		out = append(out, session.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return out
}

// restore loads persisted cookies as host-only cookies on the API origin.
func (c *credentials) restore(cookies []session.Cookie) {
	if len(cookies) == 0 {
		return
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		hc := &http.Cookie{Name: cookie.Name, Value: cookie.Value, Path: "/"}
		if cookie.Expires > 0 {
			hc.Expires = time.Unix(cookie.Expires, 0)
		}
		out = append(out, hc)
	}
	c.current().SetCookies(c.base, out)
}

// reset drops every cookie.
func (c *credentials) reset() error {
	jar, err := newCookieJar()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.jar = jar
	c.gen++
	c.mu.Unlock()
	return nil
}
