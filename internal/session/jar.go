package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Jar wraps a cookiejar.Jar and records cookie attributes so the jar's
// contents can be exported back to a cookies.txt file. net/http/cookiejar
// strips domain and expiry information on read, which makes it unusable for
// persistence on its own.
type Jar struct {
	inner *cookiejar.Jar

	mu       sync.Mutex
	recorded map[string]*http.Cookie // domain\x00path\x00name
}

func NewJar() (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Jar{
		inner:    inner,
		recorded: make(map[string]*http.Cookie),
	}, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		stored := *c
		if stored.Domain == "" {
			stored.Domain = u.Hostname()
		}
		if stored.Path == "" {
			stored.Path = "/"
		}
		if stored.MaxAge > 0 {
			stored.Expires = now.Add(time.Duration(stored.MaxAge) * time.Second)
		}
		key := recordKey(stored.Domain, stored.Path, stored.Name)
		if stored.MaxAge < 0 || (!stored.Expires.IsZero() && stored.Expires.Before(now)) {
			delete(j.recorded, key)
			continue
		}
		j.recorded[key] = &stored
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

// Export returns a snapshot of every live cookie with its attributes.
func (j *Jar) Export() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	out := make([]*http.Cookie, 0, len(j.recorded))
	for key, c := range j.recorded {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			delete(j.recorded, key)
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	return out
}

// Import seeds the jar from stored cookies, e.g. a parsed cookies.txt.
func (j *Jar) Import(cookies []*http.Cookie) {
	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			continue
		}
		byHost[host] = append(byHost[host], c)
	}
	for host, group := range byHost {
		j.SetCookies(&url.URL{Scheme: "https", Host: host}, group)
	}
}

// Value returns the value of the named cookie visible to the given URL.
func (j *Jar) Value(u *url.URL, name string) (string, bool) {
	for _, c := range j.Cookies(u) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func recordKey(domain, path, name string) string {
	return strings.TrimPrefix(domain, ".") + "\x00" + path + "\x00" + name
}
