// Package client is the high-level Niconico client: session handling,
// video metadata, comments, stream resolution and downloads.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/famomatic/nicov1/internal/comments"
	"github.com/famomatic/nicov1/internal/muxer"
	"github.com/famomatic/nicov1/internal/nvapi"
	"github.com/famomatic/nicov1/internal/session"
	"github.com/famomatic/nicov1/internal/watch"
)

// Client is the high-level Niconico client. Methods are safe for
// concurrent use; concurrent downloads of the same video should use
// independent Clients so their intermediate files cannot collide.
type Client struct {
	config     Config
	httpClient *http.Client
	api        *nvapi.Client
	resolver   *watch.Resolver
	auth       *session.Manager
	commentAPI *comments.Client
	mux        muxer.Muxer
	logger     Logger

	watchMu sync.Mutex
	watches map[string]watchEntry
}

// watchEntry caches one video's watch data between resolve, comment and
// download calls. Data is treated as immutable once cached.
type watchEntry struct {
	Data       *watch.WatchData
	CachedAt   time.Time
	LastAccess time.Time
}

// New creates a new Niconico client. The client starts with an anonymous
// guest session; call Login, LoginWithSession or LoadCookies for account
// access.
func New(config Config) (*Client, error) {
	return NewClient(config)
}

// NewClient creates a new Niconico client.
func NewClient(config Config) (*Client, error) {
	jar, err := session.NewJar()
	if err != nil {
		return nil, err
	}
	httpClient := buildHTTPClient(config, jar)

	logger := config.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	mux := config.Muxer
	if mux == nil {
		mux = muxer.NewFFmpegMuxer(config.ffmpegPath())
	}

	api := nvapi.New(httpClient, config.userAgent(), config.language())
	c := &Client{
		config:     config,
		httpClient: httpClient,
		api:        api,
		resolver:   watch.NewResolver(httpClient, api, config.userAgent(), config.language()),
		auth:       session.NewManager(httpClient, jar, config.userAgent()),
		commentAPI: comments.NewClient(api),
		mux:        mux,
		logger:     logger,
		watches:    make(map[string]watchEntry),
	}
	c.auth.SeedGuest()
	return c, nil
}

// Login authenticates with a mail address (or telephone number) and
// password. When the account has MFA enabled and otp is empty,
// ErrMFARequired is returned; call again with the one-time code.
func (c *Client) Login(ctx context.Context, mail, password, otp string) error {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()
	return mapError(c.auth.Login(ctx, session.Credentials{
		Mail:     mail,
		Password: password,
		OTP:      otp,
	}))
}

// LoginWithSession authenticates with an existing user_session cookie
// value. Such a session cannot be refreshed on expiry.
func (c *Client) LoginWithSession(ctx context.Context, userSession string) error {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()
	return mapError(c.auth.LoginWithSession(ctx, userSession))
}

// EnsureSession verifies the current session is still usable, refreshing
// it transparently when login credentials were retained. Guest sessions
// always pass.
func (c *Client) EnsureSession(ctx context.Context) error {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()
	return mapError(c.auth.Ensure(ctx))
}

// Authenticated reports whether the client holds a logged-in session.
func (c *Client) Authenticated() bool {
	return c.auth.Authenticated()
}

// Premium reports whether the logged-in session is a premium account.
func (c *Client) Premium() bool {
	return c.auth.Premium()
}

// LoadCookies imports a Netscape cookies.txt file into the session jar.
func (c *Client) LoadCookies(path string) error {
	if err := c.auth.LoadCookies(path); err != nil {
		return wrapIOError("load cookies", path, err)
	}
	return nil
}

// SaveCookies writes the session jar to a Netscape cookies.txt file, so
// cookies rotated during login survive the process.
func (c *Client) SaveCookies(path string) error {
	if err := c.auth.SaveCookies(path); err != nil {
		return wrapIOError("save cookies", path, err)
	}
	return nil
}

// GetVideo fetches video metadata for the given ID or watch URL. The tag
// list is fetched alongside; a tag fetch failure degrades to an empty
// list with a logged warning.
func (c *Client) GetVideo(ctx context.Context, input string) (*VideoInfo, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	videoID, err := normalizeVideoID(input)
	if err != nil {
		return nil, err
	}

	data, err := c.api.Videos(ctx, []string{videoID})
	if err != nil {
		return nil, mapError(err)
	}
	if len(data.Items) == 0 {
		return nil, fmt.Errorf("%w: video=%s", ErrNotFound, videoID)
	}

	var tags []nvapi.TagItem
	if tagsData, err := c.api.Tags(ctx, videoID); err != nil {
		c.warnf("tag fetch failed for video=%s: %v", videoID, err)
	} else {
		tags = tagsData.Tags
	}

	return videoInfoFromEssential(data.Items[0].Video, tags), nil
}

// PageOptions selects one page of a listing. Zero values pick the
// server-side defaults.
type PageOptions struct {
	PageSize int
	Page     int // 1-based
}

// GetMylist fetches one page of a public mylist.
func (c *Client) GetMylist(ctx context.Context, mylistID string, opts PageOptions) (*MylistInfo, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	data, err := c.api.Mylist(ctx, mylistID, nvapi.MylistOptions{
		PageSize: opts.PageSize,
		Page:     opts.Page,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return mylistInfoFromRecord(data.Mylist), nil
}

// GetSeries fetches a series with its ordered items.
func (c *Client) GetSeries(ctx context.Context, seriesID string) (*SeriesInfo, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	data, err := c.api.Series(ctx, seriesID)
	if err != nil {
		return nil, mapError(err)
	}
	return seriesInfoFromRecord(data), nil
}

// GetUser fetches a public user profile.
func (c *Client) GetUser(ctx context.Context, userID string) (*UserInfo, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	data, err := c.api.User(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return userInfoFromRecord(data.User), nil
}

// GetOwnUser fetches the profile of the logged-in user.
func (c *Client) GetOwnUser(ctx context.Context) (*UserInfo, error) {
	if !c.auth.Authenticated() {
		return nil, ErrLoginRequired
	}
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	data, err := c.api.OwnUser(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return userInfoFromRecord(data.User), nil
}

// UserVideosOptions orders and pages a user's uploads. Zero values pick
// newest-first with the server-side page size.
type UserVideosOptions struct {
	SortKey   string
	SortOrder string
	PageSize  int
	Page      int
}

// GetUserVideos fetches one page of a user's uploaded videos.
func (c *Client) GetUserVideos(ctx context.Context, userID string, opts UserVideosOptions) (*UserVideosPage, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	data, err := c.api.UserVideos(ctx, userID, nvapi.UserVideosOptions{
		SortKey:   opts.SortKey,
		SortOrder: opts.SortOrder,
		PageSize:  opts.PageSize,
		Page:      opts.Page,
	})
	if err != nil {
		return nil, mapError(err)
	}
	page := &UserVideosPage{TotalCount: int64(data.TotalCount)}
	for _, item := range data.Items {
		page.Items = append(page.Items, summaryFromEssential(item.Essential))
	}
	return page, nil
}

// GetUserMylists fetches the visible mylists of a user.
func (c *Client) GetUserMylists(ctx context.Context, userID string) ([]UserMylistInfo, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	data, err := c.api.UserMylists(ctx, userID, 0)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]UserMylistInfo, 0, len(data.Mylists))
	for _, m := range data.Mylists {
		out = append(out, UserMylistInfo{
			ID:          int64(m.ID),
			Name:        m.Name,
			Description: m.Description,
			IsPublic:    m.IsPublic,
			ItemsCount:  int64(m.ItemsCount),
		})
	}
	return out, nil
}

// SearchOptions narrows and orders a video search.
type SearchOptions struct {
	Tag       bool // search by tag instead of keyword
	SortKey   string
	SortOrder string
	PageSize  int
	Page      int
}

// SearchVideos runs a keyword (or tag) search.
func (c *Client) SearchVideos(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	data, err := c.api.SearchVideos(ctx, query, nvapi.SearchOptions{
		Tag:       opts.Tag,
		SortKey:   opts.SortKey,
		SortOrder: opts.SortOrder,
		PageSize:  opts.PageSize,
		Page:      opts.Page,
	})
	if err != nil {
		return nil, mapError(err)
	}
	result := &SearchResult{
		TotalCount: int64(data.TotalCount),
		HasNext:    data.HasNext,
	}
	for _, item := range data.Items {
		result.Items = append(result.Items, summaryFromEssential(item))
	}
	return result, nil
}

// ensureWatch returns watch data for the input, fetching the watch page
// when the cache misses or has expired.
func (c *Client) ensureWatch(ctx context.Context, input string) (*watch.WatchData, string, error) {
	videoID, err := normalizeVideoID(input)
	if err != nil {
		return nil, "", err
	}
	if entry, ok := c.getWatch(videoID); ok {
		return entry.Data, videoID, nil
	}
	wd, err := c.resolver.Fetch(ctx, videoID)
	if err != nil {
		return nil, "", mapError(err)
	}
	c.putWatch(videoID, watchEntry{Data: wd})
	return wd, videoID, nil
}

func (c *Client) getWatch(videoID string) (watchEntry, bool) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	entry, ok := c.watches[videoID]
	if !ok {
		return watchEntry{}, false
	}
	now := time.Now()
	if ttl := c.config.WatchCacheTTL; ttl > 0 && !entry.CachedAt.IsZero() && now.Sub(entry.CachedAt) > ttl {
		delete(c.watches, videoID)
		return watchEntry{}, false
	}
	entry.LastAccess = now
	c.watches[videoID] = entry
	return entry, true
}

func (c *Client) putWatch(videoID string, entry watchEntry) {
	now := time.Now()
	if entry.CachedAt.IsZero() {
		entry.CachedAt = now
	}
	entry.LastAccess = now

	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	if c.watches == nil {
		c.watches = make(map[string]watchEntry)
	}
	c.evictExpiredLocked(now)
	c.watches[videoID] = entry
	c.evictLRULocked()
}

func (c *Client) evictExpiredLocked(now time.Time) {
	ttl := c.config.WatchCacheTTL
	if ttl <= 0 {
		return
	}
	for id, entry := range c.watches {
		if entry.CachedAt.IsZero() {
			continue
		}
		if now.Sub(entry.CachedAt) > ttl {
			delete(c.watches, id)
		}
	}
}

func (c *Client) evictLRULocked() {
	maxEntries := c.config.WatchCacheMaxEntries
	if maxEntries <= 0 {
		return
	}
	for len(c.watches) > maxEntries {
		var oldestID string
		var oldest time.Time
		first := true
		for id, entry := range c.watches {
			candidate := entry.LastAccess
			if candidate.IsZero() {
				candidate = entry.CachedAt
			}
			if first || candidate.Before(oldest) {
				first = false
				oldestID = id
				oldest = candidate
			}
		}
		if oldestID == "" {
			return
		}
		delete(c.watches, oldestID)
	}
}

func (c *Client) warnf(format string, args ...any) {
	if c == nil || c.logger == nil {
		return
	}
	c.logger.Warnf(format, args...)
}

func (c *Client) emitDownloadEvent(stage, phase, videoID, path, detail string) {
	if c == nil || c.config.OnDownloadEvent == nil {
		return
	}
	c.config.OnDownloadEvent(DownloadEvent{
		Stage:   stage,
		Phase:   phase,
		VideoID: videoID,
		Path:    path,
		Detail:  detail,
	})
}
