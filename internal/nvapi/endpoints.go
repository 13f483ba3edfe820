package nvapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Videos fetches the essential records for the given watch ids.
func (c *Client) Videos(ctx context.Context, watchIDs []string) (*VideosData, error) {
	q := url.Values{}
	q.Set("watchIds", strings.Join(watchIDs, ","))
	var data VideosData
	if err := c.GetJSON(ctx, BaseURL+"/v1/videos?"+q.Encode(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Tags fetches the tag list of a video.
func (c *Client) Tags(ctx context.Context, videoID string) (*TagsData, error) {
	var data TagsData
	if err := c.GetJSON(ctx, BaseURL+"/v1/videos/"+url.PathEscape(videoID)+"/tags", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// MylistOptions selects a page of a mylist.
type MylistOptions struct {
	PageSize int // default 100
	Page     int // 1-based, default 1
}

// Mylist fetches one page of a public mylist.
func (c *Client) Mylist(ctx context.Context, mylistID string, opts MylistOptions) (*MylistData, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(opts.PageSize))
	q.Set("page", strconv.Itoa(opts.Page))
	var data MylistData
	if err := c.GetJSON(ctx, BaseURL+"/v2/mylists/"+url.PathEscape(mylistID)+"?"+q.Encode(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Series fetches a series with its ordered items.
func (c *Client) Series(ctx context.Context, seriesID string) (*SeriesData, error) {
	var data SeriesData
	if err := c.GetJSON(ctx, BaseURL+"/v1/series/"+url.PathEscape(seriesID), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// User fetches a public user profile.
func (c *Client) User(ctx context.Context, userID string) (*UserData, error) {
	var data UserData
	if err := c.GetJSON(ctx, BaseURL+"/v1/users/"+url.PathEscape(userID), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// OwnUser fetches the profile of the logged-in user.
func (c *Client) OwnUser(ctx context.Context) (*OwnUserData, error) {
	var data OwnUserData
	if err := c.GetJSON(ctx, BaseURL+"/v1/users/me", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UserVideosOptions selects and orders a page of a user's uploads.
type UserVideosOptions struct {
	SortKey   string // registeredAt, viewCount, lastCommentTime, commentCount, likeCount, mylistCount, duration
	SortOrder string // asc or desc
	PageSize  int
	Page      int
}

// UserVideos fetches one page of a user's uploaded videos.
func (c *Client) UserVideos(ctx context.Context, userID string, opts UserVideosOptions) (*UserVideosData, error) {
	if opts.SortKey == "" {
		opts.SortKey = "registeredAt"
	}
	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	q := url.Values{}
	q.Set("sortKey", opts.SortKey)
	q.Set("sortOrder", opts.SortOrder)
	q.Set("pageSize", strconv.Itoa(opts.PageSize))
	q.Set("page", strconv.Itoa(opts.Page))
	var data UserVideosData
	if err := c.GetJSON(ctx, BaseURL+"/v3/users/"+url.PathEscape(userID)+"/videos?"+q.Encode(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UserMylists fetches the visible mylists of a user.
func (c *Client) UserMylists(ctx context.Context, userID string, sampleItemCount int) (*UserMylistsData, error) {
	if sampleItemCount < 0 {
		sampleItemCount = 0
	}
	q := url.Values{}
	q.Set("sampleItemCount", strconv.Itoa(sampleItemCount))
	var data UserMylistsData
	if err := c.GetJSON(ctx, BaseURL+"/v1/users/"+url.PathEscape(userID)+"/mylists?"+q.Encode(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SearchOptions narrows and orders a video search.
type SearchOptions struct {
	Tag       bool   // search by tag instead of keyword
	SortKey   string // registeredAt, viewCount, lastCommentTime, commentCount, likeCount, mylistCount, duration, hot, personalized
	SortOrder string // desc, asc, none
	PageSize  int
	Page      int
}

// SearchVideos runs a keyword (or tag) search.
func (c *Client) SearchVideos(ctx context.Context, query string, opts SearchOptions) (*VideoSearchData, error) {
	if opts.SortKey == "" {
		opts.SortKey = "hot"
	}
	if opts.SortOrder == "" {
		opts.SortOrder = "none"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	q := url.Values{}
	if opts.Tag {
		q.Set("tag", query)
	} else {
		q.Set("keyword", query)
	}
	q.Set("sortKey", opts.SortKey)
	q.Set("sortOrder", opts.SortOrder)
	q.Set("pageSize", strconv.Itoa(opts.PageSize))
	q.Set("page", strconv.Itoa(opts.Page))
	var data VideoSearchData
	if err := c.GetJSON(ctx, BaseURL+"/v2/search/video?"+q.Encode(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// AccessRightsHLS negotiates an HLS master playlist for the given output
// pairing. accessRightKey comes from watch data and is only valid together
// with the actionTrackId the watch page was fetched with.
func (c *Client) AccessRightsHLS(ctx context.Context, videoID, accessRightKey, actionTrackID string, videoLabel, audioLabel string) (*AccessRightsData, error) {
	q := url.Values{}
	q.Set("actionTrackId", actionTrackID)
	endpoint := BaseURL + "/v1/watch/" + url.PathEscape(videoID) + "/access-rights/hls?" + q.Encode()
	body := map[string][][]string{
		"outputs": {{videoLabel, audioLabel}},
	}
	extra := http.Header{}
	extra.Set("X-Access-Right-Key", accessRightKey)
	var data AccessRightsData
	if err := c.PostJSON(ctx, endpoint, body, extra, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ThreadKey fetches a fresh comment thread key for a video.
func (c *Client) ThreadKey(ctx context.Context, videoID string) (*ThreadKeyData, error) {
	q := url.Values{}
	q.Set("videoId", videoID)
	var data ThreadKeyData
	if err := c.GetJSON(ctx, BaseURL+"/v1/comment/keys/thread?"+q.Encode(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}
