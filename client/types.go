package client

import (
	"time"

	"github.com/famomatic/nicov1/internal/nvapi"
)

// VideoInfo is the package-level metadata result.
type VideoInfo struct {
	ID           string
	Title        string
	Description  string
	DurationSec  int64
	RegisteredAt string
	ViewCount    int64
	CommentCount int64
	MylistCount  int64
	LikeCount    int64
	ThumbnailURL string
	Owner        OwnerInfo
	Tags         []TagInfo

	// Available is true on every record GetVideo returns: deleted and
	// hidden videos drop out of the metadata listing and surface as
	// ErrNotFound instead.
	Available bool

	// PaymentRequired marks videos that need a purchase or channel
	// membership before their streams resolve.
	PaymentRequired bool
	ChannelVideo    bool
}

// OwnerInfo identifies a video's uploader. ID is a user id for user
// uploads and a channel id (ch-prefixed) for channel videos.
type OwnerInfo struct {
	ID       string
	Nickname string
	IconURL  string
}

// TagInfo is one tag of a video.
type TagInfo struct {
	Name                   string
	IsCategory             bool
	IsLocked               bool
	IsNicodicArticleExists bool
}

// VideoQuality describes one rung of the video stream ladder.
type VideoQuality struct {
	Label     string
	Width     int
	Height    int
	Bitrate   int
	Available bool
}

// AudioQuality describes one rung of the audio stream ladder.
type AudioQuality struct {
	Label        string
	Bitrate      int
	SamplingRate int
	Available    bool
}

// StreamManifest is a resolved, time-limited stream session: the chosen
// quality pair plus the parsed media playlists of both tracks.
type StreamManifest struct {
	VideoID      string
	VideoQuality VideoQuality
	AudioQuality AudioQuality
	MasterURL    string
	ExpiresAt    time.Time
	Video        MediaTrack
	Audio        MediaTrack
}

// MediaTrack is one parsed media playlist of a stream session. Segments
// are listed in playlist order and must be consumed in that order.
type MediaTrack struct {
	PlaylistURL      string
	InitSegmentURL   string
	Segments         []SegmentInfo
	TotalDurationSec float64
}

// SegmentInfo is one segment of a media track.
type SegmentInfo struct {
	URL         string
	DurationSec float64
	Seq         int
}

// Comment is a single comment, tagged with the fork it was posted to.
type Comment struct {
	ID          string
	Fork        string
	No          int64
	VposMs      int64
	Body        string
	Commands    []string
	UserID      string
	IsPremium   bool
	PostedAt    time.Time
	NicoruCount int
}

// DownloadResult describes a completed file download.
type DownloadResult struct {
	VideoID    string
	OutputPath string
	Bytes      int64
	VideoLabel string
	AudioLabel string
}

// DownloadEvent reports one step of a download's lifecycle.
type DownloadEvent struct {
	Stage   string // "download", "merge", "cleanup"
	Phase   string // "start", "complete", "failure", "skip", "delete"
	VideoID string
	Path    string
	Detail  string
}

// VideoSummary is the compact listing record shared by mylist, series,
// user video and search results.
type VideoSummary struct {
	ID           string
	Title        string
	DurationSec  int64
	RegisteredAt string
	ViewCount    int64
	CommentCount int64
	MylistCount  int64
	LikeCount    int64
	ThumbnailURL string
	OwnerName    string

	// Available is false for entries whose video has since been
	// deleted or hidden. Mylists keep such entries in place with a
	// masked video record; the other listings drop them.
	Available       bool
	PaymentRequired bool
}

// MylistItemInfo is one entry of a mylist.
type MylistItemInfo struct {
	ItemID      int64
	WatchID     string
	Description string
	AddedAt     string
	Video       VideoSummary
}

// MylistInfo is one page of a mylist.
type MylistInfo struct {
	ID             int64
	Name           string
	Description    string
	OwnerName      string
	TotalItemCount int64
	HasNext        bool
	IsPublic       bool
	FollowerCount  int64
	Items          []MylistItemInfo
}

// UserMylistInfo is the compact mylist record of a user's mylist listing.
type UserMylistInfo struct {
	ID          int64
	Name        string
	Description string
	IsPublic    bool
	ItemsCount  int64
}

// SeriesInfo is a series with its ordered items.
type SeriesInfo struct {
	ID           int64
	Title        string
	Description  string
	OwnerName    string
	ThumbnailURL string
	TotalCount   int64
	Items        []SeriesItemInfo
}

// SeriesItemInfo is one positioned entry of a series.
type SeriesItemInfo struct {
	Order int
	Video VideoSummary
}

// UserInfo is a user profile.
type UserInfo struct {
	ID            int64
	Nickname      string
	Description   string
	FolloweeCount int64
	FollowerCount int64
	IsPremium     bool
	IconURL       string
}

// UserVideosPage is one page of a user's uploads.
type UserVideosPage struct {
	TotalCount int64
	Items      []VideoSummary
}

// SearchResult is one page of video search results.
type SearchResult struct {
	TotalCount int64
	HasNext    bool
	Items      []VideoSummary
}

func summaryFromEssential(e nvapi.EssentialVideo) VideoSummary {
	return VideoSummary{
		ID:              e.ID,
		Title:           e.Title,
		DurationSec:     int64(e.Duration),
		RegisteredAt:    e.RegisteredAt,
		ViewCount:       int64(e.Count.View),
		CommentCount:    int64(e.Count.Comment),
		MylistCount:     int64(e.Count.Mylist),
		LikeCount:       int64(e.Count.Like),
		ThumbnailURL:    e.Thumbnail.URL,
		OwnerName:       e.Owner.Name,
		Available:       true,
		PaymentRequired: e.IsPaymentRequired,
	}
}

func videoInfoFromEssential(e nvapi.EssentialVideo, tags []nvapi.TagItem) *VideoInfo {
	info := &VideoInfo{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.ShortDescription,
		DurationSec:  int64(e.Duration),
		RegisteredAt: e.RegisteredAt,
		ViewCount:    int64(e.Count.View),
		CommentCount: int64(e.Count.Comment),
		MylistCount:  int64(e.Count.Mylist),
		LikeCount:    int64(e.Count.Like),
		ThumbnailURL: e.Thumbnail.URL,
		Owner: OwnerInfo{
			ID:       e.Owner.ID,
			Nickname: e.Owner.Name,
			IconURL:  e.Owner.IconURL,
		},
		Available:       true,
		PaymentRequired: e.IsPaymentRequired,
		ChannelVideo:    e.IsChannelVideo,
	}
	for _, t := range tags {
		info.Tags = append(info.Tags, TagInfo{
			Name:                   t.Name,
			IsCategory:             t.IsCategory,
			IsLocked:               t.IsLocked,
			IsNicodicArticleExists: t.IsNicodicArticleExists,
		})
	}
	return info
}

func mylistInfoFromRecord(m nvapi.Mylist) *MylistInfo {
	info := &MylistInfo{
		ID:             int64(m.ID),
		Name:           m.Name,
		Description:    m.Description,
		OwnerName:      m.Owner.Name,
		TotalItemCount: int64(m.TotalItemCount),
		HasNext:        m.HasNext,
		IsPublic:       m.IsPublic,
		FollowerCount:  int64(m.FollowerCount),
	}
	for _, item := range m.Items {
		video := summaryFromEssential(item.Video)
		if item.Status != "" && item.Status != "public" {
			video.Available = false
		}
		info.Items = append(info.Items, MylistItemInfo{
			ItemID:      int64(item.ItemID),
			WatchID:     item.WatchID,
			Description: item.Description,
			AddedAt:     item.AddedAt,
			Video:       video,
		})
	}
	return info
}

func seriesInfoFromRecord(s *nvapi.SeriesData) *SeriesInfo {
	info := &SeriesInfo{
		ID:           int64(s.Detail.ID),
		Title:        s.Detail.Title,
		Description:  s.Detail.Description,
		OwnerName:    s.Detail.Owner.Name,
		ThumbnailURL: s.Detail.ThumbnailURL,
		TotalCount:   int64(s.TotalCount),
	}
	for _, item := range s.Items {
		info.Items = append(info.Items, SeriesItemInfo{
			Order: item.Meta.Order,
			Video: summaryFromEssential(item.Video),
		})
	}
	return info
}

func userInfoFromRecord(u nvapi.User) *UserInfo {
	return &UserInfo{
		ID:            int64(u.ID),
		Nickname:      u.Nickname,
		Description:   u.Description,
		FolloweeCount: int64(u.FolloweeCount),
		FollowerCount: int64(u.FollowerCount),
		IsPremium:     u.IsPremium,
		IconURL:       u.Icons.Large,
	}
}
