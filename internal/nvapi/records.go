package nvapi

// EssentialVideo is the compact video record most listing endpoints return.
type EssentialVideo struct {
	Type                 string     `json:"type"`
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	RegisteredAt         string     `json:"registeredAt"`
	Count                VideoCount `json:"count"`
	Thumbnail            Thumbnail  `json:"thumbnail"`
	Duration             int        `json:"duration"`
	ShortDescription     string     `json:"shortDescription"`
	LatestCommentSummary string     `json:"latestCommentSummary"`
	IsChannelVideo       bool       `json:"isChannelVideo"`
	IsPaymentRequired    bool       `json:"isPaymentRequired"`
	Owner                VideoOwner `json:"owner"`
}

type VideoCount struct {
	View    int `json:"view"`
	Comment int `json:"comment"`
	Mylist  int `json:"mylist"`
	Like    int `json:"like"`
}

type Thumbnail struct {
	URL        string `json:"url"`
	MiddleURL  string `json:"middleUrl"`
	LargeURL   string `json:"largeUrl"`
	ListingURL string `json:"listingUrl"`
	NHdURL     string `json:"nHdUrl"`
}

type VideoOwner struct {
	OwnerType  string `json:"ownerType"`
	Type       string `json:"type"`
	Visibility string `json:"visibility"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	IconURL    string `json:"iconUrl"`
}

// VideoItem pairs a watch id with its video record.
type VideoItem struct {
	WatchID string         `json:"watchId"`
	Video   EssentialVideo `json:"video"`
}

// VideosData is the payload of /v1/videos?watchIds=.
type VideosData struct {
	Items []VideoItem `json:"items"`
}

// TagItem is one entry of a video's tag list.
type TagItem struct {
	Name                   string `json:"name"`
	IsCategory             bool   `json:"isCategory"`
	IsCategoryCandidate    bool   `json:"isCategoryCandidate"`
	IsNicodicArticleExists bool   `json:"isNicodicArticleExists"`
	IsLocked               bool   `json:"isLocked"`
}

// TagsData is the payload of /v1/videos/<id>/tags.
type TagsData struct {
	IsLockable       bool      `json:"isLockable"`
	IsEditable       bool      `json:"isEditable"`
	UneditableReason string    `json:"uneditableReason"`
	Tags             []TagItem `json:"tags"`
}

// MylistItem is one entry of a mylist, wrapping an essential video.
type MylistItem struct {
	ItemID      int            `json:"itemId"`
	WatchID     string         `json:"watchId"`
	Description string         `json:"description"`
	AddedAt     string         `json:"addedAt"`
	Status      string         `json:"status"`
	Video       EssentialVideo `json:"video"`
}

type MylistOwner struct {
	OwnerType string `json:"ownerType"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	IconURL   string `json:"iconUrl"`
}

// Mylist is the detail record of /v2/mylists/<id>.
type Mylist struct {
	ID                int          `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	DefaultSortKey    string       `json:"defaultSortKey"`
	Items             []MylistItem `json:"items"`
	TotalItemCount    int          `json:"totalItemCount"`
	HasNext           bool         `json:"hasNext"`
	IsPublic          bool         `json:"isPublic"`
	Owner             MylistOwner  `json:"owner"`
	HasInvisibleItems bool         `json:"hasInvisibleItems"`
	FollowerCount     int          `json:"followerCount"`
	IsFollowing       bool         `json:"isFollowing"`
}

// MylistData is the payload of /v2/mylists/<id>.
type MylistData struct {
	Mylist Mylist `json:"mylist"`
}

// SeriesDetail describes a series itself.
type SeriesDetail struct {
	ID           int         `json:"id"`
	Owner        MylistOwner `json:"owner"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	IsListed     bool        `json:"isListed"`
	CreatedAt    string      `json:"createdAt"`
	UpdatedAt    string      `json:"updatedAt"`
}

// SeriesItem is one positioned entry of a series.
type SeriesItem struct {
	Meta struct {
		ID    string `json:"id"`
		Order int    `json:"order"`
	} `json:"meta"`
	Video EssentialVideo `json:"video"`
}

// SeriesData is the payload of /v1/series/<id>.
type SeriesData struct {
	Detail     SeriesDetail `json:"detail"`
	TotalCount int          `json:"totalCount"`
	Items      []SeriesItem `json:"items"`
}

// UserIcon holds the two icon sizes a user record carries.
type UserIcon struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

// User is the public profile record of /v1/users/<id>.
type User struct {
	ID                  int      `json:"id"`
	Nickname            string   `json:"nickname"`
	Description         string   `json:"description"`
	StrippedDescription string   `json:"strippedDescription"`
	ShortDescription    string   `json:"shortDescription"`
	RegisteredVersion   string   `json:"registeredVersion"`
	FolloweeCount       int      `json:"followeeCount"`
	FollowerCount       int      `json:"followerCount"`
	IsPremium           bool     `json:"isPremium"`
	Icons               UserIcon `json:"icons"`
}

// UserData is the payload of /v1/users/<id>.
type UserData struct {
	User User `json:"user"`
}

// OwnUserData is the payload of /v1/users/me.
type OwnUserData struct {
	User User `json:"user"`
}

// UserVideoItem is one entry of a user's uploaded video list.
type UserVideoItem struct {
	Essential EssentialVideo `json:"essential"`
}

// UserVideosData is the payload of /v3/users/<id>/videos.
type UserVideosData struct {
	TotalCount int             `json:"totalCount"`
	Items      []UserVideoItem `json:"items"`
}

// UserMylistItem is the compact mylist record of /v1/users/<id>/mylists.
type UserMylistItem struct {
	ID          int          `json:"id"`
	IsPublic    bool         `json:"isPublic"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	ItemsCount  int          `json:"itemsCount"`
	SampleItems []MylistItem `json:"sampleItems"`
}

// UserMylistsData is the payload of /v1/users/<id>/mylists.
type UserMylistsData struct {
	Mylists []UserMylistItem `json:"mylists"`
}

// VideoSearchData is the payload of /v2/search/video.
type VideoSearchData struct {
	SearchID   string           `json:"searchId"`
	Keyword    string           `json:"keyword"`
	Tag        string           `json:"tag"`
	TotalCount int              `json:"totalCount"`
	HasNext    bool             `json:"hasNext"`
	Items      []EssentialVideo `json:"items"`
}

// AccessRightsData is the payload of /v1/watch/<id>/access-rights/<type>.
type AccessRightsData struct {
	ContentURL string `json:"contentUrl"`
	CreateTime string `json:"createTime"`
	ExpireTime string `json:"expireTime"`
}

// ThreadKeyData is the payload of /v1/comment/keys/thread.
type ThreadKeyData struct {
	ThreadKey string `json:"threadKey"`
}
