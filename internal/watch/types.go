package watch

import "encoding/json"

// WatchData is the subset of the watch page response the library acts on.
type WatchData struct {
	Client  WatchClient  `json:"client"`
	Video   WatchVideo   `json:"video"`
	Owner   WatchOwner   `json:"owner"`
	Tag     WatchTag     `json:"tag"`
	Media   WatchMedia   `json:"media"`
	Comment WatchComment `json:"comment"`
	Payment WatchPayment `json:"payment"`

	// OKReason is present on playable responses.
	OKReason string `json:"okReason"`
	// ReasonCode is present on error responses.
	ReasonCode string `json:"reasonCode"`

	// ActionTrackID records the track id the page was fetched with. The
	// access-rights call must reuse it.
	ActionTrackID string `json:"-"`
}

type WatchClient struct {
	NicoSID      string `json:"nicosid"`
	WatchID      string `json:"watchId"`
	WatchTrackID string `json:"watchTrackId"`
}

type WatchCount struct {
	View    int `json:"view"`
	Comment int `json:"comment"`
	Mylist  int `json:"mylist"`
	Like    int `json:"like"`
}

type WatchThumbnail struct {
	URL       string `json:"url"`
	MiddleURL string `json:"middleUrl"`
	LargeURL  string `json:"largeUrl"`
	Player    string `json:"player"`
	OGP       string `json:"ogp"`
}

type WatchVideo struct {
	ID                       string         `json:"id"`
	Title                    string         `json:"title"`
	Description              string         `json:"description"`
	Duration                 int            `json:"duration"`
	RegisteredAt             string         `json:"registeredAt"`
	Count                    WatchCount     `json:"count"`
	Thumbnail                WatchThumbnail `json:"thumbnail"`
	IsPrivate                bool           `json:"isPrivate"`
	IsDeleted                bool           `json:"isDeleted"`
	IsAuthenticationRequired bool           `json:"isAuthenticationRequired"`
}

type WatchOwner struct {
	ID       int    `json:"id"`
	Nickname string `json:"nickname"`
	IconURL  string `json:"iconUrl"`
}

type WatchTagItem struct {
	Name       string `json:"name"`
	IsCategory bool   `json:"isCategory"`
	IsLocked   bool   `json:"isLocked"`
}

type WatchTag struct {
	Items []WatchTagItem `json:"items"`
}

type WatchMedia struct {
	Domand Domand `json:"domand"`
}

// Domand is the streaming ladder block. Both ladders are listed best-first.
type Domand struct {
	Videos                []DomandVideo `json:"videos"`
	Audios                []DomandAudio `json:"audios"`
	IsStoryboardAvailable bool          `json:"isStoryboardAvailable"`
	AccessRightKey        string        `json:"accessRightKey"`
}

type DomandVideo struct {
	ID                                  string `json:"id"`
	IsAvailable                         bool   `json:"isAvailable"`
	Label                               string `json:"label"`
	BitRate                             int    `json:"bitRate"`
	Width                               int    `json:"width"`
	Height                              int    `json:"height"`
	QualityLevel                        int    `json:"qualityLevel"`
	RecommendedHighestAudioQualityLevel int    `json:"recommendedHighestAudioQualityLevel"`
}

type DomandAudio struct {
	ID           string `json:"id"`
	IsAvailable  bool   `json:"isAvailable"`
	Label        string `json:"label"`
	BitRate      int    `json:"bitRate"`
	SamplingRate int    `json:"samplingRate"`
	QualityLevel int    `json:"qualityLevel"`
}

type WatchComment struct {
	NvComment NvComment `json:"nvComment"`
}

// NvComment carries what the comment server needs: its base URL, the signed
// thread key and an opaque params document echoed back verbatim.
type NvComment struct {
	ThreadKey string          `json:"threadKey"`
	Server    string          `json:"server"`
	Params    json.RawMessage `json:"params"`
}

type WatchPayment struct {
	Video struct {
		IsPremium             bool `json:"isPremium"`
		IsPpv                 bool `json:"isPpv"`
		IsAdmission           bool `json:"isAdmission"`
		IsContinuationBenefit bool `json:"isContinuationBenefit"`
	} `json:"video"`
}
