// Package watch fetches the watch page data document and negotiates stream
// access rights from it.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/famomatic/nicov1/internal/nvapi"
	"github.com/famomatic/nicov1/internal/types"
)

const watchBaseURL = "https://www.nicovideo.jp/watch/"

// Resolver fetches watch data and exchanges it for playable manifests.
type Resolver struct {
	httpClient *http.Client
	api        *nvapi.Client
	userAgent  string
	language   string
}

func NewResolver(httpClient *http.Client, api *nvapi.Client, userAgent, language string) *Resolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Resolver{
		httpClient: httpClient,
		api:        api,
		userAgent:  userAgent,
		language:   language,
	}
}

type watchEnvelope struct {
	Meta struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	} `json:"meta"`
	Data struct {
		Response WatchData `json:"response"`
	} `json:"data"`
}

// Fetch retrieves the watch data document for a video. The action track id
// is generated per call unless one is pinned on the context.
func (r *Resolver) Fetch(ctx context.Context, videoID string) (*WatchData, error) {
	trackID, ok := types.ActionTrackIDFromContext(ctx)
	if !ok {
		trackID = NewActionTrackID()
	}

	q := url.Values{}
	q.Set("responseType", "json")
	q.Set("actionTrackId", trackID)
	endpoint := watchBaseURL + url.PathEscape(videoID) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	nvapi.ApplyFrontendHeaders(req.Header, r.userAgent, r.language)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env watchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &UnavailableError{VideoID: videoID, StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("watch data decode: %w", err)
	}

	wd := env.Data.Response
	wd.ActionTrackID = trackID

	if resp.StatusCode != http.StatusOK || wd.ReasonCode != "" {
		return nil, &UnavailableError{
			VideoID:    videoID,
			StatusCode: resp.StatusCode,
			ReasonCode: wd.ReasonCode,
		}
	}
	if wd.Video.IsDeleted || wd.Video.IsPrivate {
		return nil, &UnavailableError{VideoID: videoID, StatusCode: resp.StatusCode, ReasonCode: "HIDDEN_VIDEO"}
	}
	return &wd, nil
}

// ResolveHLS exchanges the access right key for an HLS master playlist URL
// covering the given output pairing. The domand_bid cookie set on the
// response rides in the shared jar and authorizes the segment fetches.
func (r *Resolver) ResolveHLS(ctx context.Context, wd *WatchData, videoLabel, audioLabel string) (*nvapi.AccessRightsData, error) {
	if wd.Media.Domand.AccessRightKey == "" {
		return nil, &UnavailableError{VideoID: wd.Video.ID, ReasonCode: "NO_ACCESS_RIGHT_KEY"}
	}
	return r.api.AccessRightsHLS(ctx, wd.Video.ID, wd.Media.Domand.AccessRightKey, wd.ActionTrackID, videoLabel, audioLabel)
}

// NewActionTrackID builds a fresh tracking id in the shape the web player
// generates: ten request-unique characters, an underscore and unix millis.
func NewActionTrackID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:10] + "_" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// ParseExpireTime parses the expireTime field of an access rights grant.
func ParseExpireTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
