// Package comments talks to the nvComment thread servers and walks a
// video's comment history backwards in time.
package comments

import (
	"encoding/json"
	"time"
)

// Fork names used by the thread servers. Every watch response negotiates
// an owner fork, a main fork and an easy fork; the main fork is the one
// paginated by the when cursor.
const (
	ForkOwner = "owner"
	ForkMain  = "main"
	ForkEasy  = "easy"
)

// Comment is a single comment as returned by a thread server.
type Comment struct {
	ID          string   `json:"id"`
	No          int64    `json:"no"`
	VposMs      int64    `json:"vposMs"`
	Body        string   `json:"body"`
	Commands    []string `json:"commands"`
	UserID      string   `json:"userId"`
	IsPremium   bool     `json:"isPremium"`
	Score       int      `json:"score"`
	PostedAt    string   `json:"postedAt"`
	NicoruCount int      `json:"nicoruCount"`
	NicoruID    *string  `json:"nicoruId"`
	Source      string   `json:"source"`
	IsMyPost    bool     `json:"isMyPost"`
}

// PostedTime parses the comment's postedAt timestamp.
func (c *Comment) PostedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, c.PostedAt)
}

// Thread is one fork's slice of a threads response. Comments are listed
// oldest first.
type Thread struct {
	ID           string    `json:"id"`
	Fork         string    `json:"fork"`
	CommentCount int64     `json:"commentCount"`
	Comments     []Comment `json:"comments"`
}

// GlobalComment carries the per-thread total comment count.
type GlobalComment struct {
	ID    string `json:"id"`
	Count int64  `json:"count"`
}

// ThreadsData is the data member of a threads response.
type ThreadsData struct {
	GlobalComments []GlobalComment `json:"globalComments"`
	Threads        []Thread        `json:"threads"`
}

// Source identifies a video's comment threads: the nvComment block of its
// watch data plus the video id used when the thread key must be refreshed.
type Source struct {
	VideoID   string
	ThreadKey string
	Server    string
	Params    json.RawMessage
}

// Entry is a comment tagged with the fork it was posted to.
type Entry struct {
	Fork string
	Comment
}
