package comments

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDone is returned by Cursor.Next once every comment has been yielded.
var ErrDone = errors.New("comments: no more comments")

// Cursor walks a video's comments newest first. Each fetched window covers
// the comments posted up to the current when timestamp; the cursor then
// moves when to the oldest main comment it has seen and repeats until a
// window brings nothing new.
//
// The owner fork is taken from the first window only. Main and easy
// comments that a window repeats from an earlier one are dropped by
// comment number; each fork numbers its comments independently.
type Cursor struct {
	client *Client
	src    Source
	now    func() time.Time

	threadKey string
	when      int64
	mainMinNo int64
	easyMinNo int64
	ownerDone bool
	done      bool
	buf       []Entry
}

// NewCursor starts a cursor at the newest comments of src.
func NewCursor(client *Client, src Source) *Cursor {
	c := &Cursor{client: client, src: src, now: time.Now}
	c.Reset()
	return c
}

// Reset rewinds the cursor to the newest comments. The next fetch starts a
// fresh walk with the original thread key.
func (c *Cursor) Reset() {
	c.threadKey = c.src.ThreadKey
	c.when = 0
	c.mainMinNo = 0
	c.easyMinNo = 0
	c.ownerDone = false
	c.done = false
	c.buf = nil
}

// Next returns the next comment, fetching further windows as needed.
// It returns ErrDone once the walk has reached the oldest comment.
func (c *Cursor) Next(ctx context.Context) (Entry, error) {
	for len(c.buf) == 0 {
		if c.done {
			return Entry{}, ErrDone
		}
		if err := c.fetchWindow(ctx); err != nil {
			return Entry{}, err
		}
	}
	e := c.buf[0]
	c.buf = c.buf[1:]
	return e, nil
}

func (c *Cursor) fetchWindow(ctx context.Context) error {
	if c.when == 0 {
		c.when = c.now().Unix()
	}
	data, err := c.client.Threads(ctx, c.src.Server, c.src.Params, c.threadKey, c.when)
	if IsExpiredKey(err) {
		key, kerr := c.client.RefreshThreadKey(ctx, c.src.VideoID)
		if kerr != nil {
			return fmt.Errorf("refreshing thread key: %w", kerr)
		}
		c.threadKey = key
		data, err = c.client.Threads(ctx, c.src.Server, c.src.Params, c.threadKey, c.when)
	}
	if err != nil {
		return err
	}

	for _, th := range data.Threads {
		switch th.Fork {
		case ForkOwner:
			if c.ownerDone {
				continue
			}
			c.ownerDone = true
			c.appendReversed(th.Fork, th.Comments)
		case ForkEasy:
			c.appendEasy(th)
		default:
			if err := c.advanceMain(th); err != nil {
				return err
			}
		}
	}
	return nil
}

// advanceMain trims the already-seen tail of a main window, moves the when
// cursor to the window's oldest comment and flags the walk as finished
// once a window repeats only known comments.
func (c *Cursor) advanceMain(th Thread) error {
	if c.mainMinNo == 0 {
		if len(th.Comments) == 0 {
			c.done = true
			return nil
		}
		c.mainMinNo = th.Comments[len(th.Comments)-1].No + 1
	}
	i := len(th.Comments) - 1
	for i >= 0 && th.Comments[i].No >= c.mainMinNo {
		i--
	}
	fresh := th.Comments[:i+1]
	if len(fresh) == 0 {
		c.done = true
		return nil
	}
	oldest := th.Comments[0]
	posted, err := oldest.PostedTime()
	if err != nil {
		return fmt.Errorf("comment %s: parsing postedAt %q: %w", oldest.ID, oldest.PostedAt, err)
	}
	c.mainMinNo = oldest.No
	c.when = posted.Unix()
	c.appendReversed(th.Fork, fresh)
	return nil
}

// appendEasy buffers the part of an easy window not seen before. Easy
// windows ride the main fork's when cursor, so successive windows can
// overlap; the overlap is dropped by comment number.
func (c *Cursor) appendEasy(th Thread) {
	fresh := th.Comments
	if c.easyMinNo > 0 {
		i := len(fresh) - 1
		for i >= 0 && fresh[i].No >= c.easyMinNo {
			i--
		}
		fresh = fresh[:i+1]
	}
	if len(fresh) == 0 {
		return
	}
	c.easyMinNo = fresh[0].No
	c.appendReversed(th.Fork, fresh)
}

// appendReversed buffers a window's comments newest first.
func (c *Cursor) appendReversed(fork string, list []Comment) {
	for i := len(list) - 1; i >= 0; i-- {
		c.buf = append(c.buf, Entry{Fork: fork, Comment: list[i]})
	}
}
