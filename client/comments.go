package client

import (
	"context"
	"fmt"

	"github.com/famomatic/nicov1/internal/comments"
)

// CommentOptions adjusts a comment walk.
type CommentOptions struct {
	// Forks keeps only comments of the listed forks ("owner", "main",
	// "easy"). Empty keeps every fork.
	Forks []string
}

// CommentIterator walks a video's comment feed from newest to oldest,
// fetching windows lazily. It is not safe for concurrent use.
type CommentIterator struct {
	client *Client
	cursor *comments.Cursor
	forks  map[string]bool
}

// Comments opens the comment feed of a video. The feed is walked lazily:
// nothing beyond the watch data is fetched until the first Next call.
func (c *Client) Comments(ctx context.Context, input string, opts CommentOptions) (*CommentIterator, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	if err := c.auth.Ensure(ctx); err != nil {
		return nil, mapError(err)
	}
	wd, videoID, err := c.ensureWatch(ctx, input)
	if err != nil {
		return nil, err
	}
	nv := wd.Comment.NvComment
	if nv.Server == "" || nv.ThreadKey == "" {
		return nil, fmt.Errorf("%w: video=%s has no comment feed", ErrUnavailable, videoID)
	}

	var forks map[string]bool
	if len(opts.Forks) > 0 {
		forks = make(map[string]bool, len(opts.Forks))
		for _, f := range opts.Forks {
			forks[f] = true
		}
	}
	return &CommentIterator{
		client: c,
		cursor: comments.NewCursor(c.commentAPI, comments.Source{
			VideoID:   videoID,
			ThreadKey: nv.ThreadKey,
			Server:    nv.Server,
			Params:    nv.Params,
		}),
		forks: forks,
	}, nil
}

// Next returns the next comment, fetching further windows as needed. Once
// the feed is exhausted it returns ErrIteratorDone. A fetch failure leaves
// already-yielded comments valid; the failed window is refetched on the
// following Next call.
func (it *CommentIterator) Next(ctx context.Context) (*Comment, error) {
	for {
		entry, err := it.cursor.Next(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		if it.forks != nil && !it.forks[entry.Fork] {
			continue
		}
		return it.publicComment(entry), nil
	}
}

// Reset rewinds the iterator to the newest comment for a fresh walk.
func (it *CommentIterator) Reset() {
	it.cursor.Reset()
}

func (it *CommentIterator) publicComment(e comments.Entry) *Comment {
	posted, err := e.PostedTime()
	if err != nil {
		it.client.warnf("comment %s has unparseable postedAt %q", e.ID, e.Comment.PostedAt)
	}
	return &Comment{
		ID:          e.ID,
		Fork:        e.Fork,
		No:          e.No,
		VposMs:      e.VposMs,
		Body:        e.Body,
		Commands:    append([]string(nil), e.Commands...),
		UserID:      e.UserID,
		IsPremium:   e.IsPremium,
		PostedAt:    posted,
		NicoruCount: e.NicoruCount,
	}
}
