package client

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CommentExportFormat is a comment feed serialization target format.
type CommentExportFormat string

const (
	CommentExportFormatJSON  CommentExportFormat = "json"
	CommentExportFormatJSONL CommentExportFormat = "jsonl"
)

// ResolveCommentExportFormat selects an export format from preferences
// such as "jsonl/json" or "best". Unknown values fall back to JSON.
func ResolveCommentExportFormat(raw string) CommentExportFormat {
	tokens := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == '/' || r == ','
	})
	for _, token := range tokens {
		switch strings.TrimSpace(token) {
		case "best", "json":
			return CommentExportFormatJSON
		case "jsonl", "ndjson":
			return CommentExportFormatJSONL
		}
	}
	return CommentExportFormatJSON
}

type exportedComment struct {
	ID          string    `json:"id"`
	Fork        string    `json:"fork"`
	No          int64     `json:"no"`
	VposMs      int64     `json:"vposMs"`
	Body        string    `json:"body"`
	Commands    []string  `json:"commands,omitempty"`
	UserID      string    `json:"userId"`
	IsPremium   bool      `json:"isPremium,omitempty"`
	PostedAt    time.Time `json:"postedAt"`
	NicoruCount int       `json:"nicoruCount,omitempty"`
}

func exportedCommentFrom(c *Comment) exportedComment {
	return exportedComment{
		ID:          c.ID,
		Fork:        c.Fork,
		No:          c.No,
		VposMs:      c.VposMs,
		Body:        c.Body,
		Commands:    c.Commands,
		UserID:      c.UserID,
		IsPremium:   c.IsPremium,
		PostedAt:    c.PostedAt,
		NicoruCount: c.NicoruCount,
	}
}

// ExportComments drains the iterator to path in the selected format and
// returns the number of comments written. Pass a fresh or Reset iterator
// to export the whole feed.
func (c *Client) ExportComments(ctx context.Context, it *CommentIterator, path string, format CommentExportFormat) (int, error) {
	switch format {
	case CommentExportFormatJSONL:
		return c.exportCommentsJSONL(ctx, it, path)
	default:
		return c.exportCommentsJSON(ctx, it, path)
	}
}

func (c *Client) exportCommentsJSON(ctx context.Context, it *CommentIterator, path string) (int, error) {
	comments := make([]exportedComment, 0, 256)
	for {
		comment, err := it.Next(ctx)
		if errors.Is(err, ErrIteratorDone) {
			break
		}
		if err != nil {
			return 0, err
		}
		comments = append(comments, exportedCommentFrom(comment))
	}

	f, err := createExportFile(path)
	if err != nil {
		return 0, wrapIOError("create", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(comments); err != nil {
		return 0, wrapIOError("write", path, err)
	}
	return len(comments), nil
}

func (c *Client) exportCommentsJSONL(ctx context.Context, it *CommentIterator, path string) (int, error) {
	f, err := createExportFile(path)
	if err != nil {
		return 0, wrapIOError("create", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	count := 0
	for {
		comment, err := it.Next(ctx)
		if errors.Is(err, ErrIteratorDone) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if err := enc.Encode(exportedCommentFrom(comment)); err != nil {
			return count, wrapIOError("write", path, err)
		}
		count++
	}
}

func createExportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
