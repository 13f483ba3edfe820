package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/famomatic/nicov1/client"
)

// errHelp marks an explicit -h; the flag package already printed the
// command's defaults, so Run exits zero without further output.
var errHelp = errors.New("help requested")

func parseCommandFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return errUsage
	}
	return nil
}

func (a *App) usageError(format string, args ...any) error {
	fmt.Fprintf(a.Stderr, "error: invalid_input: "+format+"\n", args...)
	return errUsage
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (a *App) runInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return a.usageError("usage: nicov1 info <id-or-url>")
	}

	c, err := a.newClient(nil)
	if err != nil {
		return err
	}
	info, err := c.GetVideo(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if a.globals.JSON {
		return a.printJSON(info)
	}

	fmt.Fprintf(a.Stdout, "%s  %s\n", info.ID, info.Title)
	fmt.Fprintf(a.Stdout, "duration:   %s\n", formatDuration(info.DurationSec))
	if info.Owner.Nickname != "" {
		fmt.Fprintf(a.Stdout, "owner:      %s (%s)\n", info.Owner.Nickname, info.Owner.ID)
	}
	fmt.Fprintf(a.Stdout, "registered: %s\n", info.RegisteredAt)
	fmt.Fprintf(a.Stdout, "views: %d  comments: %d  mylists: %d  likes: %d\n",
		info.ViewCount, info.CommentCount, info.MylistCount, info.LikeCount)
	if len(info.Tags) > 0 {
		names := make([]string, 0, len(info.Tags))
		for _, tag := range info.Tags {
			names = append(names, tag.Name)
		}
		fmt.Fprintf(a.Stdout, "tags:       %s\n", strings.Join(names, ", "))
	}
	if info.PaymentRequired {
		fmt.Fprintln(a.Stdout, "payment required")
	}
	return nil
}

func (a *App) runTags(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tags", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return a.usageError("usage: nicov1 tags <id-or-url>")
	}

	c, err := a.newClient(nil)
	if err != nil {
		return err
	}
	info, err := c.GetVideo(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if a.globals.JSON {
		return a.printJSON(info.Tags)
	}
	for _, tag := range info.Tags {
		line := tag.Name
		if tag.IsCategory {
			line += " (category)"
		}
		if tag.IsLocked {
			line += " (locked)"
		}
		fmt.Fprintln(a.Stdout, line)
	}
	return nil
}

func (a *App) runComments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comments", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	output := fs.String("o", "", "Write the feed to a file instead of stdout")
	format := fs.String("format", "json", "Export format: json or jsonl")
	forks := fs.String("forks", "", "Comma-separated fork filter (owner,main,easy)")
	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return a.usageError("usage: nicov1 comments [flags] <id-or-url>")
	}

	c, err := a.newClient(nil)
	if err != nil {
		return err
	}
	it, err := c.Comments(ctx, fs.Arg(0), client.CommentOptions{Forks: splitList(*forks)})
	if err != nil {
		return err
	}

	if *output != "" {
		n, err := c.ExportComments(ctx, it, *output, client.ResolveCommentExportFormat(*format))
		if err != nil {
			return err
		}
		a.logger.Info().Int("comments", n).Str("path", *output).Msg("comment feed written")
		return nil
	}

	for {
		comment, err := it.Next(ctx)
		if errors.Is(err, client.ErrIteratorDone) {
			return nil
		}
		if err != nil {
			return err
		}
		if a.globals.JSON {
			line, err := json.Marshal(comment)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Stdout, string(line))
			continue
		}
		fmt.Fprintf(a.Stdout, "%s\t%s:%d\t%s\n", formatVpos(comment.VposMs), comment.Fork, comment.No, comment.Body)
	}
}

func (a *App) runDownload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	output := fs.String("o", "", "Output file (default <videoID>.mp4)")
	preference := fs.String("q", "", "Quality preference, e.g. best, 720p or 1080p/720p/best")
	ffmpegLocation := fs.String("ffmpeg-location", "", "Path to the ffmpeg binary")
	keep := fs.Bool("keep-intermediates", false, "Keep the per-track files after merging")
	writeComments := fs.Bool("write-comments", false, "Export the comment feed as JSON next to the output")
	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return a.usageError("usage: nicov1 download [flags] <id-or-url>")
	}

	c, err := a.newClient(func(cfg *client.Config) {
		cfg.FFmpegPath = *ffmpegLocation
	})
	if err != nil {
		return err
	}

	result, err := c.Download(ctx, fs.Arg(0), client.DownloadOptions{
		Quality:               *preference,
		OutputPath:            *output,
		KeepIntermediateFiles: *keep,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "saved %s (%s + %s, %d bytes)\n",
		result.OutputPath, result.VideoLabel, result.AudioLabel, result.Bytes)

	if *writeComments {
		it, err := c.Comments(ctx, result.VideoID, client.CommentOptions{})
		if err != nil {
			return err
		}
		path := filepath.Join(filepath.Dir(result.OutputPath), result.VideoID+".json")
		n, err := c.ExportComments(ctx, it, path, client.CommentExportFormatJSON)
		if err != nil {
			return err
		}
		a.logger.Info().Int("comments", n).Str("path", path).Msg("comment feed written")
	}
	return nil
}

func (a *App) runMylist(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mylist", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", 100, "Items per page")
	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return a.usageError("usage: nicov1 mylist [flags] <mylist-id>")
	}

	c, err := a.newClient(nil)
	if err != nil {
		return err
	}
	list, err := c.GetMylist(ctx, fs.Arg(0), client.PageOptions{Page: *page, PageSize: *pageSize})
	if err != nil {
		return err
	}
	if a.globals.JSON {
		return a.printJSON(list)
	}

	fmt.Fprintf(a.Stdout, "%s by %s (%d items)\n", list.Name, list.OwnerName, list.TotalItemCount)
	for _, item := range list.Items {
		a.printSummaryLine(item.Video)
	}
	if list.HasNext {
		fmt.Fprintf(a.Stdout, "more items on page %d\n", *page+1)
	}
	return nil
}

func (a *App) runUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("user", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	videos := fs.Bool("videos", false, "List the user's uploaded videos")
	mylists := fs.Bool("mylists", false, "List the user's public mylists")
	page := fs.Int("page", 1, "Page number for -videos")
	pageSize := fs.Int("page-size", 30, "Items per page for -videos")
	sortKey := fs.String("sort", "registeredAt", "Sort key for -videos")
	sortOrder := fs.String("order", "desc", "Sort order for -videos: asc or desc")
	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return a.usageError("usage: nicov1 user [flags] <user-id|me>")
	}
	userID := fs.Arg(0)

	c, err := a.newClient(nil)
	if err != nil {
		return err
	}

	var user *client.UserInfo
	if userID == "me" {
		user, err = c.GetOwnUser(ctx)
	} else {
		user, err = c.GetUser(ctx, userID)
	}
	if err != nil {
		return err
	}
	resolvedID := strconv.FormatInt(user.ID, 10)

	switch {
	case *videos:
		pageData, err := c.GetUserVideos(ctx, resolvedID, client.UserVideosOptions{
			SortKey:   *sortKey,
			SortOrder: *sortOrder,
			Page:      *page,
			PageSize:  *pageSize,
		})
		if err != nil {
			return err
		}
		if a.globals.JSON {
			return a.printJSON(pageData)
		}
		fmt.Fprintf(a.Stdout, "%s uploads (%d total)\n", user.Nickname, pageData.TotalCount)
		for _, item := range pageData.Items {
			a.printSummaryLine(item)
		}
	case *mylists:
		lists, err := c.GetUserMylists(ctx, resolvedID)
		if err != nil {
			return err
		}
		if a.globals.JSON {
			return a.printJSON(lists)
		}
		for _, list := range lists {
			fmt.Fprintf(a.Stdout, "%d  %s (%d items)\n", list.ID, list.Name, list.ItemsCount)
		}
	default:
		if a.globals.JSON {
			return a.printJSON(user)
		}
		fmt.Fprintf(a.Stdout, "%d  %s\n", user.ID, user.Nickname)
		fmt.Fprintf(a.Stdout, "followers: %d  following: %d\n", user.FollowerCount, user.FolloweeCount)
		if user.IsPremium {
			fmt.Fprintln(a.Stdout, "premium account")
		}
		if user.Description != "" {
			fmt.Fprintln(a.Stdout, user.Description)
		}
	}
	return nil
}

func (a *App) runSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	tag := fs.Bool("tag", false, "Search by tag instead of keyword")
	sortKey := fs.String("sort", "", "Sort key, e.g. viewCount or registeredAt")
	sortOrder := fs.String("order", "", "Sort order: asc or desc")
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", 30, "Items per page")
	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return a.usageError("usage: nicov1 search [flags] <query>")
	}

	c, err := a.newClient(nil)
	if err != nil {
		return err
	}
	result, err := c.SearchVideos(ctx, fs.Arg(0), client.SearchOptions{
		Tag:       *tag,
		SortKey:   *sortKey,
		SortOrder: *sortOrder,
		Page:      *page,
		PageSize:  *pageSize,
	})
	if err != nil {
		return err
	}
	if a.globals.JSON {
		return a.printJSON(result)
	}

	fmt.Fprintf(a.Stdout, "%d results\n", result.TotalCount)
	for _, item := range result.Items {
		a.printSummaryLine(item)
	}
	return nil
}

func (a *App) printSummaryLine(v client.VideoSummary) {
	fmt.Fprintf(a.Stdout, "%s  %8s  %s\n", v.ID, formatDuration(v.DurationSec), v.Title)
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func formatDuration(sec int64) string {
	if sec >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

func formatVpos(ms int64) string {
	s := ms / 1000
	return fmt.Sprintf("%d:%02d.%03d", s/60, s%60, ms%1000)
}
