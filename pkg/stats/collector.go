// Package stats enumerates wall posts and likers through the VK API's fixed
// batch tiers and aggregates them into ranked per-subject statistics.
package stats

import (
	"context"
	"strings"
	"time"

	"vkstats/pkg/errors"
	"vkstats/pkg/logger"
	"vkstats/pkg/vk"
)

// Wall identifies the subject timeline statistics are gathered from. Groups
// carry a negative owner id.
type Wall struct {
	OwnerID    int64
	ScreenName string
	Title      string
}

// ResolveWall resolves a wall target (screen name or profile URL) to its
// owner id, screen name and display title.
func ResolveWall(ctx context.Context, client Client, target string, log logger.Logger) (*Wall, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	// Accept a full profile URL; the screen name is its last path segment.
	segments := strings.Split(target, "/")
	screenName := segments[len(segments)-1]

	resolved, err := client.ResolveScreenName(ctx, screenName)
	if err != nil {
		return nil, err
	}

	switch resolved.Type {
	case "group":
		group, err := client.GroupsGetByID(ctx, resolved.ObjectID)
		if err != nil {
			return nil, err
		}
		return &Wall{
			OwnerID:    -group.ID,
			ScreenName: group.ScreenName,
			Title:      group.Name,
		}, nil
	case "":
		return nil, errors.Newf(errors.ErrorTypeConfig, "could not resolve %q to a wall", screenName)
	default:
		users, err := client.UsersGet(ctx, []int64{resolved.ObjectID})
		if err != nil {
			return nil, err
		}
		if len(users) == 0 {
			return nil, errors.Newf(errors.ErrorTypeConfig, "could not resolve %q to a profile", screenName)
		}
		user := users[0]
		return &Wall{
			OwnerID:    user.ID,
			ScreenName: user.ScreenName,
			Title:      user.FirstName + " " + user.LastName,
		}, nil
	}
}

// Options configure a Collector.
type Options struct {
	// PostsLimit caps the number of posts to scan; 0 means all posts on
	// the wall, auto-detected with a probe call.
	PostsLimit int
	// DateLimit is the earliest post date in yyyy/mm/dd format; 0/0/0 or
	// empty means no cutoff.
	DateLimit string
	// Filter is the wall filter passed to the post endpoints; defaults
	// to "others".
	Filter string
}

// Collector pulls paginated result sets from the API using the fixed batch
// tiers and turns them into ranked statistics. It issues calls strictly
// sequentially.
type Collector struct {
	client     Client
	wall       Wall
	postsLimit int
	dateCutoff time.Time
	filter     string
	logger     logger.Logger
}

// NewCollector validates the options and creates a collector. A malformed
// date limit fails here, before any network activity.
func NewCollector(client Client, wall Wall, opts Options, log logger.Logger) (*Collector, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.PostsLimit < 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "posts limit cannot be negative")
	}

	cutoff, err := ParseCutoff(opts.DateLimit)
	if err != nil {
		return nil, err
	}
	if !cutoff.IsZero() {
		log.InfoWithFields("limited to date", map[string]interface{}{
			"date": opts.DateLimit,
		})
	}

	filter := opts.Filter
	if filter == "" {
		filter = "others"
	}

	return &Collector{
		client:     client,
		wall:       wall,
		postsLimit: opts.PostsLimit,
		dateCutoff: cutoff,
		filter:     filter,
		logger:     log,
	}, nil
}

// pastCutoff reports whether a post is older than the configured cutoff.
func (c *Collector) pastCutoff(post vk.Post) bool {
	return !c.dateCutoff.IsZero() && post.Date < c.dateCutoff.Unix()
}

// fetchPosts enumerates raw wall posts largest-tier-first. The API returns
// posts newest-first, so a cutoff breach can only occur at the tail of a
// batch: after each batch the tail is checked and enumeration stops early,
// keeping everything already collected.
func (c *Collector) fetchPosts(ctx context.Context) ([]vk.Post, error) {
	limit := c.postsLimit
	if limit == 0 {
		probe, err := c.client.WallGet(ctx, c.wall.OwnerID, 0, 1, c.filter)
		if err != nil {
			return nil, err
		}
		limit = probe.Count - 1
	}
	c.logger.InfoWithFields("limited to posts", map[string]interface{}{
		"count": limit,
	})
	if limit <= 0 {
		return nil, nil
	}

	var posts []vk.Post
	progress := newProgressTracker(c.logger, "getting posts", limit)
	offset := 0

	for _, size := range PostPlan(limit) {
		if len(posts) > 0 && c.pastCutoff(posts[len(posts)-1]) {
			c.logger.Info("reached the date cutoff")
			return posts, nil
		}
		progress.update(offset)

		var batch []vk.Post
		var err error
		if size == BulkTier {
			batch, err = c.client.WallGetThousand(ctx, c.wall.OwnerID, offset, c.filter)
		} else {
			var page *vk.WallPage
			page, err = c.client.WallGet(ctx, c.wall.OwnerID, offset, size, c.filter)
			if page != nil {
				batch = page.Items
			}
		}
		if err != nil {
			return nil, err
		}

		posts = append(posts, batch...)
		offset += size
	}
	return posts, nil
}

// CollectPosts enumerates the wall and returns raw post facts, trimmed at
// the first post older than the cutoff.
func (c *Collector) CollectPosts(ctx context.Context) ([]RawPost, error) {
	posts, err := c.fetchPosts(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]RawPost, 0, len(posts))
	progress := newProgressTracker(c.logger, "processing posts", len(posts))
	for i, post := range posts {
		if c.pastCutoff(post) {
			break
		}
		progress.update(i + 1)
		result = append(result, RawPost{
			ID:       post.ID,
			AuthorID: post.FromID,
			Likes:    post.Likes.Count,
			Date:     post.Date,
		})
	}
	return result, nil
}

// CollectLikers enumerates the likers of the given posts. Post ids are
// consumed from the end of the working set; only completeness matters, not
// processing order. A batch call returning no data for a group of posts is
// tolerated and contributes nothing.
func (c *Collector) CollectLikers(ctx context.Context, postIDs []int64) ([]int64, error) {
	ids := make([]int64, len(postIDs))
	copy(ids, postIDs)

	var likers []int64
	progress := newProgressTracker(c.logger, "getting likers", len(ids))
	done := 0

	for _, size := range LikerPlan(len(ids)) {
		progress.update(done)

		batch := make([]int64, 0, size)
		for i := 0; i < size; i++ {
			batch = append(batch, ids[len(ids)-1])
			ids = ids[:len(ids)-1]
		}

		var found []int64
		var err error
		if size == 1 {
			found, err = c.client.LikesGetList(ctx, c.wall.OwnerID, batch[0])
		} else {
			found, err = c.client.LikesGetBigList(ctx, c.wall.OwnerID, batch)
		}
		if err != nil {
			return nil, err
		}

		likers = append(likers, found...)
		done += size
	}
	return likers, nil
}

// ResolveUsers resolves subject ids to profiles in sequential chunks of the
// provider's batch limit. No output order is guaranteed beyond all ids
// being resolved.
func (c *Collector) ResolveUsers(ctx context.Context, userIDs []int64) ([]vk.User, error) {
	var users []vk.User
	progress := newProgressTracker(c.logger, "getting users", len(userIDs))

	for start := 0; start < len(userIDs); start += UsersChunk {
		progress.update(start)
		end := start + UsersChunk
		if end > len(userIDs) {
			end = len(userIDs)
		}
		batch, err := c.client.UsersGet(ctx, userIDs[start:end])
		if err != nil {
			return nil, err
		}
		users = append(users, batch...)
	}
	return users, nil
}
