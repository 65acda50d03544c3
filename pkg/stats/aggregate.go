package stats

import (
	"context"
	"sort"
	"strings"

	"vkstats/pkg/errors"
	"vkstats/pkg/vk"
)

// Mode selects which statistic is gathered from the wall.
type Mode string

const (
	// ModePosts ranks authors by how many posts they made.
	ModePosts Mode = "posts"
	// ModeLikers ranks users by how many of the wall's posts they liked.
	ModeLikers Mode = "likers"
	// ModeLiked ranks authors by the total likes their posts received.
	ModeLiked Mode = "liked"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModePosts:
		return ModePosts, nil
	case ModeLikers:
		return ModeLikers, nil
	case ModeLiked:
		return ModeLiked, nil
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "invalid mode %q (must be posts, likers or liked)", s)
}

// ExportName is the mode label used in report headers and file names.
func (m Mode) ExportName() string {
	if m == ModeLiked {
		return "likes"
	}
	return string(m)
}

// WallFilter is the wall filter this mode scans with. Likers statistics
// cover everyone's posts; the author modes skip the owner's reposts.
func (m Mode) WallFilter() string {
	if m == ModeLikers {
		return "all"
	}
	return "others"
}

// RawPost is a single post fact produced by enumeration, immutable once
// produced.
type RawPost struct {
	ID       int64
	AuthorID int64
	Likes    int
	Date     int64
}

// RankedEntry pairs a subject with its summed metric.
type RankedEntry struct {
	Count int
	User  vk.User
}

// fact is one raw (subject, metric) observation prior to grouping.
type fact struct {
	subject int64
	metric  int
}

// Run gathers and ranks statistics for the given mode.
func (c *Collector) Run(ctx context.Context, mode Mode) ([]RankedEntry, error) {
	posts, err := c.CollectPosts(ctx)
	if err != nil {
		return nil, err
	}

	var facts []fact
	switch mode {
	case ModePosts:
		for _, post := range posts {
			facts = append(facts, fact{subject: post.AuthorID, metric: 1})
		}
	case ModeLiked:
		for _, post := range posts {
			facts = append(facts, fact{subject: post.AuthorID, metric: post.Likes})
		}
	case ModeLikers:
		postIDs := make([]int64, len(posts))
		for i, post := range posts {
			postIDs[i] = post.ID
		}
		likers, err := c.CollectLikers(ctx, postIDs)
		if err != nil {
			return nil, err
		}
		for _, liker := range likers {
			facts = append(facts, fact{subject: liker, metric: 1})
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "invalid mode %q", mode)
	}

	return c.rank(ctx, mode, facts)
}

// rank groups facts by subject, resolves subject identities and produces
// the descending ranking. A stable sort by metric with first-discovery
// order as the tie-break reproduces the ordering of repeated
// selection-of-the-maximum. Zero-metric subjects are dropped except in
// posts mode, where every author has at least one post by construction.
func (c *Collector) rank(ctx context.Context, mode Mode, facts []fact) ([]RankedEntry, error) {
	counts := make(map[int64]int)
	var order []int64
	for _, f := range facts {
		if _, seen := counts[f.subject]; !seen {
			order = append(order, f.subject)
		}
		counts[f.subject] += f.metric
	}

	users, err := c.ResolveUsers(ctx, order)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]vk.User, len(users))
	for _, user := range users {
		if user.Deactivated != "" {
			// Deleted and banned accounts keep their rank; the
			// deactivation tag takes the screen name's display slot.
			user.ScreenName = strings.ToUpper(user.Deactivated)
		}
		byID[user.ID] = user
	}

	entries := make([]RankedEntry, 0, len(order))
	for _, id := range order {
		user, resolved := byID[id]
		if !resolved {
			continue
		}
		count := counts[id]
		if count == 0 && mode != ModePosts {
			continue
		}
		entries = append(entries, RankedEntry{Count: count, User: user})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries, nil
}
