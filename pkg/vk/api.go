package vk

import (
	"context"
	"strconv"
	"strings"

	"vkstats/pkg/errors"
)

// TrackVisitor fires stats.trackVisitor once; VK requires it before the
// statistics methods report data.
func (c *Client) TrackVisitor(ctx context.Context) error {
	_, err := c.Call(ctx, "stats.trackVisitor", map[string]string{})
	return err
}

// ResolveScreenName resolves a screen name to an object id and type.
func (c *Client) ResolveScreenName(ctx context.Context, screenName string) (*ResolvedName, error) {
	var resolved ResolvedName
	err := c.CallInto(ctx, "utils.resolveScreenName", map[string]string{
		"screen_name": screenName,
	}, &resolved)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// GroupsGetByID fetches a single group by id.
func (c *Client) GroupsGetByID(ctx context.Context, groupID int64) (*Group, error) {
	var groups []Group
	err := c.CallInto(ctx, "groups.getById", map[string]string{
		"group_ids": strconv.FormatInt(groupID, 10),
	}, &groups)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, errors.Newf(errors.ErrorTypeParsing, "groups.getById returned no group for id %d", groupID)
	}
	return &groups[0], nil
}

// UsersGet resolves up to 1000 user ids to profiles in one call.
func (c *Client) UsersGet(ctx context.Context, userIDs []int64) ([]User, error) {
	var users []User
	err := c.CallInto(ctx, "users.get", map[string]string{
		"user_ids": joinIDs(userIDs),
		"fields":   "screen_name",
	}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// WallGet fetches one page of wall posts through the standard endpoint,
// capped at 100 per call.
func (c *Client) WallGet(ctx context.Context, ownerID int64, offset, count int, filter string) (*WallPage, error) {
	var page WallPage
	err := c.CallInto(ctx, "wall.get", map[string]string{
		"owner_id": strconv.FormatInt(ownerID, 10),
		"offset":   strconv.Itoa(offset),
		"count":    strconv.Itoa(count),
		"filter":   filter,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// WallGetThousand fetches up to 1000 posts in one request through the bulk
// execute endpoint: higher cost per call, an order of magnitude fewer calls.
func (c *Client) WallGetThousand(ctx context.Context, ownerID int64, offset int, filter string) ([]Post, error) {
	var posts []Post
	err := c.CallInto(ctx, "execute.wallGetThousand", map[string]string{
		"owner_id": strconv.FormatInt(ownerID, 10),
		"offset":   strconv.Itoa(offset),
		"filter":   filter,
	}, &posts)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// LikesGetBigList fetches the likers of up to 25 posts in one request
// through the micro-batch execute endpoint. A nil result for a group of
// posts is not an error; it simply contributes nothing.
func (c *Client) LikesGetBigList(ctx context.Context, ownerID int64, postIDs []int64) ([]int64, error) {
	var likers []int64
	err := c.CallInto(ctx, "execute.likesGetBigList", map[string]string{
		"wall":  strconv.FormatInt(ownerID, 10),
		"posts": joinIDs(postIDs),
	}, &likers)
	if err != nil {
		return nil, err
	}
	return likers, nil
}

// LikesGetList fetches the likers of a single post, capped at 1000.
func (c *Client) LikesGetList(ctx context.Context, ownerID, itemID int64) ([]int64, error) {
	var list LikesList
	err := c.CallInto(ctx, "likes.getList", map[string]string{
		"type":     "post",
		"owner_id": strconv.FormatInt(ownerID, 10),
		"item_id":  strconv.FormatInt(itemID, 10),
		"count":    "1000",
	}, &list)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// joinIDs renders ids as the comma-joined list the API expects.
func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
