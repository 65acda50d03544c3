package stats

import (
	"context"

	"vkstats/pkg/vk"
)

// Client is the API surface the collector consumes. *vk.Client satisfies
// it; tests substitute a scripted fake.
type Client interface {
	ResolveScreenName(ctx context.Context, screenName string) (*vk.ResolvedName, error)
	GroupsGetByID(ctx context.Context, groupID int64) (*vk.Group, error)
	UsersGet(ctx context.Context, userIDs []int64) ([]vk.User, error)
	WallGet(ctx context.Context, ownerID int64, offset, count int, filter string) (*vk.WallPage, error)
	WallGetThousand(ctx context.Context, ownerID int64, offset int, filter string) ([]vk.Post, error)
	LikesGetBigList(ctx context.Context, ownerID int64, postIDs []int64) ([]int64, error)
	LikesGetList(ctx context.Context, ownerID, itemID int64) ([]int64, error)
}
