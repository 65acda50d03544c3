package vk

// ResolvedName is the result of resolving a screen name to an object.
type ResolvedName struct {
	Type     string `json:"type"`
	ObjectID int64  `json:"object_id"`
}

// Group holds the group fields this client consumes.
type Group struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

// User holds the profile fields this client consumes. Deactivated is the
// provider's deletion/ban tag, empty for live accounts.
type User struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ScreenName  string `json:"screen_name"`
	Deactivated string `json:"deactivated,omitempty"`
}

// Likes is the like counter attached to a post.
type Likes struct {
	Count int `json:"count"`
}

// Post is a single wall post. Date is a unix timestamp; the API returns
// posts newest-first.
type Post struct {
	ID     int64 `json:"id"`
	FromID int64 `json:"from_id"`
	Date   int64 `json:"date"`
	Likes  Likes `json:"likes"`
}

// WallPage is one page of wall.get results.
type WallPage struct {
	Count int    `json:"count"`
	Items []Post `json:"items"`
}

// LikesList is the likes.getList payload.
type LikesList struct {
	Count int     `json:"count"`
	Items []int64 `json:"items"`
}
