package query

import (
	"fmt"
)

type Kind int

const (
	// KindAny only appears in selectors and matches every kind.
	KindAny Kind = iota
	KindAllPosts
	KindUserPosts
	KindPostDetails
)

func (k Kind) String() string {
	switch k {
	case KindAllPosts:
		return "all-posts"
	case KindUserPosts:
		return "user-posts"
	case KindPostDetails:
		return "post-details"
	default:
		return "any"
	}
}

// Key identifies one cached payload.
type Key struct {
	Kind   Kind
	UserID string
	PostID string
	Page   int
}

func AllPostsKey(page int) Key {
	return Key{Kind: KindAllPosts, Page: page}
}

func UserPostsKey(userID string, page int) Key {
	return Key{Kind: KindUserPosts, UserID: userID, Page: page}
}

func PostDetailsKey(postID string) Key {
	return Key{Kind: KindPostDetails, PostID: postID}
}

func (k Key) String() string {
	switch k.Kind {
	case KindAllPosts:
		return fmt.Sprintf("%s/%d", k.Kind, k.Page)
	case KindUserPosts:
		return fmt.Sprintf("%s/%s/%d", k.Kind, k.UserID, k.Page)
	default:
		return fmt.Sprintf("%s/%s", k.Kind, k.PostID)
	}
}

type Matcher interface {
	Matches(key Key) bool
}

func (k Key) Matches(other Key) bool {
	return k == other
}

// Selector matches every key whose non-zero fields equal the selector's. The
// page is never part of a selector, invalidation always spans all pages.
type Selector struct {
	Kind   Kind
	UserID string
	PostID string
}

func (s Selector) Matches(key Key) bool {
	return (s.Kind == KindAny || s.Kind == key.Kind) &&
		(s.UserID == "" || s.UserID == key.UserID) &&
		(s.PostID == "" || s.PostID == key.PostID)
}

func (s Selector) String() string {
	return fmt.Sprintf("%s[user=%q post=%q]", s.Kind, s.UserID, s.PostID)
}

func AllPosts() Selector {
	return Selector{Kind: KindAllPosts}
}

// UserPosts selects the listings of userID, or of every user when empty.
func UserPosts(userID string) Selector {
	return Selector{Kind: KindUserPosts, UserID: userID}
}

func PostDetails(postID string) Selector {
	return Selector{Kind: KindPostDetails, PostID: postID}
}
