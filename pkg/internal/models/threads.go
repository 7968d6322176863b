package models

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

type ThreadType = string

const (
	ThreadTypeDirect = ThreadType("direct")
	ThreadTypeGroup  = ThreadType("group")
)

type ChatThread struct {
	BaseModel

	Type        ThreadType     `json:"type" gorm:"index"`
	Name        *string        `json:"name"`
	AvatarURL   *string        `json:"avatar_url"`
	OwnerUserID *string        `json:"owner_user_id" gorm:"index"`
	ClubID      *string        `json:"club_id" gorm:"index"`
	DirectKey   *string        `json:"direct_key,omitempty" gorm:"uniqueIndex"`
	Members     []ThreadMember `json:"members"`
}

type ThreadMember struct {
	BaseModel

	ThreadID string `json:"thread_id" gorm:"uniqueIndex:idx_thread_member_pair"`
	UserID   string `json:"user_id" gorm:"uniqueIndex:idx_thread_member_pair;index"`
}

// BuildDirectKey canonicalizes an unordered user pair; it backs the
// one-direct-thread-per-pair unique index.
func BuildDirectKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}

func (v ChatThread) MemberUserIDs() []string {
	return lo.Map(v.Members, func(item ThreadMember, _ int) string {
		return item.UserID
	})
}

func (v ChatThread) HasMember(userId string) bool {
	return lo.ContainsBy(v.Members, func(item ThreadMember) bool {
		return item.UserID == userId
	})
}

// DirectPeerID returns the other party of a direct thread from the viewer's
// perspective, falling back to the first member for degenerate rows.
func (v ChatThread) DirectPeerID(viewerId string) string {
	for _, member := range v.Members {
		if member.UserID != viewerId {
			return member.UserID
		}
	}
	if len(v.Members) > 0 {
		return v.Members[0].UserID
	}
	return ""
}
