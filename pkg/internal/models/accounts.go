package models

// Directory rows. These tables belong to the platform's user/social/club
// services; the chat core only reads them through the directory package.

type Account struct {
	BaseModel

	Name   string  `json:"name" gorm:"uniqueIndex"`
	Nick   string  `json:"nick"`
	Email  string  `json:"email" gorm:"uniqueIndex"`
	Avatar *string `json:"avatar"`
}

type SocialFollow struct {
	BaseModel

	FollowerUserID  string `json:"follower_user_id" gorm:"uniqueIndex:idx_follow_pair;index"`
	FollowingUserID string `json:"following_user_id" gorm:"uniqueIndex:idx_follow_pair;index"`
}

type Club struct {
	BaseModel

	Name        string `json:"name"`
	OwnerUserID string `json:"owner_user_id" gorm:"index"`
}

type ClubRole = string

const (
	ClubRoleManager = ClubRole("manager")
	ClubRoleMember  = ClubRole("member")
)

type ClubMember struct {
	BaseModel

	ClubID string   `json:"club_id" gorm:"uniqueIndex:idx_club_member_pair"`
	UserID string   `json:"user_id" gorm:"uniqueIndex:idx_club_member_pair;index"`
	Role   ClubRole `json:"role"`
}
