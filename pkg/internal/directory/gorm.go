package directory

import (
	"context"
	"errors"

	"github.com/fairwaylink/messaging/pkg/internal/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("profile not found")

type GormProfileProvider struct {
	DB *gorm.DB
}

func (v GormProfileProvider) GetProfile(ctx context.Context, userId string) (Profile, error) {
	var account models.Account
	if err := v.DB.WithContext(ctx).Where("id = ?", userId).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, err
	}

	return profileOf(account), nil
}

func (v GormProfileProvider) ResolveHandles(ctx context.Context, handles []string) (map[string]string, error) {
	if len(handles) == 0 {
		return map[string]string{}, nil
	}

	var accounts []models.Account
	if err := v.DB.WithContext(ctx).Where("name IN ?", handles).Find(&accounts).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(accounts))
	for _, account := range accounts {
		out[account.Name] = account.ID
	}
	return out, nil
}

func profileOf(account models.Account) Profile {
	display := account.Nick
	if len(display) == 0 {
		display = account.Name
	}
	return Profile{
		ID:          account.ID,
		DisplayName: display,
		Email:       account.Email,
		AvatarURL:   account.Avatar,
	}
}

type GormFollowGraph struct {
	DB *gorm.DB
}

func (v GormFollowGraph) IsFollowing(ctx context.Context, followerId, followingId string) (bool, error) {
	var count int64
	if err := v.DB.WithContext(ctx).Model(&models.SocialFollow{}).
		Where("follower_user_id = ? AND following_user_id = ?", followerId, followingId).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (v GormFollowGraph) ListFollowingIDs(ctx context.Context, userId string) ([]string, error) {
	var follows []models.SocialFollow
	if err := v.DB.WithContext(ctx).
		Where("follower_user_id = ?", userId).
		Find(&follows).Error; err != nil {
		return nil, err
	}

	return lo.Map(follows, func(item models.SocialFollow, _ int) string {
		return item.FollowingUserID
	}), nil
}

type GormClubDirectory struct {
	DB *gorm.DB
}

func (v GormClubDirectory) GetRoster(ctx context.Context, clubId string) (ClubRoster, error) {
	var club models.Club
	if err := v.DB.WithContext(ctx).Where("id = ?", clubId).First(&club).Error; err != nil {
		return ClubRoster{}, err
	}

	var members []models.ClubMember
	if err := v.DB.WithContext(ctx).Where("club_id = ?", clubId).Find(&members).Error; err != nil {
		return ClubRoster{}, err
	}

	roster := ClubRoster{ManagerOwner: club.OwnerUserID}
	for _, member := range members {
		if member.Role == models.ClubRoleManager {
			roster.Managers = append(roster.Managers, member.UserID)
		} else {
			roster.Members = append(roster.Members, member.UserID)
		}
	}
	return roster, nil
}

func (v GormClubDirectory) ClubManagedBy(ctx context.Context, userId string) (string, error) {
	var club models.Club
	err := v.DB.WithContext(ctx).Where("owner_user_id = ?", userId).First(&club).Error
	if err == nil {
		return club.ID, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var membership models.ClubMember
	err = v.DB.WithContext(ctx).
		Where("user_id = ? AND role = ?", userId, models.ClubRoleManager).
		First(&membership).Error
	if err == nil {
		return membership.ClubID, nil
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return "", err
}

func (v GormClubDirectory) GetClubForUser(ctx context.Context, userId string) (string, error) {
	var membership models.ClubMember
	err := v.DB.WithContext(ctx).Where("user_id = ?", userId).First(&membership).Error
	if err == nil {
		return membership.ClubID, nil
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return "", err
}
