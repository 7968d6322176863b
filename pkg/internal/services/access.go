package services

import (
	"context"

	"github.com/fairwaylink/messaging/pkg/internal/models"
)

// CanDirectMessage gates every direct-thread ensure and send: at least one of
// the two golfers must follow the other.
func (v *Chat) CanDirectMessage(ctx context.Context, userId, targetId string) error {
	forward, err := v.Follows.IsFollowing(ctx, userId, targetId)
	if err != nil {
		return err
	}
	if forward {
		return nil
	}

	backward, err := v.Follows.IsFollowing(ctx, targetId, userId)
	if err != nil {
		return err
	}
	if backward {
		return nil
	}

	return NewForbidden("chat is allowed only when at least one golfer follows the other")
}

func AssertThreadMember(thread models.ChatThread, userId string) error {
	if !thread.HasMember(userId) {
		return NewForbidden("you are not a member of this thread")
	}
	return nil
}

type creatorKind int

const (
	creatorGolfer = creatorKind(iota)
	creatorClubOwner
)

// resolveCreatorKind dispatches the two group-creation paths once, up front.
// A user who owns or manages a club creates club groups; everyone else is a
// plain golfer bound by the follow-graph rule.
func (v *Chat) resolveCreatorKind(ctx context.Context, userId string) (creatorKind, string, error) {
	clubId, err := v.Clubs.ClubManagedBy(ctx, userId)
	if err != nil {
		return creatorGolfer, "", err
	}
	if len(clubId) > 0 {
		return creatorClubOwner, clubId, nil
	}
	return creatorGolfer, "", nil
}
