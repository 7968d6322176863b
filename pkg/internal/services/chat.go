package services

import (
	"context"
	"sort"

	"github.com/fairwaylink/messaging/pkg/internal/directory"
	"github.com/fairwaylink/messaging/pkg/internal/models"
	"github.com/samber/lo"
)

// Chat orchestrates the thread/message stores and the platform directory into
// the operations both the REST layer and the realtime gateway call.
type Chat struct {
	Threads  ThreadStore
	Messages MessageStore
	Profiles directory.ProfileProvider
	Follows  directory.FollowGraph
	Clubs    directory.ClubDirectory
	Notifier Notifier
}

type CreateGroupInput struct {
	Name          string   `json:"name" validate:"required"`
	ClubID        string   `json:"club_id"`
	AvatarURL     string   `json:"avatar_url"`
	MemberUserIDs []string `json:"member_user_ids"`
}

// EnsureDirectThread finds or creates the single direct thread for a user
// pair. Idempotent: the canonical direct key makes repeated calls, in either
// argument order, land on the same row.
func (v *Chat) EnsureDirectThread(ctx context.Context, userId, targetId string) (ThreadSummary, error) {
	thread, err := v.ensureDirectThread(ctx, userId, targetId)
	if err != nil {
		return ThreadSummary{}, err
	}
	return v.toThreadSummary(ctx, thread, nil, userId), nil
}

func (v *Chat) ensureDirectThread(ctx context.Context, userId, targetId string) (models.ChatThread, error) {
	if err := v.CanDirectMessage(ctx, userId, targetId); err != nil {
		return models.ChatThread{}, err
	}

	key := models.BuildDirectKey(userId, targetId)
	thread, err := v.Threads.GetDirectThread(ctx, key)
	if err == nil {
		return thread, nil
	} else if err != ErrRecordMissing {
		return thread, err
	}

	thread = models.ChatThread{
		Type:      models.ThreadTypeDirect,
		DirectKey: lo.ToPtr(key),
		Members: []models.ThreadMember{
			{UserID: userId},
			{UserID: targetId},
		},
	}
	if err := v.Threads.CreateThread(ctx, &thread); err != nil {
		// Lost the race against a concurrent ensure; the unique index
		// guarantees the winner's row is the one to use.
		if existing, getErr := v.Threads.GetDirectThread(ctx, key); getErr == nil {
			return existing, nil
		}
		return thread, err
	}
	return thread, nil
}

func (v *Chat) CreateGroup(ctx context.Context, ownerId string, payload CreateGroupInput) (ThreadSummary, error) {
	name := trimmed(payload.Name)
	if len(name) == 0 {
		return ThreadSummary{}, NewBadRequest("group name is required")
	}

	requested := lo.Uniq(lo.Filter(payload.MemberUserIDs, func(id string, _ int) bool {
		return len(id) > 0 && id != ownerId
	}))

	kind, ownClubId, err := v.resolveCreatorKind(ctx, ownerId)
	if err != nil {
		return ThreadSummary{}, err
	}

	var members []string
	var clubId *string
	switch kind {
	case creatorClubOwner:
		members, err = v.clubGroupMembers(ctx, ownerId, ownClubId, requested)
		clubId = lo.ToPtr(ownClubId)
	default:
		members, clubId, err = v.golferGroupMembers(ctx, ownerId, payload.ClubID, requested)
	}
	if err != nil {
		return ThreadSummary{}, err
	}

	thread := models.ChatThread{
		Type:        models.ThreadTypeGroup,
		Name:        lo.ToPtr(name),
		OwnerUserID: lo.ToPtr(ownerId),
		ClubID:      clubId,
		Members: lo.Map(members, func(id string, _ int) models.ThreadMember {
			return models.ThreadMember{UserID: id}
		}),
	}
	if len(trimmed(payload.AvatarURL)) > 0 {
		thread.AvatarURL = lo.ToPtr(trimmed(payload.AvatarURL))
	}

	if err := v.Threads.CreateThread(ctx, &thread); err != nil {
		return ThreadSummary{}, err
	}
	return v.toThreadSummary(ctx, thread, nil, ownerId), nil
}

// clubGroupMembers filters the requested set against the club roster; when
// nothing requested survives the filter, the group defaults to the whole club.
func (v *Chat) clubGroupMembers(ctx context.Context, ownerId, clubId string, requested []string) ([]string, error) {
	roster, err := v.Clubs.GetRoster(ctx, clubId)
	if err != nil {
		return nil, NewNotFound("club not found")
	}

	rosterIds := roster.UserIDs()
	filtered := lo.Filter(requested, func(id string, _ int) bool {
		return lo.Contains(rosterIds, id)
	})

	if len(filtered) == 0 {
		return lo.Uniq(append([]string{ownerId}, rosterIds...)), nil
	}
	return lo.Uniq(append([]string{ownerId}, filtered...)), nil
}

func (v *Chat) golferGroupMembers(ctx context.Context, ownerId, clubId string, requested []string) ([]string, *string, error) {
	var clubRef *string
	if len(clubId) > 0 {
		roster, err := v.Clubs.GetRoster(ctx, clubId)
		if err != nil {
			return nil, nil, NewBadRequest("unable to resolve the club for this group")
		}
		rosterIds := roster.UserIDs()
		if !lo.Contains(rosterIds, ownerId) {
			return nil, nil, NewBadRequest("you do not belong to this club")
		}
		for _, id := range requested {
			if !lo.Contains(rosterIds, id) {
				return nil, nil, NewForbidden("group members must belong to the same club")
			}
		}
		clubRef = lo.ToPtr(clubId)
	}

	followingIds, err := v.Follows.ListFollowingIDs(ctx, ownerId)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range requested {
		if !lo.Contains(followingIds, id) {
			return nil, nil, NewForbidden("you can only add golfers you follow to a group")
		}
	}

	members := lo.Uniq(append([]string{ownerId}, requested...))
	if len(members) < 2 {
		return nil, nil, NewBadRequest("add at least one other golfer to create a group")
	}
	return members, clubRef, nil
}

func (v *Chat) AddGroupMembers(ctx context.Context, ownerId, threadId string, memberIds []string) (ThreadSummary, error) {
	thread, err := v.getGroupOwnedBy(ctx, ownerId, threadId)
	if err != nil {
		return ThreadSummary{}, err
	}

	updated, err := v.Threads.AddMembers(ctx, thread.ID, memberIds)
	if err != nil {
		return ThreadSummary{}, err
	}
	v.flushThreadIdentity(thread.ID)

	return v.toThreadSummary(ctx, updated, nil, ownerId), nil
}

func (v *Chat) RemoveGroupMember(ctx context.Context, ownerId, threadId, memberId string) (ThreadSummary, error) {
	thread, err := v.getGroupOwnedBy(ctx, ownerId, threadId)
	if err != nil {
		return ThreadSummary{}, err
	}
	if memberId == ownerId {
		return ThreadSummary{}, NewBadRequest("the group owner cannot be removed")
	}

	updated, err := v.Threads.RemoveMember(ctx, thread.ID, memberId)
	if err != nil {
		return ThreadSummary{}, err
	}
	v.flushThreadIdentity(thread.ID)

	return v.toThreadSummary(ctx, updated, nil, ownerId), nil
}

func (v *Chat) getGroupOwnedBy(ctx context.Context, ownerId, threadId string) (models.ChatThread, error) {
	thread, err := v.Threads.GetThread(ctx, threadId)
	if err == ErrRecordMissing {
		return thread, NewNotFound("group not found")
	} else if err != nil {
		return thread, err
	}
	if thread.Type != models.ThreadTypeGroup {
		return thread, NewNotFound("group not found")
	}
	if thread.OwnerUserID == nil || *thread.OwnerUserID != ownerId {
		return thread, NewForbidden("only the group owner can manage members")
	}
	return thread, nil
}

func (v *Chat) ListThreadsForUser(ctx context.Context, userId string, threadType models.ThreadType) ([]ThreadSummary, error) {
	if len(threadType) > 0 && threadType != models.ThreadTypeDirect && threadType != models.ThreadTypeGroup {
		return nil, NewBadRequest("thread type filter must be direct or group")
	}

	threads, err := v.Threads.ListThreadsForUser(ctx, userId, threadType)
	if err != nil {
		return nil, err
	}

	return lo.Map(threads, func(thread models.ChatThread, _ int) ThreadSummary {
		return v.toThreadSummary(ctx, thread, nil, userId)
	}), nil
}

// ListThreadsForClub branches on the viewer's relationship to the club: its
// employees see the club's own groups, a member golfer additionally sees their
// direct threads whose peer belongs to the same club.
func (v *Chat) ListThreadsForClub(ctx context.Context, viewerId, clubId string) ([]ThreadSummary, error) {
	managed, err := v.Clubs.ClubManagedBy(ctx, viewerId)
	if err != nil {
		return nil, err
	}

	if managed == clubId {
		groups, err := v.Threads.ListGroupsForClub(ctx, clubId)
		if err != nil {
			return nil, err
		}
		return lo.Map(groups, func(thread models.ChatThread, _ int) ThreadSummary {
			return v.toThreadSummary(ctx, thread, nil, viewerId)
		}), nil
	}

	roster, err := v.Clubs.GetRoster(ctx, clubId)
	if err != nil {
		return nil, NewNotFound("club not found")
	}
	rosterIds := roster.UserIDs()
	if !lo.Contains(rosterIds, viewerId) {
		return nil, NewForbidden("you do not belong to this club")
	}

	groups, err := v.Threads.ListGroupsForClub(ctx, clubId)
	if err != nil {
		return nil, err
	}

	directs, err := v.Threads.ListThreadsForUser(ctx, viewerId, models.ThreadTypeDirect)
	if err != nil {
		return nil, err
	}
	qualifying := lo.Filter(directs, func(thread models.ChatThread, _ int) bool {
		return lo.Contains(rosterIds, thread.DirectPeerID(viewerId))
	})

	combined := append(groups, qualifying...)
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].UpdatedAt.After(combined[j].UpdatedAt)
	})

	return lo.Map(combined, func(thread models.ChatThread, _ int) ThreadSummary {
		return v.toThreadSummary(ctx, thread, nil, viewerId)
	}), nil
}
