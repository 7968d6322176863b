package directory

import "context"

// The chat core treats the platform's user, social-graph and club services as
// collaborators behind these interfaces. The gorm implementations below read
// the platform tables directly; a future split into separate services only has
// to swap these out.

type Profile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	AvatarURL   *string `json:"avatar_url"`
}

type ProfileProvider interface {
	GetProfile(ctx context.Context, userId string) (Profile, error)
	// ResolveHandles maps handle text to user ids; unknown handles are absent
	// from the result, not errors.
	ResolveHandles(ctx context.Context, handles []string) (map[string]string, error)
}

type FollowGraph interface {
	IsFollowing(ctx context.Context, followerId, followingId string) (bool, error)
	ListFollowingIDs(ctx context.Context, userId string) ([]string, error)
}

type ClubRoster struct {
	ManagerOwner string   `json:"manager_owner"`
	Managers     []string `json:"managers"`
	Members      []string `json:"members"`
}

// UserIDs flattens the roster into a deduplicated id list.
func (v ClubRoster) UserIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	push := func(id string) {
		if len(id) == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	push(v.ManagerOwner)
	for _, id := range v.Managers {
		push(id)
	}
	for _, id := range v.Members {
		push(id)
	}
	return out
}

type ClubDirectory interface {
	GetRoster(ctx context.Context, clubId string) (ClubRoster, error)
	// ClubManagedBy reports the club a user owns or manages, empty when none.
	ClubManagedBy(ctx context.Context, userId string) (string, error)
	// GetClubForUser reports the club a user belongs to as a plain member,
	// empty when none.
	GetClubForUser(ctx context.Context, userId string) (string, error)
}
