package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fairwaylink/messaging/pkg/internal/directory"
	"github.com/fairwaylink/messaging/pkg/internal/models"
)

// In-memory stand-ins for the gorm stores and the platform directory. They
// enforce the same uniqueness rules the database indexes do so the service
// logic is exercised against realistic failure modes.

type memThreadStore struct {
	mu      sync.Mutex
	seq     int
	threads map[string]*models.ChatThread
}

func newMemThreadStore() *memThreadStore {
	return &memThreadStore{threads: make(map[string]*models.ChatThread)}
}

func (s *memThreadStore) nextId(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memThreadStore) GetThread(_ context.Context, id string) (models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if thread, ok := s.threads[id]; ok {
		return *thread, nil
	}
	return models.ChatThread{}, ErrRecordMissing
}

func (s *memThreadStore) GetDirectThread(_ context.Context, directKey string) (models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, thread := range s.threads {
		if thread.DirectKey != nil && *thread.DirectKey == directKey {
			return *thread, nil
		}
	}
	return models.ChatThread{}, ErrRecordMissing
}

func (s *memThreadStore) CreateThread(_ context.Context, thread *models.ChatThread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if thread.DirectKey != nil {
		for _, existing := range s.threads {
			if existing.DirectKey != nil && *existing.DirectKey == *thread.DirectKey {
				return fmt.Errorf("duplicate direct key %q", *thread.DirectKey)
			}
		}
	}
	thread.ID = s.nextId("thread")
	thread.CreatedAt = time.Now()
	thread.UpdatedAt = thread.CreatedAt
	clone := *thread
	s.threads[thread.ID] = &clone
	return nil
}

func (s *memThreadStore) AddMembers(_ context.Context, id string, userIds []string) (models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[id]
	if !ok {
		return models.ChatThread{}, ErrRecordMissing
	}
	for _, userId := range userIds {
		if thread.HasMember(userId) {
			continue
		}
		thread.Members = append(thread.Members, models.ThreadMember{ThreadID: id, UserID: userId})
	}
	return *thread, nil
}

func (s *memThreadStore) RemoveMember(_ context.Context, id string, userId string) (models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[id]
	if !ok {
		return models.ChatThread{}, ErrRecordMissing
	}
	kept := thread.Members[:0]
	for _, member := range thread.Members {
		if member.UserID != userId {
			kept = append(kept, member)
		}
	}
	thread.Members = kept
	return *thread, nil
}

func (s *memThreadStore) TouchThread(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[id]
	if !ok {
		return ErrRecordMissing
	}
	thread.UpdatedAt = time.Now()
	return nil
}

func (s *memThreadStore) ListThreadsForUser(_ context.Context, userId string, threadType models.ThreadType) ([]models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatThread
	for _, thread := range s.threads {
		if !thread.HasMember(userId) {
			continue
		}
		if len(threadType) > 0 && thread.Type != threadType {
			continue
		}
		out = append(out, *thread)
	}
	sortThreadsByRecency(out)
	return out, nil
}

func (s *memThreadStore) ListGroupsForClub(_ context.Context, clubId string) ([]models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatThread
	for _, thread := range s.threads {
		if thread.Type == models.ThreadTypeGroup && thread.ClubID != nil && *thread.ClubID == clubId {
			out = append(out, *thread)
		}
	}
	sortThreadsByRecency(out)
	return out, nil
}

// Most-recently-updated first, matching the persisted stores.
func sortThreadsByRecency(threads []models.ChatThread) {
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
}

type memMessageStore struct {
	mu       sync.Mutex
	seq      int
	messages map[string]*models.ChatMessage
	order    []string
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{messages: make(map[string]*models.ChatMessage)}
}

func (s *memMessageStore) GetMessage(_ context.Context, id string) (models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if message, ok := s.messages[id]; ok {
		return *message, nil
	}
	return models.ChatMessage{}, ErrRecordMissing
}

func (s *memMessageStore) CreateMessage(_ context.Context, message *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	message.ID = fmt.Sprintf("message-%d", s.seq)
	message.CreatedAt = time.Now()
	message.UpdatedAt = message.CreatedAt
	clone := *message
	s.messages[message.ID] = &clone
	s.order = append(s.order, message.ID)
	return nil
}

func (s *memMessageStore) ListMessages(_ context.Context, threadId string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, id := range s.order {
		if s.messages[id].ThreadID == threadId {
			out = append(out, *s.messages[id])
		}
	}
	return out, nil
}

func (s *memMessageStore) LastMessage(_ context.Context, threadId string) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		if message := s.messages[s.order[i]]; message.ThreadID == threadId {
			clone := *message
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *memMessageStore) ToggleReaction(_ context.Context, messageId, userId, emoji string) (ReactionAction, []models.MessageReaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.messages[messageId]
	if !ok {
		return "", nil, ErrRecordMissing
	}

	action := ReactionSet
	kept := message.Reactions[:0]
	replaced := false
	for _, reaction := range message.Reactions {
		if reaction.UserID != userId {
			kept = append(kept, reaction)
			continue
		}
		if reaction.Emoji == emoji {
			action = ReactionRemoved
			replaced = true
			continue
		}
		reaction.Emoji = emoji
		reaction.ReactedAt = time.Now()
		kept = append(kept, reaction)
		replaced = true
	}
	if !replaced {
		kept = append(kept, models.MessageReaction{
			MessageID: messageId,
			UserID:    userId,
			Emoji:     emoji,
			ReactedAt: time.Now(),
		})
	}
	message.Reactions = kept

	out := make([]models.MessageReaction, len(message.Reactions))
	copy(out, message.Reactions)
	return action, out, nil
}

type fakeDirectory struct {
	profiles map[string]directory.Profile
	handles  map[string]string
	follows  map[string]bool
	rosters  map[string]directory.ClubRoster
	managed  map[string]string
	memberOf map[string]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		profiles: make(map[string]directory.Profile),
		handles:  make(map[string]string),
		follows:  make(map[string]bool),
		rosters:  make(map[string]directory.ClubRoster),
		managed:  make(map[string]string),
		memberOf: make(map[string]string),
	}
}

func (f *fakeDirectory) addUser(id, handle string) {
	f.profiles[id] = directory.Profile{ID: id, DisplayName: handle, Email: handle + "@example.com"}
	f.handles[handle] = id
}

func (f *fakeDirectory) follow(followerId, followingId string) {
	f.follows[followerId+">"+followingId] = true
}

func (f *fakeDirectory) unfollow(followerId, followingId string) {
	delete(f.follows, followerId+">"+followingId)
}

func (f *fakeDirectory) GetProfile(_ context.Context, userId string) (directory.Profile, error) {
	if profile, ok := f.profiles[userId]; ok {
		return profile, nil
	}
	return directory.Profile{}, fmt.Errorf("profile %q not found", userId)
}

func (f *fakeDirectory) ResolveHandles(_ context.Context, handles []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, handle := range handles {
		if id, ok := f.handles[handle]; ok {
			out[handle] = id
		}
	}
	return out, nil
}

func (f *fakeDirectory) IsFollowing(_ context.Context, followerId, followingId string) (bool, error) {
	return f.follows[followerId+">"+followingId], nil
}

func (f *fakeDirectory) ListFollowingIDs(_ context.Context, userId string) ([]string, error) {
	var out []string
	for key, ok := range f.follows {
		if !ok {
			continue
		}
		if len(key) > len(userId) && key[:len(userId)+1] == userId+">" {
			out = append(out, key[len(userId)+1:])
		}
	}
	return out, nil
}

func (f *fakeDirectory) GetRoster(_ context.Context, clubId string) (directory.ClubRoster, error) {
	if roster, ok := f.rosters[clubId]; ok {
		return roster, nil
	}
	return directory.ClubRoster{}, fmt.Errorf("club %q not found", clubId)
}

func (f *fakeDirectory) ClubManagedBy(_ context.Context, userId string) (string, error) {
	return f.managed[userId], nil
}

func (f *fakeDirectory) GetClubForUser(_ context.Context, userId string) (string, error) {
	return f.memberOf[userId], nil
}

// chanNotifier captures events over a channel since delivery is asynchronous.
type chanNotifier struct {
	events chan NotificationEvent
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{events: make(chan NotificationEvent, 16)}
}

func (n *chanNotifier) Notify(event NotificationEvent) {
	n.events <- event
}

func (n *chanNotifier) wait(timeout time.Duration) (NotificationEvent, bool) {
	select {
	case event := <-n.events:
		return event, true
	case <-time.After(timeout):
		return NotificationEvent{}, false
	}
}

func clubRoster(owner string, managers, members []string) directory.ClubRoster {
	return directory.ClubRoster{ManagerOwner: owner, Managers: managers, Members: members}
}

type testEnv struct {
	chat     *Chat
	threads  *memThreadStore
	messages *memMessageStore
	dir      *fakeDirectory
	notifier *chanNotifier
}

func newTestEnv() *testEnv {
	threads := newMemThreadStore()
	messages := newMemMessageStore()
	dir := newFakeDirectory()
	notifier := newChanNotifier()
	return &testEnv{
		chat: &Chat{
			Threads:  threads,
			Messages: messages,
			Profiles: dir,
			Follows:  dir,
			Clubs:    dir,
			Notifier: notifier,
		},
		threads:  threads,
		messages: messages,
		dir:      dir,
		notifier: notifier,
	}
}

func assertKind(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error of kind %d, got nil", want)
	}
	kind, ok := KindOf(err)
	if !ok {
		t.Fatalf("expected a classified error, got %v", err)
	}
	if kind != want {
		t.Fatalf("expected error kind %d, got %d (%v)", want, kind, err)
	}
}
