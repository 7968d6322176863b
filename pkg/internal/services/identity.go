package services

import (
	"context"
	"fmt"

	localCache "github.com/fairwaylink/messaging/pkg/internal/cache"
	"github.com/fairwaylink/messaging/pkg/internal/models"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
)

// The thread-identity cache keeps the hot "does this user belong to this
// thread" lookup off the database; every membership mutation flushes the
// thread's tag.

type threadIdentityEntry struct {
	Thread models.ChatThread
}

func GetThreadIdentityCacheKey(threadId, userId string) string {
	return fmt.Sprintf("thread-identity-%s#%s", threadId, userId)
}

func (v *Chat) getAvailableThread(ctx context.Context, threadId, userId string) (models.ChatThread, error) {
	if localCache.S != nil {
		marshal := marshaler.New(cache.New[any](localCache.S))
		if val, err := marshal.Get(ctx, GetThreadIdentityCacheKey(threadId, userId), new(threadIdentityEntry)); err == nil {
			return val.(*threadIdentityEntry).Thread, nil
		}
	}

	thread, err := v.Threads.GetThread(ctx, threadId)
	if err == ErrRecordMissing {
		return thread, NewNotFound("thread not found")
	} else if err != nil {
		return thread, err
	}
	if err := AssertThreadMember(thread, userId); err != nil {
		return thread, err
	}

	if localCache.S != nil {
		marshal := marshaler.New(cache.New[any](localCache.S))
		_ = marshal.Set(
			ctx,
			GetThreadIdentityCacheKey(threadId, userId),
			threadIdentityEntry{thread},
			store.WithTags([]string{
				"thread-identity",
				fmt.Sprintf("thread#%s", thread.ID),
				fmt.Sprintf("user#%s", userId),
			}),
		)
	}

	return thread, nil
}

// CheckThreadAccess is the gateway's join-time authorization hook.
func (v *Chat) CheckThreadAccess(ctx context.Context, threadId, userId string) error {
	_, err := v.getAvailableThread(ctx, threadId, userId)
	return err
}

func (v *Chat) flushThreadIdentity(threadId string) {
	if localCache.S == nil {
		return
	}

	marshal := marshaler.New(cache.New[any](localCache.S))
	_ = marshal.Invalidate(
		context.Background(),
		store.WithInvalidateTags([]string{fmt.Sprintf("thread#%s", threadId)}),
	)
}
