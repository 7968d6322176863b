package services

import (
	"context"
	"regexp"

	"github.com/samber/lo"
)

// The leading group keeps the match off email local parts: the "@" must sit at
// the start of the text or after a non-word character.
var mentionPattern = regexp.MustCompile(`(?:^|[^\w])@([A-Za-z0-9_.-]{1,50})`)

const mentionScanLimit = 25

type HandleResolver func(ctx context.Context, handles []string) (map[string]string, error)

// ExtractMentionHandles pulls the distinct @handle tokens out of message text,
// case-sensitively, capped so pathological input cannot trigger unbounded
// directory lookups.
func ExtractMentionHandles(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	handles := lo.Uniq(lo.Map(matches, func(match []string, _ int) string {
		return match[1]
	}))
	if len(handles) > mentionScanLimit {
		handles = handles[:mentionScanLimit]
	}
	return handles
}

// ResolveMentions maps @handles in text to user ids, keeping only ids in the
// allow-set (the thread's membership). Mentions of outsiders are silently
// dropped, never errors.
func ResolveMentions(ctx context.Context, text string, allowed []string, resolve HandleResolver) ([]string, error) {
	handles := ExtractMentionHandles(text)
	if len(handles) == 0 {
		return nil, nil
	}

	resolved, err := resolve(ctx, handles)
	if err != nil {
		return nil, err
	}

	allowSet := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		allowSet[id] = struct{}{}
	}

	var out []string
	for _, handle := range handles {
		id, ok := resolved[handle]
		if !ok {
			continue
		}
		if _, ok := allowSet[id]; !ok {
			continue
		}
		if !lo.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}
