package discuss

import (
	"cmp"
	"slices"
)

// DefaultPreviewLimit is how many replies a collapsed thread shows.
const DefaultPreviewLimit = 2

// SortByNetScore returns a copy of replies ordered by net score, highest
// first. Replies with equal scores keep their relative input order.
func SortByNetScore(replies []*Reply) []*Reply {
	sorted := slices.Clone(replies)

	slices.SortStableFunc(sorted, func(a, b *Reply) int {
		return cmp.Compare(b.NetScore(), a.NetScore())
	})

	return sorted
}

// PreviewWindow returns the first limit replies of ordered along with whether
// and how many replies were left out.
func PreviewWindow(ordered []*Reply, limit int) ([]*Reply, bool, int) {
	limit = max(limit, 0)

	if len(ordered) <= limit {
		return ordered, false, 0
	}

	return ordered[:limit], true, len(ordered) - limit
}

// Thread is the rendered view of a discussion's replies. Expanding it is a
// presentation toggle; the ordering is the same either way.
type Thread struct {
	DiscussionID string
	Replies      []*Reply
	Expanded     bool
	Limit        int
}

func (thread Thread) Visible() []*Reply {
	if thread.Expanded {
		return thread.Replies
	}

	visible, _, _ := PreviewWindow(thread.Replies, thread.Limit)

	return visible
}

func (thread Thread) HasMore() bool {
	if thread.Expanded {
		return false
	}

	_, hasMore, _ := PreviewWindow(thread.Replies, thread.Limit)

	return hasMore
}

func (thread Thread) HiddenCount() int {
	if thread.Expanded {
		return 0
	}

	_, _, hidden := PreviewWindow(thread.Replies, thread.Limit)

	return hidden
}
