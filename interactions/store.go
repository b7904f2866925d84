package interactions

import (
	"slices"
	"sync"

	"github.com/nasermirzaei89/lms/discuss"
	"github.com/nasermirzaei89/lms/knowledge"
)

// Store is the session-scoped cache of everything the coordinator mutates.
// Readers get copies; only the coordinator writes to cached entities after
// they are loaded. Reset drops everything, e.g. on logout.
type Store struct {
	mu          sync.RWMutex
	generation  uint64
	articles    map[string]knowledge.Article
	replies     map[string]*discuss.Reply
	discussions map[string][]string
	ordered     map[string][]*discuss.Reply
}

func NewStore() *Store {
	store := &Store{}
	store.init()

	return store
}

func (store *Store) init() {
	store.articles = make(map[string]knowledge.Article)
	store.replies = make(map[string]*discuss.Reply)
	store.discussions = make(map[string][]string)
	store.ordered = make(map[string][]*discuss.Reply)
}

func (store *Store) Reset() {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.generation++
	store.init()
}

func (store *Store) PutArticle(article knowledge.Article) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.articles[article.ID] = article
}

func (store *Store) Article(articleID string) (knowledge.Article, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	article, ok := store.articles[articleID]

	return article, ok
}

// PutDiscussion replaces the cached replies of a discussion. Replies are
// expected oldest first.
func (store *Store) PutDiscussion(discussionID string, replies []*discuss.Reply) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, replyID := range store.discussions[discussionID] {
		delete(store.replies, replyID)
	}

	replyIDs := make([]string, 0, len(replies))

	for _, reply := range replies {
		clone := reply.Clone()
		clone.DiscussionID = discussionID
		store.replies[clone.ID] = clone
		replyIDs = append(replyIDs, clone.ID)
	}

	store.discussions[discussionID] = replyIDs
	store.resort(discussionID)
}

func (store *Store) HasDiscussion(discussionID string) bool {
	store.mu.RLock()
	defer store.mu.RUnlock()

	_, ok := store.discussions[discussionID]

	return ok
}

func (store *Store) Reply(replyID string) (*discuss.Reply, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	reply, ok := store.replies[replyID]
	if !ok {
		return nil, false
	}

	return reply.Clone(), true
}

// Thread returns the discussion's replies ordered by net score.
func (store *Store) Thread(discussionID string, expanded bool, limit int) (discuss.Thread, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	ordered, ok := store.ordered[discussionID]
	if !ok {
		return discuss.Thread{}, false
	}

	replies := make([]*discuss.Reply, 0, len(ordered))
	for _, reply := range ordered {
		replies = append(replies, reply.Clone())
	}

	return discuss.Thread{
		DiscussionID: discussionID,
		Replies:      replies,
		Expanded:     expanded,
		Limit:        limit,
	}, true
}

func (store *Store) currentGeneration() uint64 {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.generation
}

// updateArticle applies fn to the cached article if it is still present and
// the store has not been reset since generation.
func (store *Store) updateArticle(generation uint64, articleID string, fn func(knowledge.Article) knowledge.Article) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.generation != generation {
		return false
	}

	article, ok := store.articles[articleID]
	if !ok {
		return false
	}

	store.articles[articleID] = fn(article)

	return true
}

// updateReply applies fn to the cached reply and re-sorts its discussion.
func (store *Store) updateReply(generation uint64, replyID string, fn func(*discuss.Reply)) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.generation != generation {
		return false
	}

	reply, ok := store.replies[replyID]
	if !ok {
		return false
	}

	fn(reply)
	store.resort(reply.DiscussionID)

	return true
}

func (store *Store) appendReply(generation uint64, reply *discuss.Reply) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.generation != generation {
		return false
	}

	if _, ok := store.discussions[reply.DiscussionID]; !ok {
		return false
	}

	store.replies[reply.ID] = reply.Clone()
	store.discussions[reply.DiscussionID] = append(store.discussions[reply.DiscussionID], reply.ID)
	store.resort(reply.DiscussionID)

	return true
}

// replaceReply swaps a cached reply for another one in the same position.
func (store *Store) replaceReply(generation uint64, replyID string, replacement *discuss.Reply) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.generation != generation {
		return false
	}

	old, ok := store.replies[replyID]
	if !ok {
		return false
	}

	ids := store.discussions[old.DiscussionID]

	idx := slices.Index(ids, replyID)
	if idx < 0 {
		return false
	}

	clone := replacement.Clone()
	clone.DiscussionID = old.DiscussionID

	delete(store.replies, replyID)
	store.replies[clone.ID] = clone
	ids[idx] = clone.ID
	store.resort(old.DiscussionID)

	return true
}

func (store *Store) removeReply(generation uint64, replyID string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.generation != generation {
		return false
	}

	return store.removeReplyLocked(replyID)
}

func (store *Store) removeReplyLocked(replyID string) bool {
	reply, ok := store.replies[replyID]
	if !ok {
		return false
	}

	delete(store.replies, replyID)

	store.discussions[reply.DiscussionID] = slices.DeleteFunc(
		store.discussions[reply.DiscussionID],
		func(id string) bool { return id == replyID },
	)
	store.resort(reply.DiscussionID)

	return true
}

// resort rebuilds the ordered view of a discussion from scratch. The caller
// holds the write lock.
func (store *Store) resort(discussionID string) {
	ids, ok := store.discussions[discussionID]
	if !ok {
		delete(store.ordered, discussionID)

		return
	}

	replies := make([]*discuss.Reply, 0, len(ids))
	for _, id := range ids {
		replies = append(replies, store.replies[id])
	}

	store.ordered[discussionID] = discuss.SortByNetScore(replies)
}
