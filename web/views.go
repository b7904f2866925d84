package web

import (
	"github.com/nasermirzaei89/lms/authcontext"
	"github.com/nasermirzaei89/lms/discuss"
	"github.com/nasermirzaei89/lms/interactions"
	"github.com/nasermirzaei89/lms/knowledge"
)

type articleView struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	LikeCount      int    `json:"likeCount"`
	DislikeCount   int    `json:"dislikeCount"`
	LikePending    bool   `json:"likePending"`
	DislikePending bool   `json:"dislikePending"`
}

func newArticleView(article knowledge.Article, coordinator *interactions.Coordinator) articleView {
	return articleView{
		ID:             article.ID,
		Title:          article.Title,
		LikeCount:      article.LikeCount,
		DislikeCount:   article.DislikeCount,
		LikePending:    coordinator.IsPending(article.ID, interactions.KindLike),
		DislikePending: coordinator.IsPending(article.ID, interactions.KindDislike),
	}
}

type replyView struct {
	ID                string  `json:"id"`
	DiscussionID      string  `json:"discussionId"`
	AuthorID          string  `json:"authorId"`
	AuthorLabel       string  `json:"authorLabel"`
	CreatedAtLabel    string  `json:"createdAtLabel"`
	Content           string  `json:"content"`
	ReplyTo           *string `json:"replyTo,omitempty"`
	// ParentAuthorLabel is only known when the quoted reply is cached.
	ParentAuthorLabel string  `json:"parentAuthorLabel,omitempty"`
	NetScore          int     `json:"netScore"`
	UpvoteCount       int     `json:"upvoteCount"`
	DownvoteCount     int     `json:"downvoteCount"`
	HasUpvoted        bool    `json:"hasUpvoted"`
	HasDownvoted      bool    `json:"hasDownvoted"`
	UpvotePending     bool    `json:"upvotePending"`
	DownvotePending   bool    `json:"downvotePending"`
}

func newReplyView(reply *discuss.Reply, subject string, coordinator *interactions.Coordinator) replyView {
	view := replyView{
		ID:                reply.ID,
		DiscussionID:      reply.DiscussionID,
		AuthorID:          reply.AuthorID,
		AuthorLabel:       reply.AuthorLabel,
		CreatedAtLabel:    reply.CreatedAtLabel,
		Content:           reply.Content,
		ReplyTo:           reply.ReplyTo,
		ParentAuthorLabel: "",
		NetScore:          reply.NetScore(),
		UpvoteCount:       reply.UpvoteCount(),
		DownvoteCount:     reply.DownvoteCount(),
		HasUpvoted:        false,
		HasDownvoted:      false,
		UpvotePending:     coordinator.IsPending(reply.ID, interactions.KindUpvote),
		DownvotePending:   coordinator.IsPending(reply.ID, interactions.KindDownvote),
	}

	if subject != authcontext.Anonymous {
		view.HasUpvoted = reply.HasUpvoted(subject)
		view.HasDownvoted = reply.HasDownvoted(subject)
	}

	return view
}

type threadView struct {
	DiscussionID string      `json:"discussionId"`
	Replies      []replyView `json:"replies"`
	Expanded     bool        `json:"expanded"`
	HasMore      bool        `json:"hasMore"`
	HiddenCount  int         `json:"hiddenCount"`
	ReplyPending bool        `json:"replyPending"`
}

func newThreadView(thread discuss.Thread, subject string, coordinator *interactions.Coordinator) threadView {
	visible := thread.Visible()

	replies := make([]replyView, 0, len(visible))
	for _, reply := range visible {
		view := newReplyView(reply, subject, coordinator)

		// the parent may be hidden by the preview, so look in every reply
		if parent := discuss.FindParent(thread.Replies, reply); parent != nil {
			view.ParentAuthorLabel = parent.AuthorLabel
		}

		replies = append(replies, view)
	}

	return threadView{
		DiscussionID: thread.DiscussionID,
		Replies:      replies,
		Expanded:     thread.Expanded,
		HasMore:      thread.HasMore(),
		HiddenCount:  thread.HiddenCount(),
		ReplyPending: coordinator.IsPending(thread.DiscussionID, interactions.KindReply),
	}
}

type mutationView struct {
	EntityID string `json:"entityId"`
	Kind     string `json:"kind"`
	State    string `json:"state"`
	Error    string `json:"error,omitempty"`
	ReplyID  string `json:"replyId,omitempty"`
}

func newMutationView(m *interactions.Mutation) mutationView {
	view := mutationView{
		EntityID: m.EntityID,
		Kind:     string(m.Kind),
		State:    m.State().String(),
		Error:    "",
		ReplyID:  "",
	}

	if err := m.Err(); err != nil {
		view.Error = err.Error()
	}

	if m.Kind == interactions.KindReply {
		view.ReplyID = m.ReplyID()
	}

	return view
}

type mutationResponse struct {
	Mutation mutationView `json:"mutation"`
	Article  *articleView `json:"article,omitempty"`
	Reply    *replyView   `json:"reply,omitempty"`
	Thread   *threadView  `json:"thread,omitempty"`
}
