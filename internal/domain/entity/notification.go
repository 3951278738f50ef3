package entity

import "time"

const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationComment = "comment"
)

type Notification struct {
	ID        string    `json:"id" firestore:"id"`
	From      string    `json:"from" firestore:"from"`
	To        string    `json:"to" firestore:"to"`
	Type      string    `json:"type" firestore:"type"`
	PostID    string    `json:"post_id,omitempty" firestore:"postId,omitempty"`
	CommentID string    `json:"comment_id,omitempty" firestore:"commentId,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
