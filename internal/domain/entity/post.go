package entity

import "time"

type Post struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Content   string    `json:"content" firestore:"content"`
	Image     string    `json:"image,omitempty" firestore:"image,omitempty"`
	Likes     []string  `json:"likes" firestore:"likes"`
	Comments  []string  `json:"comments" firestore:"comments"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

type Comment struct {
	ID        string    `json:"id" firestore:"id"`
	PostID    string    `json:"post_id" firestore:"postId"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Content   string    `json:"content" firestore:"content"`
	Likes     []string  `json:"likes" firestore:"likes"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
