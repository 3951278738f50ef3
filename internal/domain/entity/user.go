package entity

import "time"

type User struct {
	ID             string    `json:"id" firestore:"id"`
	Email          string    `json:"email" firestore:"email"`
	FirstName      string    `json:"first_name" firestore:"firstName"`
	LastName       string    `json:"last_name" firestore:"lastName"`
	Username       string    `json:"username" firestore:"username"`
	ProfilePicture string    `json:"profile_picture" firestore:"profilePicture"`
	BannerImage    string    `json:"banner_image" firestore:"bannerImage"`
	Bio            string    `json:"bio" firestore:"bio"`
	Location       string    `json:"location" firestore:"location"`
	Followers      []string  `json:"followers" firestore:"followers"`
	Following      []string  `json:"following" firestore:"following"`
	DeviceToken    string    `json:"-" firestore:"deviceToken,omitempty"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"updatedAt"`
}

// DisplayName is what push notifications show as the sender.
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return "Someone"
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return "Someone"
	}
}

func (u *User) IsFollowing(userID string) bool {
	for _, id := range u.Following {
		if id == userID {
			return true
		}
	}
	return false
}

// UserSummary is the public projection embedded in posts and comments.
type UserSummary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
	}
}

// Identity is the identity provider's record for an authenticated user.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}
