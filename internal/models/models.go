package models

import "time"

// Pet represents a pet profile owned by a user
type Pet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Like represents a one-directional "interested" signal between two pets.
// The (from_pet_id, to_pet_id) pair is unique; a duplicate insert is a conflict.
type Like struct {
	ID        string    `json:"id"`
	FromPetID string    `json:"from_pet_id"`
	ToPetID   string    `json:"to_pet_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Match represents a mutual like between two pets. Pet and user columns are
// stored in canonical order (pet_a_id < pet_b_id) so the same unordered pair
// can never produce two rows.
type Match struct {
	ID        string    `json:"id"`
	PetAID    string    `json:"pet_a_id"`
	PetBID    string    `json:"pet_b_id"`
	UserAID   string    `json:"user_a_id"`
	UserBID   string    `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

// HasUser reports whether userID is one of the two match participants.
func (m *Match) HasUser(userID string) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// User represents an account in the system
type User struct {
	ID        string    `json:"id"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription ties a user to a plan
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// UsageLimit holds the plan-derived allowances for a user. A value of -1 for
// MaxPets or MaxSwipesPerDay means unlimited. SwipesToday is reset lazily
// once LastSwipeResetAt is more than 24 hours old.
type UsageLimit struct {
	UserID           string    `json:"user_id"`
	MaxPets          int       `json:"max_pets"`
	MaxSwipesPerDay  int       `json:"max_swipes_per_day"`
	SwipesToday      int       `json:"swipes_today"`
	LastSwipeResetAt time.Time `json:"last_swipe_reset_at"`
	BoostsRemaining  int       `json:"boosts_remaining"`
	CanBoost         bool      `json:"can_boost"`
	CanSeeWhoLiked   bool      `json:"can_see_who_liked"`
	CanUndoSwipe     bool      `json:"can_undo_swipe"`
}

// Chat is the conversation attached to a match, created lazily on the first
// message. 1:1 with Match.
type Chat struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Message represents a chat message
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
