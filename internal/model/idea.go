package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Idea status enum constants
const (
	IdeaNew       = "NEW"
	IdeaReviewing = "REVIEWING"
	IdeaAccepted  = "ACCEPTED"
	IdeaRejected  = "REJECTED"
)

// Idea is an employee suggestion others can vote on.
type Idea struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Status      string         `gorm:"type:varchar(20);not null;default:'NEW';index" json:"status"`
	Votes       []IdeaVote     `gorm:"foreignKey:IdeaID;constraint:OnDelete:CASCADE" json:"votes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// IdeaVote is one user's vote on an idea. The unique index makes the vote
// endpoint a toggle: voting again deletes the row.
type IdeaVote struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IdeaID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idea_vote_user" json:"idea_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idea_vote_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
