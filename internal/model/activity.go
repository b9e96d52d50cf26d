package model

// Activity is one row of the append-only action ledger. Written
// fire-and-forget, never queried by this service.
type Activity struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   string `gorm:"index" json:"actor_id"`
	Action    string `gorm:"not null" json:"action"`
	FileID    *uint  `gorm:"index" json:"file_id,omitempty"`
	Details   string `json:"details"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
}
