package model

type Group struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"unique;not null" json:"name"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`

	Members []GroupMember `gorm:"foreignKey:GroupID"`
}

// GroupMember ties an account to a group. Grants scoped to the group apply
// to whoever is a member at resolution time, never snapshotted.
type GroupMember struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID   uint   `gorm:"index:idx_member,unique;not null" json:"group_id"`
	AccountID string `gorm:"index:idx_member,unique;not null" json:"account_id"`
	Role      string `gorm:"not null;default:member" json:"role"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
}
