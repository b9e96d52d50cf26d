package model

// Roles map to a closed capability set in the access package. Free-form
// permission blobs are not stored anywhere.
const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

type Account struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:user"`

	Files []File `gorm:"foreignKey:OwnerID"`
}
