package models

// User represents an account in the system. Email is the login identifier.
type User struct {
	BaseModel
	Email        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Name         string `gorm:"type:varchar(150);not null" json:"name"`
	PasswordHash string `gorm:"type:varchar(255)" json:"-"`
	Bio          string `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL    string `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	IsGoogleUser bool   `gorm:"default:false" json:"isGoogleUser,omitempty"`
	GoogleID     string `gorm:"type:varchar(100)" json:"-"`
}

// UserBasicInfo holds minimal public information about a user.
// Used for friend lists, request listings and suggestions.
type UserBasicInfo struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
