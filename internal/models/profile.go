package models

type Profile struct {
	ID       string  `gorm:"primaryKey;size:36" json:"id"`
	FullName *string `gorm:"size:255" json:"full_name"`
	Email    string  `gorm:"size:255" json:"email"`
}

func (Profile) TableName() string {
	return "profiles"
}
