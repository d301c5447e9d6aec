package models

const (
	UsersTable          = "users"
	UserIDColumn        = "id"
	UserPhotoColumn     = "photo"
	ProfileImagesBucket = "profile-images"
	ProfileImageSuffix  = "-profile.jpg"
	ProfileImageType    = "image/jpeg"
)

// UserPhoto is the projection of a users row the migration reads and writes.
// A nil Photo is a SQL NULL.
type UserPhoto struct {
	ID    string  `json:"id"`
	Photo *string `json:"photo"`
}

// PhotoValue returns the photo column, or "" when it is NULL.
func (u UserPhoto) PhotoValue() string {
	if u.Photo == nil {
		return ""
	}
	return *u.Photo
}

// ProfileImageKey returns the object key a user's profile image is stored under.
// The id is used as stored.
func ProfileImageKey(userID string) string {
	return userID + ProfileImageSuffix
}
