package models

type User struct {
	ID        int64   `json:"id"`
	FullName  string  `json:"fullName"`
	Email     string  `json:"email,omitempty"`
	Bio       string  `json:"bio,omitempty"`
	City      string  `json:"city,omitempty"`
	Age       int     `json:"age,omitempty"`
	PhotoURL  string  `json:"photoUrl,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}

	f.number(&u.ID, "id", "userId", "user_id")
	f.str(&u.FullName, "fullName", "full_name", "name", "username")
	f.str(&u.Email, "email")
	f.str(&u.Bio, "bio", "about")
	f.str(&u.City, "city", "location")
	f.integer(&u.Age, "age")
	f.str(&u.PhotoURL, "photoUrl", "photo_url", "profilePhotoUrl", "avatarUrl")
	f.float(&u.Rating, "rating", "averageRating", "average_rating")
	f.str(&u.CreatedAt, "createdAt", "created_at")
	return f.err
}

type UpdateUserRequest struct {
	FullName *string `json:"fullName,omitempty" validate:"omitempty,min=2,max=100"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	City     *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Age      *int    `json:"age,omitempty" validate:"omitempty,min=13,max=120"`
}

type PushTokenRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform,omitempty"`
}
