package models

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Age      int    `json:"age,omitempty" validate:"omitempty,min=13,max=120"`
	City     string `json:"city,omitempty" validate:"max=100"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResponse is returned by login, register and refresh. The user id may be
// flat or nested under "user" depending on the endpoint.
type AuthResponse struct {
	UserID       int64  `json:"userId"`
	Email        string `json:"email,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         *User  `json:"user,omitempty"`
}

func (a *AuthResponse) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}

	f.str(&a.AccessToken, "accessToken", "access_token", "token", "jwt")
	f.str(&a.RefreshToken, "refreshToken", "refresh_token")
	f.number(&a.UserID, "userId", "user_id", "id")
	f.str(&a.Email, "email")
	if f.has("user") {
		var u User
		if f.into(&u, "user") {
			a.User = &u
		}
	}
	if f.err != nil {
		return f.err
	}

	if a.User != nil {
		if a.UserID == 0 {
			a.UserID = a.User.ID
		}
		if a.Email == "" {
			a.Email = a.User.Email
		}
	}
	return nil
}
