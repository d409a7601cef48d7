package models

type Photo struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func (p *Photo) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}

	f.number(&p.ID, "id", "photoId")
	f.number(&p.UserID, "userId", "user_id")
	f.str(&p.URL, "url", "photoUrl", "imageUrl", "path")
	f.boolean(&p.IsPrimary, "isPrimary", "is_primary", "primary")
	f.str(&p.CreatedAt, "createdAt", "created_at", "uploadedAt")
	return f.err
}
