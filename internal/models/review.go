package models

type Review struct {
	ID           int64  `json:"id"`
	ActivityID   int64  `json:"activityId"`
	ReviewerID   int64  `json:"reviewerId"`
	ReviewerName string `json:"reviewerName,omitempty"`
	RevieweeID   int64  `json:"revieweeId,omitempty"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

func (r *Review) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}

	f.number(&r.ID, "id", "reviewId")
	f.number(&r.ActivityID, "activityId", "activity_id")
	f.number(&r.ReviewerID, "reviewerId", "reviewer_id", "userId")
	f.str(&r.ReviewerName, "reviewerName", "reviewer_name", "userName")
	f.number(&r.RevieweeID, "revieweeId", "reviewee_id", "hostId")
	f.integer(&r.Rating, "rating", "stars")
	f.str(&r.Comment, "comment", "text")
	f.str(&r.CreatedAt, "createdAt", "created_at")
	return f.err
}

type CreateReviewRequest struct {
	ActivityID int64  `json:"activityId" validate:"required,gt=0"`
	RevieweeID int64  `json:"revieweeId,omitempty" validate:"omitempty,gt=0"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment,omitempty" validate:"max=1000"`
}
