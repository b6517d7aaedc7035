package match

// DTOs for API requests

type SubmitLikeDTO struct {
    ReceiverID int64  `json:"receiver_id" validate:"required"`
    ContentRef string `json:"content_ref" validate:"required,max=120"`
    Comment    string `json:"comment,omitempty" validate:"omitempty,max=280"`
}

type PassDTO struct {
    TargetID int64 `json:"target_id" validate:"required"`
}
