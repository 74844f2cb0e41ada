package dto

type CreateCommentRequest struct {
	ParentID *int64 `json:"parent_id"`
	Content  string `json:"content" binding:"required,min=1"`
}
