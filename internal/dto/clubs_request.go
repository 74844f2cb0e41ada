package dto

// CreateClubRequest binds from JSON or from a multipart form carrying the optional logo and cover files.
type CreateClubRequest struct {
	Name        string `json:"name" form:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" form:"description"`
	Rules       string `json:"rules" form:"rules"`
}

type JoinClubRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}
