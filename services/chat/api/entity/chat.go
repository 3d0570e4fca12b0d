package entity

type AskRequest struct {
	Query string `json:"query" validate:"required"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}
