package handler

type submitSurveyRequest struct {
	Response string `json:"response" validate:"required,max=500"`
}
