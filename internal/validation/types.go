package validation

// CompletionRequest is the form payload for POST /hunts/completions. The
// photo itself arrives as a multipart file part and is validated separately.
type CompletionRequest struct {
	Team        string `form:"team" validate:"required,max=64"`           // team identifier, slug shape
	Location    string `form:"location" validate:"required,max=64"`       // hunt stop identifier, slug shape
	DisplayName string `form:"display_name" validate:"omitempty,max=128"` // optional caption shown in the UI
}
