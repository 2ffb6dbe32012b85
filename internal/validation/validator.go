package validation

import (
	"fmt"
	"regexp"

	validatorv10 "github.com/go-playground/validator/v10"
)

// slugPattern: identifiers end up in object names and table keys, so keep
// them to lowercase slugs.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for CompletionRequest to ensure
	// team and location are slug-shaped.
	v.RegisterStructValidation(completionStructValidation, CompletionRequest{})

	return v
}

// completionStructValidation verifies the key identifiers are safe slugs.
func completionStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CompletionRequest)

	if req.Team != "" && !slugPattern.MatchString(req.Team) {
		sl.ReportError(req.Team, "team", "Team", "slug", fmt.Sprintf("team %q is not a valid slug", req.Team))
	}
	if req.Location != "" && !slugPattern.MatchString(req.Location) {
		sl.ReportError(req.Location, "location", "Location", "slug", fmt.Sprintf("location %q is not a valid slug", req.Location))
	}
}
