package validation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// BindAndValidate binds the form fields into `out` and runs validation.
// If validation fails, it writes a 400 with the same error shape as the saga
// error responses (error code "validation" plus the correlation id) and
// returns an error for the handler to short-circuit.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate, correlationID string) error {
	if err := c.ShouldBind(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "validation",
			"message":        "malformed request body: " + err.Error(),
			"correlation_id": correlationID,
		})
		return err
	}

	if err := v.Struct(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "validation",
			"message":        "one or more fields are invalid",
			"fields":         validationErrorsToMap(err),
			"correlation_id": correlationID,
		})
		return err
	}
	return nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
