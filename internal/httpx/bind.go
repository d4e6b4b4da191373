package httpx

import (
	"encoding/json"
	"net/http"

	validatorv10 "github.com/go-playground/validator/v10"
)

var validate = validatorv10.New()

// bindAndValidate decodes the JSON body into out and runs tag validation.
// On failure it writes a 400 and returns an error so the handler can
// short-circuit.
func bindAndValidate(w http.ResponseWriter, r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request_body"})
		return err
	}
	if err := validate.Struct(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation_failed",
			"fields": validationErrorsToMap(err),
		})
		return err
	}
	return nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Tag()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
