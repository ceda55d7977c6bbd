package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Mensajes que los clientes existentes comparan literalmente.
const (
	detailTokenMissing   = "Authorization token missing"
	detailInvalidToken   = "Invalid token"
	detailServerError    = "Internal Server Error"
	detailUnexpected     = "An unexpected error occurred. Please try again later."
	detailEmptyMessage   = "Message cannot be empty"
	detailTooManyRequest = "Too many requests"
	errorStoreDown       = "Internal Service Error"
)

// fieldError replica el formato de detalle de validación que ya consumen los clientes.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func abortStoreUnavailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errorStoreDown})
}

func abortSchemaViolation(c *gin.Context, details ...fieldError) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": details})
}

func notFoundDetail(id int64) string {
	return fmt.Sprintf("Could not find message with id %d", id)
}

// bindingErrorDetails traduce errores de ShouldBindJSON a detalles por campo.
func bindingErrorDetails(err error) []fieldError {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		verrs     validator.ValidationErrors
	)
	switch {
	case errors.As(err, &verrs):
		out := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fieldError{
				Loc:  []string{"body", strings.ToLower(fe.Field())},
				Msg:  "Field required",
				Type: "missing",
			})
		}
		return out
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return []fieldError{{Loc: []string{"body"}, Msg: "Input should be a valid dictionary", Type: "model_type"}}
		}
		return []fieldError{{
			Loc:  []string{"body", field},
			Msg:  fmt.Sprintf("Input should be a valid %s", typeErr.Type.String()),
			Type: typeErr.Type.String() + "_type",
		}}
	case errors.As(err, &syntaxErr):
		return []fieldError{{Loc: []string{"body", fmt.Sprint(syntaxErr.Offset)}, Msg: "JSON decode error", Type: "json_invalid"}}
	default:
		return []fieldError{{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"}}
	}
}
