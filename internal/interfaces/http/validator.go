package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Reportar errores con el nombre JSON del campo.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON parsea el body y lo valida con las etiquetas `validate`. Si falla ya respondió 400
// y devuelve ok=false.
func bindJSON(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, badRequest(c, "INVALID_BODY", "cuerpo inválido", nil)
	}
	if err := validate.Struct(out); err != nil {
		return false, badRequest(c, "VALIDATION", "datos inválidos", validationDetails(err))
	}
	return true, nil
}

// bindQuery igual que bindJSON para parámetros de query.
func bindQuery(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.QueryParser(out); err != nil {
		return false, badRequest(c, "INVALID_QUERY", "parámetros inválidos", nil)
	}
	if err := validate.Struct(out); err != nil {
		return false, badRequest(c, "VALIDATION", "parámetros inválidos", validationDetails(err))
	}
	return true, nil
}

// pathUUID lee un parámetro de ruta que debe ser UUID.
func pathUUID(c *fiber.Ctx, name string) (string, bool, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false, badRequest(c, "INVALID_ID", name+" debe ser un UUID", map[string]any{"param": name})
	}
	return id, true, nil
}

func validationDetails(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
		if fe.Param() != "" {
			fields[key] = fe.Tag() + "=" + fe.Param()
		} else {
			fields[key] = fe.Tag()
		}
	}
	return map[string]any{"fields": fields}
}
