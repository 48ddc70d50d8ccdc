package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
)

var validate = validator.New()

func init() {
	// Los campos decimal.Decimal se validan como float64 (min=0, gt=0, ...).
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Los errores se reportan con el nombre JSON del campo.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// parseBody decodifica el JSON del cuerpo. Si falla responde 400 INVALID_BODY y devuelve false.
func parseBody(c *fiber.Ctx, out interface{}) bool {
	if err := c.BodyParser(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		return false
	}
	return true
}

// validateStruct aplica los tags `validate`; si fallan responde 400 VALIDATION con el detalle por campo.
func validateStruct(c *fiber.Ctx, in interface{}) bool {
	err := validate.Struct(in)
	if err == nil {
		return true
	}
	fields := make(map[string]string)
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			fields[fieldPath(fe)] = fe.Tag()
		}
	}
	_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Fields:  fields,
	})
	return false
}

// bindAndValidate combina parseBody y validateStruct.
func bindAndValidate(c *fiber.Ctx, out interface{}) bool {
	return parseBody(c, out) && validateStruct(c, out)
}

// fieldPath quita el nombre del struct raíz: "CreateOrderRequest.items[0].count" → "items[0].count".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
