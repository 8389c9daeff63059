package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"aura-taste/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Input is the customer block of a checkout request.
type Input struct {
	Name       string                   `json:"name" validate:"required,max=120"`
	Phone      string                   `json:"phone" validate:"required,min=5,max=32"`
	Email      string                   `json:"email" validate:"omitempty,email"`
	Method     domain.FulfillmentMethod `json:"fulfillmentMethod" validate:"required,oneof=delivery pickup dine-in"`
	Address    string                   `json:"address" validate:"required_if=Method delivery,max=300"`
	Branch     string                   `json:"branch" validate:"required_if=Method pickup,required_if=Method dine-in"`
	PickupTime string                   `json:"pickupTime" validate:"required_if=Method pickup"`
	Table      string                   `json:"table" validate:"required_if=Method dine-in"`
}

var inputValidator = newValidator()

// Validate normalizes in and checks it without touching any store, so clients
// can reject bad input before they change anything.
func Validate(in Input) (Input, error) {
	in.normalize()
	if err := inputValidator.Struct(in); err != nil {
		return in, validationError(err)
	}
	return in, nil
}

func (in *Input) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Method = domain.FulfillmentMethod(strings.ToLower(strings.TrimSpace(string(in.Method))))
	in.Address = strings.TrimSpace(in.Address)
	in.Branch = strings.TrimSpace(in.Branch)
	in.PickupTime = strings.TrimSpace(in.PickupTime)
	in.Table = strings.TrimSpace(in.Table)
}

// location keeps only the fields that belong to the method.
func (in Input) location() domain.Location {
	switch in.Method {
	case domain.FulfillmentDelivery:
		return domain.Location{Address: in.Address}
	case domain.FulfillmentPickup:
		return domain.Location{Branch: in.Branch, PickupTime: in.PickupTime}
	default:
		return domain.Location{Branch: in.Branch, Table: in.Table}
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
