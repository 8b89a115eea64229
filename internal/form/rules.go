package form

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/specialistvlad/nicauth/internal/nic"
)

// loginInput is what a login submission must satisfy.
type loginInput struct {
	Username  string `form:"username" validate:"required"`
	Password  string `form:"password" validate:"required"`
	NICNumber string `form:"nicNumber" validate:"nic"`
}

// registerInput covers every registration variant. Only the fields a form
// collects are checked.
type registerInput struct {
	Username        string `form:"username" validate:"required"`
	Email           string `form:"email" validate:"required"`
	Password        string `form:"password" validate:"min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
	NICNumber       string `form:"nicNumber" validate:"nic"`
}

// structFields maps a form field to its Go field name in the input structs.
var structFields = map[Field]string{
	Username:        "Username",
	Email:           "Email",
	Password:        "Password",
	ConfirmPassword: "ConfirmPassword",
	NICNumber:       "NICNumber",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report failures under the form's field names.
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		return sf.Tag.Get("form")
	})
	if err := v.RegisterValidation("nic", func(fl validator.FieldLevel) bool {
		return nic.Validate(fl.Field().String()) == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// fieldErrors turns a validator result into per-field messages.
func fieldErrors(err error) FieldErrors {
	errs := make(FieldErrors)
	if err == nil {
		return errs
	}

	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		panic(err)
	}
	for _, fe := range failures {
		f := Field(fe.Field())
		errs[f] = ruleMessage(f, fe)
	}
	return errs
}

func ruleMessage(f Field, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return requiredMessage(f)
	case "min":
		return MsgPasswordTooShort
	case "eqfield":
		return MsgPasswordMismatch
	case "nic":
		value, _ := fe.Value().(string)
		return nicMessage(value)
	default:
		return fe.Error()
	}
}
