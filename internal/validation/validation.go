// Package validation registers the custom validator tags used by request
// binding and by the seed loader.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ReservedUsername cannot be registered; it collides with /users/me.
const ReservedUsername = "me"

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ValidUsername reports whether name is allowed as a username.
func ValidUsername(name string) bool {
	return name != ReservedUsername && usernamePattern.MatchString(name)
}

// ValidHexColor accepts #RRGGBB.
func ValidHexColor(color string) bool {
	return hexColorPattern.MatchString(color)
}

// ValidSlug accepts letters, digits, hyphens and underscores.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// Register adds the custom tags and reports field names by their json tag.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	rules := map[string]func(string) bool{
		"username":  ValidUsername,
		"hexcolor7": ValidHexColor,
		"slug":      ValidSlug,
	}
	for tag, fn := range rules {
		fn := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

var (
	instance *validator.Validate
	once     sync.Once
)

// Get returns a shared validator using the `validate` tag.
func Get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		if err := Register(instance); err != nil {
			panic(err)
		}
	})
	return instance
}

// RegisterGin installs the custom tags on gin's binding validator.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return Register(v)
}

// FieldErrors flattens validator errors into json-field keyed messages.
func FieldErrors(err error) map[string][]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "username":
		if fe.Value() == ReservedUsername {
			return "Username \"me\" is reserved."
		}
		return "Letters, digits and @/./+/-/_ only."
	case "hexcolor7":
		return "Enter a color in #RRGGBB format."
	case "slug":
		return "Enter a valid slug."
	default:
		return "Invalid value."
	}
}
