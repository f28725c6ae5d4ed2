package validation

import (
	"regexp"

	"contapos/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var skuPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,49}$`)

var documentTypes = map[string]bool{
	model.DocCC:  true,
	model.DocNIT: true,
	model.DocCE:  true,
	model.DocPP:  true,
	model.DocTI:  true,
}

// Register installs the custom tags on gin's validator engine.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return RegisterOn(v)
}

func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("sku", func(fl validator.FieldLevel) bool {
		return skuPattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("doctype", func(fl validator.FieldLevel) bool {
		return documentTypes[fl.Field().String()]
	}); err != nil {
		return err
	}
	return v.RegisterValidation("theme", func(fl validator.FieldLevel) bool {
		return model.IsValidTheme(fl.Field().String())
	})
}
