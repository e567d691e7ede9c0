package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	app_errors "lifeline/backend/internal/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getInstance builds the shared validator on first use.
func getInstance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// validateRequest runs the `validate` tags of a request DTO. Every failed
// field is listed in one ErrValidation, in struct order, so a client can fix
// the whole body at once.
func validateRequest(payload interface{}) error {
	err := getInstance().Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s", app_errors.ErrValidation, err.Error())
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", app_errors.ErrValidation, strings.Join(problems, "; "))
}
