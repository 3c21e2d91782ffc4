package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks struct tags first and then the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := structValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return ferrors.ValidationError(describeFieldError(verrs[0])).WithCause(err).Build()
		}
		return ferrors.WrapError(err, ferrors.CategoryValidation, "configuration validation failed").Fatal().Build()
	}
	return validateTasks(cfg.Runner.Tasks)
}

func validateTasks(tasks []TaskConfig) error {
	seen := make(map[string]bool, len(tasks))
	for i, t := range tasks {
		if seen[t.Name] {
			return ferrors.ValidationError(fmt.Sprintf("duplicate runner task name: %s", t.Name)).Build()
		}
		seen[t.Name] = true

		hasBuiltin := t.Builtin != ""
		hasCommand := len(t.Command) > 0
		if hasBuiltin == hasCommand {
			return ferrors.ValidationError(fmt.Sprintf("runner.tasks[%d] (%s): exactly one of builtin or command must be set", i, t.Name)).Build()
		}
		if hasCommand && strings.TrimSpace(t.Command[0]) == "" {
			return ferrors.ValidationError(fmt.Sprintf("runner.tasks[%d] (%s): command executable is empty", i, t.Name)).Build()
		}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("invalid %s: failed '%s=%s'", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("invalid %s: failed '%s'", field, fe.Tag())
}
