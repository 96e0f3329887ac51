package authapi

import (
	"errors"
	"regexp"
	"strings"

	"authstarter/cmd/security/password"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

func validateRegister(req registerRequest) []fieldError {
	var fields []fieldError

	if strings.TrimSpace(req.Name) == "" {
		fields = append(fields, fieldError{Field: "name", Message: "name is required"})
	}
	switch {
	case strings.TrimSpace(req.Email) == "":
		fields = append(fields, fieldError{Field: "email", Message: "email is required"})
	case !validEmail(req.Email):
		fields = append(fields, fieldError{Field: "email", Message: "email is not valid"})
	}

	if req.Password == "" {
		fields = append(fields, fieldError{Field: "password", Message: "password is required"})
	} else {
		fields = append(fields, passwordPolicyErrors("password", req.Password)...)
	}

	if req.PasswordConfirmation == "" {
		fields = append(fields, fieldError{Field: "passwordConfirmation", Message: "password confirmation is required"})
	} else if req.Password != "" && req.Password != req.PasswordConfirmation {
		fields = append(fields, fieldError{Field: "passwordConfirmation", Message: "passwords do not match"})
	}

	return fields
}

func validateLogin(req loginRequest) []fieldError {
	var fields []fieldError
	if strings.TrimSpace(req.Email) == "" {
		fields = append(fields, fieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		fields = append(fields, fieldError{Field: "password", Message: "password is required"})
	}
	return fields
}

func validateUpdatePassword(req updatePasswordRequest) []fieldError {
	var fields []fieldError
	if req.CurrentPassword == "" {
		fields = append(fields, fieldError{Field: "currentPassword", Message: "current password is required"})
	}
	if req.NewPassword == "" {
		fields = append(fields, fieldError{Field: "newPassword", Message: "new password is required"})
	} else {
		fields = append(fields, passwordPolicyErrors("newPassword", req.NewPassword)...)
	}
	return fields
}

func validateUpdateEmail(req updateEmailRequest) []fieldError {
	var fields []fieldError
	switch {
	case strings.TrimSpace(req.NewEmail) == "":
		fields = append(fields, fieldError{Field: "newEmail", Message: "email is required"})
	case !validEmail(req.NewEmail):
		fields = append(fields, fieldError{Field: "newEmail", Message: "email is not valid"})
	}
	if req.CurrentPassword == "" {
		fields = append(fields, fieldError{Field: "currentPassword", Message: "current password is required"})
	}
	return fields
}

// passwordPolicyErrors checks plaintext against the configured policy and
// attributes each violation to the given field.
func passwordPolicyErrors(field, plain string) []fieldError {
	cfg, err := password.FromEnv()
	if err != nil {
		// Broken policy env is an operational problem; surface a generic
		// message rather than leaking the config error.
		return []fieldError{{Field: field, Message: "password policy unavailable"}}
	}
	if err := cfg.Validate(plain); err != nil {
		return []fieldError{{Field: field, Message: policyMessage(err)}}
	}
	return nil
}

func policyMessage(err error) string {
	switch {
	case errors.Is(err, password.ErrPasswordTooShort):
		return "password is too short"
	case errors.Is(err, password.ErrPasswordTooLong):
		return "password is too long"
	case errors.Is(err, password.ErrMissingUpper):
		return "password must contain an uppercase letter"
	case errors.Is(err, password.ErrMissingLower):
		return "password must contain a lowercase letter"
	case errors.Is(err, password.ErrMissingDigit):
		return "password must contain a digit"
	case errors.Is(err, password.ErrMissingSymbol):
		return "password must contain a symbol"
	default:
		return "password does not meet the policy"
	}
}
