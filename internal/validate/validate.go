package validate

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/nbutton23/zxcvbn-go"
)

const (
	MinPasswordLen   = 8
	MaxPasswordLen   = 72
	MinPasswordScore = 2
	MaxNameLen       = 128
	MaxHandleLen     = 64
	MaxTitleLen      = 200
	MaxNoteLen       = 2000
)

// SignUpForm validates the account creation form. The name and email are fed to the strength estimator so
// that a password equal to the person's own name or registration number is rejected.
func SignUpForm(name, email, password, confirmation string) error {
	var errs = []error{}

	errs = append(errs, Name(name))

	errs = append(errs, Email(email))

	if password != confirmation {
		errs = append(errs, errors.New("passwords do not match"))
	}

	errs = append(errs, Password(password, name, email))

	return errors.Join(errs...)
}

func Password(password string, userInputs ...string) error {
	l := len(password)
	switch {
	case l == 0:
		return errors.New("empty password")
	case l < MinPasswordLen:
		return fmt.Errorf("password too short; min %d characters", MinPasswordLen)
	case l > MaxPasswordLen:
		return fmt.Errorf("password too long; max %d characters", MaxPasswordLen)
	}

	if zxcvbn.PasswordStrength(password, userInputs).Score < MinPasswordScore {
		return errors.New("password too weak")
	}
	return nil
}

func Email(email string) error {
	if len(email) == 0 {
		return errors.New("empty email")
	}
	_, err := mail.ParseAddress(email)

	return err
}

// Handle validates a registration number as typed in forms and filters.
func Handle(handle string) error {
	switch l := len(handle); {
	case l == 0:
		return errors.New("empty registration number")
	case l > MaxHandleLen:
		return fmt.Errorf("registration number too long; max %d characters", MaxHandleLen)
	}
	if !govalidator.IsPrintableASCII(handle) || strings.ContainsAny(handle, " @/") {
		return errors.New("registration number has invalid characters")
	}
	return nil
}

func Name(name string) error {
	if l := len(strings.TrimSpace(name)); l == 0 {
		return errors.New("empty name")
	} else if l > MaxNameLen {
		return fmt.Errorf("name too long; max %d characters", MaxNameLen)
	}
	return nil
}

// Amount validates a monetary form field such as "12.50". Empty amounts are allowed and count as zero.
func Amount(field, value string) error {
	if value == "" {
		return nil
	}
	if !govalidator.IsFloat(value) {
		return fmt.Errorf("%s is not a number", field)
	}
	return nil
}

func Title(title string) error {
	if l := len(title); l == 0 {
		return errors.New("empty title")
	} else if l > MaxTitleLen {
		return fmt.Errorf("title too long; max %d characters", MaxTitleLen)
	}
	return nil
}

func Note(note string) error {
	if len(note) > MaxNoteLen {
		return fmt.Errorf("note too long; max %d characters", MaxNoteLen)
	}
	return nil
}
