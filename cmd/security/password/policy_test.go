package password

import (
	"errors"
	"testing"
)

func TestValidatePolicy(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		name string
		in   string
		want error
	}{
		{name: "ok", in: "Str0ng!pass", want: nil},
		{name: "too short", in: "S1!a", want: ErrPasswordTooShort},
		{name: "no upper", in: "str0ng!pass", want: ErrMissingUpper},
		{name: "no lower", in: "STR0NG!PASS", want: ErrMissingLower},
		{name: "no digit", in: "Strong!pass", want: ErrMissingDigit},
		{name: "no symbol", in: "Str0ngpass1", want: ErrMissingSymbol},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := cfg.Validate(tc.in)
			if !errors.Is(err, tc.want) && !(tc.want == nil && err == nil) {
				t.Fatalf("Validate(%q)=%v want %v", tc.in, err, tc.want)
			}
		})
	}
}

func TestValidateClassesOptional(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.RequireClasses = false

	if err := cfg.Validate("alllowercase"); err != nil {
		t.Fatalf("Validate with classes disabled: %v", err)
	}
}

func TestValidateMaxLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.MaxLength = 10

	if err := cfg.Validate("Str0ng!pass"); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("err=%v want ErrPasswordTooLong", err)
	}
}
