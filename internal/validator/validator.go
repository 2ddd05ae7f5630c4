package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	maxChannelNameLength = 32
	maxGuildNameLength   = 64
	maxMessageLength     = 4000
)

var channelNameRegex = regexp.MustCompile(`^[a-z0-9]+([-_][a-z0-9]+)*$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	register := func(tag string, check func(string) error) {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String()) == nil
		})
		if err != nil {
			panic(err)
		}
	}

	register("channelname", ChannelName)
	register("guildname", GuildName)
	register("message", MessageContent)

	return v
}

// Struct validates a request payload. Failed rules come back as a map of field name to
// the tag that failed, ready to be sent to the client.
func Struct(payload any) (map[string]string, error) {
	err := validate.Struct(payload)
	if err == nil {
		return nil, nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return nil, err
	}

	fieldErrors := make(map[string]string, len(validateErrs))
	for _, e := range validateErrs {
		fieldErrors[e.Field()] = e.Tag()
	}
	return fieldErrors, nil
}

func ChannelName(name string) error {
	length := utf8.RuneCountInString(name)
	if length < 1 {
		return fmt.Errorf("short_name")
	} else if length > maxChannelNameLength {
		return fmt.Errorf("long_name")
	}

	if !channelNameRegex.MatchString(name) {
		return fmt.Errorf("bad_format")
	}
	return nil
}

func GuildName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("short_name")
	} else if utf8.RuneCountInString(name) > maxGuildNameLength {
		return fmt.Errorf("long_name")
	}

	if trimmed != name {
		return fmt.Errorf("bad_format")
	}
	return nil
}

func MessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("empty_message")
	} else if utf8.RuneCountInString(content) > maxMessageLength {
		return fmt.Errorf("long_message")
	}
	return nil
}
