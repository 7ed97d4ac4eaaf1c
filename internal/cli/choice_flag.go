package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choiceFlagTypeName       = "string"
	errorInvalidChoiceFormat = "invalid value %q for --%s; accepted values: %s"
	choiceListSeparator      = ", "
)

// choiceFlagValue restricts a string flag to a fixed set of case-insensitive values.
type choiceFlagValue struct {
	target   *string
	allowed  []string
	flagName string
}

func (value *choiceFlagValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if !slices.Contains(value.allowed, normalized) {
		return fmt.Errorf(errorInvalidChoiceFormat, input, value.flagName, strings.Join(value.allowed, choiceListSeparator))
	}
	*value.target = normalized
	return nil
}

func (value *choiceFlagValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

func (value *choiceFlagValue) Type() string {
	return choiceFlagTypeName
}

func registerChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultValue string, allowed []string, usage string) {
	*target = defaultValue
	description := fmt.Sprintf("%s (%s)", usage, strings.Join(allowed, "|"))
	flagSet.Var(&choiceFlagValue{target: target, allowed: allowed, flagName: name}, name, description)
}

// validateChoice applies the same rules as the flag to a value read from configuration.
func validateChoice(name string, input string, allowed []string) (string, error) {
	var validated string
	choice := &choiceFlagValue{target: &validated, allowed: allowed, flagName: name}
	if setError := choice.Set(input); setError != nil {
		return "", setError
	}
	return validated, nil
}
