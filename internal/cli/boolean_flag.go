package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName        = "bool"
	booleanFlagTrueLiteral     = "true"
	booleanFlagAcceptedValues  = "true, false, yes, no, on, off, 1, 0"
	errorInvalidBooleanFlagFmt = "invalid boolean value %q for --%s; accepted values: %s"
	argumentTerminator         = "--"
	longFlagPrefix             = "--"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

func parseBooleanLiteral(input string) (bool, bool) {
	parsed, known := booleanFlagLiterals[strings.ToLower(strings.TrimSpace(input))]
	return parsed, known
}

// booleanFlagValue accepts yes/no style literals in addition to the ones strconv understands.
type booleanFlagValue struct {
	target   *bool
	flagName string
}

func (value *booleanFlagValue) Set(input string) error {
	if strings.TrimSpace(input) == "" {
		input = booleanFlagTrueLiteral
	}
	parsed, known := parseBooleanLiteral(input)
	if !known {
		return fmt.Errorf(errorInvalidBooleanFlagFmt, input, value.flagName, booleanFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

// registerBooleanFlag defines a boolean flag that may be given bare, with "=value", or followed by a literal.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&booleanFlagValue{target: target, flagName: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(defaultValue)
	registered.NoOptDefVal = booleanFlagTrueLiteral
}

// normalizeBooleanFlagArguments joins "--flag value" into "--flag=value" for boolean flags when value is a
// boolean literal, so that "--nested false" does not treat "false" as the project path.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == argumentTerminator {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		flagName, isLongFlag := strings.CutPrefix(argument, longFlagPrefix)
		if isLongFlag && !strings.Contains(flagName, "=") && index+1 < len(arguments) {
			if _, isBoolean := booleanFlags[flagName]; isBoolean {
				if _, known := parseBooleanLiteral(arguments[index+1]); known {
					normalized = append(normalized, argument+"="+arguments[index+1])
					index++
					continue
				}
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	collect := func(flag *pflag.Flag) {
		if flag.Value.Type() == booleanFlagTypeName {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(collect)
	command.Flags().VisitAll(collect)
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
