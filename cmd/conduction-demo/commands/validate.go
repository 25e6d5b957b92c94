package commands

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Amund211/conduction/validation"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate KEY=VALUE [KEY=VALUE...]",
	Short: "Validate a resource request",
	Long: `Validate runs a resource request through the library's validation rules.

Known fields:
  key       required, normalized uuid
  priority  optional, integer between 0 and 10
  note      optional, at most 64 characters`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

var requestRules = validation.Rules{
	"key":      {validation.Required(), validation.NormalizedUUID()},
	"priority": {validation.IntBetween(0, 10)},
	"note":     {validation.MaxLength(64)},
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, _, cleanup, err := setupRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	source := validation.MapSource{}
	for _, arg := range args {
		field, raw, found := strings.Cut(arg, "=")
		if !found {
			return fmt.Errorf("invalid argument %q, want KEY=VALUE", arg)
		}
		if n, err := strconv.Atoi(raw); err == nil {
			source[field] = n
		} else {
			source[field] = raw
		}
	}

	failures := requestRules.Validate(source)
	if err := failures.ErrorOrNil(); err != nil {
		for _, field := range slices.Sorted(maps.Keys(failures)) {
			for _, fieldErr := range failures[field] {
				printFailure("%s: %s", field, fieldErr.Error())
			}
		}
		return fmt.Errorf("validation failed")
	}

	printSuccess("Request is valid")
	return nil
}
