package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"createmovie/internal/services"
	"createmovie/internal/usage"
)

type validationOutput struct {
	RunID      string           `json:"run_id"`
	Usage      usage.UsageRate  `json:"material_usage"`
	Validation usage.Validation `json:"validation"`
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var flags inputFlags
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an allocation against the project's usage requirements",
		Long: "Run an allocation and check it against minimum_usage_rate and the declared categories.\n" +
			"Exits with status 2 when requirements are not met, or on warnings with --strict.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(flags)
			if err != nil {
				return err
			}
			engine, err := ctx.newEngine(flags, in)
			if err != nil {
				return err
			}
			res, err := engine.Run(cmd.Context(), in.pool, in.cuts)
			if err != nil {
				return err
			}
			validation := res.Validate(in.project, in.pool)

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, validationOutput{RunID: res.RunID, Usage: res.Usage, Validation: validation}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Materials used: %d/%d (%s)\n", res.Usage.Used, res.Usage.Total, res.Usage.Percentage)
				printValidation(out, validation, shouldColorize(out))
			}

			switch {
			case !validation.Valid:
				return services.Wrap(services.ErrValidation, "validate", "", fmt.Sprintf("%d requirement(s) not met", len(validation.Errors)), nil)
			case strict && len(validation.Warnings) > 0:
				return services.Wrap(services.ErrValidation, "validate", "strict", fmt.Sprintf("%d warning(s)", len(validation.Warnings)), nil)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as failures")
	return cmd
}
