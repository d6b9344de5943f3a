package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the complete command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	version := resolvedVersion(deps.Version)
	printVersion := func(cmd *cobra.Command) error {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		return errVersionShown
	}

	root := &cobra.Command{
		Use:           "placetour",
		Short:         "Find places nearby, fetch their photos, and plan a walking tour through them.",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if wantVersion(cmd) {
				return printVersion(cmd)
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if wantVersion(cmd) {
				return printVersion(cmd)
			}
			attachVerboseHTTPTrace(cmd, deps.Places)
			return nil
		},
	}
	root.Flags().BoolP("version", "v", false, "Show CLI version and exit.")
	root.SetHelpCommand(&cobra.Command{Hidden: true})

	root.AddCommand(
		newNearbyCommand(deps),
		newTourCommand(deps),
		newProfileCommand(deps),
		newConfigureCommand(deps),
	)

	fallbackHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != root {
			fallbackHelp(cmd, args)
			return
		}
		renderRootHelp(cmd.OutOrStdout(), root)
	})
	return root
}

func wantVersion(cmd *cobra.Command) bool {
	if cmd.Flags().Lookup("version") == nil {
		return false
	}
	show, _ := cmd.Flags().GetBool("version")
	return show
}

type verboseHTTPTraceSetter interface {
	SetVerboseOutput(out io.Writer)
}

// attachVerboseHTTPTrace routes gateway request traces to stderr when the
// running command has --verbose set.
func attachVerboseHTTPTrace(cmd *cobra.Command, upstream any) {
	if cmd == nil || upstream == nil {
		return
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		return
	}
	setter, ok := upstream.(verboseHTTPTraceSetter)
	if !ok {
		return
	}
	setter.SetVerboseOutput(cmd.ErrOrStderr())
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "[verbose] http trace enabled")
}
