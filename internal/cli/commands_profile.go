package cli

import (
	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/service/output"
	"github.com/spf13/cobra"
)

func newProfileCommand(deps Dependencies) *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Inspect saved search profiles.",
	}
	profile.AddCommand(newProfileListCommand(deps))
	return profile
}

func buildProfilesTable(profiles []domain.Profile) string {
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		isDefault := "-"
		if p.IsDefault {
			isDefault = "yes"
		}
		radius := "-"
		if p.RadiusMeters > 0 {
			radius = domain.FormatMeters(p.RadiusMeters)
		}
		rows = append(rows, []string{p.Name, isDefault, p.Location.String(), fallbackString(p.Address, "-"), radius})
	}
	return output.RenderTable("Profiles", []string{"Name", "Default", "Position", "Address", "Radius"}, rows)
}

func newProfileListCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved profiles.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(flags.Format)
			if err != nil {
				return err
			}
			c := newCommandContext(cmd, flags, format)
			c.profile = defaultProfileName(flags.Profile)
			if deps.Profiles == nil {
				return c.emitError(codeConfigError, "No profile store available.")
			}
			profiles, err := deps.Profiles.List(cmd.Context())
			if err != nil {
				return c.emitError(codeConfigError, err.Error())
			}
			data := map[string]any{"profiles": profiles}
			if deps.Config != nil {
				data["path"] = deps.Config.Path()
			}
			return c.write(data, nil, func() string {
				return buildProfilesTable(profiles)
			})
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}
