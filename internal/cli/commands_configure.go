package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mekedron/placetour/internal/config"
	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/service/output"
	"github.com/mekedron/placetour/internal/service/profile"
	"github.com/spf13/cobra"
)

func newConfigureCommand(deps Dependencies) *cobra.Command {
	var profileName string
	var coords coordinateFlags
	var address string
	var radius float64
	var makeDefault bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:     "configure",
		Short:   "Save a named search position as a local profile.",
		Example: "placetour configure --profile-name home --lat 60.1699 --lon 24.9384 --radius 800 --default",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := strings.TrimSpace(profileName)
			if name == "" {
				return fmt.Errorf("--profile-name must not be empty")
			}
			if radius < 0 {
				return fmt.Errorf("--radius must be >= 0")
			}
			if deps.Config == nil {
				return fmt.Errorf("config store is not available")
			}
			c := commandContext{cmd: cmd, format: output.FormatTable, profile: name}
			lat, lon := coords.values(cmd)
			point, resolved, err := resolvePoint(cmd.Context(), deps, c, lat, lon, address, "--lat/--lon", "--address")
			if err != nil {
				return err
			}
			if !resolved {
				return fmt.Errorf("provide --address or both --lat and --lon")
			}

			cfg, err := deps.Config.Load(cmd.Context())
			switch {
			case errors.Is(err, config.ErrConfigNotFound):
				cfg = domain.Config{}
			case err != nil && !overwrite:
				return fmt.Errorf("%w (use --overwrite to replace it)", err)
			case err != nil:
				cfg = domain.Config{}
			}

			exists := profile.IndexOf(cfg, name) >= 0
			if exists && !overwrite {
				return fmt.Errorf("profile %q already exists in %s (use --overwrite to replace it)", name, deps.Config.Path())
			}
			cfg = profile.Upsert(cfg, domain.Profile{
				Name:         name,
				Location:     point,
				Address:      strings.TrimSpace(address),
				RadiusMeters: radius,
			}, makeDefault)
			if err := deps.Config.Save(cmd.Context(), cfg); err != nil {
				return err
			}

			verb := "created"
			if exists {
				verb = "updated"
			}
			return writeTable(cmd, fmt.Sprintf("Profile %q %s at %s in %s", name, verb, point, deps.Config.Path()), "")
		},
	}

	cmd.Flags().StringVar(&profileName, "profile-name", "default", "Profile name")
	addCoordinateFlags(cmd, &coords, "", "saved position")
	cmd.Flags().StringVar(&address, "address", "", "Address of the saved position. Geocoded once and stored as coordinates.")
	cmd.Flags().Float64Var(&radius, "radius", 0, "Search radius in metres for this profile (0 keeps the global default).")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this the default profile.")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing profile with the same name, or an unreadable config file.")
	return cmd
}
