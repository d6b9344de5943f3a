package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mekedron/placetour/internal/config"
	"github.com/mekedron/placetour/internal/domain"
	placesgateway "github.com/mekedron/placetour/internal/gateway/places"
	"github.com/mekedron/placetour/internal/logger"
	"github.com/mekedron/placetour/internal/service/output"
	"github.com/mekedron/placetour/internal/service/places"
	"github.com/spf13/cobra"
)

// Error codes used in machine-readable error envelopes.
const (
	codeInvalidArgument      = "PLACETOUR_INVALID_ARGUMENT"
	codeLocationResolveError = "PLACETOUR_LOCATION_RESOLVE_ERROR"
	codeUpstreamError        = "PLACETOUR_UPSTREAM_ERROR"
	codeConfigError          = "PLACETOUR_CONFIG_ERROR"
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

type globalFlags struct {
	Format   string
	Output   string
	Profile  string
	Address  string
	Language string
	Verbose  bool
}

const sharedGlobalFlagAnnotation = "placetour_shared_global"

func addGlobalFlags(cmd *cobra.Command, flags *globalFlags) {
	addSharedGlobalFlag(cmd, "format", func() {
		cmd.Flags().StringVar(&flags.Format, "format", "table", "Output format: table, json, or yaml.")
	})
	addSharedGlobalFlag(cmd, "output", func() {
		cmd.Flags().StringVar(&flags.Output, "output", "", "Also write the rendered output to this file.")
	})
	addSharedGlobalFlag(cmd, "profile", func() {
		cmd.Flags().StringVar(&flags.Profile, "profile", "", "Saved profile to take the search position and radius from.")
	})
	addSharedGlobalFlag(cmd, "address", func() {
		cmd.Flags().StringVar(&flags.Address, "address", "", "Search around this address. Geocoded to coordinates. Cannot be combined with --lat/--lon.")
	})
	addSharedGlobalFlag(cmd, "language", func() {
		cmd.Flags().StringVar(&flags.Language, "language", "", "Response language for place names, for example en or fi.")
	})
	addSharedGlobalFlag(cmd, "verbose", func() {
		cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output (prints upstream request trace, network activity and debug logs).")
	})
}

func addSharedGlobalFlag(cmd *cobra.Command, name string, register func()) {
	if cmd.Flags().Lookup(name) != nil {
		return
	}
	register()
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return
	}
	if flag.Annotations == nil {
		flag.Annotations = map[string][]string{}
	}
	flag.Annotations[sharedGlobalFlagAnnotation] = []string{"true"}
}

// coordinateFlags holds an optional --<prefix>lat/--<prefix>lon pair.
type coordinateFlags struct {
	prefix string
	lat    float64
	lon    float64
}

func addCoordinateFlags(cmd *cobra.Command, flags *coordinateFlags, prefix string, what string) {
	flags.prefix = prefix
	cmd.Flags().Float64Var(&flags.lat, prefix+"lat", 0, "Latitude of the "+what+".")
	cmd.Flags().Float64Var(&flags.lon, prefix+"lon", 0, "Longitude of the "+what+".")
}

func (f *coordinateFlags) values(cmd *cobra.Command) (*float64, *float64) {
	var lat, lon *float64
	if cmd.Flags().Changed(f.prefix + "lat") {
		lat = &f.lat
	}
	if cmd.Flags().Changed(f.prefix + "lon") {
		lon = &f.lon
	}
	return lat, lon
}

func resolveProfileLabel(profileName string) string {
	profile := strings.TrimSpace(profileName)
	if profile == "" {
		return "anonymous"
	}
	return profile
}

func defaultProfileName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "default"
	}
	return trimmed
}

func writeTable(cmd *cobra.Command, text string, outputPath string) error {
	return output.WriteOutput(cmd.OutOrStdout(), text, outputPath)
}

// commandContext carries what error and result rendering needs.
type commandContext struct {
	cmd      *cobra.Command
	format   output.Format
	profile  string
	language string
	output   string
	verbose  bool
}

func newCommandContext(cmd *cobra.Command, flags globalFlags, format output.Format) commandContext {
	return commandContext{
		cmd:      cmd,
		format:   format,
		profile:  resolveProfileLabel(flags.Profile),
		language: strings.TrimSpace(flags.Language),
		output:   flags.Output,
		verbose:  flags.Verbose,
	}
}

// emitError renders the failure in the selected format and returns the
// exit error for Execute.
func (c commandContext) emitError(code string, message string) error {
	if c.format == output.FormatTable {
		if err := writeTable(c.cmd, message, c.output); err != nil {
			return err
		}
		return &exitError{code: 1}
	}
	env := output.BuildErrorEnvelope(c.profile, c.language, code, message)
	if err := c.writeEnvelope(env); err != nil {
		return err
	}
	return &exitError{code: 1}
}

// write renders data as an envelope, or the table from table() followed by
// one line per warning.
func (c commandContext) write(data any, warnings []string, table func() string) error {
	if c.format == output.FormatTable {
		lines := append([]string{table()}, prefixed("warning: ", warnings)...)
		return writeTable(c.cmd, strings.Join(lines, "\n"), c.output)
	}
	return c.writeEnvelope(output.BuildEnvelope(c.profile, c.language, data, warnings))
}

func (c commandContext) writeEnvelope(env output.Envelope) error {
	rendered, err := output.RenderPayload(env, c.format)
	if err != nil {
		return err
	}
	return output.WriteOutput(c.cmd.OutOrStdout(), rendered, c.output)
}

func prefixed(prefix string, values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = prefix + v
	}
	return out
}

// searchTarget is where a search runs and with which radius.
type searchTarget struct {
	Center       domain.GeoPoint
	Profile      string
	RadiusMeters float64
}

// resolveTarget picks the search centre from --address, --lat/--lon or the
// selected profile, in that order.
func resolveTarget(ctx context.Context, deps Dependencies, c commandContext, lat, lon *float64, address string, profileName string) (searchTarget, error) {
	point, resolved, err := resolvePoint(ctx, deps, c, lat, lon, address, "--lat/--lon", "--address")
	if err != nil {
		return searchTarget{}, err
	}
	if resolved {
		return searchTarget{Center: point, Profile: resolveProfileLabel(profileName)}, nil
	}

	if deps.Profiles == nil {
		return searchTarget{}, c.emitError(codeConfigError, "No profile store available. Use --lat/--lon or --address.")
	}
	profile, err := deps.Profiles.Find(ctx, profileName)
	if err != nil {
		message := err.Error()
		if errors.Is(err, config.ErrConfigNotFound) {
			message = "No saved profile. Use --lat/--lon or --address, or save one with `placetour configure`."
		}
		return searchTarget{}, c.emitError(codeConfigError, message)
	}
	return searchTarget{Center: profile.Location, Profile: profile.Name, RadiusMeters: profile.RadiusMeters}, nil
}

// resolvePoint turns an address or a coordinate pair into a point. resolved
// is false when neither was given.
func resolvePoint(
	ctx context.Context,
	deps Dependencies,
	c commandContext,
	lat *float64,
	lon *float64,
	address string,
	pairName string,
	addressName string,
) (domain.GeoPoint, bool, error) {
	resolvedAddress := strings.TrimSpace(address)
	if resolvedAddress != "" {
		if lat != nil || lon != nil {
			return domain.GeoPoint{}, false, c.emitError(
				codeInvalidArgument,
				fmt.Sprintf("Do not combine %s with %s. Use one of them.", addressName, pairName),
			)
		}
		if deps.Location == nil {
			return domain.GeoPoint{}, false, c.emitError(codeLocationResolveError, "Location resolver is not available.")
		}
		point, err := deps.Location.Get(ctx, resolvedAddress)
		if err != nil {
			return domain.GeoPoint{}, false, c.emitError(codeLocationResolveError, err.Error())
		}
		return point, true, nil
	}

	if lat == nil && lon == nil {
		return domain.GeoPoint{}, false, nil
	}
	if lat == nil || lon == nil {
		return domain.GeoPoint{}, false, c.emitError(
			codeInvalidArgument,
			fmt.Sprintf("Both halves of %s must be provided together.", pairName),
		)
	}
	return domain.GeoPoint{Lat: *lat, Lon: *lon}, true, nil
}

func requireAPIKey(deps Dependencies, c commandContext) error {
	if err := deps.Settings.Validate(); err != nil {
		return c.emitError(codeConfigError, err.Error())
	}
	return nil
}

// emitUpstreamError reports a failed search. An interrupted command returns
// the context error instead so Execute can exit accordingly.
func emitUpstreamError(c commandContext, err error) error {
	if ctx := c.cmd.Context(); ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = placesgateway.ErrUpstream
	}
	if c.verbose {
		return c.emitError(codeUpstreamError, err.Error())
	}

	message := placesgateway.ErrUpstream.Error() + " (use --verbose for details)"
	var upstreamErr *placesgateway.UpstreamRequestError
	var statusErr *placesgateway.ProviderStatusError
	var searchErr *places.SearchError
	switch {
	case errors.As(err, &statusErr):
		message = fmt.Sprintf("%s (provider status %s, use --verbose for details)", placesgateway.ErrUpstream.Error(), statusErr.Status)
	case errors.As(err, &upstreamErr) && upstreamErr.StatusCode > 0:
		message = fmt.Sprintf("%s (status %d, use --verbose for details)", placesgateway.ErrUpstream.Error(), upstreamErr.StatusCode)
	case errors.As(err, &searchErr) && searchErr.Kind == places.KindParse:
		message = fmt.Sprintf("%s (malformed response, use --verbose for details)", placesgateway.ErrUpstream.Error())
	}
	return c.emitError(codeUpstreamError, message)
}

// commandLogger returns the injected logger, or a debug logger on stderr when
// --verbose is set.
func commandLogger(deps Dependencies, cmd *cobra.Command, verbose bool) *logger.Logger {
	if verbose {
		return logger.New(logger.Options{Level: "debug", Format: deps.Settings.LogFormat, Output: cmd.ErrOrStderr()})
	}
	if deps.Logger != nil {
		return deps.Logger
	}
	return logger.Discard()
}

// activityIndicator reports network activity transitions on stderr in
// verbose mode.
func activityIndicator(cmd *cobra.Command, verbose bool) *places.ActivityCounter {
	return places.NewActivityCounter(func(active bool) {
		if !verbose {
			return
		}
		state := "idle"
		if active {
			state = "busy"
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[activity] network %s\n", state)
	})
}

func searchRadius(flagValue float64, target searchTarget, settings config.Settings) float64 {
	switch {
	case flagValue > 0:
		return flagValue
	case target.RadiusMeters > 0:
		return target.RadiusMeters
	case settings.SearchRadiusMeters > 0:
		return settings.SearchRadiusMeters
	default:
		return config.DefaultSearchRadiusMeters
	}
}

func searchLanguage(flagValue string, settings config.Settings) string {
	if language := strings.TrimSpace(flagValue); language != "" {
		return language
	}
	return settings.Language
}
