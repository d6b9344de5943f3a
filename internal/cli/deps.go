package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/mekedron/placetour/internal/config"
	"github.com/mekedron/placetour/internal/domain"
	placesgateway "github.com/mekedron/placetour/internal/gateway/places"
	"github.com/mekedron/placetour/internal/logger"
)

const (
	exitUsage       = 2
	exitInterrupted = 130
)

var unknownCommandPattern = regexp.MustCompile(`unknown command "([^"]+)"`)

var errVersionShown = errors.New("version shown")

// ProfileResolver looks up saved search profiles.
type ProfileResolver interface {
	Find(ctx context.Context, profileName string) (domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
}

// LocationResolver geocodes free-form addresses.
type LocationResolver interface {
	Get(ctx context.Context, address string) (domain.GeoPoint, error)
}

// ConfigManager reads and writes the profile file.
type ConfigManager interface {
	Path() string
	Load(ctx context.Context) (domain.Config, error)
	Save(ctx context.Context, cfg domain.Config) error
}

// Dependencies is everything the commands need from the outside world.
// Places is required by nearby and tour. The rest may be nil, and commands
// that need a missing one report a config error.
type Dependencies struct {
	Places   placesgateway.API
	Profiles ProfileResolver
	Location LocationResolver
	Config   ConfigManager
	Settings config.Settings
	Logger   *logger.Logger
	Version  string
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, deps Dependencies, stdout io.Writer, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	var controlled *exitError
	switch {
	case err == nil, errors.Is(err, errVersionShown):
		return 0
	case errors.As(err, &controlled):
		return controlled.code
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		_, _ = fmt.Fprintln(stderr, "interrupted")
		return exitInterrupted
	}

	if matches := unknownCommandPattern.FindStringSubmatch(err.Error()); len(matches) > 1 {
		_, _ = fmt.Fprintf(stderr, "No such command '%s'\n", matches[1])
		return exitUsage
	}
	if msg := err.Error(); msg != "" {
		_, _ = fmt.Fprintln(stderr, msg)
	}
	return 1
}
