package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mekedron/placetour/internal/cli"
	"github.com/mekedron/placetour/internal/config"
	locationgateway "github.com/mekedron/placetour/internal/gateway/location"
	placesgateway "github.com/mekedron/placetour/internal/gateway/places"
	"github.com/mekedron/placetour/internal/logger"
	"github.com/mekedron/placetour/internal/service/profile"
)

var version = "dev"

func main() {
	settings := config.LoadSettings()
	log := logger.New(logger.Options{Level: settings.LogLevel, Format: settings.LogFormat})

	store, err := config.NewStore()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	resolvedVersion := cli.ResolveVersion(version)
	deps := cli.Dependencies{
		Places: placesgateway.NewClient(
			placesgateway.WithAPIKey(settings.APIKey),
			placesgateway.WithLanguage(settings.Language),
			placesgateway.WithEndpoints(placesgateway.Endpoints{
				NearbySearch: settings.NearbyURL,
				Photo:        settings.PhotoURL,
			}),
			placesgateway.WithRequestMinInterval(settings.HTTPMinInterval),
			placesgateway.WithUserAgent("placetour/"+resolvedVersion),
		),
		Profiles: profile.NewResolver(store),
		Location: locationgateway.NewClient(
			locationgateway.WithBaseURL(settings.GeocoderURL),
			locationgateway.WithLanguage(settings.Language),
		),
		Config:   store,
		Settings: settings,
		Logger:   log,
		Version:  version,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	exitCode := cli.Execute(ctx, os.Args[1:], deps, os.Stdout, os.Stderr)
	stop()
	os.Exit(exitCode)
}
