package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/service/output"
	"github.com/mekedron/placetour/internal/service/places"
	"github.com/mekedron/placetour/internal/service/route"
	"github.com/mekedron/placetour/internal/service/session"
	"github.com/spf13/cobra"
)

type tourStop struct {
	Order    int             `json:"order" yaml:"order"`
	Name     string          `json:"name" yaml:"name"`
	Category string          `json:"category,omitempty" yaml:"category,omitempty"`
	Address  string          `json:"address,omitempty" yaml:"address,omitempty"`
	Location domain.GeoPoint `json:"location" yaml:"location"`
	LegM     float64         `json:"leg_m" yaml:"leg_m"`
	Photo    *domain.Image   `json:"photo,omitempty" yaml:"photo,omitempty"`
}

// orderStops maps the inner tour points back to places. Places sharing a
// location are taken in list order.
func orderStops(tour domain.Route, summary route.Summary, records []domain.PlaceRecord) []tourStop {
	used := make([]bool, len(records))
	stops := make([]tourStop, 0, len(records))
	for i := 1; i < len(tour.Points)-1; i++ {
		point := tour.Points[i]
		stop := tourStop{Order: i, Name: "-", Location: point}
		for j := range records {
			if used[j] || records[j].Location != point {
				continue
			}
			used[j] = true
			stop.Name = records[j].DisplayName()
			stop.Category = records[j].Category
			stop.Address = records[j].Address
			stop.Photo = records[j].Photo
			break
		}
		if i-1 < len(summary.Legs) {
			stop.LegM = summary.Legs[i-1].Meters
		}
		stops = append(stops, stop)
	}
	return stops
}

func buildTourTable(origin domain.GeoPoint, stops []tourStop, summary route.Summary) string {
	rows := make([][]string, 0, len(stops)+2)
	rows = append(rows, []string{"0", "Start", "-", origin.String(), "-", "-"})
	cumulative := 0.0
	for _, stop := range stops {
		cumulative += stop.LegM
		rows = append(rows, []string{
			strconv.Itoa(stop.Order),
			stop.Name,
			fallbackString(stop.Category, "-"),
			stop.Location.String(),
			domain.FormatMeters(stop.LegM),
			domain.FormatMeters(cumulative),
		})
	}
	if n := len(summary.Legs); n > 0 {
		last := summary.Legs[n-1].Meters
		rows = append(rows, []string{
			strconv.Itoa(len(stops) + 1),
			"Back to start",
			"-",
			origin.String(),
			domain.FormatMeters(last),
			domain.FormatMeters(cumulative + last),
		})
	}
	title := fmt.Sprintf("Tour from %s: %d stops, %s", origin, summary.Stops, domain.FormatMeters(summary.TotalMeters))
	return output.RenderTable(title, []string{"#", "Stop", "Category", "Position", "Leg", "Total"}, rows)
}

func fallbackString(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func newTourCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var coords coordinateFlags
	var originCoords coordinateFlags
	var originAddress string
	var radius float64
	var limit int
	var withPhotos bool
	var geojsonPath string

	cmd := &cobra.Command{
		Use:     "tour",
		Short:   "Plan a closed walking tour through the places around a position.",
		Example: "placetour tour --profile home --origin-address \"Helsinki Central Station\" --geojson tour.geojson",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(flags.Format)
			if err != nil {
				return err
			}
			c := newCommandContext(cmd, flags, format)
			if limit < 1 || limit > places.MaxResults {
				return c.emitError(codeInvalidArgument, fmt.Sprintf("--limit must be between 1 and %d", places.MaxResults))
			}
			lat, lon := coords.values(cmd)
			target, err := resolveTarget(cmd.Context(), deps, c, lat, lon, flags.Address, flags.Profile)
			if err != nil {
				return err
			}
			c.profile = target.Profile
			originLat, originLon := originCoords.values(cmd)
			origin, hasOrigin, err := resolvePoint(cmd.Context(), deps, c, originLat, originLon, originAddress, "--origin-lat/--origin-lon", "--origin-address")
			if err != nil {
				return err
			}
			if !hasOrigin {
				origin = target.Center
			}
			if err := requireAPIKey(deps, c); err != nil {
				return err
			}

			log := commandLogger(deps, cmd, flags.Verbose)
			var photoFetcher places.PhotoFetcher
			if withPhotos {
				photoFetcher = newPhotoCache(deps, log)
			}
			presenter := newTourPresenter()
			planner := route.NewPlanner()
			var sess *session.Session
			fetcher := places.NewFetcher(
				deps.Places,
				photoFetcher,
				places.WithRadius(searchRadius(radius, target, deps.Settings)),
				places.WithLimit(limit),
				places.WithLanguage(searchLanguage(flags.Language, deps.Settings)),
				places.WithPhotoConcurrency(deps.Settings.PhotoConcurrency),
				places.WithActivity(activityIndicator(cmd, flags.Verbose)),
				places.WithLogger(log),
				places.WithPhotoListener(func(set *places.ResultSet, index int) {
					sess.PhotoAttached(set, index)
				}),
			)
			sess = session.New(fetcher, planner, presenter, session.WithLogger(log))

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			runDone := make(chan error, 1)
			go func() {
				runDone <- sess.Run(runCtx)
			}()
			stop := func() {
				cancel()
				<-runDone
				fetcher.Wait()
			}

			sess.LocationUpdated(target.Center)
			select {
			case <-presenter.shown:
			case searchErr := <-presenter.failed:
				stop()
				return emitUpstreamError(c, searchErr)
			case <-cmd.Context().Done():
				stop()
				return cmd.Context().Err()
			}
			// Photo updates are queued before the origin, so the tour sees them.
			fetcher.Wait()
			sess.OriginSelected(origin)
			select {
			case <-presenter.routed:
			case <-cmd.Context().Done():
				stop()
				return cmd.Context().Err()
			}
			stop()

			records, tour := presenter.snapshot()
			summary := planner.Summarize(tour)
			stops := orderStops(tour, summary, records)
			warnings := []string{}
			if withPhotos {
				warnings = append(warnings, missingPhotoWarning(records)...)
			}
			if geojsonPath != "" {
				if err := output.WriteGeoJSON(geojsonPath, output.BuildGeoJSON(records, tour)); err != nil {
					return err
				}
			}

			data := map[string]any{
				"center":  target.Center,
				"origin":  origin,
				"stops":   stops,
				"total_m": summary.TotalMeters,
				"route":   tour,
			}
			return c.write(data, warnings, func() string {
				return buildTourTable(origin, stops, summary)
			})
		},
	}

	addCoordinateFlags(cmd, &coords, "", "search centre")
	addCoordinateFlags(cmd, &originCoords, "origin-", "tour start (default: search centre)")
	cmd.Flags().StringVar(&originAddress, "origin-address", "", "Start the tour at this address. Cannot be combined with --origin-lat/--origin-lon.")
	cmd.Flags().Float64Var(&radius, "radius", 0, "Search radius in metres (default: profile radius or PLACETOUR_SEARCH_RADIUS_M).")
	cmd.Flags().IntVar(&limit, "limit", places.MaxResults, fmt.Sprintf("Maximum number of places, 1..%d.", places.MaxResults))
	cmd.Flags().BoolVar(&withPhotos, "photos", false, "Download one photo per place before planning.")
	cmd.Flags().StringVar(&geojsonPath, "geojson", "", "Write places and the tour line as GeoJSON to this file.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
