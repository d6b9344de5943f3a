package cli

import (
	"fmt"
	"strconv"

	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/service/output"
	"github.com/mekedron/placetour/internal/service/places"
	"github.com/spf13/cobra"
)

type placeRow struct {
	Rank      int             `json:"rank" yaml:"rank"`
	PlaceID   string          `json:"place_id,omitempty" yaml:"place_id,omitempty"`
	Name      string          `json:"name" yaml:"name"`
	Category  string          `json:"category,omitempty" yaml:"category,omitempty"`
	Address   string          `json:"address,omitempty" yaml:"address,omitempty"`
	Location  domain.GeoPoint `json:"location" yaml:"location"`
	DistanceM float64         `json:"distance_m" yaml:"distance_m"`
	PhotoKey  string          `json:"photo_key,omitempty" yaml:"photo_key,omitempty"`
	Photo     *domain.Image   `json:"photo,omitempty" yaml:"photo,omitempty"`
}

func buildPlaceRows(center domain.GeoPoint, records []domain.PlaceRecord) []placeRow {
	rows := make([]placeRow, 0, len(records))
	for i, record := range records {
		rows = append(rows, placeRow{
			Rank:      i + 1,
			PlaceID:   record.PlaceID,
			Name:      record.DisplayName(),
			Category:  record.Category,
			Address:   record.Address,
			Location:  record.Location,
			DistanceM: domain.Distance(center, record.Location),
			PhotoKey:  record.PhotoKey,
			Photo:     record.Photo,
		})
	}
	return rows
}

func buildPlacesTable(center domain.GeoPoint, records []domain.PlaceRecord) string {
	rows := make([][]string, 0, len(records))
	for i, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			record.DisplayName(),
			record.FormatCategory(),
			record.FormatAddress(),
			domain.FormatMeters(domain.Distance(center, record.Location)),
			record.FormatPhoto(),
		})
	}
	title := fmt.Sprintf("Places near %s (%d)", center, len(records))
	return output.RenderTable(title, []string{"#", "Name", "Category", "Address", "Distance", "Photo"}, rows)
}

func newNearbyCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var coords coordinateFlags
	var radius float64
	var limit int
	var withPhotos bool
	var photoDir string
	var geojsonPath string

	cmd := &cobra.Command{
		Use:     "nearby",
		Short:   "List the most prominent places around a position.",
		Example: "placetour nearby --lat 60.1699 --lon 24.9384 --photos\nplacetour nearby --address \"Senate Square, Helsinki\" --format json",
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
			if err := requireAPIKey(deps, c); err != nil {
				return err
			}

			log := commandLogger(deps, cmd, flags.Verbose)
			var photoFetcher places.PhotoFetcher
			if withPhotos || photoDir != "" {
				photoFetcher = newPhotoCache(deps, log)
			}
			radiusMeters := searchRadius(radius, target, deps.Settings)
			fetcher := places.NewFetcher(
				deps.Places,
				photoFetcher,
				places.WithRadius(radiusMeters),
				places.WithLimit(limit),
				places.WithLanguage(searchLanguage(flags.Language, deps.Settings)),
				places.WithPhotoConcurrency(deps.Settings.PhotoConcurrency),
				places.WithActivity(activityIndicator(cmd, flags.Verbose)),
				places.WithLogger(log),
			)

			set, err := fetcher.Search(cmd.Context(), target.Center)
			if err != nil {
				return emitUpstreamError(c, err)
			}
			fetcher.Wait()
			records := set.Snapshot()

			warnings := []string{}
			if photoFetcher != nil {
				warnings = append(warnings, missingPhotoWarning(records)...)
			}
			var exported []string
			if photoDir != "" {
				exported, err = exportPhotos(photoDir, records)
				if err != nil {
					return err
				}
			}
			if geojsonPath != "" {
				if err := output.WriteGeoJSON(geojsonPath, output.BuildGeoJSON(records, domain.Route{})); err != nil {
					return err
				}
			}

			data := map[string]any{
				"result_set_id": set.ID,
				"center":        target.Center,
				"radius_m":      radiusMeters,
				"count":         len(records),
				"places":        buildPlaceRows(target.Center, records),
			}
			if len(exported) > 0 {
				data["photo_files"] = exported
			}
			return c.write(data, warnings, func() string {
				return buildPlacesTable(target.Center, records)
			})
		},
	}

	addCoordinateFlags(cmd, &coords, "", "search centre")
	cmd.Flags().Float64Var(&radius, "radius", 0, "Search radius in metres (default: profile radius or PLACETOUR_SEARCH_RADIUS_M).")
	cmd.Flags().IntVar(&limit, "limit", places.MaxResults, fmt.Sprintf("Maximum number of places, 1..%d.", places.MaxResults))
	cmd.Flags().BoolVar(&withPhotos, "photos", false, "Download one photo per place and report its size.")
	cmd.Flags().StringVar(&photoDir, "photo-dir", "", "Download photos and save them into this directory.")
	cmd.Flags().StringVar(&geojsonPath, "geojson", "", "Write the places as a GeoJSON FeatureCollection to this file.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
