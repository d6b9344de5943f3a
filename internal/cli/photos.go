package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/logger"
	"github.com/mekedron/placetour/internal/service/photocache"
)

func newPhotoCache(deps Dependencies, log *logger.Logger) *photocache.Cache {
	maxWidth := deps.Settings.PhotoMaxWidth
	source := photocache.SourceFunc(func(ctx context.Context, key string) (domain.Image, error) {
		return deps.Places.Photo(ctx, key, maxWidth)
	})
	return photocache.New(source, photocache.WithLogger(log))
}

// exportPhotos writes every attached photo into dir and returns the file paths.
func exportPhotos(dir string, records []domain.PlaceRecord) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo directory: %w", err)
	}
	written := make([]string, 0, len(records))
	for i, record := range records {
		if record.Photo == nil || len(record.Photo.Data) == 0 {
			continue
		}
		name := fmt.Sprintf("%02d-%s%s", i+1, slugify(record.DisplayName()), photoExtension(record.Photo.ContentType))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, record.Photo.Data, 0o644); err != nil {
			return written, fmt.Errorf("write photo %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func photoExtension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".img"
	}
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "place"
	}
	return slug
}

func missingPhotoWarning(records []domain.PlaceRecord) []string {
	missing := 0
	for _, record := range records {
		if record.HasPhotoKey() && !record.HasPhoto() {
			missing++
		}
	}
	if missing == 0 {
		return nil
	}
	return []string{fmt.Sprintf("%d photo(s) could not be loaded", missing)}
}
