package driven

import "github.com/custodia-labs/cloudmirror-cli/internal/core/domain"

// ManifestSource supplies the upload manifest.
type ManifestSource interface {
	// Manifest returns the parsed manifest. Validation is left to the caller.
	Manifest() (*domain.Manifest, error)
}
