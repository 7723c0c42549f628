package bubu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// ManifestFileName is the workspace manifest file, next to the two store
// files. It is JWCC (JSON with comments and trailing commas).
const ManifestFileName = "bubu.json"

// Manifest describes a workspace. Create writes it; a pre-existing
// manifest may seed the store tuning before the workspace is created.
type Manifest struct {
	// ID is assigned on create.
	ID string `json:"id,omitempty"`

	// CreatedAt is assigned on create.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// BucketLength and FreePoolLength tune both record stores.
	BucketLength   uint32 `json:"bucket_length"`
	FreePoolLength uint32 `json:"free_pool_length"`
}

// loadManifest reads dir/bubu.json. found is false when the file does not
// exist; that is not an error.
func loadManifest(dir string) (m Manifest, found bool, err error) {
	path := filepath.Join(dir, ManifestFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, false, nil
		}

		return Manifest{}, false, fmt.Errorf("read manifest: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("manifest %s: invalid JWCC: %w", path, err)
	}

	err = json.Unmarshal(standardized, &m)
	if err != nil {
		return Manifest{}, false, fmt.Errorf("manifest %s: invalid JSON: %w", path, err)
	}

	return m, true, nil
}

// writeManifest atomically replaces dir/bubu.json.
func writeManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	data = append(data, '\n')

	path := filepath.Join(dir, ManifestFileName)

	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
