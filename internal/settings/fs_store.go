package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rebuildhq/storeconnect/internal/util/atomicwrite"
)

// FSStore guarda los settings en un archivo YAML bajo root.
// La escritura es atómica (temp + fsync + rename).
type FSStore struct {
	root string
}

// NewFSStore crea el store y asegura que root exista.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("settings: fs root vacío")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("settings: mkdir %s: %w", root, err)
	}
	return &FSStore{root: root}, nil
}

func (f *FSStore) path() string {
	return filepath.Join(f.root, "settings.yaml")
}

// Load lee el documento. ErrNotFound si el archivo no existe todavía.
func (f *FSStore) Load(_ context.Context) (Settings, error) {
	b, err := os.ReadFile(f.path())
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, fmt.Errorf("settings: read %s: %w", f.path(), err)
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("settings: parse %s: %w", f.path(), err)
	}
	return s, nil
}

// Save reemplaza el documento completo. Permisos 0600: contiene secretos.
func (f *FSStore) Save(_ context.Context, s Settings) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	return atomicwrite.AtomicWriteFile(f.path(), b, 0o600)
}
