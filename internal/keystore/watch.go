package keystore

import (
	"fmt"
	"path/filepath"

	"github.com/yndnr/pgpauth-go/internal/infra/confloader"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
)

// Watch registers the keyring file with w and reloads it on change. A
// failed reload is logged and the previous keys stay active.
func (k *Keyring) Watch(w *confloader.Watcher, log logger.Logger) error {
	if k.path == "" {
		return fmt.Errorf("keystore: in-memory keyring cannot be watched")
	}
	if log == nil {
		log = logger.Default()
	}
	if err := w.Watch(k.path); err != nil {
		return fmt.Errorf("keystore: watch %s: %w", k.path, err)
	}

	abs, _ := filepath.Abs(k.path)
	w.OnChange(func(path string) {
		if path != abs {
			return
		}
		if err := k.Reload(); err != nil {
			log.Error("keyring reload failed, keeping previous keys", "error", err, "keyring", k.path)
			return
		}
		log.Info("keyring reloaded", "keyring", k.path, "keys", k.Len())
	})
	return nil
}
