package tlsroots

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/yndnr/pgpauth-go/internal/infra/confloader"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
)

// CertReloader serves a certificate/key pair and reloads it when either
// file changes. A failed reload keeps the previous pair.
type CertReloader struct {
	certFile string
	keyFile  string
	logger   logger.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewCertReloader loads the initial key pair.
func NewCertReloader(certFile, keyFile string, log logger.Logger) (*CertReloader, error) {
	if log == nil {
		log = logger.Default()
	}
	r := &CertReloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   log,
	}
	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return r, nil
}

// Reload reads the key pair from disk.
func (r *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	r.logger.Info("certificate loaded", "cert_file", r.certFile)
	return nil
}

// Watch registers both files with w and reloads on change.
func (r *CertReloader) Watch(w *confloader.Watcher) error {
	for _, f := range []string{r.certFile, r.keyFile} {
		if err := w.Watch(f); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", f, err)
		}
	}

	certAbs, _ := filepath.Abs(r.certFile)
	keyAbs, _ := filepath.Abs(r.keyFile)
	w.OnChange(func(path string) {
		if path != certAbs && path != keyAbs {
			return
		}
		if err := r.Reload(); err != nil {
			r.logger.Error("certificate reload failed, keeping previous", "error", err, "cert_file", r.certFile)
		}
	})
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}
