// Package tlscert serves the HTTPS certificate from PEM files and picks up
// rotated files without a restart.
package tlscert

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// MinTLSVersion is the minimum supported TLS version for the server.
const MinTLSVersion = tls.VersionTLS13

// Config names the certificate and key files.
type Config struct {
	CertFile string
	KeyFile  string
}

// Reloader holds the current certificate and reloads it when either file's
// modification time changes. A failed reload keeps serving the previous certificate.
type Reloader struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	cert     *tls.Certificate
	certMod  time.Time
	keyMod   time.Time
	statFile func(string) (os.FileInfo, error)
}

// New validates the files and loads the certificate once.
func New(cfg Config, logger *slog.Logger) (*Reloader, error) {
	if cfg.CertFile == "" {
		return nil, fmt.Errorf("tls_cert_file is required")
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("tls_key_file is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := validateFile(cfg.CertFile); err != nil {
		return nil, fmt.Errorf("invalid certificate file: %w", err)
	}
	if err := validateFile(cfg.KeyFile); err != nil {
		return nil, fmt.Errorf("invalid key file: %w", err)
	}
	if err := checkKeyFilePermissions(cfg.KeyFile); err != nil {
		return nil, fmt.Errorf("insecure key file permissions: %w", err)
	}

	r := &Reloader{cfg: cfg, logger: logger, statFile: os.Stat}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// TLSConfig returns a server TLS configuration backed by the reloader.
func (r *Reloader) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     MinTLSVersion,
		GetCertificate: r.GetCertificate,
	}
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.changedLocked() {
		if err := r.reloadLocked(); err != nil {
			r.logger.Error("failed to reload certificate; serving previous one",
				slog.String("cert_file", r.cfg.CertFile),
				slog.String("error", err.Error()))
		} else {
			r.logger.Info("reloaded TLS certificate", slog.String("cert_file", r.cfg.CertFile))
		}
	}
	return r.cert, nil
}

// Description names the certificate source for startup logs.
func (r *Reloader) Description() string {
	return fmt.Sprintf("file-based (cert=%s, key=%s)", r.cfg.CertFile, r.cfg.KeyFile)
}

func (r *Reloader) reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloadLocked()
}

func (r *Reloader) reloadLocked() error {
	certInfo, err := r.statFile(r.cfg.CertFile)
	if err != nil {
		return fmt.Errorf("certificate file not accessible: %w", err)
	}
	keyInfo, err := r.statFile(r.cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("key file not accessible: %w", err)
	}
	cert, err := tls.LoadX509KeyPair(r.cfg.CertFile, r.cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	r.cert = &cert
	r.certMod = certInfo.ModTime()
	r.keyMod = keyInfo.ModTime()
	return nil
}

func (r *Reloader) changedLocked() bool {
	certInfo, err := r.statFile(r.cfg.CertFile)
	if err != nil {
		return false
	}
	keyInfo, err := r.statFile(r.cfg.KeyFile)
	if err != nil {
		return false
	}
	return !certInfo.ModTime().Equal(r.certMod) || !keyInfo.ModTime().Equal(r.keyMod)
}

func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file")
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty")
	}
	return nil
}

// checkKeyFilePermissions rejects keys readable by group or others.
func checkKeyFilePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return fmt.Errorf("key file has insecure permissions %o (should be 0600 or 0400)", mode)
	}
	return nil
}
