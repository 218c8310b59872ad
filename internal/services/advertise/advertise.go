// Package advertise publishes the port the server actually listens on, so
// clients can find it even after a random-port fallback.
//
// Three files are written: <publicDir>/server-port.txt, <publicDir>/port-info.json
// and a second server-port.txt at portFile (usually the working directory).
package advertise

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// Advertiser writes the port files.
type Advertiser struct {
	PublicDir  string
	PortFile   string
	ServerPath string
	Now        func() time.Time
}

// Publish writes every advertisement file for port. It keeps going after a
// failed write and returns all failures joined.
func (a Advertiser) Publish(port int) error {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	portText := []byte(fmt.Sprintf("%d", port))

	var errs []error
	if a.PublicDir != "" {
		if err := os.MkdirAll(a.PublicDir, 0o755); err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s: %w", a.PublicDir, err))
		} else {
			errs = append(errs, writeAtomic(filepath.Join(a.PublicDir, "server-port.txt"), portText))

			info, err := json.MarshalIndent(models.PortInfo{
				Port:       port,
				Timestamp:  now().UTC(),
				ServerPath: a.ServerPath,
			}, "", "  ")
			if err != nil {
				errs = append(errs, err)
			} else {
				errs = append(errs, writeAtomic(filepath.Join(a.PublicDir, "port-info.json"), info))
			}
		}
	}
	if a.PortFile != "" {
		errs = append(errs, writeAtomic(a.PortFile, portText))
	}
	return errors.Join(errs...)
}

// writeAtomic writes to a temp file and renames it, so a client polling the
// file never reads half a port number.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Listen binds addr:port. When the port is taken and randomFallback is set,
// it binds an ephemeral port instead. The returned port is the bound one.
func Listen(host string, port int, randomFallback bool) (net.Listener, int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		if !randomFallback || !errors.Is(err, syscall.EADDRINUSE) {
			return nil, 0, err
		}
		ln, err = net.Listen("tcp", net.JoinHostPort(host, "0"))
		if err != nil {
			return nil, 0, err
		}
	}
	return ln, ln.Addr().(*net.TCPAddr).Port, nil
}
