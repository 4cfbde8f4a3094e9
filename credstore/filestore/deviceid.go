package filestore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const deviceIDFile = "device_id"

// DeviceID returns the stable identifier for this install, generating one on
// first use. The clinic API uses it server-side for OTP device binding; the
// client treats it as opaque and attaches it to every request.
func (s *Store) DeviceID() (string, error) {
	path := filepath.Join(s.dir, deviceIDFile)

	raw, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(raw))
		if _, perr := uuid.Parse(id); perr == nil {
			return id, nil
		}
	}
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrap(err, "[Store.DeviceID] read")
	}

	id := uuid.New().String()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", errors.Wrap(err, "[Store.DeviceID] write")
	}
	return id, nil
}
