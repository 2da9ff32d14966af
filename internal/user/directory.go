package user

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DirectoryFile is the name of the user directory under the database root
const DirectoryFile = "users.yml"

// Directory is the users.yml document mapping user names to statuses
type Directory struct {
	path string
	log  *zap.Logger
}

// NewDirectory opens the user directory of a database root
func NewDirectory(root string, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{path: filepath.Join(root, DirectoryFile), log: log}
}

// Path returns the location of the directory file
func (d *Directory) Path() string {
	return d.path
}

// Load reads all users. A missing file loads as an empty directory.
func (d *Directory) Load() (map[string]Status, error) {
	users, _, err := d.read()
	return users, err
}

// read returns the users and whether the file exists
func (d *Directory) read() (map[string]Status, bool, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Status{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read users: %w", err)
	}

	users := map[string]Status{}
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, true, fmt.Errorf("parse %s: %w", d.path, err)
	}
	if users == nil {
		users = map[string]Status{}
	}
	return users, true, nil
}

// Lookup returns the named user, or nil if there is no directory file or the
// name is not in it.
func (d *Directory) Lookup(name string) (*User, error) {
	users, exists, err := d.read()
	if err != nil {
		return nil, err
	}
	if !exists {
		d.log.Warn("user does not have edit privileges in the system",
			zap.String("user", name))
		return nil, nil
	}
	status, ok := users[name]
	if !ok {
		d.log.Warn("unknown user", zap.String("user", name))
		return nil, nil
	}
	return &User{Name: name, Status: status}, nil
}

// Save upserts a user and rewrites the whole directory file
func (d *Directory) Save(u *User) error {
	users, err := d.Load()
	if err != nil {
		return err
	}
	users[u.Name] = u.Status

	data, err := yaml.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(d.path), err)
	}
	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("write users: %w", err)
	}
	d.log.Info("saved user", zap.String("user", u.Name), zap.Stringer("status", u.Status))
	return nil
}
