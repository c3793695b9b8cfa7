package store

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/quasilyte/gdata"
	uuid "github.com/satori/go.uuid"

	"github.com/vl4deee11/predprey/mob"
	"github.com/vl4deee11/predprey/qtable"
)

var (
	ErrNotFound = errors.New("store: no such table")
	ErrBadName  = errors.New("store: bad table name")
)

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Backend is the key/value part of *gdata.Manager.
type Backend interface {
	SaveItem(name string, data []byte) error
	LoadItem(name string) ([]byte, error)
}

// Store keeps trained tables between runs.
type Store struct {
	b Backend
}

// Open puts the tables in the per-user data directory of appName.
func Open(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "store: open %s", appName)
	}
	return New(m), nil
}

func New(b Backend) *Store {
	return &Store{b: b}
}

// Name is the item name of the table of one mob.
func Name(c mob.Category, id uuid.UUID) string {
	return strings.ToLower(c.String()) + "-" + id.String()
}

func (s *Store) SaveTable(name string, t *qtable.Table) error {
	if !validName.MatchString(name) {
		return errors.Wrapf(ErrBadName, "%q", name)
	}
	data, err := qtable.Marshal(t)
	if err != nil {
		return errors.Wrapf(err, "store: encode %s", name)
	}
	if err := s.b.SaveItem(name, data); err != nil {
		return errors.Wrapf(err, "store: save %s", name)
	}
	return nil
}

func (s *Store) LoadTable(name string) (*qtable.Table, error) {
	if !validName.MatchString(name) {
		return nil, errors.Wrapf(ErrBadName, "%q", name)
	}
	data, err := s.b.LoadItem(name)
	if err != nil {
		return nil, errors.Wrapf(err, "store: load %s", name)
	}
	if len(data) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	t, err := qtable.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, "store: decode %s", name)
	}
	return t, nil
}
