package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// Store provides access to the resolution history.
type Store struct {
	driver Driver
	now    func() time.Time
}

// New creates a new instance of Store.
func New(driver Driver) *Store {
	return &Store{
		driver: driver,
		now:    time.Now,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// CreateHistory stores create, assigning its UID and creation time when unset.
func (s *Store) CreateHistory(ctx context.Context, create *History) (*History, error) {
	if create.Timex == "" {
		return nil, errors.New("history entry without timex")
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = s.now().Unix()
	}
	if create.Payload == "" {
		create.Payload = "[]"
	}
	return s.driver.CreateHistory(ctx, create)
}

// ListHistory returns matching entries, newest first.
func (s *Store) ListHistory(ctx context.Context, find *FindHistory) ([]*History, error) {
	if find == nil {
		find = &FindHistory{}
	}
	return s.driver.ListHistory(ctx, find)
}

// GetHistory returns the entry with uid, or nil when there is none.
func (s *Store) GetHistory(ctx context.Context, uid string) (*History, error) {
	list, err := s.driver.ListHistory(ctx, &FindHistory{UID: &uid, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// PruneHistory removes entries older than retention.
func (s *Store) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	return s.driver.DeleteHistory(ctx, &DeleteHistory{CreatedBefore: s.now().Add(-retention).Unix()})
}
