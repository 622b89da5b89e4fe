package services

import (
	"context"
	"time"

	"github.com/mahmoud-the-dev/Propmatch/internal/repositories"
	"github.com/mahmoud-the-dev/Propmatch/internal/storage"
	"github.com/mahmoud-the-dev/Propmatch/internal/utils"
)

/*
OrphanSweeperService reconciles the object store against the image-metadata
rows. A compensating deletion that itself fails, or a crash between upload
and row insert, leaves files no row points at; the sweeper removes them once
they are older than the grace window. The window protects uploads belonging
to a create or update still in flight.
*/
type OrphanSweeperService struct {
	images repositories.PropertyImageRepository
	store  storage.ObjectStore
	grace  time.Duration
}

const DefaultSweepGrace = 24 * time.Hour

func NewOrphanSweeperService(
	images repositories.PropertyImageRepository,
	store storage.ObjectStore,
	grace time.Duration,
) *OrphanSweeperService {
	if grace <= 0 {
		grace = DefaultSweepGrace
	}
	return &OrphanSweeperService{images: images, store: store, grace: grace}
}

// Sweep deletes every stored object that has no metadata row and is older
// than the grace window. Individual delete failures are logged and retried
// on the next run.
func (s *OrphanSweeperService) Sweep(ctx context.Context) error {
	keys, err := s.store.List(ctx, storage.KeyPrefix+"/")
	if err != nil {
		return err
	}

	urls, err := s.images.ListAllURLs(ctx)
	if err != nil {
		return err
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		key, kErr := storage.KeyFromURL(u)
		if kErr != nil {
			utils.Logger.WithError(kErr).Warnf("sweep: unparsable image URL %s", u)
			continue
		}
		referenced[key] = struct{}{}
	}

	var removed int
	for _, key := range keys {
		if _, ok := referenced[key]; ok {
			continue
		}
		ts, ok := storage.KeyTimestamp(key)
		if !ok {
			// not one of ours; leave it alone
			continue
		}
		if time.Since(ts) < s.grace {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			utils.Logger.WithError(err).Warnf("sweep: failed to delete orphaned object %s", key)
			continue
		}
		removed++
	}

	if removed > 0 {
		utils.Logger.Infof("sweep: removed %d orphaned image file(s)", removed)
	}
	return nil
}
