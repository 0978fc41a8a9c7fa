package services

import (
	"context"
	"sync"

	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/jo-2640/firstmyapp/internal/repository"
	"github.com/sirupsen/logrus"
)

// Subscription is an explicit handle on a live user-record feed. The
// opener owns the handle and must Close it when the consuming view
// goes away; Close is idempotent.
type Subscription struct {
	C chan models.User

	key    string
	cancel context.CancelFunc
	once   sync.Once
	svc    *WatchService
}

// Close tears the subscription down and releases its slot.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.cancel()
		sub.svc.release(sub.key, sub)
	})
}

// recordStream is the slice of mongo.ChangeStream the watch loop uses.
type recordStream interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Close(ctx context.Context) error
	Err() error
}

type userChangeEvent struct {
	FullDocument models.User `bson:"fullDocument"`
}

// WatchService multiplexes change-stream subscriptions on user
// records. At most one live subscription exists per (view, user) pair;
// opening a new one first closes the previous holder, so stale handles
// can never leak a standing server-push stream.
type WatchService struct {
	watch func(ctx context.Context, uid string) (recordStream, error)

	mu     sync.Mutex
	active map[string]*Subscription
}

func NewWatchService(repo *repository.UserRepository) *WatchService {
	return &WatchService{
		watch: func(ctx context.Context, uid string) (recordStream, error) {
			return repo.Watch(ctx, uid)
		},
		active: make(map[string]*Subscription),
	}
}

// Subscribe opens a live feed of the given user's record for a view.
// The feed lives until the handle is closed or ctx is cancelled,
// whichever comes first.
func (s *WatchService) Subscribe(ctx context.Context, viewID, uid string) (*Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	stream, err := s.watch(streamCtx, uid)
	if err != nil {
		cancel()
		return nil, err
	}

	key := viewID + ":" + uid
	sub := &Subscription{
		C:      make(chan models.User, 8),
		key:    key,
		cancel: cancel,
		svc:    s,
	}

	s.mu.Lock()
	if prev, ok := s.active[key]; ok {
		// The previous holder lost its slot; close it out from under it.
		go prev.Close()
	}
	s.active[key] = sub
	s.mu.Unlock()

	go func() {
		defer close(sub.C)
		defer stream.Close(context.Background())

		var event userChangeEvent
		for stream.Next(streamCtx) {
			if err := stream.Decode(&event); err != nil {
				logrus.WithError(err).Warn("Failed to decode user change event")
				continue
			}
			select {
			case sub.C <- event.FullDocument:
			case <-streamCtx.Done():
				return
			default:
				// Slow consumer: drop the event, the next change
				// carries the full document anyway.
			}
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			logrus.WithFields(logrus.Fields{
				"uid":   uid,
				"error": err,
			}).Warn("User change stream ended with error")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"view": viewID,
		"uid":  uid,
	}).Info("User record subscription opened")
	return sub, nil
}

func (s *WatchService) release(key string, sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[key] == sub {
		delete(s.active, key)
	}
}
