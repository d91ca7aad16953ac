package db

// ------------------------------
// Event System
// ------------------------------
//
// The DB emits typed events when users and bookmarks change.
// Register listeners to react to these changes.
//
// Example usage:
//
//	db.RegisterEventListener(db.OnBookmarkCreatedEvent, func(event db.Event) error {
//	    ev := event.(db.BookmarkCreatedEvent)
//	    log.Printf("New bookmark created: %d - %s", ev.Bookmark.ID, ev.Bookmark.URL)
//	    return nil
//	})
//
// Event is the common interface for all database events.
type Event interface {
	Kind() EventKind
}

// EventKind represents all the kinds of events that can be emitted by the DB.
type EventKind int

const (
	// OnBookmarkCreatedEvent is emitted when a bookmark is created.
	OnBookmarkCreatedEvent EventKind = iota
	// OnBookmarkDeletedEvent is emitted when a bookmark is deleted.
	OnBookmarkDeletedEvent
	// OnScreenshotUpdatedEvent is emitted when a bookmark's screenshot path is set or cleared.
	OnScreenshotUpdatedEvent
	// OnUserCreatedEvent is emitted when a user registers.
	OnUserCreatedEvent
)

func (k EventKind) String() string {
	switch k {
	case OnBookmarkCreatedEvent:
		return "bookmark_created"
	case OnBookmarkDeletedEvent:
		return "bookmark_deleted"
	case OnScreenshotUpdatedEvent:
		return "screenshot_updated"
	case OnUserCreatedEvent:
		return "user_created"
	default:
		return "unknown"
	}
}

// BookmarkCreatedEvent is emitted after a new bookmark is successfully inserted.
type BookmarkCreatedEvent struct {
	Bookmark Bookmark
}

func (e BookmarkCreatedEvent) Kind() EventKind { return OnBookmarkCreatedEvent }

// BookmarkDeletedEvent is emitted after a bookmark is deleted.
// The Bookmark field contains the state before deletion.
type BookmarkDeletedEvent struct {
	Bookmark Bookmark
}

func (e BookmarkDeletedEvent) Kind() EventKind { return OnBookmarkDeletedEvent }

// ScreenshotUpdatedEvent is emitted after a screenshot path is stored.
// Path is empty when the screenshot was cleared.
type ScreenshotUpdatedEvent struct {
	BookmarkID int64
	Path       string
}

func (e ScreenshotUpdatedEvent) Kind() EventKind { return OnScreenshotUpdatedEvent }

// UserCreatedEvent is emitted after a user is registered.
type UserCreatedEvent struct {
	User User
}

func (e UserCreatedEvent) Kind() EventKind { return OnUserCreatedEvent }

// EventListener is a callback that handles events of a specific kind.
type EventListener func(event Event) error

// RegisterEventListener adds a listener for a specific event kind.
// Listeners are called synchronously in registration order after the DB operation succeeds.
func (db *DB) RegisterEventListener(eventKind EventKind, listener EventListener) {
	if db.eventListeners == nil {
		db.eventListeners = make(map[EventKind][]EventListener)
	}
	db.eventListeners[eventKind] = append(db.eventListeners[eventKind], listener)
}

// emit dispatches an event to all registered listeners for that event kind.
func (db *DB) emit(event Event) {
	for _, listener := range db.eventListeners[event.Kind()] {
		if err := listener(event); err != nil {
			db.log.WithError(err).WithField("event", event.Kind().String()).Warn("Event listener error")
		}
	}
}
