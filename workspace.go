package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// hubBufferSize is the number of notifications a slow subscriber can lag
// behind before new ones are dropped for it.
const hubBufferSize = 16

// NotificationHub fans out the notifications of one session to its
// websocket subscribers. Publish never blocks.
type NotificationHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Notification
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{subs: make(map[int]chan Notification)}
}

// Subscribe returns a channel of notifications and the function to stop
// receiving them. The channel is closed by the cancel function.
func (h *NotificationHub) Subscribe() (<-chan Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Notification, hubBufferSize)
	h.subs[id] = ch
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish sends n to every subscriber with room left in its buffer.
func (h *NotificationHub) Publish(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *NotificationHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Workspace gathers the page controllers of one browser session.
type Workspace struct {
	ID         string
	Authors    *Controller[Author, AuthorDraft]
	Books      *Controller[Book, BookDraft]
	Publishers *Controller[Publisher, PublisherDraft]
	Categories *Controller[Category, CategoryDraft]
	Borrows    *Controller[Borrow, BorrowDraft]

	pages map[string]PageController
	hub   *NotificationHub
}

// WorkspaceDeps are the collaborators shared by every workspace.
type WorkspaceDeps struct {
	Logger   *zap.Logger
	Clock    Clocker
	Clients  *Clients
	Recorder ActivityRecorder
	TTL      time.Duration
	PageSize int
}

// NewWorkspace builds the five controllers of session id. Book forms get
// the authors, publishers and categories lists. Borrow forms get the books.
func NewWorkspace(deps WorkspaceDeps, id string) *Workspace {
	hub := NewNotificationHub()
	logger := deps.Logger.With(zap.String("session.id", id))
	opts := func(refs ...ReferenceLoader) ControllerOptions {
		return ControllerOptions{
			PageSize:   deps.PageSize,
			References: refs,
			Recorder:   deps.Recorder,
			Session:    id,
		}
	}
	presenter := func(resource string) *Presenter {
		return NewPresenter(deps.Clock, deps.TTL, resource, hub.Publish)
	}
	c := deps.Clients

	ws := &Workspace{ID: id, hub: hub}
	ws.Authors = NewController(logger, deps.Clock, AuthorResource, ResourceService[Author, AuthorDraft](c.Authors), presenter(AuthorsPath), opts())
	ws.Publishers = NewController(logger, deps.Clock, PublisherResource, ResourceService[Publisher, PublisherDraft](c.Publishers), presenter(PublishersPath), opts())
	ws.Categories = NewController(logger, deps.Clock, CategoryResource, ResourceService[Category, CategoryDraft](c.Categories), presenter(CategoriesPath), opts())
	ws.Books = NewController(logger, deps.Clock, BookResource, ResourceService[Book, BookDraft](c.Books), presenter(BooksPath), opts(
		listLoader(AuthorsPath, c.Authors.List),
		listLoader(PublishersPath, c.Publishers.List),
		listLoader(CategoriesPath, c.Categories.List),
	))
	ws.Borrows = NewController(logger, deps.Clock, BorrowResource, ResourceService[Borrow, BorrowDraft](c.Borrows), presenter(BorrowsPath), opts(
		listLoader(BooksPath, c.Books.List),
	))

	ws.pages = map[string]PageController{
		AuthorsPath:    ws.Authors,
		BooksPath:      ws.Books,
		PublishersPath: ws.Publishers,
		CategoriesPath: ws.Categories,
		BorrowsPath:    ws.Borrows,
	}
	return ws
}

func listLoader[T any](name string, list func(ctx context.Context) ([]T, error)) ReferenceLoader {
	return ReferenceLoader{
		Name: name,
		Load: func(ctx context.Context) (any, error) {
			return list(ctx)
		},
	}
}

// Page returns the controller serving the named resource.
func (ws *Workspace) Page(name string) (PageController, bool) {
	page, ok := ws.pages[name]
	return page, ok
}

// Hub returns the notification hub of the session.
func (ws *Workspace) Hub() *NotificationHub {
	return ws.hub
}

// Snapshot serializes the state of every page.
func (ws *Workspace) Snapshot() ([]byte, error) {
	names := make([]string, 0, len(ws.pages))
	for name := range ws.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	states := make(map[string]jsoniter.RawMessage, len(names))
	for _, name := range names {
		data, err := ws.pages[name].Snapshot()
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", name, err)
		}
		states[name] = data
	}
	return codec.Marshal(states)
}

// Restore applies a snapshot. Unknown pages are ignored.
func (ws *Workspace) Restore(data []byte) error {
	states := map[string]jsoniter.RawMessage{}
	if err := codec.Unmarshal(data, &states); err != nil {
		return fmt.Errorf("restore workspace: %w", err)
	}
	for name, state := range states {
		page, ok := ws.pages[name]
		if !ok {
			continue
		}
		if err := page.Restore(state); err != nil {
			return err
		}
	}
	return nil
}
