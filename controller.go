package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Client-side precondition failures. They abort an operation without
// touching the backend.
var (
	ErrUnknownItem     = errors.New("item is not in the current list")
	ErrNoPendingDelete = errors.New("no deletion awaiting confirmation")
	ErrInvalidPageSize = errors.New("page size must be positive")
	ErrInvalidPage     = errors.New("page must not be negative")
	ErrInvalidDraft    = errors.New("invalid draft")
)

// PageController is the type-erased surface of a Controller used by the
// admin api and the workspace.
type PageController interface {
	Name() string
	Loaded() bool
	Load(ctx context.Context) error
	View() PageView
	SetSearch(term string)
	SetPage(page int) error
	SetPageSize(size int) error
	BeginEdit(id int64) error
	UpdateDraft(patch []byte) error
	Submit(ctx context.Context) error
	RequestDelete(id int64) error
	ConfirmDelete(ctx context.Context) error
	CancelDelete()
	Clear()
	DismissNotification()
	Snapshot() ([]byte, error)
	Restore(data []byte) error
}

var _ PageController = (*Controller[Author, AuthorDraft])(nil) // ensure Controller implements PageController.

// ReferenceLoader fetches a related list needed by a page form, e.g. the
// authors offered by the book form.
type ReferenceLoader struct {
	Name string
	Load func(ctx context.Context) (any, error)
}

// ControllerOptions tunes a Controller. Zero values select the defaults.
type ControllerOptions struct {
	PageSize   int
	PageSizes  []int
	References []ReferenceLoader
	Recorder   ActivityRecorder
	Session    string
}

// Controller owns the list, the form draft, the search and the pagination
// state of one resource page. Network calls run without holding the lock
// so concurrent operations are unordered: the last completed fetch wins.
type Controller[T any, D any] struct {
	logger          *zap.Logger
	clock           Clocker
	resource        Resource[T, D]
	service         ResourceService[T, D]
	presenter       *Presenter
	recorder        ActivityRecorder
	session         string
	loaders         []ReferenceLoader
	pageSizes       []int
	defaultPageSize int

	mu            sync.RWMutex
	loaded        bool
	items         []T
	references    map[string]any
	draft         D
	editingID     *int64
	searchTerm    string
	page          int
	pageSize      int
	pendingDelete *int64
}

// NewController provides a ready to use page controller.
func NewController[T any, D any](
	logger *zap.Logger,
	clock Clocker,
	resource Resource[T, D],
	service ResourceService[T, D],
	presenter *Presenter,
	opts ControllerOptions,
) *Controller[T, D] {
	c := &Controller[T, D]{
		logger:          logger.With(zap.String("resource", resource.Path)),
		clock:           clock,
		resource:        resource,
		service:         service,
		presenter:       presenter,
		recorder:        opts.Recorder,
		session:         opts.Session,
		loaders:         opts.References,
		pageSizes:       opts.PageSizes,
		defaultPageSize: opts.PageSize,
		items:           []T{},
	}
	if c.recorder == nil {
		c.recorder = NopRecorder{}
	}
	if len(c.pageSizes) == 0 {
		c.pageSizes = DefaultPageSizes
	}
	if c.defaultPageSize <= 0 {
		c.defaultPageSize = DefaultPageSize
	}
	c.pageSize = c.defaultPageSize
	return c
}

// Name returns the resource path served by this controller.
func (c *Controller[T, D]) Name() string {
	return c.resource.Path
}

// Loaded reports whether a load was attempted.
func (c *Controller[T, D]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Load fetches the items, then the reference lists concurrently. On
// failure the items are left empty and an error notification is raised.
// A failed reference list is left out while the others are kept.
func (c *Controller[T, D]) Load(ctx context.Context) error {
	items, err := c.service.List(ctx)
	if err != nil {
		c.logger.Error("controller: failed to load items", zap.String("session.id", c.session), zap.Error(err))
		c.mu.Lock()
		c.items = []T{}
		c.loaded = true
		c.mu.Unlock()
		c.presenter.Error(err)
		return err
	}

	references := make(map[string]any, len(c.loaders))
	var refMu sync.Mutex
	var g errgroup.Group
	for _, loader := range c.loaders {
		g.Go(func() error {
			list, lerr := loader.Load(ctx)
			if lerr != nil {
				c.logger.Error("controller: failed to load references",
					zap.String("session.id", c.session),
					zap.String("reference", loader.Name),
					zap.Error(lerr),
				)
				return lerr
			}
			refMu.Lock()
			references[loader.Name] = list
			refMu.Unlock()
			return nil
		})
	}
	refErr := g.Wait()

	c.mu.Lock()
	c.items = items
	c.references = references
	c.loaded = true
	c.mu.Unlock()

	if refErr != nil {
		c.presenter.Error(refErr)
		return refErr
	}
	return nil
}

// refresh re-fetches the items only.
func (c *Controller[T, D]) refresh(ctx context.Context) error {
	items, err := c.service.List(ctx)
	if err != nil {
		c.logger.Error("controller: failed to refresh items", zap.String("session.id", c.session), zap.Error(err))
		return err
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// SetSearch changes the search term. A different term moves back to the first page.
func (c *Controller[T, D]) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if term != c.searchTerm {
		c.searchTerm = term
		c.page = 0
	}
}

// SetPage moves to the given zero-based page.
func (c *Controller[T, D]) SetPage(page int) error {
	if page < 0 {
		return ErrInvalidPage
	}
	c.mu.Lock()
	c.page = page
	c.mu.Unlock()
	return nil
}

// SetPageSize changes the number of rows per page. A different size moves
// back to the first page.
func (c *Controller[T, D]) SetPageSize(size int) error {
	if size <= 0 {
		return ErrInvalidPageSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if size != c.pageSize {
		c.pageSize = size
		c.page = 0
	}
	return nil
}

// BeginEdit copies the selected item into the draft and switches to edit mode.
func (c *Controller[T, D]) BeginEdit(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.find(id)
	if !ok {
		c.logger.Warn("controller: cannot edit, no such item", zap.String("session.id", c.session), zap.Int64("entity.id", id))
		return ErrUnknownItem
	}
	c.draft = c.resource.ToDraft(item)
	c.editingID = &id
	return nil
}

// UpdateDraft merges a partial JSON object into the draft.
func (c *Controller[T, D]) UpdateDraft(patch []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := cloneValue(c.draft)
	if err := codec.Unmarshal(patch, &next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	c.draft = next
	return nil
}

// SetDraft replaces the draft.
func (c *Controller[T, D]) SetDraft(draft D) {
	c.mu.Lock()
	c.draft = draft
	c.mu.Unlock()
}

// Submit creates the draft or, in edit mode, updates the edited item. On
// failure the draft is kept so the user can fix it.
func (c *Controller[T, D]) Submit(ctx context.Context) error {
	c.mu.RLock()
	draft := cloneValue(c.draft)
	var editingID *int64
	if c.editingID != nil {
		id := *c.editingID
		editingID = &id
	}
	c.mu.RUnlock()

	var (
		saved   T
		err     error
		action  = ActivityCreated
		message = c.resource.Name + " added successfully."
	)
	if editingID != nil {
		action = ActivityUpdated
		message = c.resource.Name + " updated successfully."
		saved, err = c.service.Update(ctx, *editingID, draft)
	} else {
		saved, err = c.service.Create(ctx, draft)
	}
	if err != nil {
		c.logger.Error("controller: failed to submit draft",
			zap.String("session.id", c.session),
			zap.String("action", action),
			zap.Error(err),
		)
		c.presenter.Error(err)
		return err
	}

	entityID := c.resource.ID(saved)
	if editingID != nil {
		entityID = *editingID
	}
	c.mu.Lock()
	var empty D
	c.draft = empty
	c.editingID = nil
	c.mu.Unlock()

	c.record(ctx, action, entityID)
	if rerr := c.refresh(ctx); rerr != nil {
		c.presenter.Error(rerr)
		return nil
	}
	c.presenter.Success(message)
	return nil
}

// RequestDelete opens the delete confirmation for an item.
func (c *Controller[T, D]) RequestDelete(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.find(id); !ok {
		c.logger.Warn("controller: cannot delete, no such item", zap.String("session.id", c.session), zap.Int64("entity.id", id))
		return ErrUnknownItem
	}
	c.pendingDelete = &id
	return nil
}

// CancelDelete dismisses the delete confirmation.
func (c *Controller[T, D]) CancelDelete() {
	c.mu.Lock()
	c.pendingDelete = nil
	c.mu.Unlock()
}

// ConfirmDelete deletes the item awaiting confirmation. The confirmation is
// closed whatever the outcome.
func (c *Controller[T, D]) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.pendingDelete == nil {
		c.mu.Unlock()
		return ErrNoPendingDelete
	}
	id := *c.pendingDelete
	c.pendingDelete = nil
	c.mu.Unlock()

	if err := c.service.Delete(ctx, id); err != nil {
		c.logger.Error("controller: failed to delete item", zap.String("session.id", c.session), zap.Int64("entity.id", id), zap.Error(err))
		c.presenter.Error(err)
		return err
	}
	c.record(ctx, ActivityDeleted, id)

	c.mu.Lock()
	if c.editingID != nil && *c.editingID == id {
		var empty D
		c.draft = empty
		c.editingID = nil
	}
	c.mu.Unlock()

	if err := c.refresh(ctx); err != nil {
		c.removeLocal(id)
	}
	c.presenter.Success(c.resource.Name + " deleted successfully.")
	return nil
}

// Clear resets the form without calling the backend.
func (c *Controller[T, D]) Clear() {
	c.mu.Lock()
	var empty D
	c.draft = empty
	c.editingID = nil
	c.mu.Unlock()
}

// DismissNotification hides the current notification.
func (c *Controller[T, D]) DismissNotification() {
	c.presenter.Dismiss()
}

// Items returns a copy of the last fetched list.
func (c *Controller[T, D]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Draft returns a copy of the current draft.
func (c *Controller[T, D]) Draft() D {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneValue(c.draft)
}

// EditingID returns the edited item id, if any.
func (c *Controller[T, D]) EditingID() (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.editingID == nil {
		return 0, false
	}
	return *c.editingID, true
}

// Notification returns the visible notification, if any.
func (c *Controller[T, D]) Notification() *Notification {
	return c.presenter.Current()
}

// Visible returns the filtered items of the current page and the
// number of items matching the search.
func (c *Controller[T, D]) Visible() ([]T, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	filtered := Filter(c.items, c.searchTerm, c.resource.Fields)
	return Paginate(filtered, c.page, c.pageSize), len(filtered)
}

// View renders the page state.
func (c *Controller[T, D]) View() PageView {
	visible, total := c.Visible()
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()
	view := PageView{
		Resource:      c.resource.Path,
		Title:         c.resource.Name,
		Mode:          ModeCreate,
		Draft:         cloneValue(c.draft),
		SearchTerm:    c.searchTerm,
		Page:          c.page,
		PageSize:      c.pageSize,
		PageSizes:     c.pageSizes,
		Total:         total,
		Items:         make([]any, 0, len(visible)),
		Options:       c.resource.Options,
		PendingDelete: copyID(c.pendingDelete),
		Notification:  c.presenter.Current(),
		Loaded:        c.loaded,
	}
	if c.editingID != nil {
		view.Mode = ModeEdit
		view.EditingID = copyID(c.editingID)
	}
	for _, item := range visible {
		if c.resource.Row != nil {
			view.Items = append(view.Items, c.resource.Row(item, now))
			continue
		}
		view.Items = append(view.Items, item)
	}
	if len(c.references) > 0 {
		view.References = make(map[string]any, len(c.references))
		for name, list := range c.references {
			view.References[name] = list
		}
	}
	return view
}

// controllerState is the persisted part of a page. Items and
// notifications are transient and never saved.
type controllerState[D any] struct {
	Draft         D      `json:"draft"`
	EditingID     *int64 `json:"editingId,omitempty"`
	SearchTerm    string `json:"searchTerm"`
	Page          int    `json:"page"`
	PageSize      int    `json:"pageSize"`
	PendingDelete *int64 `json:"pendingDelete,omitempty"`
}

// Snapshot serializes the form, search and pagination state.
func (c *Controller[T, D]) Snapshot() ([]byte, error) {
	c.mu.RLock()
	state := controllerState[D]{
		Draft:         c.draft,
		EditingID:     c.editingID,
		SearchTerm:    c.searchTerm,
		Page:          c.page,
		PageSize:      c.pageSize,
		PendingDelete: c.pendingDelete,
	}
	data, err := codec.Marshal(state)
	c.mu.RUnlock()
	return data, err
}

// Restore applies a state previously produced by Snapshot.
func (c *Controller[T, D]) Restore(data []byte) error {
	var state controllerState[D]
	if err := codec.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("restore %s state: %w", c.resource.Path, err)
	}
	if state.PageSize <= 0 {
		state.PageSize = c.defaultPageSize
	}
	if state.Page < 0 {
		state.Page = 0
	}
	c.mu.Lock()
	c.draft = state.Draft
	c.editingID = state.EditingID
	c.searchTerm = state.SearchTerm
	c.page = state.Page
	c.pageSize = state.PageSize
	c.pendingDelete = state.PendingDelete
	c.mu.Unlock()
	return nil
}

func (c *Controller[T, D]) record(ctx context.Context, action string, id int64) {
	activity := Activity{
		Session:  c.session,
		Resource: c.resource.Path,
		Action:   action,
		EntityID: id,
		At:       c.clock.Now(),
	}
	if err := c.recorder.Record(ctx, activity); err != nil {
		c.logger.Error("controller: failed to record activity",
			zap.String("session.id", c.session),
			zap.String("action", action),
			zap.Int64("entity.id", id),
			zap.Error(err),
		)
	}
}

// find must be called with the lock held.
func (c *Controller[T, D]) find(id int64) (T, bool) {
	for _, item := range c.items {
		if c.resource.ID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T, D]) removeLocal(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if c.resource.ID(item) != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// cloneValue deep copies v through its JSON form so that slices and
// pointers of drafts are never shared between goroutines.
func cloneValue[V any](v V) V {
	data, err := codec.Marshal(v)
	if err != nil {
		return v
	}
	var out V
	if err = codec.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
