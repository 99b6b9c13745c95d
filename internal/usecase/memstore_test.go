package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/domain/service"
	"marketsync/pkg/errors"
	"marketsync/pkg/stream"
)

// memStore is an in-memory document store with live queries. Every mutation
// wakes all watchers, which re-read their query and emit a full snapshot.
type memStore struct {
	mu      sync.Mutex
	changed chan struct{}
	clock   time.Time

	users         map[string]*entity.User
	products      map[string]*entity.Product
	reviews       map[string][]*entity.Review
	chats         map[string]*entity.Chat
	messages      map[string][]*entity.Message
	notifications map[string]map[string]*entity.Notification

	writeErr error
	batchErr error
	watchErr error

	// beforeChatCreate runs outside the lock right before a chat is written.
	beforeChatCreate func()
	// beforeReadBatch runs outside the lock right before a mark-read batch.
	beforeReadBatch func()
}

func newMemStore() *memStore {
	return &memStore{
		changed:       make(chan struct{}),
		clock:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		users:         map[string]*entity.User{},
		products:      map[string]*entity.Product{},
		reviews:       map[string][]*entity.Review{},
		chats:         map[string]*entity.Chat{},
		messages:      map[string][]*entity.Message{},
		notifications: map[string]map[string]*entity.Notification{},
	}
}

// notify must be called with mu held.
func (s *memStore) notify() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// tick hands out strictly increasing server timestamps; mu must be held.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *memStore) setWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *memStore) setBatchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchErr = err
}

func (s *memStore) setWatchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchErr = err
}

func watchStore[T any](ctx context.Context, s *memStore, snapshot func() T) *stream.Stream[T] {
	return stream.Start(ctx, func(ctx context.Context, emit func(T)) error {
		for {
			s.mu.Lock()
			if s.watchErr != nil {
				err := s.watchErr
				s.mu.Unlock()
				return errors.Store("Failed to listen", err)
			}
			v := snapshot()
			changed := s.changed
			s.mu.Unlock()

			emit(v)
			select {
			case <-changed:
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func cloneChat(c *entity.Chat) *entity.Chat {
	cp := *c
	if c.ReadBy != nil {
		cp.ReadBy = make(map[string]time.Time, len(c.ReadBy))
		for k, v := range c.ReadBy {
			cp.ReadBy[k] = v
		}
	}
	return &cp
}

func (s *memStore) repos() (repository.UserRepository, repository.ProductRepository, repository.ReviewRepository, repository.ChatRepository, repository.NotificationRepository) {
	return memUsers{s}, memProducts{s}, memReviews{s}, memChats{s}, memNotifications{s}
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return errors.Store("Failed to create user", r.s.writeErr)
	}
	if _, ok := r.s.users[user.ID]; ok {
		return errors.Conflict("User already exists")
	}
	cp := *user
	r.s.users[user.ID] = &cp
	r.s.notify()
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) Update(ctx context.Context, id string, update entity.UserUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || r.s.writeErr != nil {
		return errors.Store("Failed to update user", r.s.writeErr)
	}
	cp := *u
	if update.Name != nil {
		cp.Name = *update.Name
	}
	if update.Phone != nil {
		cp.Phone = *update.Phone
	}
	if update.Avatar != nil {
		cp.Avatar = *update.Avatar
	}
	if update.Location != nil {
		loc := *update.Location
		cp.Location = &loc
	}
	if update.Language != nil {
		cp.Language = *update.Language
	}
	r.s.users[id] = &cp
	r.s.notify()
	return nil
}

func (r memUsers) PushToken(ctx context.Context, id string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return u.PushToken, nil
	}
	return "", nil
}

func (r memUsers) SetPushToken(ctx context.Context, id, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || r.s.writeErr != nil {
		return errors.Store("Failed to update push token", r.s.writeErr)
	}
	cp := *u
	cp.PushToken = token
	r.s.users[id] = &cp
	r.s.notify()
	return nil
}

type memProducts struct{ s *memStore }

func (r memProducts) Create(ctx context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return errors.Store("Failed to create product", r.s.writeErr)
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	cp := *product
	r.s.products[product.ID] = &cp
	r.s.notify()
	return nil
}

func (r memProducts) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r memProducts) Watch(ctx context.Context, filter repository.ProductFilter) *stream.Stream[[]*entity.Product] {
	return watchStore(ctx, r.s, func() []*entity.Product {
		out := []*entity.Product{}
		for _, p := range r.s.products {
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if filter.SellerID != "" && p.SellerID != filter.SellerID {
				continue
			}
			if filter.MinPrice != nil && p.Price < *filter.MinPrice {
				continue
			}
			if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
				continue
			}
			cp := *p
			out = append(out, &cp)
		}
		return out
	})
}

func (r memProducts) mutate(id string, fn func(p *entity.Product)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || r.s.writeErr != nil {
		return errors.Store("Failed to update product", r.s.writeErr)
	}
	cp := *p
	fn(&cp)
	r.s.products[id] = &cp
	r.s.notify()
	return nil
}

func (r memProducts) Update(ctx context.Context, id string, update entity.ProductUpdate) error {
	return r.mutate(id, func(p *entity.Product) {
		if update.Name != nil {
			p.Name = *update.Name
		}
		if update.Description != nil {
			p.Description = *update.Description
		}
		if update.Price != nil {
			p.Price = *update.Price
		}
		if update.Category != nil {
			p.Category = *update.Category
		}
		if update.Images != nil {
			p.Images = append([]string{}, update.Images...)
		}
		if update.Location != nil {
			p.Location = *update.Location
		}
		if update.IsSponsored != nil {
			p.IsSponsored = *update.IsSponsored
		}
	})
}

func (r memProducts) UpdateRating(ctx context.Context, id string, rating float64) error {
	return r.mutate(id, func(p *entity.Product) { p.Rating = rating })
}

func (r memProducts) AddImage(ctx context.Context, id, url string) error {
	return r.mutate(id, func(p *entity.Product) {
		p.Images = append(append([]string{}, p.Images...), url)
	})
}

func (r memProducts) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return errors.Store("Failed to delete product", r.s.writeErr)
	}
	delete(r.s.products, id)
	r.s.notify()
	return nil
}

type memReviews struct{ s *memStore }

func (r memReviews) Create(ctx context.Context, productID string, review *entity.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return errors.Store("Failed to create review", r.s.writeErr)
	}
	review.ID = uuid.NewString()
	review.ProductID = productID
	cp := *review
	r.s.reviews[productID] = append(r.s.reviews[productID], &cp)
	r.s.notify()
	return nil
}

func (r memReviews) ListByProduct(ctx context.Context, productID string) ([]*entity.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Review, 0, len(r.s.reviews[productID]))
	for _, review := range r.s.reviews[productID] {
		cp := *review
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memChats struct{ s *memStore }

func (r memChats) Create(ctx context.Context, chat *entity.Chat) error {
	r.s.mu.Lock()
	hook := r.s.beforeChatCreate
	r.s.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return errors.Store("Failed to create chat", r.s.writeErr)
	}
	if _, ok := r.s.chats[chat.ID]; ok {
		return errors.Conflict("Chat already exists")
	}
	r.s.chats[chat.ID] = cloneChat(chat)
	r.s.notify()
	return nil
}

func (r memChats) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chats[id]
	if !ok {
		return nil, nil
	}
	return cloneChat(c), nil
}

func (r memChats) FindByTriple(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.chats {
		if c.BuyerID == buyerID && c.SellerID == sellerID && c.ProductID == productID {
			return cloneChat(c), nil
		}
	}
	return nil, nil
}

func (r memChats) WatchByUser(ctx context.Context, userID string) *stream.Stream[[]*entity.Chat] {
	return watchStore(ctx, r.s, func() []*entity.Chat {
		out := []*entity.Chat{}
		for _, c := range r.s.chats {
			if c.HasParticipant(userID) {
				out = append(out, cloneChat(c))
			}
		}
		return out
	})
}

func (r memChats) mutate(chatID string, fn func(c *entity.Chat)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chats[chatID]
	if !ok || r.s.writeErr != nil {
		return errors.Store("Failed to update chat", r.s.writeErr)
	}
	cp := cloneChat(c)
	fn(cp)
	r.s.chats[chatID] = cp
	r.s.notify()
	return nil
}

func (r memChats) MarkRead(ctx context.Context, chatID, userID string, at time.Time) error {
	return r.mutate(chatID, func(c *entity.Chat) {
		if c.ReadBy == nil {
			c.ReadBy = map[string]time.Time{}
		}
		c.ReadBy[userID] = at
	})
}

func (r memChats) TouchLastMessage(ctx context.Context, chatID string, at time.Time) error {
	return r.mutate(chatID, func(c *entity.Chat) { c.LastMessageAt = &at })
}

func (r memChats) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return errors.Store("Failed to create message", r.s.writeErr)
	}
	message.ID = uuid.NewString()
	message.CreatedAt = r.s.tick()
	cp := *message
	r.s.messages[message.ChatID] = append(r.s.messages[message.ChatID], &cp)
	r.s.notify()
	return nil
}

func (r memChats) WatchMessages(ctx context.Context, chatID string) *stream.Stream[[]*entity.Message] {
	return watchStore(ctx, r.s, func() []*entity.Message {
		out := make([]*entity.Message, 0, len(r.s.messages[chatID]))
		// newest first here so the manager's ordering is what the tests observe
		for i := len(r.s.messages[chatID]) - 1; i >= 0; i-- {
			cp := *r.s.messages[chatID][i]
			out = append(out, &cp)
		}
		return out
	})
}

type memNotifications struct{ s *memStore }

func (r memNotifications) Create(ctx context.Context, notification *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return errors.Store("Failed to send notification", r.s.writeErr)
	}
	notification.ID = uuid.NewString()
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = r.s.tick()
	}
	cp := *notification
	if r.s.notifications[notification.UserID] == nil {
		r.s.notifications[notification.UserID] = map[string]*entity.Notification{}
	}
	r.s.notifications[notification.UserID][notification.ID] = &cp
	r.s.notify()
	return nil
}

func (r memNotifications) list(userID string, keep func(*entity.Notification) bool) []*entity.Notification {
	out := []*entity.Notification{}
	for _, n := range r.s.notifications[userID] {
		if keep(n) {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out
}

func (r memNotifications) Watch(ctx context.Context, userID string) *stream.Stream[[]*entity.Notification] {
	return watchStore(ctx, r.s, func() []*entity.Notification {
		return r.list(userID, func(*entity.Notification) bool { return true })
	})
}

func (r memNotifications) MarkRead(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[userID][id]
	if !ok || r.s.writeErr != nil {
		return errors.Store("Failed to mark notification as read", r.s.writeErr)
	}
	cp := *n
	cp.Read = true
	r.s.notifications[userID][id] = &cp
	r.s.notify()
	return nil
}

func (r memNotifications) ListUnread(ctx context.Context, userID string) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(userID, func(n *entity.Notification) bool { return !n.Read }), nil
}

func (r memNotifications) ListAll(ctx context.Context, userID string) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(userID, func(*entity.Notification) bool { return true }), nil
}

func (r memNotifications) Delete(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return errors.Store("Failed to delete notification", r.s.writeErr)
	}
	delete(r.s.notifications[userID], id)
	r.s.notify()
	return nil
}

// MarkReadBatch fails as a whole when any id is gone, as a Firestore batch
// update of a deleted document does.
func (r memNotifications) MarkReadBatch(ctx context.Context, userID string, ids []string) error {
	r.s.mu.Lock()
	hook := r.s.beforeReadBatch
	r.s.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}
	if r.s.batchErr != nil {
		return errors.Store("Failed to mark all notifications as read", r.s.batchErr)
	}
	for _, id := range ids {
		if _, ok := r.s.notifications[userID][id]; !ok {
			return errors.Store("Failed to mark all notifications as read", fmt.Errorf("no document to update: %s", id))
		}
	}
	for _, id := range ids {
		cp := *r.s.notifications[userID][id]
		cp.Read = true
		r.s.notifications[userID][id] = &cp
	}
	r.s.notify()
	return nil
}

func (r memNotifications) DeleteBatch(ctx context.Context, userID string, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}
	if r.s.batchErr != nil {
		return errors.Store("Failed to clear notifications", r.s.batchErr)
	}
	for _, id := range ids {
		delete(r.s.notifications[userID], id)
	}
	r.s.notify()
	return nil
}

// fakeSessions is a SessionSource driven by the test.
type fakeSessions struct {
	mu      sync.Mutex
	uid     string
	changed chan struct{}
	active  atomic.Int32
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{changed: make(chan struct{})}
}

func (f *fakeSessions) set(uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uid = uid
	close(f.changed)
	f.changed = make(chan struct{})
}

func (f *fakeSessions) Subscribe(ctx context.Context) *stream.Stream[string] {
	f.active.Add(1)
	return stream.Start(ctx, func(ctx context.Context, emit func(string)) error {
		defer f.active.Add(-1)
		for {
			f.mu.Lock()
			uid, changed := f.uid, f.changed
			f.mu.Unlock()

			emit(uid)
			select {
			case <-changed:
			case <-ctx.Done():
				return nil
			}
		}
	})
}

type fakePush struct {
	mu   sync.Mutex
	sent []service.PushMessage
	err  error
}

func (p *fakePush) Dispatch(ctx context.Context, msg service.PushMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *fakePush) messages() []service.PushMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]service.PushMessage(nil), p.sent...)
}

type fakeImages struct {
	uploaded []string
	err      error
}

func (f *fakeImages) UploadImage(ctx context.Context, _ io.Reader, contentType, folder string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "https://storage.googleapis.com/test-bucket/" + folder + "/" + uuid.NewString()
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeImages) DeleteFile(ctx context.Context, fileURL string) error {
	return f.err
}

// waitFor reads the stream until a snapshot satisfies match. Delivery keeps
// only the latest value, so match should describe a settled state.
func waitFor[T any](t *testing.T, s *stream.Stream[T], match func(T) bool) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		v, err := s.Next(ctx)
		require.NoError(t, err)
		if match(v) {
			return v
		}
	}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// testEnv wires every manager to one memStore.
type testEnv struct {
	store         *memStore
	sessions      *fakeSessions
	push          *fakePush
	images        *fakeImages
	identity      *IdentityStream
	catalog       *CatalogIndex
	chats         *ChatDirectory
	messages      *MessageStream
	notifications *NotificationCenter
}

func newTestEnv() *testEnv {
	store := newMemStore()
	users, products, reviews, chats, notifications := store.repos()
	env := &testEnv{
		store:    store,
		sessions: newFakeSessions(),
		push:     &fakePush{},
		images:   &fakeImages{},
	}
	env.identity = NewIdentityStream(env.sessions, users)
	env.catalog = NewCatalogIndex(products, reviews, env.images)
	env.chats = NewChatDirectory(chats, users, env.catalog)
	env.messages = NewMessageStream(chats)
	env.notifications = NewNotificationCenter(notifications, users, env.push)
	return env
}

func (e *testEnv) seedUser(t *testing.T, id string, typ entity.UserType) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:        id,
		Type:      typ,
		Name:      id,
		Email:     id + "@example.com",
		Language:  "es",
		CreatedAt: time.Now(),
	}
	users, _, _, _, _ := e.store.repos()
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func (e *testEnv) seedProduct(t *testing.T, p entity.Product) *entity.Product {
	t.Helper()
	if p.Name == "" {
		p.Name = "product"
	}
	if p.Category == "" {
		p.Category = entity.CategoryOther
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, products, _, _, _ := e.store.repos()
	require.NoError(t, products.Create(context.Background(), &p))
	return &p
}
