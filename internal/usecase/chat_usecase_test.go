package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsync/internal/domain/entity"
	"marketsync/pkg/errors"
)

func TestGetOrCreateChatIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := testCtx(t)
	env.seedUser(t, "B", entity.UserTypeBuyer)
	env.seedUser(t, "S", entity.UserTypeSeller)
	product := env.seedProduct(t, entity.Product{Name: "P", SellerID: "S", Price: 100})

	first, err := env.chats.GetOrCreateChat(ctx, "B", "S", product.ID)
	require.NoError(t, err)
	assert.Equal(t, ChatIDForTriple("B", "S", product.ID), first.ID)

	for i := 0; i < 3; i++ {
		again, err := env.chats.GetOrCreateChat(ctx, "B", "S", product.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestGetOrCreateChatValidatesProduct(t *testing.T) {
	env := newTestEnv()
	ctx := testCtx(t)
	product := env.seedProduct(t, entity.Product{Name: "P", SellerID: "S"})

	_, err := env.chats.GetOrCreateChat(ctx, "B", "S", "missing")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = env.chats.GetOrCreateChat(ctx, "B", "someone-else", product.ID)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = env.chats.GetOrCreateChat(ctx, "S", "S", product.ID)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = env.chats.GetOrCreateChat(ctx, "", "S", product.ID)
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestConcurrentFirstContactYieldsOneChat(t *testing.T) {
	env := newTestEnv()
	ctx := testCtx(t)
	product := env.seedProduct(t, entity.Product{Name: "P", SellerID: "S"})

	// both callers pass the lookup before either writes
	var arrived sync.WaitGroup
	arrived.Add(2)
	env.store.beforeChatCreate = func() {
		arrived.Done()
		arrived.Wait()
	}

	ids := make([]string, 2)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chat, err := env.chats.GetOrCreateChat(ctx, "B", "S", product.ID)
			if assert.NoError(t, err) {
				ids[i] = chat.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, ids[0], ids[1])
	env.store.mu.Lock()
	assert.Len(t, env.store.chats, 1)
	env.store.mu.Unlock()
}

func TestListChatsIncludesBothRolesNewestFirst(t *testing.T) {
	env := newTestEnv()
	ctx := testCtx(t)
	_, _, _, chats, _ := env.store.repos()
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, chats.Create(ctx, &entity.Chat{ID: "c1", BuyerID: "U", SellerID: "S1", ProductID: "p1", CreatedAt: base}))
	require.NoError(t, chats.Create(ctx, &entity.Chat{ID: "c2", BuyerID: "B2", SellerID: "U", ProductID: "p2", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, chats.Create(ctx, &entity.Chat{ID: "c3", BuyerID: "X", SellerID: "Y", ProductID: "p3", CreatedAt: base.Add(2 * time.Hour)}))

	list := env.chats.ListChats(ctx, "U")
	defer list.Cancel()

	got := waitFor(t, list, func(cs []*entity.Chat) bool { return len(cs) == 2 })
	assert.Equal(t, "c2", got[0].ID)
	assert.Equal(t, "c1", got[1].ID)
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	env := newTestEnv()
	ctx := testCtx(t)
	product := env.seedProduct(t, entity.Product{Name: "P", SellerID: "S"})

	chat, err := env.chats.GetOrCreateChat(ctx, "B", "S", product.ID)
	require.NoError(t, err)
	_, err = env.messages.Send(ctx, chat.ID, "B", "hello", entity.MessageTypeText)
	require.NoError(t, err)
	_, err = env.messages.Send(ctx, chat.ID, "B", "anyone?", entity.MessageTypeText)
	require.NoError(t, err)

	feed := env.messages.Subscribe(ctx, chat.ID)
	defer feed.Cancel()
	messages := waitFor(t, feed, func(ms []*entity.Message) bool { return len(ms) == 2 })

	chat, err = env.chats.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, chat.UnreadCount("S", messages))
	assert.Equal(t, 0, chat.UnreadCount("B", messages))

	require.NoError(t, env.chats.MarkRead(ctx, chat.ID, "S"))
	chat, err = env.chats.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Contains(t, chat.ReadBy, "S")
	assert.Equal(t, 0, chat.UnreadCount("S", messages))

	assert.True(t, errors.Is(env.chats.MarkRead(ctx, "", "B"), errors.CodeValidation))
}

func TestGetChatReturnsNilWhenAbsent(t *testing.T) {
	env := newTestEnv()
	chat, err := env.chats.GetChat(testCtx(t), "nope")
	require.NoError(t, err)
	assert.Nil(t, chat)
}

func TestListChatSummariesSkipsDanglingChats(t *testing.T) {
	env := newTestEnv()
	ctx := testCtx(t)
	env.seedUser(t, "B", entity.UserTypeBuyer)
	env.seedUser(t, "S", entity.UserTypeSeller)
	product := env.seedProduct(t, entity.Product{Name: "P", SellerID: "S"})

	chat, err := env.chats.GetOrCreateChat(ctx, "B", "S", product.ID)
	require.NoError(t, err)

	_, _, _, chats, _ := env.store.repos()
	require.NoError(t, chats.Create(ctx, &entity.Chat{ID: "orphan", BuyerID: "B", SellerID: "S", ProductID: "deleted", CreatedAt: time.Now()}))
	require.NoError(t, chats.Create(ctx, &entity.Chat{ID: "ghost", BuyerID: "B", SellerID: "nobody", ProductID: product.ID, CreatedAt: time.Now()}))

	summaries := env.chats.ListChatSummaries(ctx, "B")
	defer summaries.Cancel()

	got := waitFor(t, summaries, func(ss []ChatSummary) bool { return len(ss) == 1 })
	assert.Equal(t, chat.ID, got[0].Chat.ID)
	assert.Equal(t, "P", got[0].Product.Name)
	assert.Equal(t, "S", got[0].OtherUser.ID)
}
