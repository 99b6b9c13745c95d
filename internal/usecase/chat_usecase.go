package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/stream"
)

// chatNamespace seeds the deterministic chat ids.
var chatNamespace = uuid.MustParse("6f1c3a0e-9a4b-4d3e-8f43-2a7b5c1d9e10")

// ChatIDForTriple derives the id a chat for (buyer, seller, product) is
// created under, so concurrent first contacts collide on one document.
func ChatIDForTriple(buyerID, sellerID, productID string) string {
	key := buyerID + "\x00" + sellerID + "\x00" + productID
	return uuid.NewSHA1(chatNamespace, []byte(key)).String()
}

// ChatDirectory owns chat identity: one chat per buyer, seller and product.
type ChatDirectory struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	catalog  *CatalogIndex
}

func NewChatDirectory(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	catalog *CatalogIndex,
) *ChatDirectory {
	return &ChatDirectory{
		chatRepo: chatRepo,
		userRepo: userRepo,
		catalog:  catalog,
	}
}

// GetOrCreateChat returns the chat for the triple, creating it on first
// contact. The product must exist and belong to sellerID.
func (d *ChatDirectory) GetOrCreateChat(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	if strings.TrimSpace(buyerID) == "" || strings.TrimSpace(sellerID) == "" || strings.TrimSpace(productID) == "" {
		return nil, errors.Validation("buyer, seller and product are required", nil)
	}
	if buyerID == sellerID {
		return nil, errors.Validation("You cannot create a chat with yourself", nil)
	}

	product, err := d.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.Validation("product does not exist", nil)
	}
	if product.SellerID != sellerID {
		return nil, errors.Validation("seller does not own this product", nil)
	}

	existing, err := d.chatRepo.FindByTriple(ctx, buyerID, sellerID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	chat := &entity.Chat{
		ID:        ChatIDForTriple(buyerID, sellerID, productID),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
	err = d.chatRepo.Create(ctx, chat)
	if errors.Is(err, errors.CodeConflict) {
		// another first contact created it between our lookup and our write
		winner, getErr := d.chatRepo.GetByID(ctx, chat.ID)
		if getErr != nil {
			return nil, getErr
		}
		if winner == nil {
			return nil, errors.Store("Failed to create chat", err)
		}
		return winner, nil
	}
	if err != nil {
		logger.Error("GetOrCreateChat: failed to create chat %s: %v", chat.ID, err)
		return nil, err
	}

	logger.Info("Created chat %s for product %s", chat.ID, productID)
	return chat, nil
}

// GetChat returns nil, nil when the chat does not exist.
func (d *ChatDirectory) GetChat(ctx context.Context, chatID string) (*entity.Chat, error) {
	return d.chatRepo.GetByID(ctx, chatID)
}

// ListChats streams every chat the user takes part in, newest first.
func (d *ChatDirectory) ListChats(ctx context.Context, userID string) *stream.Stream[[]*entity.Chat] {
	return stream.Map(d.chatRepo.WatchByUser(ctx, userID), func(chats []*entity.Chat) ([]*entity.Chat, error) {
		sortChatsNewestFirst(chats)
		return chats, nil
	})
}

func sortChatsNewestFirst(chats []*entity.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})
}

// MarkRead stamps the user's last-read time on the chat.
func (d *ChatDirectory) MarkRead(ctx context.Context, chatID, userID string) error {
	if chatID == "" || userID == "" {
		return errors.Validation("chat and user are required", nil)
	}
	return d.chatRepo.MarkRead(ctx, chatID, userID, time.Now())
}

type ChatSummary struct {
	Chat      *entity.Chat    `json:"chat"`
	Product   *entity.Product `json:"product"`
	OtherUser *entity.User    `json:"other_user"`
}

// ListChatSummaries streams the user's chats joined with their product and
// counterpart. Chats whose product or counterpart no longer exists, or
// whose lookup fails, are left out of that emission.
func (d *ChatDirectory) ListChatSummaries(ctx context.Context, userID string) *stream.Stream[[]ChatSummary] {
	return stream.Map(d.ListChats(ctx, userID), func(chats []*entity.Chat) ([]ChatSummary, error) {
		return d.summarize(ctx, userID, chats), nil
	})
}

func (d *ChatDirectory) summarize(ctx context.Context, userID string, chats []*entity.Chat) []ChatSummary {
	slots := make([]*ChatSummary, len(chats))

	var g errgroup.Group
	g.SetLimit(8)
	for i, chat := range chats {
		i, chat := i, chat
		g.Go(func() error {
			product, err := d.catalog.GetProductByID(ctx, chat.ProductID)
			if err != nil {
				logger.Warn("Error loading product for chat %s: %v", chat.ID, err)
				return nil
			}
			other, err := d.userRepo.GetByID(ctx, chat.Counterpart(userID))
			if err != nil {
				logger.Warn("Error loading counterpart for chat %s: %v", chat.ID, err)
				return nil
			}
			if product == nil || other == nil {
				return nil
			}
			slots[i] = &ChatSummary{Chat: chat, Product: product, OtherUser: other}
			return nil
		})
	}
	g.Wait()

	summaries := make([]ChatSummary, 0, len(chats))
	for _, s := range slots {
		if s != nil {
			summaries = append(summaries, *s)
		}
	}
	return summaries
}
