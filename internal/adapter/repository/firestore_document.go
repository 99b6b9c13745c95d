package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketsync/internal/domain/entity"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/stream"
)

// decodeDoc loads a snapshot into T and rejects documents with missing or
// malformed fields instead of returning a half-filled entity.
func decodeDoc[T any](doc *firestore.DocumentSnapshot, resource string) (*T, error) {
	var v T
	if err := doc.DataTo(&v); err != nil {
		return nil, errors.Decode(resource, fmt.Errorf("%s: %w", doc.Ref.Path, err))
	}
	if err := entity.Validate(&v); err != nil {
		return nil, errors.Decode(resource, fmt.Errorf("%s: %w", doc.Ref.Path, err))
	}
	return &v, nil
}

func decodeUser(doc *firestore.DocumentSnapshot) (*entity.User, error) {
	user, err := decodeDoc[entity.User](doc, "user")
	if err != nil {
		return nil, err
	}
	user.ID = doc.Ref.ID
	return user, nil
}

func decodeProduct(doc *firestore.DocumentSnapshot) (*entity.Product, error) {
	product, err := decodeDoc[entity.Product](doc, "product")
	if err != nil {
		return nil, err
	}
	product.ID = doc.Ref.ID
	if product.Images == nil {
		product.Images = []string{}
	}
	return product, nil
}

func decodeReview(doc *firestore.DocumentSnapshot) (*entity.Review, error) {
	review, err := decodeDoc[entity.Review](doc, "review")
	if err != nil {
		return nil, err
	}
	review.ID = doc.Ref.ID
	if parent := doc.Ref.Parent.Parent; parent != nil {
		review.ProductID = parent.ID
	}
	return review, nil
}

func decodeChat(doc *firestore.DocumentSnapshot) (*entity.Chat, error) {
	chat, err := decodeDoc[entity.Chat](doc, "chat")
	if err != nil {
		return nil, err
	}
	chat.ID = doc.Ref.ID
	return chat, nil
}

func decodeMessage(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	message, err := decodeDoc[entity.Message](doc, "message")
	if err != nil {
		return nil, err
	}
	message.ID = doc.Ref.ID
	if parent := doc.Ref.Parent.Parent; parent != nil {
		message.ChatID = parent.ID
	}
	return message, nil
}

func decodeNotification(doc *firestore.DocumentSnapshot) (*entity.Notification, error) {
	notification, err := decodeDoc[entity.Notification](doc, "notification")
	if err != nil {
		return nil, err
	}
	notification.ID = doc.Ref.ID
	return notification, nil
}

// getDoc returns nil, nil when the document does not exist.
func getDoc[T any](ctx context.Context, ref *firestore.DocumentRef, decode func(*firestore.DocumentSnapshot) (*T, error), what string) (*T, error) {
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, errors.Store("Failed to get "+what, err)
	}
	return decode(doc)
}

func getAll[T any](ctx context.Context, q firestore.Query, decode func(*firestore.DocumentSnapshot) (*T, error), what string) ([]*T, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	items := []*T{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Store("Failed to list "+what, err)
		}
		item, err := decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// watchQuery turns a Firestore live query into a stream that re-emits the
// whole decoded result set on every snapshot. A listen or decode failure
// stops the stream; it is not re-subscribed.
func watchQuery[T any](ctx context.Context, q firestore.Query, decode func(*firestore.DocumentSnapshot) (*T, error), what string) *stream.Stream[[]*T] {
	return stream.Start(ctx, func(ctx context.Context, emit func([]*T)) error {
		snapshots := q.Snapshots(ctx)
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if err == iterator.Done || ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return nil
				}
				logger.Error("Snapshot listener for %s failed: %v", what, err)
				return errors.Store("Failed to listen to "+what, err)
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				return errors.Store("Failed to read "+what+" snapshot", err)
			}

			items := make([]*T, 0, len(docs))
			for _, doc := range docs {
				item, err := decode(doc)
				if err != nil {
					logger.Error("Dropping %s listener on malformed document: %v", what, err)
					return err
				}
				items = append(items, item)
			}
			emit(items)
		}
	})
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
