package firebase

import (
	"context"

	"firebase.google.com/go/v4/messaging"

	"marketsync/internal/domain/service"
)

// PushClient dispatches notifications through Firebase Cloud Messaging.
type PushClient struct {
	client *messaging.Client
}

func NewPushClient(client *messaging.Client) *PushClient {
	return &PushClient{
		client: client,
	}
}

func (p *PushClient) Dispatch(ctx context.Context, msg service.PushMessage) error {
	_, err := p.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	return err
}
