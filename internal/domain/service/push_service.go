package service

import "context"

// PushMessage is the payload handed to the push-dispatch function.
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// PushDispatcher delivers a notification to one device, best effort.
type PushDispatcher interface {
	Dispatch(ctx context.Context, msg PushMessage) error
}
