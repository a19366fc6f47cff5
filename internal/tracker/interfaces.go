package tracker

import (
	"context"

	"github.com/samvad-hq/gengo-go/pkg/mygengo"
	"github.com/samvad-hq/gengo-go/pkg/publishers"
)

// JobFetcher loads the current state of a single job.
type JobFetcher interface {
	Job(ctx context.Context, id string) (*mygengo.Response, error)
}

// EventPublisher fans job events out downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
