package adapters

import (
	"context"

	"hxms_backend/internal/channels"
	"hxms_backend/internal/leads/ports"
)

// ChannelFinder is the channel normalizer.
type ChannelFinder interface {
	FindOrCreate(ctx context.Context, a channels.Attribution) (*channels.Channel, error)
}

// ChannelLinkerAdapter links leads to channel dictionary entries.
type ChannelLinkerAdapter struct {
	channels ChannelFinder
}

// NewChannelLinkerAdapter creates a ChannelLinkerAdapter.
func NewChannelLinkerAdapter(channels ChannelFinder) *ChannelLinkerAdapter {
	return &ChannelLinkerAdapter{channels: channels}
}

// LinkChannel implements ports.ChannelLinker.
func (a *ChannelLinkerAdapter) LinkChannel(ctx context.Context, in ports.ChannelInput) (*ports.ChannelRef, error) {
	ch, err := a.channels.FindOrCreate(ctx, channels.Attribution{
		Category: in.Category,
		Source:   in.Source,
		Level1:   in.Level1,
		Level2:   in.Level2,
	})
	if err != nil || ch == nil {
		return nil, err
	}
	return &ports.ChannelRef{
		ID:       ch.ID,
		Key:      ch.CompoundKey,
		Category: ch.Category,
		Source:   ch.Source,
		Level1:   ch.Level1,
		Level2:   ch.Level2,
	}, nil
}

var _ ports.ChannelLinker = (*ChannelLinkerAdapter)(nil)
