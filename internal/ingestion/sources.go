package ingestion

import "context"

// KlineSource streams candle updates. The channel closes when the context is
// cancelled or the source shuts down.
type KlineSource interface {
	Stream(ctx context.Context) (<-chan KlineEvent, error)
}
