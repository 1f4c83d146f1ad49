package reconcile

import (
	"context"
)

const (
	PageSize = 100
	MaxPages = 100
)

// FetchPage returns one page of records and the listing total (0 if unknown).
type FetchPage[R any] func(ctx context.Context, pageNum, pageSize int) ([]R, int, error)

// CollectPages walks a paginated vendor listing until a short page, the
// reported total, or MaxPages is reached.
func CollectPages[R any](ctx context.Context, fetch FetchPage[R]) ([]R, error) {
	var all []R
	for page := 1; page <= MaxPages; page++ {
		records, total, err := fetch(ctx, page, PageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if len(records) < PageSize || (total > 0 && len(all) >= total) {
			break
		}
	}
	return all, nil
}
