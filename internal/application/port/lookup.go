package port

import (
	"context"

	"tickerwatch/internal/domain"
)

// SymbolSearcher 代码联想查询服务
type SymbolSearcher interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}
