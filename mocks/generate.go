package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/gold-data/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_cache.go -package=mocks github.com/rxtech-lab/gold-data/pkg/marketdata/cache Cache
