package config

type Catalog struct {
	LowStockThreshold int `env:"CATALOG_LOW_STOCK_THRESHOLD" envDefault:"10"`
	DefaultPageSize   int `env:"CATALOG_DEFAULT_PAGE_SIZE" envDefault:"10"`
	MaxPageSize       int `env:"CATALOG_MAX_PAGE_SIZE" envDefault:"100"`
	MaxBatchSize      int `env:"CATALOG_MAX_BATCH_SIZE" envDefault:"100"`
}
