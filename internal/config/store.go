package config

import "strings"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// StoreConfig selects where match documents are persisted.
type StoreConfig struct {
	Driver    string
	SQLiteDSN string
}

func loadStore() StoreConfig {
	driver := strings.ToLower(strings.TrimSpace(envOrDefault(envStoreDriver, defaultStoreDriver)))
	if driver != DriverMemory && driver != DriverSQLite {
		driver = defaultStoreDriver
	}
	return StoreConfig{
		Driver:    driver,
		SQLiteDSN: envOrDefault(envSQLiteDSN, defaultSQLiteDSN),
	}
}
