package state

// DefaultStoreFactory is the default implementation of StoreFactory
type DefaultStoreFactory struct{}

// Create returns a store implementation based on the configuration
func (f *DefaultStoreFactory) Create(config Config) (Store, error) {
	return NewDuckDBStore(config)
}
