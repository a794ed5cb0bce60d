package storagecommon

// Backend defines the interface of storage backends
//
// Documents are grouped by kind ("character", "player") and addressed by a string key.
type Backend interface {
	List(kind string) ([]string, error)
	Write(kind string, key string, data map[string]interface{}) error
	// Read returns nil data without error if the document does not exist
	Read(kind string, key string) (map[string]interface{}, error)
	Exists(kind string, key string) (bool, error)
	Delete(kind string, key string) error
	Close()
	IsEOF(err error) bool
}
