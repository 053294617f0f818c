package storage

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/bytedance/sonic"

	"github.com/matst80/slask-inventory/pkg/inventory"
)

const itemsFile = "items.json"

// DiskStorage reads and writes item snapshots under a root folder. It is a
// restart convenience, not a durability guarantee.
type DiskStorage struct {
	RootFolder string
}

func NewDiskStorage(rootFolder string) *DiskStorage {
	return &DiskStorage{
		RootFolder: rootFolder,
	}
}

func (ds *DiskStorage) getFileName(name string) (string, string) {
	fileName := path.Join(ds.RootFolder, name)
	tmpFileName := fileName + ".tmp-" + fmt.Sprintf("%d", time.Now().UnixMilli())
	return fileName, tmpFileName
}

// LoadItems overlays a previous snapshot onto the store. A missing snapshot
// file is not an error, the seed data simply stays as is.
func (ds *DiskStorage) LoadItems(store *ItemStore) error {
	fileName, _ := ds.getFileName(itemsFile)
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	items := make([]inventory.Item, 0)
	if err := sonic.Unmarshal(data, &items); err != nil {
		return err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, item := range items {
		store.items[item.Id] = item
	}
	return nil
}

// SaveItems writes the current store contents to a temp file and renames it
// into place, so a crash mid-write cannot corrupt the previous snapshot.
func (ds *DiskStorage) SaveItems(store *ItemStore) error {
	if err := os.MkdirAll(ds.RootFolder, 0755); err != nil {
		return err
	}
	data, err := sonic.Marshal(store.Items())
	if err != nil {
		return err
	}
	fileName, tmpFileName := ds.getFileName(itemsFile)
	if err := os.WriteFile(tmpFileName, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpFileName, fileName)
}
