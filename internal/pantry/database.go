package pantry

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	itemBucketName   = "pantry"
	recipeBucketName = "recipes"
)

// DB defines the interface for database operations.
// Item names are folded with ItemKey by the implementation.
type DB interface {
	// IncrementItem adds one of the named item, creating it with count 1 if absent.
	// An existing note or photo is kept; the supplied ones only fill empty fields.
	IncrementItem(name, note, photo string, now time.Time) (*Item, error)

	// DecrementItem removes one of the named item, deleting the record at count 1.
	// It returns the item as it was before the change, or nil if it did not exist.
	DecrementItem(name string) (item *Item, deleted bool, err error)

	// RenameItem moves a record to a new key, overwriting any record already there.
	// It returns the moved item and the overwritten one (nil if none).
	RenameItem(oldName, newName string) (renamed *Item, replaced *Item, err error)

	// SetItemNote replaces the note of an existing item. Missing items are ignored.
	SetItemNote(name, note string) (*Item, error)

	// GetItem retrieves an item by name
	GetItem(name string) (*Item, error)

	// ListItems returns all items
	ListItems() ([]*Item, error)

	// SaveRecipe saves a recipe to the database
	SaveRecipe(recipe *Recipe) error

	// GetRecipe retrieves a recipe by ID
	GetRecipe(id string) (*Recipe, error)

	// ListRecipes returns all recipes
	ListRecipes() ([]*Recipe, error)

	// DeleteRecipe removes a recipe from the database
	DeleteRecipe(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB.
// Each read-modify-write runs in one Update transaction, so concurrent
// increments of the same item cannot lose updates.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(itemBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(recipeBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func getItem(bucket *bbolt.Bucket, key string) (*Item, error) {
	data := bucket.Get([]byte(key))
	if data == nil {
		return nil, nil
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling item %s: %w", key, err)
	}
	return &item, nil
}

func putItem(bucket *bbolt.Bucket, item *Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}
	return bucket.Put([]byte(item.Name), data)
}

// IncrementItem adds one of the named item
func (b *BoltDB) IncrementItem(name, note, photo string, now time.Time) (*Item, error) {
	key := ItemKey(name)
	if key == "" {
		return nil, ErrEmptyName
	}

	var item *Item
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucketName))
		existing, err := getItem(bucket, key)
		if err != nil {
			return err
		}

		if existing == nil {
			item = &Item{Name: key, Count: 1, Note: note, Photo: photo, AddedAt: now}
		} else {
			item = existing
			item.Count++
			if item.Note == "" {
				item.Note = note
			}
			if item.Photo == "" {
				item.Photo = photo
			}
			if item.AddedAt.IsZero() {
				item.AddedAt = now
			}
		}
		return putItem(bucket, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DecrementItem removes one of the named item
func (b *BoltDB) DecrementItem(name string) (*Item, bool, error) {
	key := ItemKey(name)

	var (
		item    *Item
		deleted bool
	)
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucketName))
		existing, err := getItem(bucket, key)
		if err != nil || existing == nil {
			return err
		}

		item = existing
		if existing.Count > 1 {
			updated := *existing
			updated.Count--
			return putItem(bucket, &updated)
		}
		deleted = true
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return nil, false, err
	}
	return item, deleted, nil
}

// RenameItem moves a record to a new key
func (b *BoltDB) RenameItem(oldName, newName string) (*Item, *Item, error) {
	oldKey, newKey := ItemKey(oldName), ItemKey(newName)
	if newKey == "" {
		return nil, nil, ErrEmptyName
	}

	var renamed, replaced *Item
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucketName))
		existing, err := getItem(bucket, oldKey)
		if err != nil || existing == nil {
			return err
		}
		if oldKey == newKey {
			renamed = existing
			return nil
		}

		replaced, err = getItem(bucket, newKey)
		if err != nil {
			return err
		}

		renamed = existing
		renamed.Name = newKey
		if err := putItem(bucket, renamed); err != nil {
			return err
		}
		return bucket.Delete([]byte(oldKey))
	})
	if err != nil {
		return nil, nil, err
	}
	return renamed, replaced, nil
}

// SetItemNote replaces the note of an existing item
func (b *BoltDB) SetItemNote(name, note string) (*Item, error) {
	key := ItemKey(name)

	var item *Item
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucketName))
		existing, err := getItem(bucket, key)
		if err != nil || existing == nil {
			return err
		}
		item = existing
		item.Note = note
		return putItem(bucket, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem retrieves an item by name
func (b *BoltDB) GetItem(name string) (*Item, error) {
	key := ItemKey(name)

	var item *Item
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		item, err = getItem(tx.Bucket([]byte(itemBucketName)), key)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item not found: %s", key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns all items
func (b *BoltDB) ListItems() ([]*Item, error) {
	items := make([]*Item, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("unmarshaling item: %w", err)
			}
			items = append(items, &item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SaveRecipe saves a recipe to the database
func (b *BoltDB) SaveRecipe(recipe *Recipe) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(recipeBucketName))
		data, err := json.Marshal(recipe)
		if err != nil {
			return fmt.Errorf("marshaling recipe: %w", err)
		}
		return bucket.Put([]byte(recipe.ID), data)
	})
}

// GetRecipe retrieves a recipe by ID
func (b *BoltDB) GetRecipe(id string) (*Recipe, error) {
	var recipe *Recipe
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(recipeBucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("recipe not found: %s", id)
		}
		return json.Unmarshal(data, &recipe)
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// ListRecipes returns all recipes
func (b *BoltDB) ListRecipes() ([]*Recipe, error) {
	recipes := make([]*Recipe, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(recipeBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var recipe Recipe
			if err := json.Unmarshal(v, &recipe); err != nil {
				return fmt.Errorf("unmarshaling recipe: %w", err)
			}
			recipes = append(recipes, &recipe)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// DeleteRecipe removes a recipe from the database
func (b *BoltDB) DeleteRecipe(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recipeBucketName)).Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
