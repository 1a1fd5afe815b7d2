package cartstorage

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"

	"github.com/MarcGrol/cartbackend/services/cart"
)

const linesProperty = "lines"

// CartLines is stored under the cart key as a plain JSON array of lines
type CartLines []cart.CartLine

// CartVersion is stored next to the cart, under "<key>:version"
type CartVersion struct {
	Version int64     `json:"version"`
	SavedAt time.Time `json:"savedAt"`
}

// Load lets Datastore, which cannot hold a bare array as an entity, read the lines
// from a single unindexed JSON property
func (l *CartLines) Load(props []datastore.Property) error {
	for _, p := range props {
		if p.Name != linesProperty {
			continue
		}
		data, ok := p.Value.(string)
		if !ok {
			return fmt.Errorf("property %s has type %T", linesProperty, p.Value)
		}
		return json.Unmarshal([]byte(data), l)
	}
	*l = CartLines{}
	return nil
}

func (l *CartLines) Save() ([]datastore.Property, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("error encoding cart: %w", err)
	}
	return []datastore.Property{
		{Name: linesProperty, Value: string(data), NoIndex: true},
	}, nil
}
