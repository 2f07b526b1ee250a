package dynamodb

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"pillarscan/internal/constants"
	"pillarscan/internal/database"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// memStore is an in-memory database.KeyValueStore used by the repository
// tests. It reproduces the single-table semantics the repositories rely on:
// sort-key ordering, prefix queries, GSI lookups and conditional updates.
type memStore struct {
	mu    sync.Mutex
	items map[string]database.Item
}

func newMemStore() *memStore {
	return &memStore{items: map[string]database.Item{}}
}

func itemKey(pk, sk string) string { return pk + "\x00" + sk }

func stringAttr(item database.Item, name string) string {
	if av, ok := item[name].(*types.AttributeValueMemberS); ok {
		return av.Value
	}
	return ""
}

func copyItem(item database.Item) database.Item {
	out := database.Item{}
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (m *memStore) Put(_ context.Context, item database.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := stringAttr(item, constants.AttrPK)
	sk := stringAttr(item, constants.AttrSK)
	m.items[itemKey(pk, sk)] = copyItem(item)
	return nil
}

func (m *memStore) Get(_ context.Context, pk, sk string) (database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemKey(pk, sk)]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

func (m *memStore) QueryByPrefix(_ context.Context, pk, skPrefix string) ([]database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := []database.Item{}
	for _, item := range m.items {
		if stringAttr(item, constants.AttrPK) != pk {
			continue
		}
		if skPrefix != "" && !strings.HasPrefix(stringAttr(item, constants.AttrSK), skPrefix) {
			continue
		}
		matches = append(matches, copyItem(item))
	}
	sort.Slice(matches, func(i, j int) bool {
		return stringAttr(matches[i], constants.AttrSK) < stringAttr(matches[j], constants.AttrSK)
	})
	return matches, nil
}

func (m *memStore) QueryByIndex(_ context.Context, _, pk, sk string) ([]database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := []database.Item{}
	for _, item := range m.items {
		if stringAttr(item, constants.AttrGSI1PK) != pk {
			continue
		}
		if sk != "" && stringAttr(item, constants.AttrGSI1SK) != sk {
			continue
		}
		matches = append(matches, copyItem(item))
	}
	sort.Slice(matches, func(i, j int) bool {
		return stringAttr(matches[i], constants.AttrGSI1SK) < stringAttr(matches[j], constants.AttrGSI1SK)
	})
	return matches, nil
}

func (m *memStore) ScanPrefix(_ context.Context, pkPrefix, sk string) ([]database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := []database.Item{}
	for _, item := range m.items {
		if !strings.HasPrefix(stringAttr(item, constants.AttrPK), pkPrefix) {
			continue
		}
		if stringAttr(item, constants.AttrSK) != sk {
			continue
		}
		matches = append(matches, copyItem(item))
	}
	sort.Slice(matches, func(i, j int) bool {
		return stringAttr(matches[i], constants.AttrPK) < stringAttr(matches[j], constants.AttrPK)
	})
	return matches, nil
}

func (m *memStore) Update(_ context.Context, pk, sk string, updates database.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemKey(pk, sk)]
	if !ok {
		item = database.Item{
			constants.AttrPK: &types.AttributeValueMemberS{Value: pk},
			constants.AttrSK: &types.AttributeValueMemberS{Value: sk},
		}
		m.items[itemKey(pk, sk)] = item
	}
	for k, v := range updates {
		item[k] = v
	}
	return nil
}

func (m *memStore) UpdateIf(_ context.Context, pk, sk string, updates database.Item, condAttr string, condValue types.AttributeValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemKey(pk, sk)]
	if !ok {
		return database.ErrConditionFailed
	}
	if !reflect.DeepEqual(item[condAttr], condValue) {
		return database.ErrConditionFailed
	}
	for k, v := range updates {
		item[k] = v
	}
	return nil
}

func (m *memStore) UpdateIfIn(_ context.Context, pk, sk string, updates database.Item, condAttr string, condValues []types.AttributeValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemKey(pk, sk)]
	if !ok {
		return database.ErrConditionFailed
	}
	matched := false
	for _, v := range condValues {
		if reflect.DeepEqual(item[condAttr], v) {
			matched = true
			break
		}
	}
	if !matched {
		return database.ErrConditionFailed
	}
	for k, v := range updates {
		item[k] = v
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, pk, sk string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, itemKey(pk, sk))
	return nil
}
