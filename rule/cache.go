// Copyright 2026 Product-FARM contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rule

import (
	"container/list"
	"sync"

	"github.com/mitchellh/hashstructure"
)

// boundedLRUCache is a fixed-capacity, least-recently-used-evicted cache
// keyed by a comparable K. Product-FARM keeps four logically independent
// instances of it (spec.md §5): product definitions, attribute
// definitions, rule definitions, and compiled expressions. Modeled after
// the teacher's sql.newLRUCache (sql/cache_test.go): Put/Get plus a
// sentinel ErrKeyNotFound rather than a (V, bool) return, so callers can
// use errors.Is/Kind.Is uniformly with the rest of the engine's error
// taxonomy.
type boundedLRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[K]*list.Element
}

type lruEntry[K comparable, V any] struct {
	key K
	val V
}

func newBoundedLRUCache[K comparable, V any](capacity int) *boundedLRUCache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &boundedLRUCache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// Get returns the cached value for key, promoting it to most-recently-used.
func (c *boundedLRUCache[K, V]) Get(key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, ErrKeyNotFound.New()
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruEntry[K, V]).val, nil
}

// Put inserts or replaces key's value, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *boundedLRUCache[K, V]) Put(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry[K, V]).val = val
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&lruEntry[K, V]{key: key, val: val})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry[K, V]).key)
		}
	}
}

// Invalidate removes key from the cache, if present. Used when a
// definition write supersedes a cached copy (spec.md §5: "Writes to any
// definition invalidate corresponding cache entries for that product").
func (c *boundedLRUCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Len reports the number of entries currently cached.
func (c *boundedLRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// DefinitionCaches bundles the four bounded caches spec.md §5 names.
// Concurrent evaluations in progress keep using the snapshot (Product,
// []RuleDefinition, *CachedExpression) they already read; an Invalidate
// only affects lookups that happen afterward.
type DefinitionCaches struct {
	Products   *boundedLRUCache[string, Product]
	Attributes *boundedLRUCache[string, []Attribute]
	Rules      *boundedLRUCache[string, []RuleDefinition]
	Compiled   *boundedLRUCache[string, *CachedExpression]
}

// NewDefinitionCaches builds the four caches with the given per-cache
// capacity.
func NewDefinitionCaches(capacity int) *DefinitionCaches {
	return &DefinitionCaches{
		Products:   newBoundedLRUCache[string, Product](capacity),
		Attributes: newBoundedLRUCache[string, []Attribute](capacity),
		Rules:      newBoundedLRUCache[string, []RuleDefinition](capacity),
		Compiled:   newBoundedLRUCache[string, *CachedExpression](capacity),
	}
}

// InvalidateProduct evicts every cache entry for productID: its product
// record, its attribute schema, its rule list, and every rule's compiled
// expression cache entry (keyed "productID/ruleID").
func (d *DefinitionCaches) InvalidateProduct(productID string, ruleIDs []string) {
	d.Products.Invalidate(productID)
	d.Attributes.Invalidate(productID)
	d.Rules.Invalidate(productID)
	for _, rid := range ruleIDs {
		d.Compiled.Invalidate(compiledCacheKey(productID, rid))
	}
}

func compiledCacheKey(productID, ruleID string) string {
	return productID + "/" + ruleID
}

// DefinitionFingerprint computes a structural hash of a rule definition,
// used to detect whether a re-fetched definition actually changed before
// paying the cost of invalidating and re-parsing/re-compiling it.
func DefinitionFingerprint(r RuleDefinition) (uint64, error) {
	return hashstructure.Hash(r, nil)
}
