/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Index maps associate a Go record type with the key templates used to store
// it in a single-table backend, for example
//
//	{"PK": "LOCK#{Model}", "SK": "ENTITY#{EntityID}"}

var (
	indexMapRegistry = make(map[reflect.Type]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates a Go type T with a given index map (PK, SK, etc.).
// The map is copied.
func RegisterIndexMap[T any](idxMap map[string]string) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	cp := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		cp[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[t] = cp
}

// GetIndexMap retrieves the indexMap for type T, if any.
func GetIndexMap[T any]() (map[string]string, bool) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[t]
	return m, ok
}

// MustGetIndexMap is GetIndexMap for types registered at init time.
func MustGetIndexMap[T any]() map[string]string {
	m, ok := GetIndexMap[T]()
	if !ok {
		panic(fmt.Sprintf("registry: no index map registered for %s", reflect.TypeOf((*T)(nil)).Elem()))
	}
	return m
}
