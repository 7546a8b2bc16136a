package utils

import (
	"bytes"
	"encoding/json"
	"sort"
)

type OrderedKV[T any] struct {
	Value T
	Order int64
}

// OrderedKVMap is a JSON object that keeps its keys in insertion order
// when marshaled.
type OrderedKVMap[T any] map[string]OrderedKV[T]

// Put stores value under key. A new key is ordered after every existing key;
// an existing key keeps its position.
func (om OrderedKVMap[T]) Put(key string, value T) {
	if existing, ok := om[key]; ok {
		om[key] = OrderedKV[T]{Value: value, Order: existing.Order}
		return
	}
	om[key] = OrderedKV[T]{Value: value, Order: int64(len(om))}
}

// Keys returns the keys in marshal order.
func (om OrderedKVMap[T]) Keys() []string {
	keys := make([]string, 0, len(om))
	for k := range om {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return om[keys[i]].Order < om[keys[j]].Order
	})
	return keys
}

func (om OrderedKVMap[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range om.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(om[k].Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
