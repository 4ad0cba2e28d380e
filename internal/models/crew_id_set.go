package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CrewIDSet 去重且保持原顺序的员工 ID 集合
type CrewIDSet []string

// ParseCrewIDSet 解析 JSON 数组形式的员工 ID，格式错误时返回空集合
func ParseCrewIDSet(raw []byte) CrewIDSet {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return CrewIDSet{}
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var items []interface{}
	if err := decoder.Decode(&items); err != nil {
		return CrewIDSet{}
	}

	seen := make(map[string]struct{}, len(items))
	set := make(CrewIDSet, 0, len(items))
	for _, item := range items {
		var id string
		switch v := item.(type) {
		case string:
			id = strings.TrimSpace(v)
		case json.Number:
			id = v.String()
		default:
			continue
		}
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		set = append(set, id)
	}
	return set
}

// Contains 判断集合中是否包含指定员工
func (s CrewIDSet) Contains(crewUserID string) bool {
	for _, id := range s {
		if id == crewUserID {
			return true
		}
	}
	return false
}
