package schema

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// JSONArray 以 JSON 文本存储的字符串序列（labels/files/topics 等）
type JSONArray []string

// Value 实现 driver.Valuer 接口
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*j = make(JSONArray, 0)
		return nil
	}
	if len(bytes) == 0 {
		*j = make(JSONArray, 0)
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Strings 返回去空白后的拷贝，调用方不直接接触序列化形式
func (j JSONArray) Strings() []string {
	out := make([]string, 0, len(j))
	for _, s := range j {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Contains 大小写不敏感的包含判断
func (j JSONArray) Contains(s string) bool {
	s = strings.TrimSpace(s)
	for _, it := range j {
		if strings.EqualFold(strings.TrimSpace(it), s) {
			return true
		}
	}
	return false
}

// NewJSONArray 由字符串切片构造（过滤空值）
func NewJSONArray(items []string) JSONArray {
	out := make(JSONArray, 0, len(items))
	for _, s := range items {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
