package vo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OutputEntry 单个输出产物：格式标签 -> 产物地址
type OutputEntry struct {
	Label string
	URL   string
}

// Outputs 编码输出集合，保持插入顺序。
// JSON对象在Go map里会丢失键序，所以序列化/反序列化都按条目顺序手工处理。
type Outputs struct {
	entries []OutputEntry
}

// NewOutputs 创建空输出集合
func NewOutputs() *Outputs {
	return &Outputs{}
}

// Set 追加或覆盖一个输出，保持首次插入的位置
func (o *Outputs) Set(label, url string) {
	for i := range o.entries {
		if o.entries[i].Label == label {
			o.entries[i].URL = url
			return
		}
	}
	o.entries = append(o.entries, OutputEntry{Label: label, URL: url})
}

// Get 按标签取输出地址
func (o *Outputs) Get(label string) (string, bool) {
	if o == nil {
		return "", false
	}
	for _, e := range o.entries {
		if e.Label == label {
			return e.URL, true
		}
	}
	return "", false
}

// Entries 按插入顺序返回所有输出
func (o *Outputs) Entries() []OutputEntry {
	if o == nil {
		return nil
	}
	out := make([]OutputEntry, len(o.entries))
	copy(out, o.entries)
	return out
}

// Len 输出条目数
func (o *Outputs) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}

// IsEmpty 是否还没有任何输出
func (o *Outputs) IsEmpty() bool {
	return o.Len() == 0
}

// Equal 按顺序逐条比较，用于通知重投的无操作判定
func (o *Outputs) Equal(other *Outputs) bool {
	if o.Len() != other.Len() {
		return false
	}
	for i, e := range o.entries {
		if other.entries[i] != e {
			return false
		}
	}
	return true
}

// MarshalJSON 按插入顺序输出JSON对象
func (o *Outputs) MarshalJSON() ([]byte, error) {
	if o == nil || len(o.entries) == 0 {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Label)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.URL)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 用token流读取JSON对象以保留键序
func (o *Outputs) UnmarshalJSON(data []byte) error {
	o.entries = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("outputs: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("outputs: unexpected key token %v", keyTok)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("outputs: value for %q is not a string: %w", key, err)
		}
		o.Set(key, val)
	}

	// 消费收尾的'}'
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// OutputsFromJSON 从持久化的JSON串恢复输出集合，空串视为无输出
func OutputsFromJSON(raw string) (*Outputs, error) {
	o := NewOutputs()
	if raw == "" {
		return o, nil
	}
	if err := json.Unmarshal([]byte(raw), o); err != nil {
		return nil, err
	}
	return o, nil
}

// ToJSON 序列化为持久化用的JSON串，空集合返回空串
func (o *Outputs) ToJSON() (string, error) {
	if o.IsEmpty() {
		return "", nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
