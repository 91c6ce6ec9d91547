package kafka

import (
	"fmt"
	"strconv"
)

// Canal 变更类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// CanalMessage 定义了 Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`
	SQL      string   `json:"sql"`

	// Data 存储变更后的数据
	Data []map[string]interface{} `json:"data"`

	// Old 存储变更前的数据
	Old []map[string]interface{} `json:"old"`
}

// Uint64Column 取出每一行指定列的值，canal 的列值统一是字符串
func (m *CanalMessage) Uint64Column(column string) ([]uint64, error) {
	res := make([]uint64, 0, len(m.Data))
	for _, row := range m.Data {
		v, err := toUint64(row[column])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", column, err)
		}
		res = append(res, v)
	}
	return res, nil
}

func toUint64(v interface{}) (uint64, error) {
	switch val := v.(type) {
	case string:
		return strconv.ParseUint(val, 10, 64)
	case float64:
		return uint64(val), nil
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
