package morm

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// derefPointer 解引用指针，返回实际值
// 如果是 nil 指针，返回 nil
// 如果不是指针，直接返回原值
func derefPointer(a any) any {
	if a == nil {
		return nil
	}
	v := reflect.ValueOf(a)
	// 如果是指针，解引用
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	// 安全检查：确保可以调用 Interface()
	if v.CanInterface() {
		return v.Interface()
	}
	return nil
}

// convertStruct 类型转换函数命名空间
type convertStruct struct{}

// Convert 提供类型转换函数
var Convert = convertStruct{}

// ToBoolWithError 将任意类型转换为 bool，转换失败返回错误
// 支持的字符串格式：
// - 标准格式：1, t, T, true, TRUE, True, 0, f, F, false, FALSE, False
// - 扩展格式：yes, Yes, YES, no, No, NO, on, On, ON, off, Off, OFF
func (convertStruct) ToBoolWithError(a any) (bool, error) {
	// 解引用指针
	a = derefPointer(a)
	if a == nil {
		return false, fmt.Errorf("cannot convert nil to bool")
	}
	switch v := a.(type) {
	case bool:
		return v, nil
	case int, int8, int16, int32, int64:
		return reflect.ValueOf(v).Int() != 0, nil
	case uint, uint8, uint16, uint32, uint64:
		return reflect.ValueOf(v).Uint() != 0, nil
	case float32, float64:
		return reflect.ValueOf(v).Float() != 0, nil
	case string:
		// 先尝试标准的 ParseBool
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
		// 扩展支持：yes/no, on/off（大小写不敏感）
		lower := strings.ToLower(strings.TrimSpace(v))
		switch lower {
		case "yes", "on":
			return true, nil
		case "no", "off":
			return false, nil
		default:
			return false, fmt.Errorf("cannot parse %q as bool", v)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to bool", a)
	}
}

// ToBool 将任意类型转换为 bool，转换失败返回默认值
func (convertStruct) ToBool(a any, defaultValue ...bool) bool {
	v, err := Convert.ToBoolWithError(a)
	if err != nil {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return false
	}
	return v
}

// ToIntWithError 将任意类型转换为 int，转换失败返回错误
func (convertStruct) ToIntWithError(a any) (int, error) {
	v, err := Convert.ToInt64WithError(a)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// ToInt 将任意类型转换为 int，转换失败返回默认值
func (convertStruct) ToInt(a any, defaultValue ...int) int {
	v, err := Convert.ToIntWithError(a)
	if err != nil {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return 0
	}
	return v
}

// ToInt64WithError 将任意类型转换为 int64，转换失败返回错误
func (convertStruct) ToInt64WithError(a any) (int64, error) {
	// 解引用指针
	a = derefPointer(a)
	if a == nil {
		return 0, fmt.Errorf("cannot convert nil to int64")
	}
	switch v := a.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
		// "3.0" 之类的浮点文本
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case json.Number:
		return Convert.ToInt64WithError(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", a)
	}
}

// ToInt64 将任意类型转换为 int64，转换失败返回默认值
func (convertStruct) ToInt64(a any, defaultValue ...int64) int64 {
	v, err := Convert.ToInt64WithError(a)
	if err != nil {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return 0
	}
	return v
}

// ToStringWithError 将任意类型转换为 string，转换失败返回错误
func (convertStruct) ToStringWithError(a any) (string, error) {
	// 解引用指针
	a = derefPointer(a)
	if a == nil {
		return "", nil
	}
	switch v := a.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		bs, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("cannot convert %T to string: %w", a, err)
		}
		return string(bs), nil
	}
}

// ToString 将任意类型转换为 string，转换失败返回默认值
func (convertStruct) ToString(a any, defaultValue ...string) string {
	v, err := Convert.ToStringWithError(a)
	if err != nil {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return ""
	}
	return v
}

// ToFloat64WithError 将任意类型转换为 float64，转换失败返回错误
func (convertStruct) ToFloat64WithError(a any) (float64, error) {
	// 解引用指针
	a = derefPointer(a)
	if a == nil {
		return 0, fmt.Errorf("cannot convert nil to float64")
	}
	switch v := a.(type) {
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		return strconv.ParseFloat(v, 64)
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", a)
	}
}

// ToFloat64 将任意类型转换为 float64，转换失败返回默认值
func (convertStruct) ToFloat64(a any, defaultValue ...float64) float64 {
	v, err := Convert.ToFloat64WithError(a)
	if err != nil {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return 0.0
	}
	return v
}
