package fsx

import (
	"errors"
	"fmt"
	"os"
)

// MissingInputError 表示必需的输入文件不存在。
// 这是唯一会让阶段在读取边界直接中止的“找不到文件”类错误。
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("未找到输入文件 %q", e.Path)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// IsMissingInput 判断 err 是否为 MissingInputError。
func IsMissingInput(err error) bool {
	var e *MissingInputError
	return errors.As(err, &e)
}

// ReadInput 读取必需的输入文件；文件不存在时返回 *MissingInputError。
func ReadInput(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &MissingInputError{Path: path, Err: err}
		}
		return nil, err
	}
	return b, nil
}
