// Package fsx 负责阶段产物的落盘：输出只会以完整内容出现，或者保持原样。
package fsx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// 测试通过替换它来模拟 rename 失败（例如 EXDEV）。
var renameFunc = os.Rename

const defaultPerm fs.FileMode = 0o644

// WriteError 标明原子写出在哪一步失败。
type WriteError struct {
	Path string
	Op   string // "mkdir" / "create" / "write" / "rename"
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("写出 %q 失败（%s）：%v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// PathTypeConflictError：输出路径已存在，但不是普通文件。
type PathTypeConflictError struct {
	Path string
	Got  fs.FileMode
}

func (e *PathTypeConflictError) Error() string {
	kind := "非普通文件"
	if e.Got.IsDir() {
		kind = "目录"
	}
	return fmt.Sprintf("输出路径 %q 已存在且是%s", e.Path, kind)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError：临时文件与目标不在同一文件系统，rename 无法原子完成。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("无法跨文件系统 rename（EXDEV）：%q -> %q", e.Src, e.Dst)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// WriteFileAtomic 先写同目录临时文件再 rename 到 path。
//
// 约束：
// - 失败时不留临时文件，已有的 path 内容不变
// - 覆盖已有文件时沿用其权限位；新文件为 0644
// - path 是目录或其他非普通文件 => *PathTypeConflictError
func WriteFileAtomic(path string, data []byte) error {
	path = filepath.Clean(path)
	perm := defaultPerm
	switch fi, err := os.Lstat(path); {
	case err == nil && !fi.Mode().IsRegular():
		return &PathTypeConflictError{Path: path, Got: fi.Mode()}
	case err == nil:
		perm = fi.Mode().Perm()
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: path, Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteError{Path: path, Op: "create", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := fill(tmp, data, perm); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}

	if err := renameFunc(tmp.Name(), path); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: tmp.Name(), Dst: path, Err: err}
		}
		return &WriteError{Path: path, Op: "rename", Err: err}
	}
	committed = true

	syncDir(dir)
	return nil
}

// fill 写入内容并落盘，成功时关闭 f。
func fill(f *os.File, data []byte, perm fs.FileMode) error {
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return f.Close()
}

// syncDir 尽力持久化目录项；Windows 上无法对目录 fsync。
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
}
