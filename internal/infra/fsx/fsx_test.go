package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestWriteFileAtomic_SuccessAndNoTempLeft(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.json")

	if err := WriteFileAtomic(dst, []byte("hello")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("内容不一致：%q", string(b))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".a.json.tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
}

func TestWriteFileAtomic_ReplaceExisting(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.json")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	if err := WriteFileAtomic(dst, []byte("new")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, _ := os.ReadFile(dst)
	if string(b) != "new" {
		t.Fatalf("期望覆盖为 new，实际 %q", string(b))
	}
}

func TestWriteFileAtomic_RenameFail_KeepsOldAndCleansTemp(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.json")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return os.ErrPermission
	}
	defer func() { renameFunc = old }()

	err := WriteFileAtomic(dst, []byte("new"))
	var we *WriteError
	if !errors.As(err, &we) || we.Op != "rename" || !errors.Is(err, os.ErrPermission) {
		t.Fatalf("期望 rename 步骤的 WriteError，实际：%T %v", err, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".a.json.tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
	b, _ := os.ReadFile(dst)
	if string(b) != "old" {
		t.Fatalf("失败时不应改动已有文件，实际 %q", string(b))
	}
}

func TestWriteFileAtomic_KeepsExistingPerm(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.json")
	if err := os.WriteFile(dst, []byte("old"), 0o600); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if err := os.Chmod(dst, 0o600); err != nil {
		t.Fatalf("chmod 失败：%v", err)
	}

	if err := WriteFileAtomic(dst, []byte("new")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	fi, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat 失败：%v", err)
	}
	if runtime.GOOS != "windows" && fi.Mode().Perm() != 0o600 {
		t.Fatalf("期望沿用 0600，实际 %v", fi.Mode().Perm())
	}
}

func TestWriteFileAtomic_CreatesParentDir(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out", "map_data.json")
	if err := WriteFileAtomic(dst, []byte("[]\n")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if b, _ := os.ReadFile(dst); string(b) != "[]\n" {
		t.Fatalf("内容不一致：%q", string(b))
	}
}

func TestWriteFileAtomic_TargetConflictDir(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.json")
	if err := os.Mkdir(dst, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	err := WriteFileAtomic(dst, []byte("hello"))
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}

func TestReadInput_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waste_data.json")

	_, err := ReadInput(path)
	if !IsMissingInput(err) {
		t.Fatalf("期望 MissingInputError，实际：%T %v", err, err)
	}
	if !strings.Contains(err.Error(), "waste_data.json") {
		t.Fatalf("错误信息应包含文件名：%v", err)
	}
}

func TestReadInput_OK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	b, err := ReadInput(path)
	if err != nil || string(b) != "x" {
		t.Fatalf("期望读到 x，实际 %q err=%v", string(b), err)
	}
}
