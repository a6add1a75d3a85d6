package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxDocumentBytes is the maximum number of bytes read from any input file (10 MB).
const MaxDocumentBytes int64 = 10 * 1024 * 1024

// readFileLimited reads a regular file with safety checks:
//   - path resolved with filepath.Abs; relative paths, including ones
//     with leading "..", are taken relative to the working directory
//   - regular-file-only after resolution (no devices, pipes, sockets)
//   - bounded read (MaxDocumentBytes)
//
// Uses open-then-fstat to avoid TOCTOU races between stat and open.
func readFileLimited(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %q: %w", path, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot open file %q: %w", abs, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat file %q: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("refusing to read non-regular file %q (mode: %s)", abs, info.Mode().Type())
	}
	if info.Size() > MaxDocumentBytes {
		return nil, fmt.Errorf("file %q too large: %d bytes (max: %d)", abs, info.Size(), MaxDocumentBytes)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %w", abs, err)
	}
	if int64(len(data)) > MaxDocumentBytes {
		return nil, fmt.Errorf("file %q exceeded size limit during read", abs)
	}
	return data, nil
}

// VerifyPolicyDirectory checks the policy directory for ownership and
// permission problems that would let others inject definitions.
// Returns a list of warnings (empty = directory is safe).
func VerifyPolicyDirectory(dir string) []string {
	warnings, info := verifyDirEntry(dir)
	if info == nil {
		return warnings
	}

	warnings = append(warnings, checkDirPermissions(dir, info.Mode().Perm())...)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return append(warnings, fmt.Sprintf("cannot resolve absolute path for %q: %v", dir, err))
	}

	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("error accessing %q during walk: %v", path, err))
			return nil
		}
		warnings = append(warnings, verifyWalkEntry(path, d, absDir)...)
		return nil
	})
	if walkErr != nil {
		warnings = append(warnings, fmt.Sprintf("walk error in policy directory: %v", walkErr))
	}
	return warnings
}

// verifyDirEntry checks that dir exists, is not a symlink, and is a directory.
// Returns accumulated warnings and the FileInfo (nil if the directory is invalid).
func verifyDirEntry(dir string) ([]string, os.FileInfo) {
	info, err := os.Lstat(dir)
	if err != nil {
		return []string{fmt.Sprintf("cannot stat policy directory %q: %v", dir, err)}, nil
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return []string{fmt.Sprintf("policy directory %q is a symlink", dir)}, nil
	}
	if !info.IsDir() {
		return []string{fmt.Sprintf("policy path %q is not a directory", dir)}, nil
	}
	return nil, info
}

func checkDirPermissions(dir string, perm os.FileMode) []string {
	var warnings []string
	if perm&0o002 != 0 {
		warnings = append(warnings, fmt.Sprintf("policy directory %q is world-writable (%04o)", dir, perm))
	}
	if perm&0o020 != 0 {
		warnings = append(warnings, fmt.Sprintf("policy directory %q is group-writable (%04o)", dir, perm))
	}
	return warnings
}

// verifyWalkEntry flags symlinks that leave the policy directory and
// world-writable definition files.
func verifyWalkEntry(path string, d os.DirEntry, absDir string) []string {
	var warnings []string

	if d.Type()&os.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			return []string{fmt.Sprintf("symlink %q cannot be resolved: %v", path, err)}
		}
		absTarget, _ := filepath.Abs(target)
		if !strings.HasPrefix(absTarget, absDir+string(filepath.Separator)) && absTarget != absDir {
			warnings = append(warnings, fmt.Sprintf("symlink %q points outside policy directory (%s)", path, absTarget))
		}
	}

	if isDocument(path) && !d.IsDir() {
		fi, err := d.Info()
		if err != nil {
			return warnings
		}
		if fi.Mode().Perm()&0o002 != 0 {
			warnings = append(warnings, fmt.Sprintf("policy file %q is world-writable (%04o)", path, fi.Mode().Perm()))
		}
	}
	return warnings
}

func isDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
