package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/l3pu5/c565/pkg/c565"
)

const (
	envOutDir    = "C565_OUT_DIR"
	envImagesDir = "C565_IMAGES_DIR"
)

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

// resolveBakeOut picks the output path for bake. An explicit --out wins;
// otherwise the input's base name gets the .c565 extension inside outDir,
// $C565_OUT_DIR, or ./out, in that order.
func resolveBakeOut(inPath, outFlag, outDir string) (string, bool, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag != "" {
		outPath := filepath.Clean(outFlag)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return "", false, err
		}
		return outPath, false, nil
	}

	base := filepath.Base(filepath.Clean(inPath))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", true, fmt.Errorf("invalid input path: %q", inPath)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	outDir = strings.TrimSpace(outDir)
	if outDir == "" {
		outDir = strings.TrimSpace(os.Getenv(envOutDir))
	}
	if outDir == "" {
		outDir = filepath.Join(".", "out")
	}

	outPath := filepath.Join(outDir, base+c565.Ext)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", true, err
	}
	return outPath, true, nil
}

// resolveImagePath returns --file when set, otherwise discovers .c565 files
// in dir (or $C565_IMAGES_DIR) and asks the user to pick one when there is
// more than one.
func resolveImagePath(fileFlag, dir string, stdin io.Reader, stderr io.Writer) (string, error) {
	fileFlag = strings.TrimSpace(fileFlag)
	if fileFlag != "" {
		return filepath.Clean(fileFlag), nil
	}

	imagesDir := strings.TrimSpace(dir)
	if imagesDir == "" {
		imagesDir = strings.TrimSpace(os.Getenv(envImagesDir))
	}
	if imagesDir == "" {
		return "", fmt.Errorf("--file or --dir is required unless %s is set", envImagesDir)
	}

	images, err := discoverImages(imagesDir)
	if err != nil {
		return "", err
	}
	switch len(images) {
	case 0:
		return "", fmt.Errorf("no %s files found in %s", c565.Ext, imagesDir)
	case 1:
		_, _ = fmt.Fprintf(stderr, "c565: using %s\n", images[0])
		return images[0], nil
	default:
		if !stdinIsTTY() {
			return "", fmt.Errorf(
				"multiple images found in %s but stdin is not interactive; set --file",
				imagesDir,
			)
		}
		return selectImageInteractively(imagesDir, images, stdin, stderr)
	}
}

func discoverImages(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("images directory is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("images path is not a directory: %s", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	images := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), c565.Ext) {
			continue
		}
		images = append(images, filepath.Join(dir, e.Name()))
	}
	sort.Strings(images)
	return images, nil
}

func selectImageInteractively(imagesDir string, images []string, stdin io.Reader, stderr io.Writer) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("no images available in %s", imagesDir)
	}

	_, _ = fmt.Fprintf(stderr, "c565: select an image from %s\n", imagesDir)
	for i, m := range images {
		_, _ = fmt.Fprintf(stderr, "%d. %s\n", i+1, displayName(imagesDir, m))
	}

	reader := bufio.NewReader(stdin)
	for {
		_, _ = fmt.Fprintf(stderr, "c565: enter selection [1-%d]: ", len(images))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no selection provided on stdin; set --file")
			}
			continue
		}

		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 1 || idx > len(images) {
			_, _ = fmt.Fprintf(stderr, "c565: invalid selection %q\n", line)
			if errors.Is(err, io.EOF) {
				return "", errors.New("invalid selection provided on stdin; set --file")
			}
			continue
		}
		return images[idx-1], nil
	}
}

func displayName(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return filepath.Base(path)
	}
	return rel
}

func isTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
