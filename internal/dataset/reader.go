package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FormatForPath infers the serialization from the file extension.
// Anything that isn't .jsonl is treated as a JSON array.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return FormatJSONL
	}
	return FormatJSON
}

// ReadAll loads every sample from path, inferring the format from the
// extension.
func ReadAll(path string) ([]Sample, error) {
	if FormatForPath(path) == FormatJSONL {
		return readLines(path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var samples []Sample
	if err := json.Unmarshal(b, &samples); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return samples, nil
}

func readLines(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	defer f.Close()

	var samples []Sample
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var s Sample
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			return nil, fmt.Errorf("decode dataset %s line %d: %w", path, lineNo, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}
	return samples, nil
}

// NextID returns the ID the next appended sample should carry: one past
// the highest ID already present, or 1 for a fresh file.
func NextID(path string) (int, error) {
	samples, err := ReadAll(path)
	if err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return 1, nil
		}
		return 0, err
	}
	max := 0
	for _, s := range samples {
		if s.ID > max {
			max = s.ID
		}
	}
	return max + 1, nil
}
