// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/aclements/go-markres/data"
	"github.com/aclements/go-markres/spec"
)

// readFile reads path, or stdin if path is "-".
func readFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadMarks reads the marks of specPath and binds those without data to
// the dataset in dataPath, if given.
func loadMarks(specPath, dataPath string, stdin io.Reader) ([]spec.Mark, error) {
	b, err := readFile(specPath, stdin)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(specPath)) {
	case ".yaml", ".yml":
		if b, err = spec.YAMLToJSON(b); err != nil {
			return nil, fmt.Errorf("%s: %w", specPath, err)
		}
	}
	marks, err := spec.UnmarshalMarks(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", specPath, err)
	}
	if dataPath == "" {
		return marks, nil
	}
	ds, err := loadDataset(dataPath, stdin)
	if err != nil {
		return nil, err
	}
	for i := range marks {
		if marks[i].Data == nil {
			marks[i] = marks[i].WithData(ds)
		}
	}
	return marks, nil
}

// loadDataset reads the dataset in path: CSV given a .csv extension,
// otherwise a JSON array of objects.
func loadDataset(path string, stdin io.Reader) (*data.Dataset, error) {
	b, err := readFile(path, stdin)
	if err != nil {
		return nil, err
	}
	var ds *data.Dataset
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		ds, err = data.ReadCSV(bytes.NewReader(b))
	} else {
		ds, err = data.Unmarshal(b)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
