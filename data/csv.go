// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/aclements/go-gg/table"
)

// ReadCSV parses a CSV dataset whose first record names the columns.
// Columns whose every value parses as a number become Number columns.
func ReadCSV(r io.Reader) (*Dataset, error) {
	recs, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("decoding dataset: missing CSV header")
	}
	return FromTable(table.TableFromStrings(recs[0], recs[1:], true))
}
