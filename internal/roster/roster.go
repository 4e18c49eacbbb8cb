package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Roster holds the static list of valid student names loaded from
// students_list.csv (header: N°,Nom,Prénoms,Full_Name; only Full_Name is
// used). A missing file yields an empty roster rather than an error so the
// portal can run without the legacy name-keyed login path.
type Roster struct {
	names      []string
	normalized map[string]struct{}
}

// Load reads the roster CSV from path.
func Load(path string, logger *zap.Logger) (*Roster, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Roster{normalized: make(map[string]struct{})}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("student roster not found, name validation disabled", zap.String("path", path))
			return r, nil
		}
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	nameCol := -1
	for idx, col := range header {
		if col == "Full_Name" {
			nameCol = idx
			break
		}
	}
	if nameCol == -1 {
		return nil, fmt.Errorf("roster is missing column %q", "Full_Name")
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row: %w", err)
		}
		if len(row) <= nameCol {
			continue
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}
		r.names = append(r.names, name)
		r.normalized[normalize(name)] = struct{}{}
	}

	logger.Info("student roster loaded", zap.String("path", path), zap.Int("names", len(r.names)))
	return r, nil
}

// IsValidName reports whether the full name appears on the roster,
// insensitive to case and whitespace runs.
func (r *Roster) IsValidName(fullName string) bool {
	_, ok := r.normalized[normalize(fullName)]
	return ok
}

// AllNames returns the roster names in file order.
func (r *Roster) AllNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
