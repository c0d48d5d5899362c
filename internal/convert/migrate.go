package convert

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	apperrors "bnvault/internal/errors"
	"bnvault/internal/infrastructure"
	"bnvault/internal/schema"
)

// legacyRenames are column renames carried over from earlier output
// revisions, applied on top of the case normalization.
var legacyRenames = map[string]string{
	"Quantity":     "Qty",
	"TransactTime": "TxnTime",
}

// migrateColumnName maps a historical column name to the current target
// convention.
func migrateColumnName(name string) string {
	renamed := schema.PascalCase(name)
	if legacy, ok := legacyRenames[renamed]; ok {
		renamed = legacy
	}
	return renamed
}

// MigrateFile renames the columns of one previously produced Parquet file
// to the target convention and rewrites it in place. Types and shape are
// taken verbatim from the file; nothing is re-derived. A file whose columns
// already use the target convention is left untouched, so running the
// migration twice is a no-op. Returns whether the file was rewritten.
func MigrateFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return false, apperrors.NewStorageError(fmt.Sprintf("%s is not a valid parquet file", path), err)
	}

	oldSchema := pf.Schema()
	fields := oldSchema.Fields()

	renamed := make([]string, len(fields))
	changed := false
	for i, field := range fields {
		renamed[i] = migrateColumnName(field.Name())
		if renamed[i] != field.Name() {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	group := parquet.Group{}
	for i, field := range fields {
		if _, taken := group[renamed[i]]; taken {
			return false, apperrors.NewStorageError(
				fmt.Sprintf("renaming %s collides on column %q", path, renamed[i]), nil)
		}
		group[renamed[i]] = field
	}
	newSchema := parquet.NewSchema(oldSchema.Name(), group)

	// Renaming can reorder the schema, so every value's column index is
	// remapped from the old leaf order to the new one.
	sortedNew := append([]string(nil), renamed...)
	sort.Strings(sortedNew)
	newIndex := make([]int, len(fields))
	for i, name := range renamed {
		newIndex[i] = sort.SearchStrings(sortedNew, name)
	}

	rows, err := readAllRows(pf)
	if err != nil {
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to read rows from %s", path), err)
	}
	for _, row := range rows {
		for i, value := range row {
			row[i] = value.Level(value.RepetitionLevel(), value.DefinitionLevel(), newIndex[value.Column()])
		}
		sort.Slice(row, func(i, j int) bool { return row[i].Column() < row[j].Column() })
	}

	tmp := path + ".migrating"
	out, err := os.Create(tmp)
	if err != nil {
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to create %s", tmp), err)
	}
	w := parquet.NewWriter(out, newSchema)
	if _, err := w.WriteRows(rows); err != nil {
		out.Close()
		os.Remove(tmp)
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to write %s", tmp), err)
	}
	if err := w.Close(); err != nil {
		out.Close()
		os.Remove(tmp)
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to finalize %s", tmp), err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to close %s", tmp), err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to replace %s", path), err)
	}
	return true, nil
}

// readAllRows materializes every row of the file. Rows are cloned out of
// the reader's buffer so they stay valid after the reader advances.
func readAllRows(pf *parquet.File) ([]parquet.Row, error) {
	var all []parquet.Row
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		buf := make([]parquet.Row, 128)
		for {
			n, err := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				all = append(all, buf[i].Clone())
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, err
			}
			if n == 0 {
				break
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return all, nil
}

// MigrateTree walks root for Parquet files and migrates each in place.
// Per-file failures are logged and counted; they do not stop the walk.
func MigrateTree(ctx context.Context, root string) (migrated, failed int, err error) {
	logger := infrastructure.LoggerWithContext(ctx)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".parquet") {
			return nil
		}

		rewritten, err := MigrateFile(path)
		if err != nil {
			failed++
			logger.Error("Failed to migrate file",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if rewritten {
			migrated++
			logger.Info("Migrated file", slog.String("path", path))
		} else {
			logger.Debug("File already uses target naming", slog.String("path", path))
		}
		return nil
	})
	if walkErr != nil {
		return migrated, failed, apperrors.NewStorageError(fmt.Sprintf("failed to walk %s", root), walkErr)
	}
	return migrated, failed, nil
}
