package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/arcanaland/gridsmith/internal/card"
)

// ErrImportShape means the document is neither an array of records nor an
// object with a "cards" array.
var ErrImportShape = errors.New("import document must be an array or an object with a cards array")

// ParseDocument splits an import document into raw records. Elements that
// are not objects come back as nil records so they fail individually.
func ParseDocument(data []byte) ([]map[string]any, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrImportShape)
	}
	doc := gjson.ParseBytes(data)
	var list gjson.Result
	switch {
	case doc.IsArray():
		list = doc
	case doc.IsObject() && doc.Get("cards").IsArray():
		list = doc.Get("cards")
	default:
		return nil, ErrImportShape
	}

	items := list.Array()
	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			records = append(records, nil)
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(item.Raw), &rec); err != nil {
			records = append(records, nil)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Export writes cards as an indented JSON array using the canonical field
// names in card field order, the shape ParseDocument reads back.
func Export(w io.Writer, cards []card.Card) error {
	docs := make([]card.Card, 0, len(cards))
	for _, c := range cards {
		docs = append(docs, c.Clone())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func ExportFile(path string, cards []card.Card) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := Export(f, cards); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
