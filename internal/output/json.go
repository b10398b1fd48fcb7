package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rothcast/rothcast/internal/domain"
)

// WriteJSON renders a projection as indented JSON.
func WriteJSON(w io.Writer, p *domain.Projection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode projection: %w", err)
	}
	return nil
}

// WriteComparisonJSON renders a full comparison as indented JSON.
func WriteComparisonJSON(w io.Writer, result *domain.ComparisonResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode comparison: %w", err)
	}
	return nil
}
