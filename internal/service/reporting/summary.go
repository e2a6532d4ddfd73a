package reporting

import (
	"time"

	"github.com/mamadbah2/checksheet/internal/domain/models"
)

// Line is one property of the summary with its latest check, if any.
type Line struct {
	PropertyID  int                `json:"propertyId"`
	Property    string             `json:"property"`
	Status      models.CheckStatus `json:"status"`
	Notes       string             `json:"notes"`
	DateChecked time.Time          `json:"dateChecked,omitempty"`
}

// Section groups the lines of one property category.
type Section struct {
	Category string `json:"category"`
	Lines    []Line `json:"lines"`
}

// Summary is the checksheet of one item in one container.
type Summary struct {
	UserID        int       `json:"userId"`
	ContainerCode string    `json:"containerCode"`
	ItemCode      string    `json:"itemCode"`
	PONumber      string    `json:"poNumber"`
	Sections      []Section `json:"sections"`
	Checked       int       `json:"checked"`
	Total         int       `json:"total"`
}

// BuildSummary keeps the newest check per property and groups the catalog by
// category. Categories appear in the order the catalog first mentions them.
func BuildSummary(userID int, containerCode string, item models.Item, props []models.Property, checks []models.ItemPropertyCheck) Summary {
	latest := models.LatestChecks(checks)

	sum := Summary{
		UserID:        userID,
		ContainerCode: containerCode,
		ItemCode:      item.ItemCode,
		PONumber:      item.PONumber(),
		Total:         len(props),
	}

	index := make(map[string]int)
	for _, prop := range props {
		line := Line{PropertyID: prop.ID, Property: prop.Name}
		if check, ok := models.FindByProperty(latest, prop.ID); ok {
			line.Status = check.Status
			line.Notes = check.Notes
			line.DateChecked = check.DateChecked
			if check.Status != "" {
				sum.Checked++
			}
		}

		pos, ok := index[prop.Category]
		if !ok {
			pos = len(sum.Sections)
			index[prop.Category] = pos
			sum.Sections = append(sum.Sections, Section{Category: prop.Category})
		}
		sum.Sections[pos].Lines = append(sum.Sections[pos].Lines, line)
	}
	return sum
}

// Rows flattens the summary into spreadsheet rows.
func (s Summary) Rows(exportedAt time.Time) [][]interface{} {
	var rows [][]interface{}
	for _, section := range s.Sections {
		for _, line := range section.Lines {
			checked := ""
			if !line.DateChecked.IsZero() {
				checked = line.DateChecked.UTC().Format(time.RFC3339)
			}
			rows = append(rows, []interface{}{
				exportedAt.UTC().Format(time.RFC3339),
				s.ContainerCode,
				s.PONumber,
				s.ItemCode,
				section.Category,
				line.Property,
				string(line.Status),
				line.Notes,
				checked,
			})
		}
	}
	return rows
}
