package schema

// ChartType names a visualization a result can be drawn as.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
)

// ChartTypes lists the charts that fit an x axis of type x against a y
// axis of type y, sorted. The y axis must be numeric; otherwise no chart
// fits and the result is nil.
func ChartTypes(x, y SemanticType) []ChartType {
	if y != Numeric {
		return nil
	}
	switch x {
	case Categorical:
		return []ChartType{ChartBar}
	case Date:
		return []ChartType{ChartBar, ChartLine}
	case Numeric:
		return []ChartType{ChartLine}
	default:
		return nil
	}
}

// ChartSuggestion pairs result columns with the charts that fit them.
type ChartSuggestion struct {
	X     string      `json:"x"`
	Y     string      `json:"y"`
	Types []ChartType `json:"types"`
}

// Title is the "Y by X" caption of the chart.
func (c ChartSuggestion) Title() string {
	return c.Y + " by " + c.X
}

// SuggestChart picks axes from result columns: the first numeric column is
// Y and the first non-numeric column is X. When every column is numeric the
// first two are X and Y. It reports false when no chart fits.
func SuggestChart(cols []Column) (ChartSuggestion, bool) {
	x, y := -1, -1
	for i, c := range cols {
		switch {
		case c.SemanticType == Numeric && y < 0:
			y = i
		case c.SemanticType != Numeric && x < 0:
			x = i
		}
	}
	if y < 0 {
		return ChartSuggestion{}, false
	}
	if x < 0 {
		if len(cols) < 2 {
			return ChartSuggestion{}, false
		}
		x, y = 0, 1
	}

	types := ChartTypes(cols[x].SemanticType, cols[y].SemanticType)
	if len(types) == 0 {
		return ChartSuggestion{}, false
	}
	return ChartSuggestion{X: cols[x].Name, Y: cols[y].Name, Types: types}, true
}
