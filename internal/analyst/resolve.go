package analyst

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

// minSubstringMatch is the shortest common-substring overlap that still
// counts as a column mention when the full column name is absent.
const minSubstringMatch = 3

// columnMatch scores how well a column name matches the question text.
type columnMatch struct {
	ref      model.ColumnRef
	exact    bool // full normalized column name appears in the question
	matchLen int
	pos      int // first position of the match in the normalized question
}

// ResolveAll matches the question text and intent against the column profile
// to select the metric column and, when the intent requires them, a dimension
// or time column. It never guesses silently: when no candidate column
// matches, it returns a structured resolution error.
func ResolveAll(question string, profile *model.DatasetProfile, intent model.Intent) (*model.MetricResolution, *model.AnalysisError) {
	matches := matchColumns(question, profile)

	switch {
	case intent.NeedsTimeColumn():
		return resolveTimeSeries(matches, profile)
	case intent.NeedsDimension():
		return resolveWithDimension(matches, profile)
	default:
		return resolveMetricOnly(matches, profile)
	}
}

func resolveMetricOnly(matches []columnMatch, profile *model.DatasetProfile) (*model.MetricResolution, *model.AnalysisError) {
	if len(matches) == 0 {
		return nil, noMetricError(profile)
	}
	return &model.MetricResolution{Metric: matches[0].ref}, nil
}

func resolveWithDimension(matches []columnMatch, profile *model.DatasetProfile) (*model.MetricResolution, *model.AnalysisError) {
	if len(matches) == 0 {
		return nil, noMetricError(profile)
	}

	// A breakdown averages the metric over each group, so the metric slot
	// prefers a number-typed candidate even when a longer categorical name
	// outranks it. Match rank alone would hand the metric slot to the
	// grouping column whenever its name is the longer one.
	metricIdx := 0
	for i, m := range matches {
		if m.ref.Profile.SemanticType == model.SemanticNumber {
			metricIdx = i
			break
		}
	}
	metric := matches[metricIdx]

	var dimension *model.ColumnRef
	for i, m := range matches {
		if i == metricIdx {
			continue
		}
		st := m.ref.Profile.SemanticType
		if st == model.SemanticString || st == model.SemanticDate {
			ref := m.ref
			dimension = &ref
			break
		}
	}
	if dimension == nil {
		return nil, model.NewAnalysisError(model.CodeNoDimensionMatch,
			"no grouping column matched the question; name a categorical column to break the metric down by")
	}

	return &model.MetricResolution{Metric: metric.ref, Dimension: dimension}, nil
}

func resolveTimeSeries(matches []columnMatch, profile *model.DatasetProfile) (*model.MetricResolution, *model.AnalysisError) {
	var metric *model.ColumnRef
	var timeCol *model.ColumnRef

	for _, m := range matches {
		if m.ref.Profile.SemanticType == model.SemanticDate {
			if timeCol == nil {
				ref := m.ref
				timeCol = &ref
			}
			continue
		}
		if metric == nil {
			ref := m.ref
			metric = &ref
		}
	}

	if metric == nil {
		return nil, noMetricError(profile)
	}

	// No date column named in the question: fall back to the dataset's sole
	// date column, if there is exactly one.
	if timeCol == nil {
		var dateCols []model.ColumnRef
		for i := range profile.Columns {
			if profile.Columns[i].SemanticType == model.SemanticDate {
				dateCols = append(dateCols, model.ColumnRef{
					ColumnName: profile.Columns[i].Name,
					Profile:    &profile.Columns[i],
				})
			}
		}
		if len(dateCols) == 1 {
			timeCol = &dateCols[0]
		}
	}
	if timeCol == nil {
		return nil, model.NewAnalysisError(model.CodeNoTimeColumn,
			"no date column matched the question; a trend needs a column with calendar dates")
	}

	return &model.MetricResolution{Metric: *metric, TimeColumn: timeCol}, nil
}

// matchColumns finds every column mentioned in the question, ranked by
// exact-name match first, then longest common substring, then position.
func matchColumns(question string, profile *model.DatasetProfile) []columnMatch {
	normQ := normalizeText(question)

	var matches []columnMatch
	for i := range profile.Columns {
		col := &profile.Columns[i]
		normName := normalizeText(col.Name)
		if normName == "" {
			continue
		}

		ref := model.ColumnRef{ColumnName: col.Name, Profile: col}

		if pos := strings.Index(normQ, normName); pos >= 0 {
			matches = append(matches, columnMatch{ref: ref, exact: true, matchLen: len(normName), pos: pos})
			continue
		}

		if l, pos := longestCommonSubstring(normQ, normName); l >= minSubstringMatch && l*2 >= len(normName) {
			matches = append(matches, columnMatch{ref: ref, matchLen: l, pos: pos})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].exact != matches[j].exact {
			return matches[i].exact
		}
		if matches[i].matchLen != matches[j].matchLen {
			return matches[i].matchLen > matches[j].matchLen
		}
		return matches[i].pos < matches[j].pos
	})

	if len(matches) > 0 {
		zap.L().Debug("resolve: column candidates ranked",
			zap.String("best", matches[0].ref.ColumnName),
			zap.Int("candidates", len(matches)),
		)
	}

	return matches
}

// normalizeText lowercases and strips underscores and whitespace so that
// "Signup Date", "signup_date", and "signupdate" all compare equal.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r == '_' || r == ' ' || r == '\t' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// longestCommonSubstring returns the length and position (in a) of the
// longest substring shared by a and b.
func longestCommonSubstring(a, b string) (int, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	best, bestPos := 0, 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
					bestPos = i - curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return best, bestPos
}

func noMetricError(profile *model.DatasetProfile) *model.AnalysisError {
	names := make([]string, 0, len(profile.Columns))
	for _, c := range profile.Columns {
		names = append(names, c.Name)
	}
	return model.NewAnalysisError(model.CodeNoMetricMatch,
		fmt.Sprintf("no column in the dataset matched the question; available columns: %s", strings.Join(names, ", ")))
}
