package baseline

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/KaramelBytes/rentlens-cli/internal/parser"
)

var (
	// ErrNoFragments is returned when the baseline directory holds no recognized files.
	ErrNoFragments = eris.New("no baseline fragments found")
	// ErrMissingColumn is returned when a fragment lacks a required column.
	ErrMissingColumn = eris.New("missing required column")
	// ErrParse is returned when a numeric or date field cannot be parsed.
	ErrParse = eris.New("unparseable value")
)

var (
	baselineColumns = []string{
		"AssetName", "FloorPlanGroupName", "RecommendationDate", "InputtedRent",
		"recc_rate", "recc_rate_lower", "recc_rate_upper", "User",
	}
	assetColumns = []string{"AssetName", "MarketName", "AcquisitionDate"}
)

// Options controls where the inputs live and how rows are filtered.
type Options struct {
	BaselineDir   string
	AssetFile     string
	ExcludedUsers []string
	// Tolerance is the currency amount under which a rent counts as accepted.
	Tolerance float64
	// Sheet selects the worksheet for XLSX baseline fragments. An XLSX asset
	// file is always read from its first sheet.
	Sheet string
}

// DefaultTolerance is the acceptance tolerance in currency units.
const DefaultTolerance = 1.0

// Load reads, filters, joins and derives the prepared dataset.
func Load(opt Options) (*Dataset, error) {
	joined, stats, err := LoadJoined(opt)
	if err != nil {
		return nil, err
	}
	tol := opt.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Dataset{Records: Derive(joined, tol), Stats: stats}, nil
}

// LoadJoined reads every recognized fragment in opt.BaselineDir, concatenates
// them without deduplication, drops rows with a null recc_rate or an excluded
// user, parses the remaining rows and inner-joins them on AssetName.
func LoadJoined(opt Options) ([]JoinedRecord, LoadStats, error) {
	var stats LoadStats
	log := zap.L().With(zap.String("baseline_dir", opt.BaselineDir))

	raws, sources, fragments, err := readBaseline(opt)
	if err != nil {
		return nil, stats, err
	}
	stats.Fragments = fragments
	stats.RawRows = len(raws)

	assets, err := readAssets(opt)
	if err != nil {
		return nil, stats, err
	}

	if len(opt.ExcludedUsers) == 0 {
		log.Info("no excluded users configured; every user's recommendations are kept")
	}
	excluded := make(map[string]struct{}, len(opt.ExcludedUsers))
	for _, u := range opt.ExcludedUsers {
		excluded[strings.TrimSpace(u)] = struct{}{}
	}

	unmatched := map[string]struct{}{}
	var out []JoinedRecord
	for i, raw := range raws {
		if isNull(raw.ReccRate) {
			stats.DroppedNullRate++
			continue
		}
		if _, ok := excluded[strings.TrimSpace(raw.User)]; ok {
			stats.DroppedExcludedUser++
			continue
		}
		rec, err := parseRaw(raw)
		if err != nil {
			return nil, stats, eris.Wrapf(err, "baseline: %s row %d", sources[i].file, sources[i].row)
		}
		rec.Source = sources[i].file

		matches, ok := assets[raw.AssetName]
		if !ok {
			stats.DroppedUnmatchedAsset++
			unmatched[raw.AssetName] = struct{}{}
			continue
		}
		for _, a := range matches {
			j := rec
			j.MarketName = a.MarketName
			j.AcquisitionDate = a.acquired
			out = append(out, j)
		}
	}
	stats.Prepared = len(out)
	for name := range unmatched {
		stats.UnmatchedAssets = append(stats.UnmatchedAssets, name)
	}
	sort.Strings(stats.UnmatchedAssets)

	log.Info("baseline loaded",
		zap.Int("fragments", stats.Fragments),
		zap.Int("raw_rows", stats.RawRows),
		zap.Int("dropped_null_rate", stats.DroppedNullRate),
		zap.Int("dropped_excluded_user", stats.DroppedExcludedUser),
		zap.Int("dropped_unmatched_asset", stats.DroppedUnmatchedAsset),
		zap.Int("prepared", stats.Prepared),
	)
	if stats.DroppedUnmatchedAsset > 0 {
		sample := stats.UnmatchedAssets
		if len(sample) > 5 {
			sample = sample[:5]
		}
		log.Warn("rows dropped: asset not in registry",
			zap.Int("rows", stats.DroppedUnmatchedAsset),
			zap.Int("assets", len(stats.UnmatchedAssets)),
			zap.Strings("sample", sample),
		)
	}
	return out, stats, nil
}

type rowSource struct {
	file string
	row  int // 1-based line number, header is line 1
}

type assetRow struct {
	Asset
	acquired time.Time
}

func readBaseline(opt Options) ([]RawRecord, []rowSource, int, error) {
	entries, err := os.ReadDir(opt.BaselineDir)
	if err != nil {
		return nil, nil, 0, eris.Wrapf(err, "baseline: read dir %s", opt.BaselineDir)
	}
	var (
		raws      []RawRecord
		sources   []rowSource
		fragments int
	)
	for _, e := range entries {
		if e.IsDir() || !parser.Recognized(e.Name()) {
			zap.L().Debug("skipping non-fragment file", zap.String("file", e.Name()))
			continue
		}
		path := filepath.Join(opt.BaselineDir, e.Name())
		var recs []RawRecord
		if err := decodeFile(path, opt.Sheet, baselineColumns, &recs); err != nil {
			return nil, nil, 0, err
		}
		for i, r := range recs {
			raws = append(raws, r)
			sources = append(sources, rowSource{file: e.Name(), row: i + 2})
		}
		fragments++
	}
	if fragments == 0 {
		return nil, nil, 0, eris.Wrapf(ErrNoFragments, "baseline: %s", opt.BaselineDir)
	}
	return raws, sources, fragments, nil
}

func readAssets(opt Options) (map[string][]assetRow, error) {
	var rows []Asset
	// Sheet names baseline worksheets; the registry is read from its first sheet.
	if err := decodeFile(opt.AssetFile, "", assetColumns, &rows); err != nil {
		return nil, err
	}
	out := make(map[string][]assetRow, len(rows))
	for i, a := range rows {
		acquired, err := parseDate(a.AcquisitionDate)
		if err != nil {
			return nil, eris.Wrapf(err, "baseline: %s row %d AcquisitionDate", filepath.Base(opt.AssetFile), i+2)
		}
		out[a.AssetName] = append(out[a.AssetName], assetRow{Asset: a, acquired: acquired})
	}
	return out, nil
}

// decodeFile parses one fragment and decodes its rows into dst (a pointer to a
// slice of structs tagged with csv column names).
func decodeFile[T any](path, sheet string, required []string, dst *[]T) error {
	frag, err := parser.ParseFile(path, parser.Options{Sheet: sheet})
	if err != nil {
		return eris.Wrap(err, "baseline: parse fragment")
	}
	have := make(map[string]struct{}, len(frag.Header))
	for _, h := range frag.Header {
		have[h] = struct{}{}
	}
	for _, col := range required {
		if _, ok := have[col]; !ok {
			return eris.Wrapf(ErrMissingColumn, "baseline: %s has no %q column", frag.Name, col)
		}
	}

	dec, err := csvutil.NewDecoder(&fragmentReader{frag: frag})
	if err != nil {
		return eris.Wrapf(err, "baseline: decode header of %s", frag.Name)
	}
	for {
		var v T
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return eris.Wrapf(err, "baseline: decode %s", frag.Name)
		}
		*dst = append(*dst, v)
	}
	return nil
}

// fragmentReader feeds a parsed fragment to csvutil, header first, with every
// row padded or truncated to the header width.
type fragmentReader struct {
	frag *parser.Fragment
	next int
}

func (r *fragmentReader) Read() ([]string, error) {
	if r.next == 0 {
		r.next++
		return r.frag.Header, nil
	}
	i := r.next - 1
	if i >= len(r.frag.Rows) {
		return nil, io.EOF
	}
	r.next++
	row := r.frag.Rows[i]
	width := len(r.frag.Header)
	if len(row) == width {
		return row, nil
	}
	fixed := make([]string, width)
	copy(fixed, row)
	return fixed, nil
}

func parseRaw(raw RawRecord) (JoinedRecord, error) {
	rec := JoinedRecord{
		AssetName:          raw.AssetName,
		FloorPlanGroupName: raw.FloorPlanGroupName,
		User:               raw.User,
	}
	var err error
	if rec.InputtedRent, err = ParseAmount(raw.InputtedRent); err != nil {
		return rec, eris.Wrap(err, "InputtedRent")
	}
	if rec.ReccRate, err = ParseAmount(raw.ReccRate); err != nil {
		return rec, eris.Wrap(err, "recc_rate")
	}
	if rec.ReccRateLower, err = ParseAmount(raw.ReccRateLower); err != nil {
		return rec, eris.Wrap(err, "recc_rate_lower")
	}
	if rec.ReccRateUpper, err = ParseAmount(raw.ReccRateUpper); err != nil {
		return rec, eris.Wrap(err, "recc_rate_upper")
	}
	if rec.RecommendationDate, err = parseDate(raw.RecommendationDate); err != nil {
		return rec, eris.Wrap(err, "RecommendationDate")
	}
	return rec, nil
}

// ParseAmount parses a currency amount such as "1,234.50" or "$980".
// Null tokens yield NaN; anything else that is not a number is ErrParse.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return math.NaN(), nil
	}
	clean := strings.NewReplacer(",", "", "$", "").Replace(s)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, eris.Wrapf(ErrParse, "amount %q", s)
	}
	return d.InexactFloat64(), nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Wrapf(ErrParse, "date %q", s)
}

func isNull(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "n/a", "nan", "null", "none":
		return true
	}
	return false
}
