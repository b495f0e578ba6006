package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"shelfsync/internal/classify"
	"shelfsync/internal/reconcile"
	"shelfsync/internal/resolve"
)

// MatchRecord is the reviewable outcome for one driving entity.
type MatchRecord struct {
	Tier    classify.Tier `json:"tier"`
	AStore  string        `json:"a_store"`
	APath   string        `json:"a_path"`
	AArtist string        `json:"a_artist"`
	ATitle  string        `json:"a_title"`
	ACount  int           `json:"a_count"`
	BStore  string        `json:"b_store,omitempty"`
	BKey    string        `json:"b_key,omitempty"`
	BPath   string        `json:"b_path,omitempty"`
	BCount  int           `json:"b_count,omitempty"`

	NameExact       bool     `json:"name_exact"`
	NameFuzzy       bool     `json:"name_fuzzy"`
	NameOnly        bool     `json:"name_only,omitempty"`
	OverlapCount    int      `json:"overlap_count"`
	AOnly           int      `json:"a_only"`
	BOnly           int      `json:"b_only"`
	MatchPct        float64  `json:"match_pct"`
	CountDiffPct    float64  `json:"count_diff_pct"`
	MetadataPresent bool     `json:"metadata_present"`
	MetadataID      string   `json:"metadata_id,omitempty"`
	Rationale       string   `json:"rationale"`
	Alternatives    int      `json:"alternatives,omitempty"`
	AOnlyItems      []string `json:"a_only_items,omitempty"`
	BOnlyItems      []string `json:"b_only_items,omitempty"`
}

// TargetRecord is a B entity no driving entity claimed.
type TargetRecord struct {
	Store string `json:"store"`
	Key   string `json:"key"`
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// Summary holds per-tier counts and totals.
type Summary struct {
	Counts           map[string]int `json:"counts"`
	Total            int            `json:"total"`
	Assigned         int            `json:"assigned"`
	NeedsReview      int            `json:"needs_review"`
	UnmatchedTargets int            `json:"unmatched_targets"`
}

// MatchReport is the serialized form of one reconcile.Result.
type MatchReport struct {
	RunID            string                   `json:"run_id"`
	Pair             string                   `json:"pair"`
	RuleSet          string                   `json:"rule_set"`
	GeneratedAt      time.Time                `json:"generated_at"`
	Tiers            map[string][]MatchRecord `json:"tiers"`
	Summary          Summary                  `json:"summary"`
	UnmatchedTargets []TargetRecord           `json:"unmatched_targets"`
	ScanErrors       map[string]string        `json:"scan_errors,omitempty"`
}

// BuildMatch converts a result into a report. Every tier key is present,
// with an empty list when no entity landed there.
func BuildMatch(res *reconcile.Result) *MatchReport {
	rep := &MatchReport{
		RunID:            res.RunID,
		Pair:             res.Pair.String(),
		RuleSet:          res.RuleSet,
		GeneratedAt:      res.FinishedAt,
		Tiers:            make(map[string][]MatchRecord, len(classify.Tiers())),
		UnmatchedTargets: []TargetRecord{},
		Summary:          Summary{Counts: make(map[string]int, len(classify.Tiers()))},
	}
	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = time.Now().UTC()
	}
	for _, tier := range classify.Tiers() {
		rep.Tiers[tier.String()] = []MatchRecord{}
		rep.Summary.Counts[tier.String()] = 0
	}

	for _, asg := range res.Assignments {
		rec := matchRecord(res, asg)
		rep.Tiers[rec.Tier.String()] = append(rep.Tiers[rec.Tier.String()], rec)
		rep.Summary.Counts[rec.Tier.String()]++
		rep.Summary.Total++
		if asg.Assigned() {
			rep.Summary.Assigned++
		}
		if asg.Tier.NeedsReview() {
			rep.Summary.NeedsReview++
		}
	}
	for _, recs := range rep.Tiers {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].APath < recs[j].APath })
	}

	for _, ref := range res.Unmatched {
		t := TargetRecord{Store: string(ref.Store), Key: ref.Key}
		if e := res.Entity(ref); e != nil {
			t.Path = e.RawPath
			t.Count = e.ItemCount
		}
		rep.UnmatchedTargets = append(rep.UnmatchedTargets, t)
	}
	rep.Summary.UnmatchedTargets = len(rep.UnmatchedTargets)

	for store, err := range res.ScanErrors {
		if rep.ScanErrors == nil {
			rep.ScanErrors = make(map[string]string)
		}
		rep.ScanErrors[string(store)] = err.Error()
	}
	return rep
}

func matchRecord(res *reconcile.Result, asg resolve.Assignment) MatchRecord {
	rec := MatchRecord{
		Tier:         asg.Tier,
		AStore:       string(asg.A.Store),
		APath:        asg.A.Key,
		Rationale:    asg.Rationale,
		Alternatives: asg.Alternatives,
	}
	if a := res.Entity(asg.A); a != nil {
		rec.APath = a.RawPath
		rec.AArtist = a.Artist
		rec.ATitle = a.Title
		rec.ACount = a.ItemCount
	}
	if asg.B != nil {
		rec.BStore = string(asg.B.Store)
		rec.BKey = asg.B.Key
		rec.BPath = asg.B.Key
		if b := res.Entity(*asg.B); b != nil {
			rec.BPath = b.RawPath
			rec.BCount = b.ItemCount
		}
	}
	if c := asg.Candidate; c != nil {
		rec.NameExact = c.NameExact
		rec.NameFuzzy = c.NameFuzzy
		rec.NameOnly = c.NameOnly
		rec.OverlapCount = c.OverlapCount
		rec.AOnly = c.AOnly
		rec.BOnly = c.BOnly
		rec.MatchPct = c.MatchPct
		rec.CountDiffPct = c.CountDiffPct
		rec.MetadataPresent = c.MetadataPresent
		rec.MetadataID = c.MetadataID
		rec.AOnlyItems = c.AOnlyItems
		rec.BOnlyItems = c.BOnlyItems
	}
	return rec
}

// Records returns every record, best tier first, then by driving path.
func (r *MatchReport) Records() []MatchRecord {
	var out []MatchRecord
	for _, tier := range classify.Tiers() {
		out = append(out, r.Tiers[tier.String()]...)
	}
	return out
}

// WriteJSON writes the report as indented JSON.
func (r *MatchReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

var matchHeader = []string{
	"tier", "a_store", "a_path", "a_artist", "a_title", "a_count",
	"b_store", "b_key", "b_path", "b_count",
	"name_exact", "name_fuzzy", "name_only", "overlap_count", "a_only", "b_only",
	"match_pct", "count_diff_pct", "metadata_present", "metadata_id",
	"rationale", "alternatives", "a_only_items", "b_only_items",
}

// WriteCSV writes one row per driving entity in Records order.
func (r *MatchReport) WriteCSV(w io.Writer) error {
	rows := make([][]string, 0, r.Summary.Total)
	for _, rec := range r.Records() {
		rows = append(rows, []string{
			rec.Tier.String(), rec.AStore, rec.APath, rec.AArtist, rec.ATitle, itoa(rec.ACount),
			rec.BStore, rec.BKey, rec.BPath, itoa(rec.BCount),
			btoa(rec.NameExact), btoa(rec.NameFuzzy), btoa(rec.NameOnly),
			itoa(rec.OverlapCount), itoa(rec.AOnly), itoa(rec.BOnly),
			pct(rec.MatchPct), pct(rec.CountDiffPct), btoa(rec.MetadataPresent), rec.MetadataID,
			rec.Rationale, itoa(rec.Alternatives),
			strings.Join(rec.AOnlyItems, "|"), strings.Join(rec.BOnlyItems, "|"),
		})
	}
	return writeCSV(w, matchHeader, rows)
}

func pct(v float64) string { return fmt.Sprintf("%.4f", v) }
